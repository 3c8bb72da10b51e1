package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	plansJSON bool

	switchSubscription string
	switchPlan         string
	switchCycle        string
	switchType         string
	switchMethod       string
	switchPaid         string
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List the plan catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListPlansHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Plan catalog requires database connection.")
			return nil
		}

		plans := app.ListPlansHandler.Handle(cmd.Context())
		if plansJSON {
			return writeJSON(cmd.OutOrStdout(), plans)
		}

		out := cmd.OutOrStdout()
		for _, p := range plans {
			fmt.Fprintf(out, "%s (%s), up to %d professionals\n", p.ID, p.DisplayName, p.MaxProfessionals)
			cycles := make([]string, 0, len(p.Prices))
			for cycle := range p.Prices {
				cycles = append(cycles, cycle)
			}
			sort.Strings(cycles)
			for _, cycle := range cycles {
				fmt.Fprintf(out, "  %-13s %s\n", cycle, p.Prices[cycle])
			}
			if len(p.Features) > 0 {
				fmt.Fprintf(out, "  Features: %s\n", strings.Join(p.Features, ", "))
			}
		}
		return nil
	},
}

var switchPlanCmd = &cobra.Command{
	Use:   "switch-plan",
	Short: "Change the plan, cycle or billing type of a subscription",
	Long: `Change a subscription's plan. Passing --method and --paid together records
an immediate payment; leaving both out only announces the new plan.

Examples:
  trimly billing switch-plan --subscription 2f1c... --plan premium --cycle monthly --type prepaid \
    --method pix --paid 129.90
  trimly billing switch-plan --subscription 2f1c... --plan basic --cycle annually --type postpaid`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SwitchPlanHandler == nil {
			return errNoDatabase
		}

		subID, err := parseID("subscription", switchSubscription)
		if err != nil {
			return err
		}

		var paid *decimal.Decimal
		if switchPaid != "" {
			amount, err := parseAmount("paid", switchPaid)
			if err != nil {
				return err
			}
			paid = &amount
		}

		sub, err := app.SwitchPlanHandler.Handle(cmd.Context(), commands.SwitchPlanCommand{
			ActorID:        app.CurrentActorID,
			SubscriptionID: subID,
			Plan:           switchPlan,
			BillingCycle:   switchCycle,
			BillingType:    switchType,
			PaymentMethod:  switchMethod,
			PaidAmount:     paid,
		})
		if err != nil {
			return fmt.Errorf("failed to switch plan: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s now on %s %s %s (%s), ends %s\n",
			sub.ID(), sub.Plan(), sub.BillingCycle(), sub.BillingType(), sub.Status(), formatDate(sub.EndDate()))
		return nil
	},
}

func init() {
	plansCmd.Flags().BoolVar(&plansJSON, "json", false, "output as JSON")

	switchPlanCmd.Flags().StringVar(&switchSubscription, "subscription", "", "subscription ID")
	switchPlanCmd.Flags().StringVar(&switchPlan, "plan", "", "new plan (BASIC, PREMIUM, EXCLUSIVE)")
	switchPlanCmd.Flags().StringVar(&switchCycle, "cycle", "MONTHLY", "billing cycle")
	switchPlanCmd.Flags().StringVar(&switchType, "type", "PREPAID", "billing type")
	switchPlanCmd.Flags().StringVar(&switchMethod, "method", "", "payment method for an immediate payment")
	switchPlanCmd.Flags().StringVar(&switchPaid, "paid", "", "amount paid now")
}
