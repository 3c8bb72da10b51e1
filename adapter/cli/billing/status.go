package billing

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	"github.com/felixgeelhaar/trimly/internal/billing/application/queries"
	"github.com/spf13/cobra"
)

var (
	statusSubscription string
	statusTenant       string
	statusJSON         bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show subscription status",
	Long: `Show a subscription by its ID or by the tenant that owns it.

Examples:
  trimly billing status --subscription 2f1c...
  trimly billing status --tenant 8a0d... --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetSubscriptionHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Billing status requires database connection.")
			return nil
		}

		var query queries.GetSubscriptionQuery
		switch {
		case statusSubscription != "":
			id, err := parseID("subscription", statusSubscription)
			if err != nil {
				return err
			}
			query.SubscriptionID = id
		case statusTenant != "":
			id, err := parseID("tenant", statusTenant)
			if err != nil {
				return err
			}
			query.TenantID = id
		default:
			return errors.New("either --subscription or --tenant is required")
		}

		sub, err := app.GetSubscriptionHandler.Handle(cmd.Context(), query)
		if err != nil {
			return err
		}

		if statusJSON {
			return writeJSON(cmd.OutOrStdout(), sub)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Subscription: %s %s (%s)\n", sub.Plan, sub.BillingCycle, sub.Status)
		fmt.Fprintf(out, "  ID:        %s\n", sub.ID)
		fmt.Fprintf(out, "  Tenant:    %s\n", sub.TenantID)
		fmt.Fprintf(out, "  Billing:   %s\n", sub.BillingType)
		fmt.Fprintf(out, "  Price:     %s\n", sub.Price)
		fmt.Fprintf(out, "  Ends:      %s\n", formatDate(sub.EndDate))
		fmt.Fprintf(out, "  Access:    %s\n", accessText(sub.HasAccess))
		if sub.IsOverdue {
			fmt.Fprintln(out, "  Overdue:   yes")
		}
		return nil
	},
}

func accessText(hasAccess bool) string {
	if hasAccess {
		return "granted"
	}
	return "blocked"
}

func init() {
	statusCmd.Flags().StringVar(&statusSubscription, "subscription", "", "subscription ID")
	statusCmd.Flags().StringVar(&statusTenant, "tenant", "", "tenant ID")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}
