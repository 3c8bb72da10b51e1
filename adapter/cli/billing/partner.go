package billing

import (
	"fmt"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/spf13/cobra"
)

var (
	partnerName       string
	partnerEmail      string
	partnerRole       string
	partnerCommission string

	partnerListJSON bool
)

var partnerCmd = &cobra.Command{
	Use:     "partner",
	Short:   "Manage referral partners",
	Aliases: []string{"partners"},
}

var partnerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a partner",
	Long: `Register a partner who earns a commission on the tenants they refer.

Examples:
  trimly billing partner create --name "Joana" --email joana@example.com --commission 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreatePartnerHandler == nil {
			return errNoDatabase
		}

		pct, err := parseAmount("commission", partnerCommission)
		if err != nil {
			return err
		}

		partner, err := app.CreatePartnerHandler.Handle(cmd.Context(), commands.CreatePartnerCommand{
			ActorID:              app.CurrentActorID,
			Name:                 partnerName,
			Email:                partnerEmail,
			Role:                 partnerRole,
			CommissionPercentage: pct,
		})
		if err != nil {
			return fmt.Errorf("failed to create partner: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Partner %s created: %s <%s> %s%%\n",
			partner.ID(), partner.Name(), partner.Email(), partner.CommissionPercentage().String())
		return nil
	},
}

func newPartnerToggleCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [partner-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.GetApp()
			if app == nil || app.SetPartnerActiveHandler == nil {
				return errNoDatabase
			}

			partnerID, err := parseID("partner", args[0])
			if err != nil {
				return err
			}

			partner, err := app.SetPartnerActiveHandler.Handle(cmd.Context(), commands.SetPartnerActiveCommand{
				ActorID:   app.CurrentActorID,
				PartnerID: partnerID,
				Active:    active,
			})
			if err != nil {
				return fmt.Errorf("failed to update partner: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Partner %s %s\n", partner.ID(), activeText(partner.IsActive()))
			return nil
		},
	}
}

var (
	partnerActivateCmd   = newPartnerToggleCmd("activate", "Reactivate a partner", true)
	partnerDeactivateCmd = newPartnerToggleCmd("deactivate", "Stop a partner from earning new commissions", false)
)

var partnerListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List partners",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListPartnersHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Partner listing requires database connection.")
			return nil
		}

		partners, err := app.ListPartnersHandler.Handle(cmd.Context())
		if err != nil {
			return err
		}

		if partnerListJSON {
			return writeJSON(cmd.OutOrStdout(), partners)
		}

		out := cmd.OutOrStdout()
		if len(partners) == 0 {
			fmt.Fprintln(out, "No partners found.")
			return nil
		}
		for _, p := range partners {
			fmt.Fprintf(out, "%s  %-8s %-9s %6s%%  %s <%s>\n",
				p.ID, p.Role, activeText(p.IsActive), p.CommissionPercentage, p.Name, p.Email)
		}
		return nil
	},
}

func activeText(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func init() {
	partnerCmd.AddCommand(partnerCreateCmd)
	partnerCmd.AddCommand(partnerActivateCmd)
	partnerCmd.AddCommand(partnerDeactivateCmd)
	partnerCmd.AddCommand(partnerListCmd)

	partnerCreateCmd.Flags().StringVar(&partnerName, "name", "", "partner name")
	partnerCreateCmd.Flags().StringVar(&partnerEmail, "email", "", "partner email")
	partnerCreateCmd.Flags().StringVar(&partnerRole, "role", "PARTNER", "role (PARTNER, SUPPORT)")
	partnerCreateCmd.Flags().StringVar(&partnerCommission, "commission", "", "commission percentage of the full monthly price")

	partnerListCmd.Flags().BoolVar(&partnerListJSON, "json", false, "output as JSON")
}
