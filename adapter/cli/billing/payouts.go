package billing

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	"github.com/felixgeelhaar/trimly/internal/billing/application/queries"
	"github.com/spf13/cobra"
)

var (
	payoutsPartner string
	payoutsInvoice string
	payoutsJSON    bool

	rewardsTenant string
)

var payoutsCmd = &cobra.Command{
	Use:   "payouts",
	Short: "List commission payouts of a partner or an invoice",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListPayoutsHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Payout listing requires database connection.")
			return nil
		}

		var query queries.ListPayoutsQuery
		switch {
		case payoutsPartner != "":
			id, err := parseID("partner", payoutsPartner)
			if err != nil {
				return err
			}
			query.PartnerID = id
		case payoutsInvoice != "":
			id, err := parseID("invoice", payoutsInvoice)
			if err != nil {
				return err
			}
			query.InvoiceID = id
		default:
			return errors.New("either --partner or --invoice is required")
		}

		list, err := app.ListPayoutsHandler.Handle(cmd.Context(), query)
		if err != nil {
			return err
		}

		if payoutsJSON {
			return writeJSON(cmd.OutOrStdout(), list)
		}

		out := cmd.OutOrStdout()
		for _, p := range list.Payouts {
			fmt.Fprintf(out, "%s  %s  %-9s %8s  due %s\n", p.ID, p.ReferenceMonth, p.Status, p.Amount, formatDate(p.DueDate))
		}
		fmt.Fprintf(out, "Pending: %s  Canceled: %s\n", list.PendingTotal, list.CanceledTotal)
		return nil
	},
}

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Count the referral rewards a tenant can redeem",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CountAvailableRewardsHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Reward lookup requires database connection.")
			return nil
		}

		tenantID, err := parseID("tenant", rewardsTenant)
		if err != nil {
			return err
		}

		count, err := app.CountAvailableRewardsHandler.Handle(cmd.Context(), queries.CountAvailableRewardsQuery{TenantID: tenantID})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Available rewards: %d\n", count)
		return nil
	},
}

func init() {
	payoutsCmd.Flags().StringVar(&payoutsPartner, "partner", "", "partner ID")
	payoutsCmd.Flags().StringVar(&payoutsInvoice, "invoice", "", "invoice ID")
	payoutsCmd.Flags().BoolVar(&payoutsJSON, "json", false, "output as JSON")

	rewardsCmd.Flags().StringVar(&rewardsTenant, "tenant", "", "tenant ID")
}
