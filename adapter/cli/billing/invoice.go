package billing

import (
	"fmt"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/felixgeelhaar/trimly/internal/billing/application/queries"
	"github.com/spf13/cobra"
)

var (
	invoiceSubscription string
	invoiceAmount       string
	invoiceDueDate      string
	invoiceReference    string

	invoiceListSubscription string
	invoiceListJSON         bool
)

var invoiceCmd = &cobra.Command{
	Use:     "invoice",
	Short:   "Create and list invoices",
	Aliases: []string{"invoices"},
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a pending invoice",
	Long: `Issue a pending invoice for a subscription without recording a payment.

Examples:
  trimly billing invoice create --subscription 2f1c... --amount 150 --due 2025-01-01 --reference "Setup fee"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateManualInvoiceHandler == nil {
			return errNoDatabase
		}

		subID, err := parseID("subscription", invoiceSubscription)
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", invoiceAmount)
		if err != nil {
			return err
		}
		dueDate, err := parseDate("due", invoiceDueDate)
		if err != nil {
			return err
		}

		invoice, err := app.CreateManualInvoiceHandler.Handle(cmd.Context(), commands.CreateManualInvoiceCommand{
			ActorID:        app.CurrentActorID,
			SubscriptionID: subID,
			Amount:         amount,
			DueDate:        dueDate,
			Reference:      invoiceReference,
		})
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s: %s due %s (%s)\n",
			invoice.ID(), invoice.Amount().StringFixed(2), formatDate(invoice.DueDate()), invoice.Status())
		return nil
	},
}

var invoiceListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the invoices of a subscription",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListInvoicesHandler == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Invoice listing requires database connection.")
			return nil
		}

		subID, err := parseID("subscription", invoiceListSubscription)
		if err != nil {
			return err
		}

		invoices, err := app.ListInvoicesHandler.Handle(cmd.Context(), queries.ListInvoicesQuery{SubscriptionID: subID})
		if err != nil {
			return err
		}

		if invoiceListJSON {
			return writeJSON(cmd.OutOrStdout(), invoices)
		}

		out := cmd.OutOrStdout()
		if len(invoices) == 0 {
			fmt.Fprintln(out, "No invoices found.")
			return nil
		}
		for _, inv := range invoices {
			method := inv.PaymentMethod
			if method == "" {
				method = "-"
			}
			fmt.Fprintf(out, "%s  %-8s %10s  %-13s due %s  %s\n",
				inv.ID, inv.Status, inv.Amount, method, formatDate(inv.DueDate), inv.Reference)
		}
		return nil
	},
}

func init() {
	invoiceCmd.AddCommand(invoiceCreateCmd)
	invoiceCmd.AddCommand(invoiceListCmd)

	invoiceCreateCmd.Flags().StringVar(&invoiceSubscription, "subscription", "", "subscription ID")
	invoiceCreateCmd.Flags().StringVar(&invoiceAmount, "amount", "", "invoice amount")
	invoiceCreateCmd.Flags().StringVar(&invoiceDueDate, "due", "", "due date (YYYY-MM-DD)")
	invoiceCreateCmd.Flags().StringVar(&invoiceReference, "reference", "", "free-text reference")

	invoiceListCmd.Flags().StringVar(&invoiceListSubscription, "subscription", "", "subscription ID")
	invoiceListCmd.Flags().BoolVar(&invoiceListJSON, "json", false, "output as JSON")
}
