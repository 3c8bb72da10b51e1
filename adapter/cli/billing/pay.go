package billing

import (
	"fmt"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/spf13/cobra"
)

var (
	paySubscription string
	payAmount       string
	payMethod       string
	payRedeem       bool
	payReference    string
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Confirm a payment and renew the subscription",
	Long: `Record a paid invoice, extend the subscription by one billing cycle and
schedule the referring partner's commissions.

With --redeem-reward the amount must already have the referral discount
(half the monthly price) subtracted.

Examples:
  trimly billing pay --subscription 2f1c... --amount 129.90 --method pix
  trimly billing pay --subscription 2f1c... --amount 64.95 --method credit_card --redeem-reward`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ConfirmPaymentHandler == nil {
			return errNoDatabase
		}

		subID, err := parseID("subscription", paySubscription)
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", payAmount)
		if err != nil {
			return err
		}

		result, err := app.ConfirmPaymentHandler.Handle(cmd.Context(), commands.ConfirmPaymentCommand{
			ActorID:        app.CurrentActorID,
			SubscriptionID: subID,
			Amount:         amount,
			Method:         payMethod,
			RedeemReward:   payRedeem,
			Reference:      payReference,
		})
		if err != nil {
			return fmt.Errorf("failed to confirm payment: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Payment confirmed: invoice %s\n", result.Invoice.ID())
		fmt.Fprintf(out, "  Amount:   %s via %s\n", result.Invoice.Amount().StringFixed(2), result.Invoice.PaymentMethod())
		if result.Redemption != nil {
			fmt.Fprintf(out, "  Discount: %s (referral reward)\n", result.Redemption.Discount.StringFixed(2))
		}
		fmt.Fprintf(out, "  Status:   %s until %s\n", result.Subscription.Status(), formatDate(result.Subscription.EndDate()))
		if len(result.Payouts) > 0 {
			fmt.Fprintf(out, "  Commissions scheduled: %d\n", len(result.Payouts))
		}
		return nil
	},
}

func init() {
	payCmd.Flags().StringVar(&paySubscription, "subscription", "", "subscription ID")
	payCmd.Flags().StringVar(&payAmount, "amount", "", "amount paid")
	payCmd.Flags().StringVar(&payMethod, "method", "", "payment method (PIX, CREDIT_CARD, DEBIT_CARD, BOLETO, BANK_TRANSFER, CASH)")
	payCmd.Flags().BoolVar(&payRedeem, "redeem-reward", false, "consume one referral reward")
	payCmd.Flags().StringVar(&payReference, "reference", "", "free-text reference stored on the invoice")
}
