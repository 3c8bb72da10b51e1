package billing

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/spf13/cobra"
)

var (
	pastDueSubscription string
	suspendSubscription string

	sweepAsOf  string
	sweepLimit int
)

var pastDueCmd = &cobra.Command{
	Use:   "past-due",
	Short: "Flag a subscription as past due",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.MarkPastDueHandler == nil {
			return errNoDatabase
		}

		subID, err := parseID("subscription", pastDueSubscription)
		if err != nil {
			return err
		}

		sub, err := app.MarkPastDueHandler.Handle(cmd.Context(), commands.MarkPastDueCommand{
			ActorID:        app.CurrentActorID,
			SubscriptionID: subID,
		})
		if err != nil {
			return fmt.Errorf("failed to mark past due: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s is %s\n", sub.ID(), sub.Status())
		return nil
	},
}

var suspendCmd = &cobra.Command{
	Use:   "suspend",
	Short: "Suspend access and cancel future commissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SuspendAccessHandler == nil {
			return errNoDatabase
		}

		subID, err := parseID("subscription", suspendSubscription)
		if err != nil {
			return err
		}

		result, err := app.SuspendAccessHandler.Handle(cmd.Context(), commands.SuspendAccessCommand{
			ActorID:        app.CurrentActorID,
			SubscriptionID: subID,
		})
		if err != nil {
			return fmt.Errorf("failed to suspend access: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s is %s, %d pending commissions canceled\n",
			result.Subscription.ID(), result.Subscription.Status(), len(result.CanceledPayouts))
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark every expired subscription as past due",
	Long: `Scan active subscriptions whose end date has passed and flag them as past due.
The worker runs this on a schedule; this command runs one pass on demand.

Examples:
  trimly billing sweep
  trimly billing sweep --as-of 2025-04-01 --limit 500`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SweepOverdueHandler == nil {
			return errNoDatabase
		}

		var asOf time.Time
		if sweepAsOf != "" {
			t, err := parseDate("as-of", sweepAsOf)
			if err != nil {
				return err
			}
			asOf = t
		}

		result, err := app.SweepOverdueHandler.Handle(cmd.Context(), commands.SweepOverdueCommand{
			AsOf:  asOf,
			Limit: sweepLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to sweep overdue subscriptions: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d, marked %d, failed %d\n", result.Scanned, result.Marked, result.Failed)
		return nil
	},
}

func init() {
	pastDueCmd.Flags().StringVar(&pastDueSubscription, "subscription", "", "subscription ID")
	suspendCmd.Flags().StringVar(&suspendSubscription, "subscription", "", "subscription ID")

	sweepCmd.Flags().StringVar(&sweepAsOf, "as-of", "", "reference date (YYYY-MM-DD), defaults to now")
	sweepCmd.Flags().IntVar(&sweepLimit, "limit", 0, "maximum subscriptions per pass (0 for the default)")
}
