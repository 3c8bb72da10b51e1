package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Cmd is the billing command group.
var Cmd = &cobra.Command{
	Use:   "billing",
	Short: "Manage tenant subscriptions and revenue",
	Long: `Onboard tenants, change plans, confirm payments and inspect the
invoices, referral rewards and partner commissions they produce.`,
}

// errNoDatabase is returned by commands that change state without an app.
var errNoDatabase = errors.New("billing commands require database connection")

const dateLayout = "2006-01-02"

func init() {
	Cmd.AddCommand(onboardCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(plansCmd)
	Cmd.AddCommand(switchPlanCmd)
	Cmd.AddCommand(payCmd)
	Cmd.AddCommand(pastDueCmd)
	Cmd.AddCommand(suspendCmd)
	Cmd.AddCommand(sweepCmd)
	Cmd.AddCommand(invoiceCmd)
	Cmd.AddCommand(payoutsCmd)
	Cmd.AddCommand(rewardsCmd)
	Cmd.AddCommand(partnerCmd)
}

func parseID(name, value string) (uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return uuid.Nil, fmt.Errorf("--%s is required", name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

func parseAmount(name, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", name, err)
	}
	return amount, nil
}

func parseDate(name, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s (expected YYYY-MM-DD): %w", name, err)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
