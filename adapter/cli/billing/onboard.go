package billing

import (
	"fmt"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	onboardName         string
	onboardSlug         string
	onboardOwnerName    string
	onboardOwnerEmail   string
	onboardOwnerPhone   string
	onboardPlan         string
	onboardCycle        string
	onboardType         string
	onboardPrice        string
	onboardTrialDays    int
	onboardReferralCode string
	onboardPartner      string
	onboardOwnCode      string
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Register a new barbershop on a trial subscription",
	Long: `Create a tenant, its owner account and a trial subscription.

A referral code from another tenant takes precedence over --partner.

Examples:
  trimly billing onboard --name "Barbearia Centro" --slug centro \
    --owner-name "Ana" --owner-email ana@example.com
  trimly billing onboard --name "Corte Fino" --slug corte-fino \
    --owner-name "Rui" --owner-email rui@example.com --plan premium --referral-code ABC123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.OnboardTenantHandler == nil {
			return errNoDatabase
		}

		price, err := parseAmount("price", onboardPrice)
		if err != nil {
			return err
		}

		var partnerID *uuid.UUID
		if onboardPartner != "" {
			id, err := parseID("partner", onboardPartner)
			if err != nil {
				return err
			}
			partnerID = &id
		}

		result, err := app.OnboardTenantHandler.Handle(cmd.Context(), commands.OnboardTenantCommand{
			ActorID:             app.CurrentActorID,
			Name:                onboardName,
			Slug:                onboardSlug,
			OwnerName:           onboardOwnerName,
			OwnerEmail:          onboardOwnerEmail,
			OwnerPhone:          onboardOwnerPhone,
			Plan:                onboardPlan,
			BillingCycle:        onboardCycle,
			BillingType:         onboardType,
			Price:               price,
			TrialDays:           onboardTrialDays,
			ReferralCode:        onboardReferralCode,
			ReferredByPartnerID: partnerID,
			OwnReferralCode:     onboardOwnCode,
		})
		if err != nil {
			return fmt.Errorf("failed to onboard tenant: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Onboarded %s (%s)\n", result.Tenant.Name(), result.Tenant.Slug())
		fmt.Fprintf(out, "  Tenant:        %s\n", result.Tenant.ID())
		fmt.Fprintf(out, "  Subscription:  %s\n", result.Subscription.ID())
		fmt.Fprintf(out, "  Plan:          %s %s %s\n", result.Subscription.Plan(), result.Subscription.BillingCycle(), result.Subscription.BillingType())
		fmt.Fprintf(out, "  Trial ends:    %s\n", formatDate(result.Subscription.EndDate()))
		fmt.Fprintf(out, "  Referral code: %s\n", result.Tenant.ReferralCode())
		fmt.Fprintf(out, "  Owner login:   %s\n", result.Owner.Email())
		fmt.Fprintf(out, "  Temp password: %s\n", result.TemporaryPassword)
		return nil
	},
}

func init() {
	onboardCmd.Flags().StringVar(&onboardName, "name", "", "barbershop name")
	onboardCmd.Flags().StringVar(&onboardSlug, "slug", "", "unique URL slug")
	onboardCmd.Flags().StringVar(&onboardOwnerName, "owner-name", "", "owner full name")
	onboardCmd.Flags().StringVar(&onboardOwnerEmail, "owner-email", "", "owner login email")
	onboardCmd.Flags().StringVar(&onboardOwnerPhone, "owner-phone", "", "owner phone number")
	onboardCmd.Flags().StringVar(&onboardPlan, "plan", "BASIC", "plan (BASIC, PREMIUM, EXCLUSIVE)")
	onboardCmd.Flags().StringVar(&onboardCycle, "cycle", "MONTHLY", "billing cycle (MONTHLY, SEMIANNUALLY, ANNUALLY)")
	onboardCmd.Flags().StringVar(&onboardType, "type", "PREPAID", "billing type (PREPAID, POSTPAID)")
	onboardCmd.Flags().StringVar(&onboardPrice, "price", "", "negotiated price overriding the catalog")
	onboardCmd.Flags().IntVar(&onboardTrialDays, "trial-days", 0, "trial length in days (default from configuration)")
	onboardCmd.Flags().StringVar(&onboardReferralCode, "referral-code", "", "referral code of the referring tenant")
	onboardCmd.Flags().StringVar(&onboardPartner, "partner", "", "ID of the referring partner")
	onboardCmd.Flags().StringVar(&onboardOwnCode, "code", "", "referral code this tenant hands out (generated when empty)")
}
