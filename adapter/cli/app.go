package cli

import (
	"context"

	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/felixgeelhaar/trimly/internal/billing/application/queries"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	// Billing Command Handlers
	OnboardTenantHandler       *commands.OnboardTenantHandler
	SwitchPlanHandler          *commands.SwitchPlanHandler
	ConfirmPaymentHandler      *commands.ConfirmPaymentHandler
	MarkPastDueHandler         *commands.MarkPastDueHandler
	SuspendAccessHandler       *commands.SuspendAccessHandler
	CreateManualInvoiceHandler *commands.CreateManualInvoiceHandler
	SweepOverdueHandler        *commands.SweepOverdueHandler

	// Partner Command Handlers
	CreatePartnerHandler    *commands.CreatePartnerHandler
	SetPartnerActiveHandler *commands.SetPartnerActiveHandler

	// Billing Query Handlers
	GetSubscriptionHandler       *queries.GetSubscriptionHandler
	ListInvoicesHandler          *queries.ListInvoicesHandler
	ListPayoutsHandler           *queries.ListPayoutsHandler
	CountAvailableRewardsHandler *queries.CountAvailableRewardsHandler
	ListPlansHandler             *queries.ListPlansHandler
	ListPartnersHandler          *queries.ListPartnersHandler

	// HealthCheck reports whether the backing store is reachable.
	HealthCheck func(ctx context.Context) error

	// Current operator (recorded as the actor of every event)
	CurrentActorID uuid.UUID
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	onboardTenantHandler *commands.OnboardTenantHandler,
	switchPlanHandler *commands.SwitchPlanHandler,
	confirmPaymentHandler *commands.ConfirmPaymentHandler,
	markPastDueHandler *commands.MarkPastDueHandler,
	suspendAccessHandler *commands.SuspendAccessHandler,
	createManualInvoiceHandler *commands.CreateManualInvoiceHandler,
	sweepOverdueHandler *commands.SweepOverdueHandler,
	createPartnerHandler *commands.CreatePartnerHandler,
	setPartnerActiveHandler *commands.SetPartnerActiveHandler,
	getSubscriptionHandler *queries.GetSubscriptionHandler,
	listInvoicesHandler *queries.ListInvoicesHandler,
	listPayoutsHandler *queries.ListPayoutsHandler,
	countAvailableRewardsHandler *queries.CountAvailableRewardsHandler,
	listPlansHandler *queries.ListPlansHandler,
	listPartnersHandler *queries.ListPartnersHandler,
) *App {
	return &App{
		OnboardTenantHandler:         onboardTenantHandler,
		SwitchPlanHandler:            switchPlanHandler,
		ConfirmPaymentHandler:        confirmPaymentHandler,
		MarkPastDueHandler:           markPastDueHandler,
		SuspendAccessHandler:         suspendAccessHandler,
		CreateManualInvoiceHandler:   createManualInvoiceHandler,
		SweepOverdueHandler:          sweepOverdueHandler,
		CreatePartnerHandler:         createPartnerHandler,
		SetPartnerActiveHandler:      setPartnerActiveHandler,
		GetSubscriptionHandler:       getSubscriptionHandler,
		ListInvoicesHandler:          listInvoicesHandler,
		ListPayoutsHandler:           listPayoutsHandler,
		CountAvailableRewardsHandler: countAvailableRewardsHandler,
		ListPlansHandler:             listPlansHandler,
		ListPartnersHandler:          listPartnersHandler,
		CurrentActorID:               uuid.Nil,
	}
}

// SetCurrentActorID updates the current operator ID.
func (a *App) SetCurrentActorID(id uuid.UUID) {
	a.CurrentActorID = id
}

// SetHealthCheck updates the health probe.
func (a *App) SetHealthCheck(check func(ctx context.Context) error) {
	a.HealthCheck = check
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
