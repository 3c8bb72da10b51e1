package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	actorID string
	logger  = slog.Default()
)

type startedAtKey struct{}

var rootCmd = &cobra.Command{
	Use:   "trimly",
	Short: "Subscription and revenue engine for barbershops",
	Long: `Trimly runs the billing side of the barbershop platform: trials,
plan changes, payments, referral rewards and partner commissions.

Pass --actor with an operator ID to have it recorded on every billing event
a command emits.`,
	SilenceUsage:      true,
	PersistentPreRunE: beginCommand,
	PersistentPostRun: endCommand,
}

// beginCommand applies --actor and tags the command context with a fresh
// correlation ID shared by its log lines and emitted events.
func beginCommand(cmd *cobra.Command, _ []string) error {
	if actorID != "" {
		id, err := uuid.Parse(actorID)
		if err != nil {
			return fmt.Errorf("invalid actor ID %q: %w", actorID, err)
		}
		if a := GetApp(); a != nil {
			a.SetCurrentActorID(id)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = observability.WithCorrelationID(ctx, "")
	cmd.SetContext(context.WithValue(ctx, startedAtKey{}, time.Now()))

	logger.DebugContext(cmd.Context(), "command started", "command", cmd.CommandPath())
	return nil
}

func endCommand(cmd *cobra.Command, _ []string) {
	started, ok := cmd.Context().Value(startedAtKey{}).(time.Time)
	if !ok {
		return
	}
	logger.InfoContext(cmd.Context(), "command finished",
		"command", cmd.CommandPath(),
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// ExecuteContext parses os.Args and runs the selected command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "", "operator ID recorded on emitted events")
}

// AddCommand mounts a command group such as billing under the root.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger replaces the logger used for command lifecycle lines. A nil
// logger is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
