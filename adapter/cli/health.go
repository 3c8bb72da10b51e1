package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the billing database answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errors.New("app not initialized")
		}

		start := time.Now()
		if app.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
			defer cancel()
			if err := app.HealthCheck(ctx); err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database ok (%s)\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "how long to wait for the database")
	rootCmd.AddCommand(healthCmd)
}
