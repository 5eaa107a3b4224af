package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check server health.

With --wait the command polls until the server reports ok or the wait
elapses, which suits scripts that start the server in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := pollHealth(cmd.Context(), wait)
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep polling for up to this long")
	return cmd
}

func pollHealth(ctx context.Context, wait time.Duration) (HealthResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(wait)

	for {
		var result HealthResult
		err := client.Do(ctx, http.MethodGet, "/api/v1/health", nil, &result)
		if err == nil && result.Status == "ok" {
			return result, nil
		}
		if time.Now().After(deadline) {
			if err == nil {
				err = fmt.Errorf("server is %s", result.Status)
			}
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}
