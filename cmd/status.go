package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	statusadapter "github.com/bnema/voicepool/internal/adapters/render/status"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(load appLoader) *cobra.Command {
	var (
		addr        string
		asJSON      bool
		showTenants bool
		wait        bool
		waitTimeout time.Duration
		interval    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := load(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.cfg.HTTP.Addr
			}
			if addr == "" {
				return fmt.Errorf("status API disabled: set http.addr or pass --addr")
			}

			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}

			ctx := cmd.Context()
			if wait && waitTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, waitTimeout)
				defer cancel()
			}

			var progress io.Writer = cmd.ErrOrStderr()
			if asJSON {
				progress = io.Discard
			}
			url := statusURL(addr)
			status, err := pollStatus(ctx, progress, func(ctx context.Context) (domain.PoolStatus, error) {
				return fetchStatus(ctx, app, url)
			}, interval, wait)
			if err != nil {
				return err
			}
			return writeStatusOutput(cmd, app, status, statusadapter.RenderOptions{ShowTenants: showTenants}, asJSON)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "status API address (default http.addr)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	cmd.Flags().BoolVar(&showTenants, "tenants", false, "list connected tenants per session")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until at least one session is ready")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", time.Minute, "give up waiting after this long (0 waits forever)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "delay between polls while waiting")
	return cmd
}

func fetchStatus(ctx context.Context, app *app, url string) (domain.PoolStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.PoolStatus{}, fmt.Errorf("build status request: %w", err)
	}

	resp, err := app.httpClient.Do(req)
	if err != nil {
		return domain.PoolStatus{}, fmt.Errorf("query pool status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PoolStatus{}, fmt.Errorf("query pool status: unexpected status %d", resp.StatusCode)
	}

	var status domain.PoolStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return domain.PoolStatus{}, fmt.Errorf("decode pool status: %w", err)
	}
	return status, nil
}

func writeStatusOutput(cmd *cobra.Command, app *app, status domain.PoolStatus, opts statusadapter.RenderOptions, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	rendered, err := app.statusRenderer(status, opts)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
