package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	statusadapter "github.com/bnema/voicepool/internal/adapters/render/status"
	sqlitestore "github.com/bnema/voicepool/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/voicepool/internal/adapters/repo/toml"
	"github.com/bnema/voicepool/internal/application"
	"github.com/bnema/voicepool/internal/config"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/logging"
	"github.com/bnema/voicepool/internal/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type appLoader func(cmd *cobra.Command) (*app, error)

type app struct {
	cfg            config.Config
	logger         *slog.Logger
	level          *slog.LevelVar
	statusRenderer func(domain.PoolStatus, statusadapter.RenderOptions) (string, error)
	httpClient     *http.Client
}

func wireApp(configPath string, logOutput io.Writer) (*app, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := logging.NewLevel(cfg.Log.Level)
	return &app{
		cfg:            cfg,
		logger:         logging.New(logOutput, level, cfg.Log.Format),
		level:          level,
		statusRenderer: statusadapter.Render,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// openConfigStore returns the durable store selected by store.driver and a
// function releasing it.
func (a *app) openConfigStore(ctx context.Context) (ports.ConfigStore, func() error, error) {
	switch a.cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlitestore.Open(ctx, sqlitestore.Options{Path: a.cfg.Store.Path}, ports.SystemClock{})
		if err != nil {
			return nil, nil, fmt.Errorf("wire sqlite config store: %w", err)
		}
		return store, store.Close, nil
	default:
		v := viper.New()
		v.Set("store.path", a.cfg.Store.Path)
		store, err := tomlrepo.NewConfigStore(v, ports.SystemClock{})
		if err != nil {
			return nil, nil, fmt.Errorf("wire toml config store: %w", err)
		}
		return store, func() error { return nil }, nil
	}
}

func policyFrom(cfg config.Config) application.Policy {
	return application.Policy{
		KillOnRateLimit: cfg.Pool.KillOnRateLimit,
		GraceDelay:      cfg.Pool.GraceDelay,
	}
}

func statusURL(addr string) string {
	return "http://" + addr + "/api/v1/pool"
}
