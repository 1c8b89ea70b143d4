package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bnema/voicepool/internal/application"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/spf13/cobra"
)

func newConfigCmd(load appLoader) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit persisted per-tenant settings",
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "get <collection> <kind> <tenant>",
			Short: "Print a config document",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withConfigService(cmd, load, args, func(ctx context.Context, svc *application.ConfigService, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error) {
					return svc.Get(ctx, scope, tenant)
				})
			},
		},
		&cobra.Command{
			Use:   "set <collection> <kind> <tenant> <field> <value>",
			Short: "Set one field of a config document",
			Args:  cobra.ExactArgs(5),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withConfigService(cmd, load, args, func(ctx context.Context, svc *application.ConfigService, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error) {
					return svc.SetField(ctx, application.SetConfigFieldCommand{
						Scope:  scope,
						Tenant: tenant,
						Field:  args[3],
						Value:  parseFieldValue(args[4]),
					})
				})
			},
		},
		&cobra.Command{
			Use:   "unset <collection> <kind> <tenant> <field>",
			Short: "Remove one field of a config document",
			Args:  cobra.ExactArgs(4),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withConfigService(cmd, load, args, func(ctx context.Context, svc *application.ConfigService, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error) {
					return svc.UnsetField(ctx, application.UnsetConfigFieldCommand{
						Scope:  scope,
						Tenant: tenant,
						Field:  args[3],
					})
				})
			},
		},
	)

	return configCmd
}

type configAction func(ctx context.Context, svc *application.ConfigService, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error)

func withConfigService(cmd *cobra.Command, load appLoader, args []string, action configAction) error {
	scope := domain.ConfigScope{Collection: args[0], Kind: domain.ConfigKind(args[1])}
	if err := scope.Validate(); err != nil {
		return err
	}
	tenant, err := domain.ParseTenantID(args[2])
	if err != nil {
		return fmt.Errorf("parse tenant: %w", err)
	}

	app, err := load(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := app.openConfigStore(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = closeStore()
	}()

	svc := application.NewConfigService(application.NewConfigCache(store, app.logger))
	doc, err := action(cmd.Context(), svc, scope, tenant)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// parseFieldValue keeps booleans and integers typed so documents round-trip
// through both stores the same way.
func parseFieldValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
