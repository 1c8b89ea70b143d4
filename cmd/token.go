package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	chainstore "github.com/bnema/voicepool/internal/adapters/secrets/chain"
	"github.com/spf13/cobra"
)

func newTokenCmd(load appLoader) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Store session tokens in the secrets backend",
	}

	var value string
	setCmd := &cobra.Command{
		Use:   "set <session>",
		Short: "Store a session token and print the token_ref to use",
		Long:  "Stores the token under voicepool/sessions/<session>/token. Without --value the first line of stdin is read.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := load(cmd)
			if err != nil {
				return err
			}
			token := value
			if token == "" {
				token, err = readTokenLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			store, err := chainstore.OpenBackend(app.cfg.Secrets.Backend, app.cfg.Secrets.Dir)
			if err != nil {
				return err
			}
			if err := store.Put(cmd.Context(), chainstore.SessionTokenKey(args[0]), token); err != nil {
				return fmt.Errorf("store token for %s: %w", args[0], err)
			}

			app.logger.Debug("session token stored", "session", args[0], "backend", app.cfg.Secrets.Backend)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "token_ref = %q\n", chainstore.SessionTokenRef(args[0]))
			return err
		},
	}
	setCmd.Flags().StringVar(&value, "value", "", "token value (default: read from stdin)")

	rmCmd := &cobra.Command{
		Use:   "rm <session>",
		Short: "Remove a stored session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := load(cmd)
			if err != nil {
				return err
			}
			store, err := chainstore.OpenBackend(app.cfg.Secrets.Backend, app.cfg.Secrets.Dir)
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), chainstore.SessionTokenKey(args[0])); err != nil {
				return fmt.Errorf("remove token for %s: %w", args[0], err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed token for %s\n", args[0])
			return err
		},
	}

	tokenCmd.AddCommand(setCmd, rmCmd)
	return tokenCmd
}

func readTokenLine(in io.Reader) (string, error) {
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return "", errors.New("read token: stdin is empty")
	}
	token := strings.TrimSpace(scanner.Text())
	if token == "" {
		return "", errors.New("read token: first line is blank")
	}
	return token, nil
}
