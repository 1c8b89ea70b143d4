package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type sessionListing struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Prefix      string `json:"prefix,omitempty"`
	TokenSource string `json:"token_source"`
}

func newSessionsCmd(load appLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List configured sessions without starting them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := load(cmd)
			if err != nil {
				return err
			}

			listings := make([]sessionListing, 0, len(app.cfg.Sessions))
			for i, entry := range app.cfg.Sessions {
				listings = append(listings, sessionListing{
					ID:          i + 1,
					Name:        entry.Name,
					Public:      entry.Public,
					Prefix:      entry.Prefix,
					TokenSource: tokenSource(entry.Token, entry.TokenRef),
				})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listings)
			}

			if len(listings) == 0 {
				_, err := fmt.Fprintln(out, "No sessions configured.")
				return err
			}
			for _, l := range listings {
				visibility := "private"
				if l.Public {
					visibility = "public"
				}
				prefix := l.Prefix
				if prefix == "" {
					prefix = app.cfg.Commands.DefaultPrefix
				}
				if _, err := fmt.Fprintf(out, "%d\t%s\t%s\tprefix=%s\ttoken=%s\n", l.ID, l.Name, visibility, prefix, l.TokenSource); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// tokenSource describes where a session token comes from, never the token.
func tokenSource(token, ref string) string {
	switch {
	case token != "":
		return "inline"
	case strings.HasPrefix(ref, "env://"):
		return ref
	case ref != "":
		return "vault:" + strings.TrimPrefix(ref, "pass://")
	default:
		return "missing"
	}
}
