package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "vp",
		Short:         "voicepool (vp): run a pool of gateway sessions with shared routing",
		Long:          "vp runs several bot sessions against one real-time gateway as a single pool: commands are routed to the session that owns the tenant's media connection, configuration is shared, and rate limits are handled pool-wide.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.voicepool/config.toml)")

	load := func(cmd *cobra.Command) (*app, error) {
		return wireApp(configPath, cmd.ErrOrStderr())
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(load),
		newStatusCmd(load),
		newSessionsCmd(load),
		newConfigCmd(load),
		newTokenCmd(load),
	)

	return rootCmd
}
