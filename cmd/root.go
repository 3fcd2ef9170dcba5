package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "sessiond",
		Short:         "sessiond: supervise chat account sessions over stdio",
		Long:          "sessiond keeps one messaging session per account alive on behalf of a host process. The host writes JSON commands to stdin, one per line, and reads JSON events from stdout.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: ./sessiond.toml or ~/.config/sessiond/sessiond.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(opts),
		newAuthStateCmd(opts),
		newConfigCmd(opts),
	)

	return rootCmd
}
