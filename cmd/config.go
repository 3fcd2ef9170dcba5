package cmd

import (
	"fmt"

	"github.com/bnema/chat-sessiond/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize sessiond configuration",
	}

	cmd.AddCommand(newConfigShowCmd(opts), newConfigInitCmd())

	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(viper.New(), opts.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, err := settings.TOML()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if settings.Source != "" {
				if _, err := fmt.Fprintf(out, "# loaded from %s\n", settings.Source); err != nil {
					return err
				}
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := path
			if target == "" {
				resolved, err := config.DefaultPath()
				if err != nil {
					return err
				}
				target = resolved
			}

			if err := config.WriteFile(target, config.Defaults(), force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
			return err
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination (default: ~/.config/sessiond/sessiond.toml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
