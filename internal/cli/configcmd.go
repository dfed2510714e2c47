package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layouttester/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Print the effective configuration: the file selected by --config,
./layouttester.toml or the user config directory, layered over the
built-in defaults. Redirect the output to start a configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Path != "" {
				fmt.Fprintf(stdout, "# loaded from %s\n", cfg.Path)
			}
			return cfg.Encode(stdout)
		},
	}

	cmd.AddCommand(c.configPathCommand())
	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Find(c.configPath)
			if err != nil {
				return err
			}
			if path == "" {
				printInfo("No configuration file; using built-in defaults")
				return nil
			}
			fmt.Fprintln(stdout, path)
			return nil
		},
	}
}
