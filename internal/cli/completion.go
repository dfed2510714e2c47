package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layouttester/pkg/fixture"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for layouttester.

To load completions:

Bash:
  $ source <(layouttester completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ layouttester completion bash > /etc/bash_completion.d/layouttester
  # macOS:
  $ layouttester completion bash > $(brew --prefix)/etc/bash_completion.d/layouttester

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ layouttester completion zsh > "${fpath[1]}/_layouttester"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ layouttester completion fish | source

  # To load completions for each session, execute once:
  $ layouttester completion fish > ~/.config/fish/completions/layouttester.fish

PowerShell:
  PS> layouttester completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> layouttester completion powershell > layouttester.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeFixtures completes fixture names from the configured fixtures directory.
func (c *CLI) completeFixtures(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	entries, err := fixture.List(cfg.FixturesPath())
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name, toComplete) {
			names = append(names, e.Name)
		}
	}
	return names, cobra.ShellCompDirectiveDefault
}
