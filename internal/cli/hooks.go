package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/taskstore/internal/hooks"
)

// NewInstallHooksCommand creates the install-hooks command.
func NewInstallHooksCommand(rootOpts *RootOptions) *cobra.Command {
	var repoRoot string

	cmd := &cobra.Command{
		Use:   "install-hooks",
		Short: "Install git hooks and merge attributes for the store",
		Long: `Install the git hooks that keep the cache synchronized across commits,
merges, rebases, and checkouts, and add the .gitattributes entry routing
*.jsonl files through the merge driver.

The merge driver itself must be registered in git config; the command
prints the invocation to run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			if err := hooks.Install(repoRoot, rootOpts.StoreDir); err != nil {
				formatter.Error("IO", err.Error(), nil)
				return WrapExitError(ExitCommandError, "install hooks", err)
			}
			if formatter.Format == "json" {
				return formatter.SuccessJSON(map[string]any{
					"installed":     true,
					"driver_config": hooks.DriverConfigCommand,
				})
			}
			fmt.Fprintln(formatter.Writer, "hooks installed")
			fmt.Fprintln(formatter.Writer, "register the merge driver with:")
			fmt.Fprintln(formatter.Writer, "  "+hooks.DriverConfigCommand)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoRoot, "repo", ".", "git repository root")
	return cmd
}
