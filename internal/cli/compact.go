package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewCompactCommand creates the compact command.
func NewCompactCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compact [collection...]",
		Short: "Rewrite logs to one line per identity",
		Long: `Rewrite each named collection's log to hold only the retained revision of
every identity, sorted by id. Tombstones are kept: they must survive until
every divergent copy of the log has merged. Without arguments, compacts
every collection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return runCompact(rootOpts, formatter, args)
		},
	}
	return cmd
}

func runCompact(opts *RootOptions, formatter *OutputFormatter, collections []string) error {
	s, err := openStore(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := context.Background()

	if len(collections) == 0 {
		all, err := s.Collections()
		if err != nil {
			formatter.Error(errorCode(err), err.Error(), nil)
			return WrapExitError(ExitCommandError, "list collections", err)
		}
		collections = all
	}

	for _, collection := range collections {
		formatter.VerboseLog("compacting %s", collection)
		if err := s.Compact(ctx, collection); err != nil {
			formatter.Error(errorCode(err), err.Error(), nil)
			return WrapExitError(ExitCommandError, "compact "+collection, err)
		}
	}

	if formatter.Format == "json" {
		return formatter.SuccessJSON(map[string]any{"compacted": collections})
	}
	fmt.Fprintf(formatter.Writer, "compacted %d collection(s)\n", len(collections))
	return nil
}
