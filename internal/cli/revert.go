package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/apivcs/internal/sync"
)

var revertCmd = &cobra.Command{
	Use:   "revert <path>",
	Short: "Discard local changes to a file or directory",
	Long: `Restore a file, or every changed file below a directory, to the state of the
last sync. New files are removed and deleted files are restored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, rel, err := treePath(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.syncer.Revert(cmd.Context(), root, rel)
		return printReverted(cmd, result, err)
	},
}

var revertAllCmd = &cobra.Command{
	Use:   "revert-all",
	Short: "Discard every local change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workingTree()
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.syncer.RevertAll(cmd.Context(), root)
		return printReverted(cmd, result, err)
	},
}

// printReverted lists the restored paths, including those restored before
// a failure.
func printReverted(cmd *cobra.Command, result *sync.RevertResult, err error) error {
	out := cmd.OutOrStdout()
	if result != nil {
		if jsonOutput && err == nil {
			return outputJSON(out, result.Reverted)
		}
		for _, p := range result.Reverted {
			PrintSuccess(out, "Reverted "+p)
		}
		if err == nil && len(result.Reverted) == 0 {
			PrintEmptyState(out, "Nothing to revert")
		}
	}
	return err
}
