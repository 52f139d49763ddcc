package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/apivcs/internal/patch"
)

var resolveStrategy patch.Strategy

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Settle a conflict by keeping one side",
	Long: `Settle the conflict recorded for a file and remove its markers.

  KEEP_OURS    keep the working file as it is
  KEEP_THEIRS  replace the working file with the remote version

Example:
  apivcs resolve api.raml --merge-strategy KEEP_THEIRS`,
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

		if err := a.syncer.Resolve(cmd.Context(), root, rel, resolveStrategy); err != nil {
			return err
		}
		PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Resolved %s with %s", rel, resolveStrategy))
		return nil
	},
}

func init() {
	resolveCmd.Flags().Var(&resolveStrategy, "merge-strategy", "Side to keep: KEEP_OURS or KEEP_THEIRS")
	_ = resolveCmd.MarkFlagRequired("merge-strategy")
}

var markResolvedCmd = &cobra.Command{
	Use:   "mark-resolved <path>",
	Short: "Accept the working file as the resolution of its conflict",
	Long: `Remove the conflict markers of a file after merging it by hand. The working
file is kept as it is and shows up as a local change.`,
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

		if err := a.syncer.MarkResolved(cmd.Context(), root, rel); err != nil {
			return err
		}
		PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Marked %s as resolved", rel))
		return nil
	},
}
