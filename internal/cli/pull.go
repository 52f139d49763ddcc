package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/sync"
)

var pullStrategy patch.Strategy

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Merge remote changes into the working tree",
	Long: `Fetch the branch and merge every remote change made since the last sync
into the working tree.

Changes that collide with local edits are settled by --merge-strategy:
  KEEP_BOTH    keep the local file and write <file>.theirs/<file>.original
               markers for manual resolution (default)
  KEEP_THEIRS  overwrite the local file with the remote version
  KEEP_OURS    keep the local file and discard the remote version

Pull refuses to run while conflicts are unresolved.`,
	Args: cobra.NoArgs,
	RunE: runPull,
}

func init() {
	addStrategyFlag(pullCmd, &pullStrategy)
}

func runPull(cmd *cobra.Command, args []string) error {
	root, err := workingTree()
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.syncer.Pull(cmd.Context(), &sync.PullRequest{
		Root:     root,
		Strategy: pullStrategy,
	})
	if err != nil {
		if result != nil && result.Failed > 0 {
			PrintWarning(cmd.ErrOrStderr(), fmt.Sprintf("%s did not merge cleanly; run 'apivcs status' to review",
				PrintCount(result.Failed, "change", "changes")))
		}
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return outputJSON(out, changesOf(result.Incoming))
	}
	if len(result.Incoming) == 0 {
		PrintInfo(out, "Already up to date")
		return nil
	}
	PrintSuccess(out, fmt.Sprintf("Pulled %s", PrintCount(len(result.Incoming), "remote change", "remote changes")))
	return nil
}
