package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/sync"
)

var pushStrategy patch.Strategy

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local changes to the remote branch",
	Long: `Upload every local change to the remote branch.

Remote changes are pulled first using --merge-strategy. When that pull does
not merge cleanly nothing is uploaded; resolve the conflicts and push again.

Examples:
  # Push, keeping conflict markers for anything that collides
  apivcs push

  # Push, letting remote versions win collisions
  apivcs push --merge-strategy KEEP_THEIRS`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

func init() {
	addStrategyFlag(pushCmd, &pushStrategy)
}

func runPush(cmd *cobra.Command, args []string) error {
	root, err := workingTree()
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.syncer.Push(cmd.Context(), &sync.PushRequest{
		Root:     root,
		Strategy: pushStrategy,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return outputJSON(out, changesOf(result.Pushed))
	}
	if result.UpToDate {
		PrintInfo(out, "Everything up to date")
		return nil
	}
	PrintSuccess(out, fmt.Sprintf("Pushed %s", PrintCount(len(result.Pushed), "local change", "local changes")))
	return nil
}
