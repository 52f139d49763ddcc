package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/apivcs/internal/patch"
)

// change is the JSON form of a patch.
type change struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

func changesOf(patches []patch.Patch) []change {
	out := make([]change, 0, len(patches))
	for _, p := range patches {
		out = append(out, change{Kind: p.Kind().String(), Path: p.Path()})
	}
	return out
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the binding and local changes of the working tree",
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

		result, err := a.syncer.Status(cmd.Context(), root)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, struct {
				ProjectID string   `json:"project_id"`
				Branch    string   `json:"branch"`
				OrgID     string   `json:"org_id,omitempty"`
				Changes   []change `json:"changes"`
			}{
				ProjectID: result.Binding.ProjectID,
				Branch:    result.Binding.Branch,
				OrgID:     result.Binding.OrgID,
				Changes:   changesOf(result.Diff.Patches),
			})
		}

		PrintLabelValue(out, "Project", result.Binding.ProjectID)
		PrintLabelValue(out, "Branch", result.Binding.Branch)
		if result.Binding.OrgID != "" {
			PrintLabelValue(out, "Organization", result.Binding.OrgID)
		}
		PrintInfo(out, "")

		if result.Diff.Empty() {
			PrintEmptyState(out, "No local changes")
			return nil
		}
		for _, p := range result.Diff.Patches {
			PrintChange(out, p)
		}
		if conflicts := result.Diff.Conflicts(); len(conflicts) > 0 {
			PrintInfo(out, "")
			PrintWarning(out, fmt.Sprintf("%s; use 'apivcs resolve' or 'apivcs mark-resolved'",
				PrintCount(len(conflicts), "unresolved conflict", "unresolved conflicts")))
		}
		return nil
	},
}
