package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/apivcs/internal/patch"
)

var (
	diffNameOnly   bool
	diffNameStatus bool
)

var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Show local changes as unified diffs",
	Long: `Display the local changes of the working tree against the snapshot taken at
the last sync. A path limits the output to that file or directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workingTree()
		if err != nil {
			return err
		}
		var rel string
		if len(args) == 1 {
			if root, rel, err = treePath(args[0]); err != nil {
				return err
			}
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		d, err := a.syncer.Diff(cmd.Context(), root)
		if err != nil {
			return err
		}

		patches := d.Patches
		if rel != "" && rel != "." {
			patches = d.ForPath(rel)
		}

		out := cmd.OutOrStdout()
		switch {
		case jsonOutput:
			return outputJSON(out, changesOf(patches))
		case diffNameOnly:
			return formatNameOnly(out, patches)
		case diffNameStatus:
			return formatNameStatus(out, patches)
		default:
			return formatDefaultDiff(out, patches)
		}
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffNameOnly, "name-only", false, "Show only file names")
	diffCmd.Flags().BoolVar(&diffNameStatus, "name-status", false, "Show file names with status")
}

// formatNameOnly outputs only filenames.
func formatNameOnly(w io.Writer, patches []patch.Patch) error {
	for _, p := range patches {
		if _, err := fmt.Fprintln(w, p.Path()); err != nil {
			return err
		}
	}
	return nil
}

// formatNameStatus outputs filenames with status indicators (A, D, M, C).
func formatNameStatus(w io.Writer, patches []patch.Patch) error {
	for _, p := range patches {
		_, _ = kindColor(p.Kind()).Fprintf(w, "%s\t%s\n", statusChar(p.Kind()), p.Path())
	}
	return nil
}

// formatDefaultDiff outputs the unified diff of every change plus a summary.
func formatDefaultDiff(w io.Writer, patches []patch.Patch) error {
	if len(patches) == 0 {
		PrintEmptyState(w, "No changes detected")
		return nil
	}

	insertions := 0
	deletions := 0

	for _, p := range patches {
		var buf bytes.Buffer
		if err := p.Print(&buf); err != nil {
			return fmt.Errorf("failed to render %s: %w", p.Path(), err)
		}
		printUnifiedDiff(w, buf.String())

		if s, ok := p.(interface{ Stats() (int, int) }); ok {
			added, deleted := s.Stats()
			insertions += added
			deletions += deleted
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%d file%s changed", len(patches), plural(len(patches)))
	if insertions > 0 {
		_, _ = successColor.Fprintf(w, ", %d insertion%s(+)", insertions, plural(insertions))
	}
	if deletions > 0 {
		_, _ = errorColor.Fprintf(w, ", %d deletion%s(-)", deletions, plural(deletions))
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// statusChar returns the single-character status indicator.
func statusChar(k patch.Kind) string {
	switch k {
	case patch.KindNew:
		return "A"
	case patch.KindDelete:
		return "D"
	case patch.KindModified:
		return "M"
	case patch.KindNewFileConflict, patch.KindMergeConflict:
		return "C"
	default:
		return "?"
	}
}

func plural(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

func printUnifiedDiff(w io.Writer, diffText string) {
	lines := strings.Split(diffText, "\n")
	for i, line := range lines {
		// Preserve trailing newline semantics from generated patches.
		if i == len(lines)-1 && line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Index: "):
			_, _ = headerColor.Fprintln(w, line)
		case strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "--- "):
			_, _ = labelColor.Fprintln(w, line)
		case strings.HasPrefix(line, "@@"):
			_, _ = infoColor.Fprintln(w, line)
		case strings.HasPrefix(line, "+"):
			_, _ = successColor.Fprintln(w, line)
		case strings.HasPrefix(line, "-"):
			_, _ = errorColor.Fprintln(w, line)
		default:
			_, _ = fmt.Fprintln(w, line)
		}
	}
}
