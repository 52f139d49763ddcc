package cli

import (
	"io"

	"github.com/danieljhkim/apivcs/internal/patch"
)

// progress prints merge and upload progress.
type progress struct {
	w io.Writer
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

func (p *progress) StartApplying(total int) {
	if total > 0 {
		_, _ = infoColor.Fprintf(p.w, "Applying %s\n", PrintCount(total, "remote change", "remote changes"))
	}
}

func (p *progress) Applied(change patch.Patch, result patch.ApplyResult) {
	if result.Success {
		PrintChange(p.w, change)
		return
	}
	_, _ = warningColor.Fprintf(p.w, "  %-19s", "conflict:")
	_, _ = warningColor.Fprintf(p.w, "%s (%s)\n", change.Path(), result.Message)
}

func (p *progress) EndApplying() {}

func (p *progress) StartPushing(total int) {
	if total > 0 {
		_, _ = infoColor.Fprintf(p.w, "Pushing %s\n", PrintCount(total, "local change", "local changes"))
	}
}

func (p *progress) Pushing(change patch.Patch) {
	PrintChange(p.w, change)
}

func (p *progress) EndPushing() {}
