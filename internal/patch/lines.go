package patch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrPatchFailed is returned when a line patch does not match the content it
// is applied to. It triggers the strategy fallback of Modified.Apply.
var ErrPatchFailed = errors.New("patch does not apply")

// contextLines is the number of unchanged lines kept around every hunk, both
// when rendering and when locating a hunk in diverged content.
const contextLines = 2

// splitLines splits content into lines without terminators. A trailing
// newline does not produce an empty last line and CRLF endings are folded.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	s := strings.TrimSuffix(string(content), "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// joinLines is the inverse of splitLines; every line gets a newline.
func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// hunk is a contiguous replacement: old, which includes surrounding context,
// becomes new. oldStart is the zero based position of old in the baseline.
type hunk struct {
	oldStart int
	old      []string
	new      []string
}

// lineDiff is the edit script between baseline lines a and revised lines b.
type lineDiff struct {
	a, b  []string
	edits []difflib.OpCode
	hunks []hunk
}

func diffLines(a, b []string) *lineDiff {
	d := &lineDiff{a: a, b: b}

	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		if op.Tag != 'e' {
			d.edits = append(d.edits, op)
		}
	}
	if len(d.edits) == 0 {
		return d
	}

	for _, group := range difflib.NewMatcher(a, b).GetGroupedOpCodes(contextLines) {
		first, last := group[0], group[len(group)-1]
		d.hunks = append(d.hunks, hunk{
			oldStart: first.I1,
			old:      a[first.I1:last.I2],
			new:      b[first.J1:last.J2],
		})
	}
	return d
}

func (d *lineDiff) empty() bool {
	return len(d.edits) == 0
}

// stats counts inserted and deleted lines.
func (d *lineDiff) stats() (additions, deletions int) {
	for _, op := range d.edits {
		switch op.Tag {
		case 'i':
			additions += op.J2 - op.J1
		case 'd':
			deletions += op.I2 - op.I1
		case 'r':
			additions += op.J2 - op.J1
			deletions += op.I2 - op.I1
		}
	}
	return additions, deletions
}

// applyTo replays the hunks on target. Each hunk must be found verbatim,
// context included; it is searched first where the previous hunks put it and
// then progressively further away.
func (d *lineDiff) applyTo(target []string) ([]string, error) {
	out := make([]string, 0, len(target))
	cursor, offset := 0, 0
	for _, h := range d.hunks {
		at, ok := locate(target, h.old, h.oldStart+offset, cursor)
		if !ok {
			return nil, fmt.Errorf("%w: hunk at line %d not found", ErrPatchFailed, h.oldStart+1)
		}
		out = append(out, target[cursor:at]...)
		out = append(out, h.new...)
		cursor = at + len(h.old)
		offset = at - h.oldStart
	}
	return append(out, target[cursor:]...), nil
}

func locate(target, old []string, want, from int) (int, bool) {
	last := len(target) - len(old)
	if last < from {
		return 0, false
	}
	want = min(max(want, from), last)
	for delta := 0; want-delta >= from || want+delta <= last; delta++ {
		if p := want - delta; p >= from && matchAt(target, old, p) {
			return p, true
		}
		if p := want + delta; delta > 0 && p <= last && matchAt(target, old, p) {
			return p, true
		}
	}
	return 0, false
}

func matchAt(target, old []string, at int) bool {
	for i, line := range old {
		if target[at+i] != line {
			return false
		}
	}
	return true
}

// writeUnified renders the diff in unified format.
func (d *lineDiff) writeUnified(w io.Writer, from, to string) error {
	return difflib.WriteUnifiedDiff(w, difflib.UnifiedDiff{
		A:        withEOL(d.a),
		B:        withEOL(d.b),
		FromFile: from,
		ToFile:   to,
		Context:  contextLines,
	})
}

func withEOL(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}
