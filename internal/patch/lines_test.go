package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "empty", content: "", want: nil},
		{name: "trailing newline", content: "a\nb\n", want: []string{"a", "b"}},
		{name: "no trailing newline", content: "a\nb", want: []string{"a", "b"}},
		{name: "blank last line", content: "a\n\n", want: []string{"a", ""}},
		{name: "crlf", content: "a\r\nb\r\n", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitLines([]byte(tt.content)))
		})
	}
}

func TestLineDiff_ApplyTo(t *testing.T) {
	baseline := strings.Split("one two three four five six seven eight", " ")
	revised := strings.Split("one two three four five six SEVEN eight", " ")
	d := diffLines(baseline, revised)
	require.Len(t, d.hunks, 1)

	t.Run("applies to the baseline", func(t *testing.T) {
		got, err := d.applyTo(baseline)
		require.NoError(t, err)
		assert.Equal(t, revised, got)
	})

	t.Run("applies at an offset", func(t *testing.T) {
		target := append([]string{"zero"}, baseline...)
		got, err := d.applyTo(target)
		require.NoError(t, err)
		assert.Equal(t, append([]string{"zero"}, revised...), got)
	})

	t.Run("rejects diverged context", func(t *testing.T) {
		target := strings.Split("one two three four five six 7 eight", " ")
		_, err := d.applyTo(target)
		assert.ErrorIs(t, err, ErrPatchFailed)
	})

	t.Run("applies multiple hunks in order", func(t *testing.T) {
		a := strings.Split("a b c d e f g h i j k l", " ")
		b := strings.Split("A b c d e f g h i j k L", " ")
		multi := diffLines(a, b)
		require.Len(t, multi.hunks, 2)

		target := strings.Split("a b c d x e f g h i j k l", " ")
		got, err := multi.applyTo(target)
		require.NoError(t, err)
		assert.Equal(t, strings.Split("A b c d x e f g h i j k L", " "), got)
	})
}

func TestLineDiff_Stats(t *testing.T) {
	d := diffLines([]string{"a", "b", "c"}, []string{"a", "B", "c", "d"})
	additions, deletions := d.stats()
	assert.Equal(t, 2, additions)
	assert.Equal(t, 1, deletions)
}
