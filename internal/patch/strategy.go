package patch

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var _ pflag.Value = (*Strategy)(nil)

// Strategy governs how an incoming change that collides with local edits is settled.
type Strategy string

const (
	// KeepOurs keeps the local version and reports the collision.
	KeepOurs Strategy = "KEEP_OURS"

	// KeepTheirs replaces the local version with the incoming one.
	KeepTheirs Strategy = "KEEP_THEIRS"

	// KeepBoth keeps the local version and stores the incoming one in conflict
	// markers for manual resolution.
	KeepBoth Strategy = "KEEP_BOTH"
)

// DefaultStrategy is used when the caller does not pick one.
const DefaultStrategy = KeepBoth

// Strategies lists every supported strategy.
func Strategies() []Strategy {
	return []Strategy{KeepOurs, KeepTheirs, KeepBoth}
}

// ParseStrategy parses a strategy name case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	candidate := Strategy(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Strategies() {
		if candidate == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown merge strategy %q (expected one of KEEP_OURS, KEEP_THEIRS, KEEP_BOTH)", s)
}

// String implements pflag.Value.
func (s *Strategy) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Set implements pflag.Value.
func (s *Strategy) Set(value string) error {
	parsed, err := ParseStrategy(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *Strategy) Type() string {
	return "strategy"
}
