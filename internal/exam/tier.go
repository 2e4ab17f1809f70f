// Package exam builds mock exams from tiered problem pools.
package exam

import (
	"fmt"
	"strings"

	appErr "mockct/pkg/errors"
)

// tierOrder lists solved.ac tiers from level 1 to 30.
var tierOrder = [...]string{
	"B5", "B4", "B3", "B2", "B1",
	"S5", "S4", "S3", "S2", "S1",
	"G5", "G4", "G3", "G2", "G1",
	"P5", "P4", "P3", "P2", "P1",
	"D5", "D4", "D3", "D2", "D1",
	"R5", "R4", "R3", "R2", "R1",
}

const (
	MinLevel = 1
	MaxLevel = len(tierOrder)
)

// TierRange is an inclusive solved.ac level range.
type TierRange struct {
	Lo int
	Hi int
}

func (r TierRange) String() string {
	if r.Lo == r.Hi {
		return TierName(r.Lo)
	}
	return TierName(r.Lo) + "~" + TierName(r.Hi)
}

// Query renders the range as a solved.ac search term.
func (r TierRange) Query() string {
	return fmt.Sprintf("tier:%d..%d", r.Lo, r.Hi)
}

// TierLevel returns the level of a tier name like "G4".
func TierLevel(name string) (int, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, t := range tierOrder {
		if t == name {
			return i + 1, true
		}
	}
	return 0, false
}

// TierName returns the tier for level, clamped to B5..R1.
func TierName(level int) string {
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return tierOrder[level-1]
}

// ParseTierRange parses "B2~S4" or a single tier. Reversed bounds are swapped.
func ParseTierRange(expr string) (TierRange, error) {
	s := strings.ReplaceAll(expr, " ", "")
	lo, hi, found := strings.Cut(s, "~")
	if !found {
		hi = lo
	}
	a, okA := TierLevel(lo)
	b, okB := TierLevel(hi)
	if !okA || !okB {
		return TierRange{}, appErr.Newf(appErr.InvalidTierRange, "invalid tier range %q", expr)
	}
	if a > b {
		a, b = b, a
	}
	return TierRange{Lo: a, Hi: b}, nil
}
