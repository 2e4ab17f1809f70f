package sample

import (
	"fmt"
	"strings"
)

const maxDiffPreview = 80

// Normalize converts CRLF to LF, strips trailing whitespace on every line and drops
// trailing blank lines.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r\f\v")
	}
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}

// Equal reports whether actual matches expected after normalization.
func Equal(expected, actual string) bool {
	return Normalize(expected) == Normalize(actual)
}

// Diff describes the first differing line of two outputs, or "" when they match.
func Diff(expected, actual string) string {
	exp := strings.Split(Normalize(expected), "\n")
	act := strings.Split(Normalize(actual), "\n")
	n := len(exp)
	if len(act) > n {
		n = len(act)
	}
	for i := 0; i < n; i++ {
		var e, a string
		eok, aok := i < len(exp), i < len(act)
		if eok {
			e = exp[i]
		}
		if aok {
			a = act[i]
		}
		if eok && aok && e == a {
			continue
		}
		switch {
		case !aok:
			return fmt.Sprintf("line %d: expected %q, got end of output", i+1, preview(e))
		case !eok:
			return fmt.Sprintf("line %d: expected end of output, got %q", i+1, preview(a))
		default:
			return fmt.Sprintf("line %d: expected %q, got %q", i+1, preview(e), preview(a))
		}
	}
	return ""
}

func preview(s string) string {
	if len(s) <= maxDiffPreview {
		return s
	}
	return s[:maxDiffPreview] + "..."
}
