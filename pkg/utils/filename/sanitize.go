// Package filename turns arbitrary identifiers into safe path components.
package filename

import (
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// invalidCharsRe matches characters not safe for filenames across all major OSes.
var invalidCharsRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// multiDash collapses runs of dashes/underscores.
var multiDash = regexp.MustCompile(`[-_]{2,}`)

const defaultMaxLen = 120

// Sanitize converts an arbitrary string into a filename-safe slug. Path
// separators, reserved characters and whitespace become dashes; leading and
// trailing dashes and dots are stripped, so the result is never "." or "..".
// The output is at most maxLen bytes (120 when maxLen <= 0) and is cut on a
// rune boundary.
func Sanitize(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}

	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	s = invalidCharsRe.ReplaceAllString(s, "-")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return '-'
		}
		return r
	}, s)
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")

	if len(s) > maxLen {
		s = s[:maxLen]
		for len(s) > 0 && !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
		s = strings.TrimRight(s, "-.")
	}

	return s
}

// SanitizeUnique is Sanitize with a short hash of the original appended
// whenever sanitizing changed the name, so distinct inputs such as "a/b" and
// "a-b" never share a directory.
func SanitizeUnique(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	const suffixLen = 9 // "-" + 8 hex digits

	s := Sanitize(name, maxLen)
	if s == name && s != "" {
		return s
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	sum := strconv.FormatUint(uint64(h.Sum32()), 16)
	sum = strings.Repeat("0", 8-len(sum)) + sum

	if len(s) > maxLen-suffixLen {
		s = Sanitize(s, maxLen-suffixLen)
	}
	if s == "" {
		return "x-" + sum
	}
	return s + "-" + sum
}
