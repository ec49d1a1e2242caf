// Package errdetect pulls a short, human-pointable error line out of
// captured command output.
//
// Console output parsing is inherently fragile; the extracted line is a
// hint for run listings and CLI output, never part of the persisted
// summary contract.
package errdetect

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxErrorLineLength bounds the extracted line so one pathological log
// line cannot blow up run listings.
const maxErrorLineLength = 200

// ExtractLine returns the first line of output that looks like an error,
// trimmed and truncated to 200 characters. Returns "" when no line
// matches.
//
// Output is NFC-normalized before matching so decomposed characters from
// serial consoles compare like their composed forms.
func ExtractLine(output string) string {
	for _, line := range strings.Split(norm.NFC.String(output), "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error:") || strings.Contains(lower, "failed") {
			line = strings.TrimSpace(line)
			if len(line) > maxErrorLineLength {
				line = line[:maxErrorLineLength]
			}
			return line
		}
	}
	return ""
}
