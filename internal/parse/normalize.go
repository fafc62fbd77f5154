// Package parse turns the free text found on job boards into normalized fields.
package parse

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

// Normalize trims s and collapses every whitespace run to a single space.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Marketing fragments that VC boards concatenate onto the title text.
var titleArtifacts = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.\s*privacy\s+notice.*$`),
	regexp.MustCompile(`(?i)portfolio\s+job\s+opportunities.*$`),
	regexp.MustCompile(`(?i)your\s+career.*$`),
	regexp.MustCompile(`(?i)\d+\s+opportunities.*$`),
	regexp.MustCompile(`(?i)build\s+the\s+future.*$`),
	regexp.MustCompile(`(?i)\s+from\s+here.*$`),
	regexp.MustCompile(`\s*[›→»]+\s*$`),
}

// CleanTitle normalizes a title and strips trailing board artifacts.
func CleanTitle(s string) string {
	s = Normalize(s)
	for _, re := range titleArtifacts {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// FirstLine returns the first non-empty line of s, normalized.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = Normalize(line); line != "" {
			return line
		}
	}
	return ""
}
