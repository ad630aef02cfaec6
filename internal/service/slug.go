// internal/service/slug.go
package service

import (
	"regexp"
	"strings"
)

var (
	slugStripPattern    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapsePattern = regexp.MustCompile(`[\s_-]+`)
	slugTrimPattern     = regexp.MustCompile(`^-+|-+$`)
)

// Slugify derives a URL-safe identifier from the company and team names.
// The transform is deterministic: lower-case, strip special characters,
// collapse whitespace/underscores/dashes to a single dash, trim dashes.
// An empty result means no valid slug can be derived from the inputs.
func Slugify(companyName, teamName string) string {
	combined := companyName + "-" + teamName
	s := strings.ToLower(strings.TrimSpace(combined))
	s = slugStripPattern.ReplaceAllString(s, "")
	s = slugCollapsePattern.ReplaceAllString(s, "-")
	s = slugTrimPattern.ReplaceAllString(s, "")
	return s
}
