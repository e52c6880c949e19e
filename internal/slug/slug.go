// Package slug derives the cosmetic URL segment of a form from its title.
package slug

import (
	"regexp"
	"strings"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^\w-]+`)
	hyphens    = regexp.MustCompile(`--+`)
)

// Make lowercases and trims the title, turns whitespace runs into single
// hyphens, drops everything that is not a word character or hyphen and
// collapses repeated hyphens. An empty title gives an empty slug.
func Make(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = whitespace.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	return hyphens.ReplaceAllString(s, "-")
}
