package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var groupSlugRegex = regexp.MustCompile(`^[a-z0-9_-]{1,100}$`)

// ValidateGroupSlug checks that a slug is URL-safe and at most 100 characters.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 1-100 characters of lowercase letters, numbers, underscores or hyphens")
	}
	return nil
}

// ValidateGroupTitle checks that a title is present and at most 200 characters.
func ValidateGroupTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > 200 {
		return fmt.Errorf("title must not exceed 200 characters")
	}
	return nil
}
