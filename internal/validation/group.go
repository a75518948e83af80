package validation

import (
	"errors"
	"regexp"
)

var groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,100}$`)

var reservedGroupSlugs = map[string]struct{}{
	"create":  {},
	"follow":  {},
	"auth":    {},
	"media":   {},
	"static":  {},
	"metrics": {},
	"health":  {},
}

// ValidateGroupSlug validates group slug format and reserved names.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return errors.New("slug must be 1-100 characters of letters, numbers, underscores or hyphens")
	}
	if _, exists := reservedGroupSlugs[slug]; exists {
		return errors.New("slug is reserved")
	}
	return nil
}

// ValidateGroupTitle checks that a group title is present and short enough.
func ValidateGroupTitle(title string) error {
	if title == "" {
		return errors.New(MsgRequired)
	}
	if len([]rune(title)) > 200 {
		return errors.New("Ensure this value has at most 200 characters.")
	}
	return nil
}
