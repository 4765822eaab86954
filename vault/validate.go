package vault

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func validateText(value, label string, maxLen int) error {
	if value == "" {
		return validationErrorf("%s must not be empty", label)
	}
	if len(value) > maxLen {
		return validationErrorf("%s exceeds maximum length of %d", label, maxLen)
	}
	if !utf8.ValidString(value) {
		return validationErrorf("%s contains invalid UTF-8", label)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return validationErrorf("%s contains control character", label)
		}
	}
	return nil
}

func validateCandidate(c *Candidate) error {
	c.SiteName = strings.TrimSpace(c.SiteName)
	c.SiteURL = strings.TrimSpace(c.SiteURL)
	c.Username = strings.TrimSpace(c.Username)

	if err := validateText(c.SiteName, "site name", MaxSiteNameLength); err != nil {
		return err
	}
	if err := validateText(c.SiteURL, "site URL", MaxSiteURLLength); err != nil {
		return err
	}
	if err := validateText(c.Username, "username", MaxUsernameLength); err != nil {
		return err
	}
	if c.Password == "" {
		return validationErrorf("password must not be empty")
	}
	if len(c.Password) > MaxSecretSize {
		return validationErrorf("password exceeds maximum size of %d bytes", MaxSecretSize)
	}
	if len(c.Notes) > MaxNotesLength {
		return validationErrorf("notes exceed maximum length of %d", MaxNotesLength)
	}
	switch c.Source {
	case "", SourceManual, SourceDetected, SourceImported:
	default:
		return validationErrorf("unknown source %q", c.Source)
	}
	return nil
}
