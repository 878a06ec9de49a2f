package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var namePolicy = bluemonday.StrictPolicy()

// sanitizeName strips markup from a display name and stores it as plain text.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = namePolicy.Sanitize(name)
	return strings.TrimSpace(html.UnescapeString(name))
}

// normalizeEmail lower-cases the domain part and leaves the local part alone.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
