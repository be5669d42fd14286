// Package sanitize coerces scraped HTML fragments into safe text before
// storage. Adapters hand the engine whatever a listing page or feed entry
// contained; everything passes through here so raw parser output never
// reaches the database.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips unsafe markup from record bodies. The zero value is not
// usable; construct with New. Safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New builds a sanitizer with a user-generated-content policy: basic
// formatting tags survive, scripts, styles, iframes and event-handler
// attributes do not, and links are forced to rel="nofollow".
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// Sanitize returns the sanitized form of raw, with surrounding whitespace
// trimmed. Sanitizing the same input twice yields the same output.
func (s *Sanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
