package drupal

import (
	"errors"
	"fmt"
)

// ErrAuth marks a credential or session rejection. Callers must stop
// publishing when they see it; retrying with the same session cannot succeed.
var ErrAuth = errors.New("cms rejected authentication")

// ServerError is a non-auth HTTP failure for a single node POST. The record
// stays pending and the publish loop moves on.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("cms returned %d: %s", e.StatusCode, e.Body)
}
