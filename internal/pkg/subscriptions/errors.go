package subscriptions

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a subscription does not exist.
	ErrNotFound = errors.New("subscription not found")
	// ErrForbidden is returned when a user touches another user's subscription.
	ErrForbidden = errors.New("subscription belongs to another user")
)

// ValidationError reports input that cannot be turned into a subscription.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
