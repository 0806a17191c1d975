package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ConfigError reports a missing credential. It is raised before any network
// call is made.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// AuthError reports that Strava rejected an authorization code or refresh token.
type AuthError struct {
	Op     string // "exchange" or "refresh"
	Detail any    // provider error payload, JSON-decoded when possible
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("oauth %s failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(op string, err error) *AuthError {
	authErr := &AuthError{Op: op, Err: err, Detail: err.Error()}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && len(retrieveErr.Body) > 0 {
		var payload any
		if json.Unmarshal(retrieveErr.Body, &payload) == nil {
			authErr.Detail = payload
		} else {
			authErr.Detail = string(retrieveErr.Body)
		}
	}
	return authErr
}
