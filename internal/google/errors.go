package google

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when the active profile has no stored token.
var ErrNotAuthenticated = errors.New("not authenticated; run 'gmcli auth login' first")

// AuthFlowError reports a failed interactive login: no code in the callback,
// a state mismatch, an elapsed timeout or a failed code exchange.
type AuthFlowError struct {
	Reason string
	Err    error
}

func (e *AuthFlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authorization failed: %s: %v", e.Reason, e.Err)
	}
	return "authorization failed: " + e.Reason
}

func (e *AuthFlowError) Unwrap() error {
	return e.Err
}

// TokenRefreshError reports that an expired token could not be refreshed.
type TokenRefreshError struct {
	Err error
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("failed to refresh access token (%v); run 'gmcli auth login' again", e.Err)
}

func (e *TokenRefreshError) Unwrap() error {
	return e.Err
}
