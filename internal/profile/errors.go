package profile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProfileName is returned for profile names outside [A-Za-z0-9_-].
var ErrInvalidProfileName = errors.New("invalid profile name")

// ConfigMissingError reports that config.json does not exist.
type ConfigMissingError struct {
	Path string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("config file %s not found; run 'gmcli profile add <name> --credentials <file>' first", e.Path)
}

// ProfileNotFoundError reports a profile absent from config.json.
type ProfileNotFoundError struct {
	Profile   string
	Available []string
}

func (e *ProfileNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("profile %q not found; no profiles are configured", e.Profile)
	}
	return fmt.Sprintf("profile %q not found; available profiles: %s", e.Profile, strings.Join(e.Available, ", "))
}

// CredentialsInvalidError reports an unreadable or malformed OAuth client file.
type CredentialsInvalidError struct {
	Path string
	Err  error
}

func (e *CredentialsInvalidError) Error() string {
	return fmt.Sprintf("invalid OAuth credentials file %s: %v", e.Path, e.Err)
}

func (e *CredentialsInvalidError) Unwrap() error {
	return e.Err
}
