package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultProfile is used when neither the flag nor the environment names one.
	DefaultProfile = "default"

	// EnvProfile selects the active profile when --profile is not given.
	EnvProfile = "GMCLI_PROFILE"

	// EnvConfigDir overrides the config directory.
	EnvConfigDir = "GMCLI_CONFIG_DIR"

	configFileName  = "config.json"
	tokenFileSuffix = ".token.json"
)

var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Entry is the per-profile record stored in config.json.
type Entry struct {
	Credentials string `json:"credentials"`
}

// Profile is the resolved, immutable profile for one process invocation.
type Profile struct {
	Name            string
	CredentialsPath string
	dir             string
}

// TokenPath returns the file holding this profile's OAuth token.
func (p *Profile) TokenPath() string {
	return TokenPath(p.dir, p.Name)
}

// OAuthConfig parses the profile's Google client file into an oauth2 config
// requesting the given scopes.
func (p *Profile) OAuthConfig(scopes ...string) (*oauth2.Config, error) {
	return LoadCredentials(p.CredentialsPath, scopes...)
}

// LoadCredentials reads a Google "installed" or "web" client JSON file.
func LoadCredentials(path string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CredentialsInvalidError{Path: path, Err: err}
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, &CredentialsInvalidError{Path: path, Err: err}
	}
	if conf.ClientID == "" {
		return nil, &CredentialsInvalidError{Path: path, Err: errors.New("client_id is empty")}
	}
	return conf, nil
}

// TokenPath returns {dir}/{profile}.token.json.
func TokenPath(dir, name string) string {
	return filepath.Join(dir, name+tokenFileSuffix)
}

// ValidateName checks that a profile name is safe to embed in a file name.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w %q: use letters, digits, '-' or '_'", ErrInvalidProfileName, name)
	}
	return nil
}

// Resolve picks the active profile name: flag, then $GMCLI_PROFILE, then "default".
func Resolve(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvProfile); env != "" {
		return env
	}
	return DefaultProfile
}

// DefaultDir returns $GMCLI_CONFIG_DIR or the user config directory joined with "gmcli".
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(base, "gmcli"), nil
}

// Store reads and writes config.json in a config directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the config directory.
func (s *Store) Dir() string {
	return s.dir
}

// ConfigPath returns the path of config.json.
func (s *Store) ConfigPath() string {
	return filepath.Join(s.dir, configFileName)
}

func (s *Store) read() (map[string]Entry, error) {
	path := s.ConfigPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigMissingError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	entries := map[string]Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return entries, nil
}

// Load resolves the named profile. It fails fast with ConfigMissingError or
// ProfileNotFoundError (listing the configured profiles).
func (s *Store) Load(name string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	entry, ok := entries[name]
	if !ok {
		return nil, &ProfileNotFoundError{Profile: name, Available: sortedNames(entries)}
	}
	if entry.Credentials == "" {
		return nil, &CredentialsInvalidError{Path: s.ConfigPath(), Err: fmt.Errorf("profile %q has no credentials path", name)}
	}
	return &Profile{
		Name:            name,
		CredentialsPath: expand(entry.Credentials, s.dir),
		dir:             s.dir,
	}, nil
}

// Names returns the configured profile names in sorted order.
func (s *Store) Names() ([]string, error) {
	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	return sortedNames(entries), nil
}

// Add registers (or replaces) a profile after checking its credentials parse.
func (s *Store) Add(name, credentialsPath string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	abs, err := filepath.Abs(expand(credentialsPath, ""))
	if err != nil {
		return fmt.Errorf("failed to resolve credentials path: %w", err)
	}
	if _, err := LoadCredentials(abs); err != nil {
		return err
	}

	entries, err := s.read()
	var missing *ConfigMissingError
	if errors.As(err, &missing) {
		entries = map[string]Entry{}
	} else if err != nil {
		return err
	}
	entries[name] = Entry{Credentials: abs}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.ConfigPath(), append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func sortedNames(entries map[string]Entry) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expand resolves "~/" against the home directory and relative paths against base.
func expand(path, base string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if base != "" && !filepath.IsAbs(path) {
		return filepath.Join(base, path)
	}
	return path
}
