package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/teemow/gmcli/internal/instrumentation"
	"github.com/teemow/gmcli/internal/logging"
	"github.com/teemow/gmcli/internal/profile"
)

// Manager owns the OAuth2 client, the stored token and the login flow for
// one profile.
type Manager struct {
	profile      string
	config       *oauth2.Config
	store        *TokenStore
	metrics      *instrumentation.Metrics
	logger       *slog.Logger
	apiOptions   []option.ClientOption
	callbackAddr string
	browser      func(url string) error
	now          func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics records OAuth and Google API metrics on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(mgr *Manager) { mgr.logger = l }
}

// WithAPIOptions adds client options to the Gmail and OAuth2 API services
// used for account probing.
func WithAPIOptions(opts ...option.ClientOption) Option {
	return func(mgr *Manager) { mgr.apiOptions = append(mgr.apiOptions, opts...) }
}

// WithCallbackAddr overrides the listen address of the login callback.
func WithCallbackAddr(addr string) Option {
	return func(mgr *Manager) { mgr.callbackAddr = addr }
}

// WithBrowser replaces the function used to open the authorization URL.
func WithBrowser(open func(url string) error) Option {
	return func(mgr *Manager) { mgr.browser = open }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

// NewManager creates a manager for the named profile.
func NewManager(profileName string, config *oauth2.Config, store *TokenStore, opts ...Option) *Manager {
	m := &Manager{
		profile:      profileName,
		config:       config,
		store:        store,
		logger:       slog.Default(),
		callbackAddr: fmt.Sprintf("127.0.0.1:%d", DefaultCallbackPort),
		browser:      openBrowser,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.WithProfile(m.logger, profileName)
	return m
}

// FromProfile loads the profile's credentials and creates its manager.
func FromProfile(p *profile.Profile, opts ...Option) (*Manager, error) {
	conf, err := p.OAuthConfig(GmailScopes...)
	if err != nil {
		return nil, err
	}
	return NewManager(p.Name, conf, NewTokenStore(p.TokenPath()), opts...), nil
}

// Profile returns the profile name.
func (m *Manager) Profile() string {
	return m.profile
}

// Store returns the token store.
func (m *Manager) Store() *TokenStore {
	return m.store
}

// Metrics returns the metrics recorder, possibly nil.
func (m *Manager) Metrics() *instrumentation.Metrics {
	return m.metrics
}

// LoginOptions controls the interactive login.
type LoginOptions struct {
	// OpenBrowser tries to open the authorization URL in a browser.
	OpenBrowser bool

	// Timeout bounds the wait for the browser callback. Zero waits forever.
	Timeout time.Duration

	// OnAuthURL receives the authorization URL before the wait starts.
	OnAuthURL func(url string)
}

// AccountInfo describes the authenticated account.
type AccountInfo struct {
	Email  string    `json:"email"`
	Scopes []string  `json:"scopes"`
	Expiry time.Time `json:"expiry,omitempty"`
}

// Login runs the authorization-code flow and persists the resulting token.
func (m *Manager) Login(ctx context.Context, opts LoginOptions) (*AccountInfo, error) {
	logger := logging.WithOperation(m.logger, "auth.login")
	start := time.Now()

	info, err := m.login(ctx, opts, logger)
	result := instrumentation.OAuthResultSuccess
	if err != nil {
		result = instrumentation.OAuthResultFailure
		logger.Warn("login failed", logging.Err(err), logging.Status(logging.StatusError))
	} else {
		logger.Info("login succeeded",
			logging.UserHash(info.Email),
			slog.Duration(logging.KeyDuration, time.Since(start)),
			logging.Status(logging.StatusSuccess))
	}
	m.metrics.RecordOAuthAuth(ctx, result)
	return info, err
}

func (m *Manager) login(ctx context.Context, opts LoginOptions, logger *slog.Logger) (*AccountInfo, error) {
	ln, err := net.Listen("tcp", m.callbackAddr)
	if err != nil {
		return nil, &AuthFlowError{Reason: "cannot listen on " + m.callbackAddr, Err: err}
	}

	conf := *m.config
	conf.RedirectURL = fmt.Sprintf("http://localhost:%d%s", ln.Addr().(*net.TCPAddr).Port, CallbackPath)

	state := xid.New().String()
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	if opts.OnAuthURL != nil {
		opts.OnAuthURL(authURL)
	}
	if opts.OpenBrowser && m.browser != nil {
		if err := m.browser(authURL); err != nil {
			logger.Warn("could not open browser", logging.Err(err))
		}
	}

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// awaitCallback closes ln in every case.
	code, err := awaitCallback(waitCtx, ln, state, logger)
	if err != nil {
		return nil, err
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthFlowError{Reason: "code exchange failed", Err: err}
	}

	stored := TokenFromOAuth2(tok)
	if err := m.store.Save(stored); err != nil {
		return nil, err
	}

	client := conf.Client(ctx, tok)
	info, err := m.accountInfo(ctx, client, tok.AccessToken)
	if err != nil {
		// The token is saved; report what the exchange returned.
		logger.Warn("failed to resolve account after login", logging.Err(err))
		return &AccountInfo{Scopes: stored.Scopes(), Expiry: stored.Expiry()}, nil
	}
	return info, nil
}

// Logout deletes the stored token. It reports whether a token existed.
func (m *Manager) Logout() (bool, error) {
	removed, err := m.store.Delete()
	if err != nil {
		return false, err
	}
	logging.WithOperation(m.logger, "auth.logout").Info("logout", "removed", removed)
	return removed, nil
}

// Status is the result of an authentication check.
type Status struct {
	Profile       string       `json:"profile"`
	Authenticated bool         `json:"authenticated"`
	Valid         bool         `json:"valid"`
	Reason        string       `json:"reason,omitempty"`
	Account       *AccountInfo `json:"account,omitempty"`
}

// StatusInvalidReason is reported for any failure while probing a stored token.
const StatusInvalidReason = "token expired or invalid"

// Status reports the authentication state. Without a token it makes no
// network calls; any failure while probing a stored token is reported as
// StatusInvalidReason instead of an error.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	st := &Status{Profile: m.profile}

	tok, err := m.store.Load()
	if errors.Is(err, ErrNotAuthenticated) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}
	st.Authenticated = true

	logger := logging.WithOperation(m.logger, "auth.status")
	client, err := m.Client(ctx)
	if err != nil {
		logger.Debug("status probe failed", logging.Err(err))
		st.Reason = StatusInvalidReason
		return st, nil
	}

	// Client may have refreshed the token.
	if fresh, err := m.store.Load(); err == nil {
		tok = fresh
	}

	info, err := m.accountInfo(ctx, client, tok.AccessToken)
	if err != nil {
		logger.Debug("status probe failed", logging.Err(err))
		st.Reason = StatusInvalidReason
		return st, nil
	}
	st.Valid = true
	st.Account = info
	return st, nil
}

// Client returns an authenticated HTTP client. A stored token whose expiry
// lies in the past is refreshed once and persisted before the client is
// built; tokens refreshed later by the client are persisted as well.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	tok, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	if tok.Expired(m.now()) {
		tok, err = m.refresh(ctx, tok)
		if err != nil {
			return nil, err
		}
	}

	src := &persistingTokenSource{
		src:     m.config.TokenSource(ctx, tok.OAuth2()),
		current: tok.AccessToken,
		scope:   tok.Scope,
		manager: m,
		ctx:     ctx,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok.OAuth2(), src)), nil
}

func (m *Manager) refresh(ctx context.Context, tok *Token) (*Token, error) {
	logger := logging.WithOperation(m.logger, "auth.refresh")

	if tok.RefreshToken == "" {
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, &TokenRefreshError{Err: errors.New("token expired and no refresh token is stored")}
	}

	expired := tok.OAuth2()
	expired.Expiry = m.now().Add(-time.Minute)
	fresh, err := m.config.TokenSource(ctx, expired).Token()
	if err != nil {
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("token refresh failed", logging.Err(err))
		return nil, &TokenRefreshError{Err: err}
	}
	m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)

	updated := mergeToken(tok, fresh)
	if err := m.store.Save(updated); err != nil {
		return nil, err
	}
	logger.Debug("token refreshed",
		"access_token", logging.SanitizeToken(updated.AccessToken),
		"expiry", updated.Expiry(),
	)
	return updated, nil
}

// mergeToken keeps the previous refresh token and scope when the refresh
// response omits them.
func mergeToken(prev *Token, fresh *oauth2.Token) *Token {
	updated := TokenFromOAuth2(fresh)
	if updated.RefreshToken == "" {
		updated.RefreshToken = prev.RefreshToken
	}
	if updated.Scope == "" {
		updated.Scope = prev.Scope
	}
	return updated
}

func (m *Manager) accountInfo(ctx context.Context, client *http.Client, accessToken string) (*AccountInfo, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, m.apiOptions...)

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	var prof *gmail.Profile
	err = instrumentation.ObserveGoogleAPI(ctx, m.metrics, instrumentation.ServiceGmail, instrumentation.OperationProfile, func(ctx context.Context) error {
		var err error
		prof, err = svc.Users.GetProfile("me").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account profile: %w", err)
	}

	oauthSvc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}
	var ti *oauth2api.Tokeninfo
	err = instrumentation.ObserveGoogleAPI(ctx, m.metrics, instrumentation.ServiceOAuth2, instrumentation.OperationTokenInfo, func(ctx context.Context) error {
		var err error
		ti, err = oauthSvc.Tokeninfo().AccessToken(accessToken).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token info: %w", err)
	}

	info := &AccountInfo{
		Email:  prof.EmailAddress,
		Scopes: strings.Fields(ti.Scope),
	}
	if ti.ExpiresIn > 0 {
		info.Expiry = m.now().Add(time.Duration(ti.ExpiresIn) * time.Second)
	}
	return info, nil
}

// persistingTokenSource saves every token the underlying source refreshes.
type persistingTokenSource struct {
	mu      sync.Mutex
	src     oauth2.TokenSource
	current string
	scope   string
	manager *Manager
	ctx     context.Context
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.src.Token()
	if err != nil {
		s.manager.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultFailure)
		return nil, &TokenRefreshError{Err: err}
	}
	if tok.AccessToken == s.current {
		return tok, nil
	}

	s.current = tok.AccessToken
	s.manager.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultSuccess)
	updated := mergeToken(&Token{Scope: s.scope}, tok)
	if err := s.manager.store.Save(updated); err != nil {
		s.manager.logger.Warn("failed to persist refreshed token", logging.Err(err))
	}
	return tok, nil
}
