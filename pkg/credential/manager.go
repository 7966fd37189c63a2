package credential

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/logger"
	"github.com/yusufsyaifudin/fcmv1/pkg/tracer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

const (
	ScopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"

	DefaultSafetyMargin = 5 * time.Minute
)

// AccessToken is an OAuth2 bearer token. A zero Expiry never expires.
type AccessToken struct {
	Value  string
	Expiry time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithScopes replaces the default cloud-platform scope.
func WithScopes(scopes ...string) Option {
	return func(m *Manager) {
		if len(scopes) > 0 {
			m.scopes = scopes
		}
	}
}

// WithSafetyMargin sets how long before its expiry a token is already treated as expired.
func WithSafetyMargin(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.margin = d
		}
	}
}

// WithHTTPClient sets the client used to call the token endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		if c != nil {
			m.httpClient = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// Manager hands out access tokens for a service account, refreshing them
// through the JWT bearer grant when they are about to expire.
// It is safe for concurrent use, and concurrent callers share one refresh.
type Manager struct {
	key        ServiceAccountKey
	scopes     []string
	margin     time.Duration
	httpClient *http.Client
	now        func() time.Time
	log        logger.Logger
	conf       *jwt.Config

	mu    sync.RWMutex
	token *AccessToken

	// refresh is a one slot semaphore, so waiting on it can honor context cancellation.
	refresh chan struct{}
}

func New(key ServiceAccountKey, opts ...Option) (*Manager, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		key:        key,
		scopes:     []string{ScopeCloudPlatform},
		margin:     DefaultSafetyMargin,
		httpClient: http.DefaultClient,
		now:        time.Now,
		log:        logger.Noop{},
		refresh:    make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(m)
	}

	raw, err := key.JSON()
	if err != nil {
		return nil, fcmerr.Wrap(fcmerr.CodeAuthentication, err, "cannot encode service account key")
	}

	m.conf, err = google.JWTConfigFromJSON(raw, m.scopes...)
	if err != nil {
		return nil, fcmerr.Wrap(fcmerr.CodeAuthentication, err, "cannot build jwt config")
	}

	return m, nil
}

// FromFile loads the service account key file at path.
func FromFile(path string, opts ...Option) (*Manager, error) {
	key, err := ReadKeyFile(path)
	if err != nil {
		return nil, err
	}

	return New(key, opts...)
}

// FromJSON loads the content of a service account key file.
func FromJSON(raw []byte, opts ...Option) (*Manager, error) {
	key, err := ParseKey(raw)
	if err != nil {
		return nil, err
	}

	return New(key, opts...)
}

func FromMap(m map[string]interface{}, opts ...Option) (*Manager, error) {
	key, err := KeyFromMap(m)
	if err != nil {
		return nil, err
	}

	return New(key, opts...)
}

func (m *Manager) ProjectID() string {
	return m.key.ProjectID
}

func (m *Manager) ClientEmail() string {
	return m.key.ClientEmail
}

// Token returns a bearer token that is valid for at least the safety margin.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if tok, ok := m.cached(); ok {
		return tok.Value, nil
	}

	select {
	case m.refresh <- struct{}{}:
	case <-ctx.Done():
		return "", fcmerr.Wrap(fcmerr.CodeAuthentication, ctx.Err(), "gave up waiting for access token refresh")
	}

	defer func() {
		<-m.refresh
	}()

	// select picks at random when both are ready
	if err := ctx.Err(); err != nil {
		return "", fcmerr.Wrap(fcmerr.CodeAuthentication, err, "gave up waiting for access token refresh")
	}

	// another caller may have refreshed while we were waiting
	if tok, ok := m.cached(); ok {
		return tok.Value, nil
	}

	tok, err := m.fetch(ctx)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()

	return tok.Value, nil
}

func (m *Manager) cached() (AccessToken, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == nil || m.expired(m.token) {
		return AccessToken{}, false
	}

	return *m.token, true
}

func (m *Manager) expired(tok *AccessToken) bool {
	if tok.Expiry.IsZero() {
		return false
	}

	return !m.now().Before(tok.Expiry.Add(-m.margin))
}

func (m *Manager) fetch(ctx context.Context) (tok *AccessToken, err error) {
	ctx, span := tracer.StartSpan(ctx, "credential.RefreshToken")
	defer func() {
		tracer.RecordError(span, err)
		span.End()
	}()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.contextClient(ctx))

	t, err := m.conf.TokenSource(ctx).Token()
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		return nil, fcmerr.Wrap(fcmerr.CodeAuthentication, ctxErr, "access token refresh abandoned")
	}

	if err != nil {
		m.log.Error(ctx, "access token refresh failed",
			logger.KV("client_email", m.key.ClientEmail),
			logger.KV("error", err),
		)

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fcmerr.Wrap(fcmerr.CodeAuthentication, err,
				"token endpoint rejected the request with status %d", retrieveErr.Response.StatusCode)
		}

		return nil, fcmerr.Wrap(fcmerr.CodeAuthentication, err, "cannot obtain access token")
	}

	if t.AccessToken == "" {
		return nil, fcmerr.New(fcmerr.CodeAuthentication, "token endpoint returned an empty access token")
	}

	m.log.Debug(ctx, "access token refreshed",
		logger.KV("client_email", m.key.ClientEmail),
		logger.KV("expiry", t.Expiry),
	)

	return &AccessToken{Value: t.AccessToken, Expiry: t.Expiry}, nil
}

// contextClient returns a copy of the token endpoint client whose requests carry ctx.
// The jwt token source posts without a context of its own.
func (m *Manager) contextClient(ctx context.Context) *http.Client {
	base := m.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	hc := *m.httpClient
	hc.Transport = &contextTransport{ctx: ctx, base: base}
	return &hc
}

type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
