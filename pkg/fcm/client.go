package fcm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/satori/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/sony/sonyflake"
	"github.com/yusufsyaifudin/fcmv1/pkg/credential"
	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/logger"
	"github.com/yusufsyaifudin/fcmv1/pkg/tracer"
	"github.com/yusufsyaifudin/ylog"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

const (
	DefaultFCMBaseURL = "https://fcm.googleapis.com"
	DefaultIIDBaseURL = "https://iid.googleapis.com"

	fcmSendPath      = "/v1/projects/%s/messages:send"
	iidSubscribePath = "/iid/v1:batchAdd"
	iidUnsubscribe   = "/iid/v1:batchRemove"
)

// TokenProvider hands out OAuth2 bearer tokens for a Firebase project.
// *credential.Manager is the default implementation.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	ProjectID() string
}

var _ TokenProvider = (*credential.Manager)(nil)

// Config is the client configuration, it can be read from YAML.
// Exactly one service account source must be set unless WithTokenProvider is used.
type Config struct {
	ServiceAccountFile string                 `yaml:"serviceAccountFile"`
	ServiceAccountJSON string                 `yaml:"serviceAccountJSON"`
	ServiceAccount     map[string]interface{} `yaml:"serviceAccount"`

	Scopes            []string      `yaml:"scopes"`
	TokenSafetyMargin time.Duration `yaml:"tokenSafetyMargin"`

	// Timeout defaults to DefaultRequestTimeout when nil.
	Timeout *RequestTimeout `yaml:"timeout"`

	// Limits defaults to DefaultRequestLimits when nil.
	Limits *RequestLimits `yaml:"limits"`

	UseHTTP2 bool `yaml:"useHTTP2"`
}

type clientOptions struct {
	log        logger.Logger
	tokens     TokenProvider
	fcmBaseURL string
	iidBaseURL string
}

type ClientOption func(*clientOptions)

func WithLogger(log logger.Logger) ClientOption {
	return func(o *clientOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithTokenProvider replaces the service account of Config as the source of access tokens.
func WithTokenProvider(tokens TokenProvider) ClientOption {
	return func(o *clientOptions) {
		o.tokens = tokens
	}
}

// WithBaseURLs points the client to other FCM and IID hosts, for example a local fake server.
// An empty value keeps the default.
func WithBaseURLs(fcmBaseURL, iidBaseURL string) ClientOption {
	return func(o *clientOptions) {
		if fcmBaseURL != "" {
			o.fcmBaseURL = strings.TrimRight(fcmBaseURL, "/")
		}

		if iidBaseURL != "" {
			o.iidBaseURL = strings.TrimRight(iidBaseURL, "/")
		}
	}
}

// Client sends messages through the FCM HTTP v1 API and manages topic subscriptions
// through the Instance ID API. It is safe for concurrent use.
// Call Close when done with it.
type Client struct {
	log        logger.Logger
	tokens     TokenProvider
	timeout    RequestTimeout
	transport  *http.Transport
	httpClient *http.Client
	fcmBaseURL string
	iidBaseURL string
	batchIDs   *sonyflake.Sonyflake
	closeOnce  sync.Once
}

var _ Sender = (*Client)(nil)

func New(cfg Config, opts ...ClientOption) (*Client, error) {
	o := &clientOptions{
		log:        logger.Noop{},
		fcmBaseURL: DefaultFCMBaseURL,
		iidBaseURL: DefaultIIDBaseURL,
	}

	for _, opt := range opts {
		opt(o)
	}

	timeout := DefaultRequestTimeout()
	if cfg.Timeout != nil {
		timeout = *cfg.Timeout
	}

	if err := timeout.validate(); err != nil {
		return nil, fcmerr.Wrap(fcmerr.CodeInvalidArgument, err, "invalid client config")
	}

	limits := DefaultRequestLimits()
	if cfg.Limits != nil {
		limits = *cfg.Limits
	}

	if err := limits.validate(); err != nil {
		return nil, fcmerr.Wrap(fcmerr.CodeInvalidArgument, err, "invalid client config")
	}

	transport, err := newTransport(timeout, limits, cfg.UseHTTP2)
	if err != nil {
		return nil, fcmerr.Wrap(fcmerr.CodeInvalidArgument, err, "invalid client config")
	}

	tokens := o.tokens
	if tokens == nil {
		tokens, err = newCredential(cfg, transport, o.log)
		if err != nil {
			transport.CloseIdleConnections()
			return nil, err
		}
	}

	batchIDs := newBatchIDs(nil)
	if batchIDs == nil {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("cannot prepare batch id generator")
	}

	return &Client{
		log:       o.log,
		tokens:    tokens,
		timeout:   timeout,
		transport: transport,
		httpClient: &http.Client{
			Transport: &RoundTripper{Base: transport, Log: o.log},
		},
		fcmBaseURL: o.fcmBaseURL,
		iidBaseURL: o.iidBaseURL,
		batchIDs:   batchIDs,
	}, nil
}

// newBatchIDs uses machineID, or the private IP default of sonyflake when nil.
// The process id is the fallback for hosts without a private IP address.
func newBatchIDs(machineID func() (uint16, error)) *sonyflake.Sonyflake {
	if sf := sonyflake.NewSonyflake(sonyflake.Settings{MachineID: machineID}); sf != nil {
		return sf
	}

	return sonyflake.NewSonyflake(sonyflake.Settings{
		MachineID: func() (uint16, error) {
			return uint16(os.Getpid()), nil
		},
	})
}

// newCredential builds the token manager. The token exchange shares the
// transport, but not the access log, since its body carries the signed assertion.
func newCredential(cfg Config, transport http.RoundTripper, log logger.Logger) (*credential.Manager, error) {
	opts := []credential.Option{
		credential.WithScopes(cfg.Scopes...),
		credential.WithHTTPClient(&http.Client{Transport: transport}),
		credential.WithLogger(log),
	}

	if cfg.TokenSafetyMargin > 0 {
		opts = append(opts, credential.WithSafetyMargin(cfg.TokenSafetyMargin))
	}

	sources := 0
	for _, set := range []bool{cfg.ServiceAccountFile != "", cfg.ServiceAccountJSON != "", len(cfg.ServiceAccount) > 0} {
		if set {
			sources++
		}
	}

	if sources != 1 {
		return nil, fcmerr.InvalidArgument("exactly one of serviceAccountFile, serviceAccountJSON or serviceAccount must be set, got %d", sources)
	}

	switch {
	case cfg.ServiceAccountFile != "":
		return credential.FromFile(cfg.ServiceAccountFile, opts...)
	case cfg.ServiceAccountJSON != "":
		return credential.FromJSON([]byte(cfg.ServiceAccountJSON), opts...)
	default:
		return credential.FromMap(cfg.ServiceAccount, opts...)
	}
}

// WithClient creates a Client, passes it to fn and closes it afterwards, even when fn panics.
func WithClient(cfg Config, fn func(c *Client) error, opts ...ClientOption) (err error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, c.Close())
	}()

	return fn(c)
}

// ProjectID is the Firebase project messages are sent to.
func (c *Client) ProjectID() string {
	return c.tokens.ProjectID()
}

// Close releases the pooled connections. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.transport.CloseIdleConnections()
	})

	return nil
}

func (c *Client) sendURL() string {
	return c.fcmBaseURL + fmt.Sprintf(fcmSendPath, c.tokens.ProjectID())
}

// post sends body as JSON and returns the whole response.
// A failure to get any response is returned as the error.
func (c *Client) post(ctx context.Context, url, accessToken string, body interface{}, iid bool) (*rawResponse, *fcmerr.Error) {
	requestID := uuid.NewV4().String()

	logTracer := logger.MustExtract(ctx)
	logTracer.RequestID = requestID
	ctx = logger.Inject(ctx, logTracer)

	if accessLogTracer, err := ylog.NewTracer(logTracer, ylog.WithTag("tracer")); err == nil {
		ctx = ylog.Inject(ctx, accessLogTracer)
	}

	ctx, span := tracer.StartSpan(ctx, "HTTP POST", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		e := fcmerr.Wrap(fcmerr.CodeInvalidArgument, err, "cannot encode request body")
		tracer.RecordError(span, e)
		return nil, e
	}

	ctx, pool := withPoolTimeout(ctx, c.timeout.Pool)
	defer pool.stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		e := fcmerr.Wrap(fcmerr.CodeUnknown, err, "cannot prepare request")
		tracer.RecordError(span, e)
		return nil, e
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; UTF-8")
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("X-GOOG-API-FORMAT-VERSION", "2")
	req.Header.Set("X-FIREBASE-CLIENT", "fcmv1/"+Version)
	if iid {
		req.Header.Set("access_token_auth", "true")
	}

	tracer.Inject(ctx, req.Header)
	span.SetAttributes(semconv.HTTPClientAttributesFromHTTPRequest(req)...)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		e := errorFromTransport(pool.err(err))
		c.log.Error(ctx, "fcm request failed", logger.KV("url", url), logger.KV("error", e))
		tracer.RecordError(span, e)
		return nil, e
	}

	defer func() {
		if _err := resp.Body.Close(); _err != nil {
			c.log.Warn(ctx, "cannot close response body", logger.KV("error", _err))
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		e := errorFromTransport(pool.err(err))
		tracer.RecordError(span, e)
		return nil, e
	}

	span.SetAttributes(semconv.HTTPAttributesFromHTTPStatusCode(resp.StatusCode)...)
	span.SetStatus(semconv.SpanStatusFromHTTPStatusCodeAndSpanKind(resp.StatusCode, trace.SpanKindClient))

	return &rawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
