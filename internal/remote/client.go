// Package remote delegates execution to a JDoodle-compatible compile-and-run
// HTTP service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/michaelbrown/polyrun/internal/execution"
)

// DefaultEndpoint is the public JDoodle execute endpoint.
const DefaultEndpoint = "https://api.jdoodle.com/v1/execute"

// ProxyErrorHeader is set by a forwarding proxy on responses it generated
// itself because the upstream service could not be reached.
const ProxyErrorHeader = "X-Polyrun-Proxy-Error"

// maxBody bounds how much of a response is read.
const maxBody = 4 << 20

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials authenticate against the remote service.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Valid reports whether both values are set.
func (c Credentials) Valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Client submits source to the remote service. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	endpoint   string
	creds      Credentials
	languages  map[string]Language
	versionPin string
	http       Doer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the service URL, e.g. to route through a proxy.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithHTTPClient sets the transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithLanguages replaces the language map.
func WithLanguages(m map[string]Language) Option {
	return func(c *Client) {
		c.languages = m
	}
}

// WithVersionIndex forces a version selector for every language.
func WithVersionIndex(v string) Option {
	return func(c *Client) {
		c.versionPin = v
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Client. Missing credentials are not an error here;
// each Run reports them as a configuration failure instead.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		creds:     creds,
		languages: DefaultLanguages,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Supports reports whether key maps to a remote language code.
func (c *Client) Supports(key string) bool {
	_, ok := c.languages[key]
	return ok
}

// request is the wire body of an execute call.
type request struct {
	Script       string `json:"script"`
	Language     string `json:"language"`
	VersionIndex string `json:"versionIndex"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Stdin        string `json:"stdin"`
}

// Run executes source remotely. It makes at most one HTTP request and never
// retries.
func (c *Client) Run(ctx context.Context, source, languageKey, stdin string) execution.Result {
	lang, ok := c.languages[languageKey]
	if !ok {
		return execution.Failf(execution.UnsupportedLanguage, "language %q is not supported by the remote service", languageKey)
	}
	if !c.creds.Valid() {
		return execution.Fail(execution.ConfigurationError,
			"remote execution credentials not found: set POLYRUN_REMOTE_CLIENT_ID and POLYRUN_REMOTE_CLIENT_SECRET (or JDOODLE_CLIENT_ID / JDOODLE_CLIENT_SECRET)")
	}

	version := lang.VersionIndex
	if c.versionPin != "" {
		version = c.versionPin
	}
	body, err := json.Marshal(request{
		Script:       source,
		Language:     lang.Code,
		VersionIndex: version,
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		Stdin:        stdin,
	})
	if err != nil {
		return execution.Failf(execution.InfrastructureError, "encoding request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return execution.Failf(execution.ConfigurationError, "invalid remote endpoint %q: %v", c.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote execute failed", "language", languageKey, "error", err)
		return classifyTransportError(c.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return execution.Failf(execution.InfrastructureError, "reading response: %v", err)
	}

	c.logger.Debug("remote execute done",
		"language", languageKey,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.Header.Get(ProxyErrorHeader) != "" {
		return execution.Failf(execution.ConfigurationError,
			"the execution proxy could not reach the remote service (%s); check the proxy target configuration",
			resp.Header.Get(ProxyErrorHeader))
	}
	return MapResponse(resp.StatusCode, data)
}

// classifyTransportError separates "this deployment cannot reach the
// service" from other transport failures.
func classifyTransportError(endpoint string, err error) execution.Result {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return execution.Failf(execution.InfrastructureError, "remote request aborted: %v", err)
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return execution.Failf(execution.ConfigurationError,
			"cannot reach remote execution endpoint %s: %v. Requests must go through a reachable server-side proxy; set POLYRUN_REMOTE_ENDPOINT to it",
			endpoint, err)
	}

	return execution.Failf(execution.InfrastructureError, "remote request failed: %v", err)
}

// Language is a remote service language code with its version selector.
type Language struct {
	Code         string
	VersionIndex string
}

// DefaultLanguages maps registry keys to JDoodle language codes.
var DefaultLanguages = map[string]Language{
	"python": {Code: "python3", VersionIndex: "3"},
	"java":   {Code: "java", VersionIndex: "3"},
	"cpp":    {Code: "cpp", VersionIndex: "3"},
	"c":      {Code: "c", VersionIndex: "3"},
	"go":     {Code: "go", VersionIndex: "3"},
	"rust":   {Code: "rust", VersionIndex: "3"},
	"php":    {Code: "php", VersionIndex: "3"},
	"ruby":   {Code: "ruby", VersionIndex: "3"},
	"swift":  {Code: "swift", VersionIndex: "3"},
	"kotlin": {Code: "kotlin", VersionIndex: "3"},
}

func (l Language) String() string {
	return fmt.Sprintf("%s@%s", l.Code, l.VersionIndex)
}
