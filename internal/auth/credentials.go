package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the Spotify accounts token endpoint.
const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// maxTokenBody bounds how much of a token response is buffered.
const maxTokenBody = 1 << 20

// Credentials identify the client to the token endpoint.
//
// Encoded, when set, is the pre-encoded base64("client_id:client_secret") string
// and takes precedence over the ID/secret pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Encoded      string
}

// Pair returns the client ID and secret, decoding Encoded when it is set.
func (c Credentials) Pair() (string, string, error) {
	if c.Encoded == "" {
		if c.ClientID == "" || c.ClientSecret == "" {
			return "", "", fmt.Errorf("%w: client id and secret (or encoded credentials) are required", shared.ErrMissingCredentials)
		}
		return c.ClientID, c.ClientSecret, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.Encoded))
	if err != nil {
		return "", "", fmt.Errorf("%w: encoded credentials are not base64: %v", shared.ErrMissingCredentials, err)
	}
	id, secret, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" || secret == "" {
		return "", "", fmt.Errorf("%w: encoded credentials must be base64(client_id:client_secret)", shared.ErrMissingCredentials)
	}
	return id, secret, nil
}

// ManagerOpts contains optional collaborators for a [Manager].
type ManagerOpts struct {
	TokenURL   string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Manager obtains and caches a single bearer token.
//
// Renewals hold the lock for the whole exchange, so at most one is in flight.
type Manager struct {
	config     clientcredentials.Config
	httpClient *http.Client
	logger     *log.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewManager creates a Manager for the given credentials.
func NewManager(creds Credentials, opts ManagerOpts) (*Manager, error) {
	id, secret, err := creds.Pair()
	if err != nil {
		return nil, err
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		config: clientcredentials.Config{
			ClientID:     id,
			ClientSecret: secret,
			TokenURL:     opts.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: bufferedClient(opts.HTTPClient),
		logger:     shared.WithLogger(opts.Logger, "component", "auth"),
	}, nil
}

// Renew exchanges the client credentials for a new token with exactly one request.
//
// A transport error or non-2xx status wraps [shared.ErrAuthExchange] and clears the cache.
// A 2xx body without an access token wraps [shared.ErrMalformedTokenResponse] and leaves the
// cache as it was.
func (m *Manager) Renew(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	token, err := m.config.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		var urlErr *url.Error
		switch {
		case errors.As(err, &retrieveErr):
			m.token = nil
			status := http.StatusBadGateway
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			m.logger.Error("token exchange rejected", "status", status, "error_code", retrieveErr.ErrorCode)
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthExchange, &shared.StatusError{StatusCode: status})
		case errors.As(err, &urlErr):
			m.token = nil
			m.logger.Error("token exchange failed", "err", err)
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthExchange, err)
		default:
			m.logger.Warn("malformed token response", "err", err)
			return nil, fmt.Errorf("%w: %v", shared.ErrMalformedTokenResponse, err)
		}
	}

	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}

	m.token = token
	m.logger.Debug("obtained access token", "expiry", token.Expiry)
	return token, nil
}

// Cached returns the last successfully obtained token, or nil.
func (m *Manager) Cached() *oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// bufferedClient copies c with a transport that reads each response body up front.
//
// A body that fails mid-read then surfaces from Do as a *url.Error, like any other
// transport failure, instead of as a parse error from the token decoder.
func bufferedClient(c *http.Client) *http.Client {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{Transport: bufferedTransport{base: base}, Timeout: c.Timeout}
}

type bufferedTransport struct {
	base http.RoundTripper
}

func (t bufferedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBody))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
