// Package zenmoney talks to the Zenmoney API: OAuth2 password login and
// the /v8/diff/ synchronization endpoint.
package zenmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"

	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/resilience"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

const (
	DefaultBaseURL = "https://api.zenmoney.ru"

	tokenPath   = "/oauth2/token/"
	diffPath    = "/v8/diff/"
	redirectURL = "zenmoney-ru://"
	userAgent   = "zenmoney-reconcile/1.0"

	maxErrorBody = 4096
)

// APIError is a non-2xx response from the remote ledger.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zenmoney API error %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err is a 401 from the remote ledger.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Retry        resilience.Config
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Client is a Zenmoney API client.
type Client struct {
	baseURL    string
	oauth      *oauth2.Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	retry      resilience.Config
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a client. Zero options fall back to defaults.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		breaker:    resilience.NewCircuitBreaker("zenmoney"),
		retry:      opts.Retry,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// NewClientFromConfig builds a client from the zenmoney config section.
func NewClientFromConfig(cfg config.ZenmoneyConfig, m *metrics.Metrics, logger *slog.Logger) *Client {
	retry := resilience.DefaultConfig()
	retry.MaxRetries = cfg.MaxRetries

	return NewClient(Options{
		BaseURL:      cfg.BaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		HTTPClient:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		Retry:        retry,
		Metrics:      m,
		Logger:       logger,
	})
}

// withHTTPClient makes oauth2 use our transport for token requests.
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Login exchanges a username and password for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	var token *oauth2.Token
	err := c.call(ctx, "login", func() error {
		t, err := c.oauth.PasswordCredentialsToken(c.withHTTPClient(ctx), username, password)
		if err != nil {
			return classify(err)
		}
		token = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("login failed for %s: %w", username, err)
	}
	return token, nil
}

// TokenSource returns a source that refreshes token when it expires.
func (c *Client) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return c.oauth.TokenSource(c.withHTTPClient(ctx), token)
}

// DiffRequest is the body of a /v8/diff/ call.
type DiffRequest struct {
	ServerTimestamp             int64                      `json:"serverTimestamp"`
	CurrentClientTimestamp      int64                      `json:"currentClientTimestamp"`
	CurrentClientTimezoneOffset int                        `json:"currentClientTimezoneOffset"`
	Transactions                []ledger.TransactionUpdate `json:"transaction,omitempty"`
	Accounts                    []ledger.AccountUpdate     `json:"account,omitempty"`
}

// RemoteUser is the subset of the user object we keep.
type RemoteUser struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
}

// DiffResponse is the part of a /v8/diff/ answer we persist.
type DiffResponse struct {
	ServerTimestamp int64                `json:"serverTimestamp"`
	Users           []RemoteUser         `json:"user"`
	Accounts        []ledger.Account     `json:"account"`
	Merchants       []ledger.Merchant    `json:"merchant"`
	Transactions    []ledger.Transaction `json:"transaction"`
	Deletions       []storage.Deletion   `json:"deletion"`
}

// Size is the number of records carried by the response.
func (r *DiffResponse) Size() int {
	return len(r.Accounts) + len(r.Merchants) + len(r.Transactions) + len(r.Deletions)
}

// Diff posts req and returns the server's changes since req.ServerTimestamp.
func (c *Client) Diff(ctx context.Context, ts oauth2.TokenSource, req DiffRequest) (*DiffResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode diff request: %w", err)
	}

	authed := oauth2.NewClient(c.withHTTPClient(ctx), ts)

	var out DiffResponse
	err = c.call(ctx, "diff", func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+diffPath, bytes.NewReader(body))
		if err != nil {
			return resilience.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("User-Agent", userAgent)

		resp, err := authed.Do(httpReq)
		if err != nil {
			return classify(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return classify(newAPIError(resp))
		}

		out = DiffResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("failed to decode diff response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// call runs fn with retries inside the breaker and records metrics.
func (c *Client) call(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	err := resilience.Call(ctx, c.breaker, c.retry, fn)
	elapsed := time.Since(start)

	c.metrics.RecordRemoteCall(operation, err, elapsed)
	if err != nil {
		c.logger.Warn("Remote call failed", "operation", operation, "duration", elapsed, "error", err)
	} else {
		c.logger.Debug("Remote call finished", "operation", operation, "duration", elapsed)
	}
	return err
}

func newAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}

// classify marks client errors as permanent so they are not retried.
func classify(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return resilience.Permanent(err)
		}
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		wrapped := &APIError{
			StatusCode: retrieveErr.Response.StatusCode,
			Body:       strings.TrimSpace(string(retrieveErr.Body)),
		}
		if wrapped.StatusCode >= 400 && wrapped.StatusCode < 500 {
			return resilience.Permanent(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Permanent(err)
	}
	return err
}
