package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nerrad567/psico-client/internal/audit"
	"github.com/nerrad567/psico-client/internal/infrastructure/config"
	"github.com/nerrad567/psico-client/internal/infrastructure/logging"
	"github.com/nerrad567/psico-client/internal/session"
)

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 1 << 20

// auditTimeout bounds a single activity write.
const auditTimeout = 5 * time.Second

// RequestIDHeader carries a per-call correlation ID to the backend.
const RequestIDHeader = "X-Request-ID"

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials is the login form.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Client talks to the backend's authentication and registration endpoints
// and writes issued tokens into the TokenStore.
//
// Concurrent Authenticate calls are not coordinated: each one that
// succeeds writes the store and the last to finish wins.
type Client struct {
	cfg      config.APIConfig
	store    *session.TokenStore
	http     Doer
	validate *validator.Validate
	audit    audit.Recorder
	logger   *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithAudit records logins, logouts and registrations to r.
func WithAudit(r audit.Recorder) Option {
	return func(c *Client) {
		c.audit = r
	}
}

// New creates a Client. The default HTTP client uses cfg's request timeout.
func New(cfg config.APIConfig, store *session.TokenStore, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Discard()
	}

	c := &Client{
		cfg:      cfg,
		store:    store,
		http:     &http.Client{Timeout: cfg.RequestTimeout()},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges credentials for a session token.
//
// On success the token is already in the TokenStore when Authenticate
// returns. Any failure leaves the store as it was. ctx cancels the HTTP
// exchange; once a response has been read the store write always happens.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	if err := c.validate.Struct(creds); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	body, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", ErrTransport, err)
	}

	requestID := uuid.NewString()
	log := c.logger.With("request_id", requestID, "username", creds.Username)

	token, err := c.exchange(ctx, requestID, body)
	if err != nil {
		log.Warn("authentication failed", "error", err)
		c.record(ctx, audit.Event{
			Action:    audit.ActionLoginFailed,
			Username:  creds.Username,
			RequestID: requestID,
			Details:   map[string]any{"reason": failureReason(err)},
		})
		return "", err
	}

	c.store.Set(token)
	log.Info("authenticated")

	event := audit.Event{Action: audit.ActionLogin, Username: creds.Username, RequestID: requestID}
	if claims, ok := session.Decode(token); ok {
		if role, ok := session.RoleOf(claims); ok {
			event.Role = string(role)
		}
	}
	c.record(ctx, event)
	return token, nil
}

// exchange posts the credentials and extracts the issued token.
func (c *Client) exchange(ctx context.Context, requestID string, body []byte) (string, error) {
	payload, err := c.post(ctx, c.cfg.AuthenticateURL(), requestID, body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", fmt.Errorf("%w: response is not a JSON object: %v", ErrTransport, err)
	}
	if fields == nil {
		return "", fmt.Errorf("%w: response body is null", ErrTransport)
	}

	token := extractToken(fields)
	if token == "" {
		return "", ErrTokenMissing
	}
	return token, nil
}

// Logout clears the local session. The backend is not told.
func (c *Client) Logout() {
	c.store.Clear()
	c.logger.Info("logged out")
	c.record(context.Background(), audit.Event{Action: audit.ActionLogout})
}

// record writes an activity event. Failures are logged and otherwise ignored;
// the write survives cancellation of ctx.
func (c *Client) record(ctx context.Context, event audit.Event) {
	if c.audit == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := c.audit.Create(ctx, &event); err != nil {
		c.logger.Warn("recording session event failed", "action", string(event.Action), "error", err)
	}
}

// failureReason is the short code stored with a failed login.
func failureReason(err error) string {
	if errors.Is(err, ErrTokenMissing) {
		return "token_missing"
	}
	return "transport"
}

// extractToken prefers "token" over "jwt". Non-string or empty values are ignored.
func extractToken(fields map[string]any) string {
	for _, key := range []string{"token", "jwt"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// post sends a JSON body and returns the response body of a 2xx reply.
func (c *Client) post(ctx context.Context, url, requestID string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return payload, nil
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}
