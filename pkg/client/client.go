// Package client is a Go client for the TaskFlow HTTP API. A Client keeps the
// session token and role returned by Register or Login and attaches the token
// to every later call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// ErrNotAuthenticated is returned by calls that need a session when none is held.
var ErrNotAuthenticated = errors.New("client: not signed in")

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the API root (e.g. "http://localhost:8080").
	BaseURL string
	// HTTPClient is used for all requests. If nil, a client with a 15s timeout is used.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client talks to one TaskFlow server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger

	mu    sync.RWMutex
	token string
	role  string
}

// New creates a signed-out client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("client: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		log:        cfg.Logger,
	}, nil
}

// Token returns the held session token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Role returns the role of the signed-in account, or "".
func (c *Client) Role() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// SetSession restores a previously saved token and role.
func (c *Client) SetSession(token, role string) {
	c.mu.Lock()
	c.token, c.role = token, role
	c.mu.Unlock()
}

// Logout forgets the session.
func (c *Client) Logout() {
	c.SetSession("", "")
}

// --- Auth ---

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Session is what register and login return.
type Session struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  string `json:"userId,omitempty"`
	Role    string `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates an account and keeps the returned session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", false, req, &s); err != nil {
		return nil, err
	}
	c.SetSession(s.Token, s.Role)
	return &s, nil
}

// Login signs in and keeps the returned session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", false, req, &s); err != nil {
		return nil, err
	}
	c.SetSession(s.Token, s.Role)
	return &s, nil
}

// ForgotPassword asks the server to email a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var m messageResponse
	err := c.do(ctx, http.MethodPost, "/api/forgot-password", false, map[string]string{"email": email}, &m)
	return m.Message, err
}

// ResetPassword redeems a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	var m messageResponse
	err := c.do(ctx, http.MethodPost, "/api/reset-password", false, map[string]string{"token": token, "password": password}, &m)
	return m.Message, err
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, auth bool, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token := c.Token()
		if token == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		if resp.StatusCode == http.StatusUnauthorized && auth {
			c.log.Debug().Str("path", path).Msg("session rejected, signing out")
			c.Logout()
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decode %s response: %w", path, err)
	}
	return nil
}
