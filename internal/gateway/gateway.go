// Package gateway is the single path for outbound API calls. It attaches the
// session token, classifies every outcome and performs the global reactions
// owed to network failures and 401s. It never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensectl/internal/log"
	"expensectl/internal/navigation"
)

const maxBodyBytes = 1 << 20

// Sessions is the slice of the session store the gateway needs.
type Sessions interface {
	Get(ctx context.Context) (string, bool)
	ClearIf(ctx context.Context, token string) (bool, error)
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	UserAgent string
}

type Client struct {
	base      *url.URL
	http      *http.Client
	sessions  Sessions
	nav       navigation.Navigator
	logger    *log.Logger
	userAgent string

	// serializes 401 handling so concurrent expiries clear and redirect once
	authMu sync.Mutex
}

func New(cfg Config, sessions Sessions, nav navigation.Navigator, logger *log.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", base.Scheme)
	}
	if sessions == nil || nav == nil {
		return nil, errors.New("gateway needs a session store and a navigator")
	}

	logger = log.OrDiscard(logger)
	ua := cfg.UserAgent
	if ua == "" {
		ua = "expensectl"
	}
	return &Client{
		base:      base,
		http:      newHTTPClient(cfg.Timeout, cfg.Transport, logger),
		sessions:  sessions,
		nav:       nav,
		logger:    logger.WithComponent(log.ComponentGateway),
		userAgent: ua,
	}, nil
}

// newHTTPClient creates a pooled client with bounded timeouts. Every request
// goes through the logging transport.
func newHTTPClient(timeout time.Duration, base http.RoundTripper, logger *log.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if base == nil {
		dialer := &net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: time.Second,
			ForceAttemptHTTP2:     true,
		}
	}
	return &http.Client{
		Transport: log.NewTransport(base, logger),
		Timeout:   timeout,
	}
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends one request and classifies the outcome. On success the JSON body,
// if any, is decoded into out. Failures come back as *Error except for caller
// cancellation, which is returned as is.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, token, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	requestID := req.Header.Get(log.RequestIDHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%s %s: %w", method, path, ctx.Err())
		}
		return c.networkFailure(ctx, &Error{
			Kind:      KindNetwork,
			Method:    method,
			Path:      path,
			RequestID: requestID,
			Err:       err,
		})
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%s %s: %w", method, path, ctx.Err())
		}
		return c.networkFailure(ctx, &Error{
			Kind:      KindNetwork,
			Method:    method,
			Path:      path,
			RequestID: requestID,
			Err:       fmt.Errorf("read response body: %w", err),
		})
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(payload)) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
		return nil
	}

	gerr := &Error{
		Status:    resp.StatusCode,
		Message:   serverMessage(payload),
		Method:    method,
		Path:      path,
		RequestID: requestID,
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		gerr.Kind = KindUnauthorized
		return c.unauthorized(ctx, token, gerr)
	case resp.StatusCode >= 500:
		gerr.Kind = KindServer
	default:
		gerr.Kind = KindApplication
	}
	c.logger.DebugContext(ctx, "Request returned application error",
		log.FieldStatusCode, gerr.Status,
		log.FieldOutcome, gerr.Kind.String(),
		log.FieldRequestID, requestID)
	return gerr
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, string, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, "", fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(log.RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, ok := c.sessions.Get(ctx)
	if ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, token, nil
}

// networkFailure sends the user to the connectivity-error view. The router
// ignores the request when that view is already showing.
func (c *Client) networkFailure(ctx context.Context, gerr *Error) error {
	moved := c.nav.Navigate(ctx, navigation.ServerError)
	c.logger.WarnContext(ctx, "No response from API",
		log.FieldMethod, gerr.Method,
		log.FieldPath, gerr.Path,
		log.FieldRequestID, gerr.RequestID,
		log.FieldError, gerr.Err,
		"redirected", moved)
	return gerr
}

// unauthorized clears the session the request was made with and sends the
// user to login. A session replaced by a newer login is left alone.
func (c *Client) unauthorized(ctx context.Context, token string, gerr *Error) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	cleared, err := c.sessions.ClearIf(ctx, token)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to clear session after 401", log.FieldError, err)
		gerr.Err = err
	}
	moved := false
	if cleared {
		moved = c.nav.Navigate(ctx, navigation.Login)
	}
	c.logger.WarnContext(ctx, "Request unauthorized",
		log.FieldMethod, gerr.Method,
		log.FieldPath, gerr.Path,
		log.FieldRequestID, gerr.RequestID,
		"session_cleared", cleared,
		"redirected", moved)
	return gerr
}

// serverMessage extracts {"message": "..."} from an error payload.
func serverMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}
