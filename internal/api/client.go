package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL matches a backend running locally on its default port.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds ordinary requests; AnalyzeTimeout is for the
	// prediction endpoint, which runs a model server-side.
	DefaultTimeout = 30 * time.Second
	AnalyzeTimeout = 45 * time.Second
)

// TokenSource yields the stored session token, if any. A missing token is
// not an error: the request goes out without an Authorization header and
// the server decides.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the single configured HTTP client for the backend. Every
// request flows through do(), which attaches the bearer token, applies the
// default deadline, and reduces all failures to *APIError.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Tokens     TokenSource
	// OnUnauthorized runs once per 401 response, before the error is
	// returned. Wired to session invalidation.
	OnUnauthorized func()
	Logger         zerolog.Logger
}

func (c *Client) Get(ctx context.Context, path string, out any, includeAuth bool) error {
	return c.do(ctx, http.MethodGet, path, nil, out, includeAuth)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, includeAuth bool) error {
	return c.do(ctx, http.MethodPost, path, body, out, includeAuth)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, includeAuth bool) error {
	return c.do(ctx, http.MethodPut, path, body, out, includeAuth)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, includeAuth bool) error {
	return c.do(ctx, http.MethodPatch, path, body, out, includeAuth)
}

func (c *Client) Delete(ctx context.Context, path string, out any, includeAuth bool) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, includeAuth)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, includeAuth bool) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// The per-request deadline only applies when the caller did not set a
	// tighter or looser one of its own.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s payload: %w", method, path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reqBody)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if includeAuth && c.Tokens != nil {
		if token, ok := c.Tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.Logger.Debug().Str("method", method).Str("path", path).Msg("api request")

	resp, err := httpClient.Do(req)
	if err != nil {
		normalized := normalizeTransportError(err)
		c.Logger.Debug().Str("method", method).Str("path", path).Str("code", normalized.Code).Msg("api transport failure")
		return normalized
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: "Network error. Please check your connection.", Status: 0, Code: CodeNetworkError}
	}

	c.Logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := normalizeHTTPError(resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusUnauthorized && c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func normalizeTransportError(err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Message: "Request timeout. Please try again.", Status: 0, Code: CodeTimeoutError}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Message: "Request timeout. Please try again.", Status: 0, Code: CodeTimeoutError}
	}
	return &APIError{Message: "Network error. Please check your connection.", Status: 0, Code: CodeNetworkError}
}

// errorBody covers both the backend's plain error shape and FastAPI-style
// validation payloads, where detail may be a string or a structured list.
type errorBody struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
	Code    string          `json:"code"`
}

func normalizeHTTPError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Message: fmt.Sprintf("Request failed with status %d", status),
		Status:  status,
		Code:    fmt.Sprintf("HTTP_%d", status),
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiErr
	}
	if parsed.Code != "" {
		apiErr.Code = parsed.Code
	}
	if parsed.Message != "" {
		apiErr.Message = parsed.Message
		return apiErr
	}
	if len(parsed.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(parsed.Detail, &detail); err == nil && detail != "" {
			apiErr.Message = detail
			return apiErr
		}
		var details []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(parsed.Detail, &details); err == nil && len(details) > 0 && details[0].Msg != "" {
			apiErr.Message = details[0].Msg
		}
	}
	return apiErr
}
