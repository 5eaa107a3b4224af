package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "charsheet-cli"

// Client talks to the character sheet API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken updates the client's token
func (c *Client) SetToken(token string) {
	c.token = token
}

// APIError is an error envelope returned by the server
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Hint suggests the command that gets the user past the error
func (e *APIError) Hint() string {
	switch e.Code {
	case "UNAUTHORIZED":
		return "sign in with `charsheet identity guest` or `charsheet identity login`"
	case "NOT_BOOTSTRAPPED":
		return "the roster is empty; run `charsheet gm seed`"
	case "ALREADY_CLAIMED":
		return "ask the GM to reassign you with `charsheet gm assign`"
	case "ROSTER_POPULATED":
		return "pass --force to overwrite every character"
	case "GM_ACCESS_DISABLED":
		return "the server was started without CHARSHEET_GM_PIN"
	case "UNKNOWN_EDIT":
		return "run `charsheet character edit --help` for the edit kinds"
	}
	return ""
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// Do performs a request against an /api/v1 path
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		bodyReader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error.Code != "" {
			envelope.Error.Status = resp.StatusCode
			return &envelope.Error
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(context.Background(), http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(context.Background(), http.MethodPost, path, body, result)
}

// Put performs a PUT request
func (c *Client) Put(path string, body, result any) error {
	return c.Do(context.Background(), http.MethodPut, path, body, result)
}

// errorHint returns the hint attached to an API error, if any
func errorHint(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Hint()
	}
	return ""
}
