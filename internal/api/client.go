package api

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
	"time"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

type Client struct {
	BaseURL   string
	AuthToken string
	Client    *http.Client // Allow override for testing
}

// NewClient returns a new API client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		AuthToken: token,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Error returned by API calls.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Msg)
}

// IsStatus reports whether err is an APIError carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func parseAPIError(resp *http.Response) error {
	var j struct {
		Error string `json:"error"`
	}
	body, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(body, &j)
	msg := j.Error
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return &APIError{Status: resp.StatusCode, Msg: msg}
}

func contextPath(name string, sub ...string) string {
	p := "/api/contexts/" + url.PathEscape(name)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}

// getJSON issues an authenticated GET and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListContexts returns all registered contexts.
func (c *Client) ListContexts(ctx context.Context) ([]cluster.ContextInfo, error) {
	var contexts []cluster.ContextInfo
	if err := c.getJSON(ctx, "/api/contexts", &contexts); err != nil {
		return nil, err
	}
	return contexts, nil
}

// GetContext fetches a registered context by name.
func (c *Client) GetContext(ctx context.Context, name string) (*cluster.ContextInfo, error) {
	var info cluster.ContextInfo
	if err := c.getJSON(ctx, contextPath(name), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetTracerStatus fetches the last published backlog tracer status of a context.
func (c *Client) GetTracerStatus(ctx context.Context, name string) (*tracer.Status, error) {
	var st tracer.Status
	if err := c.getJSON(ctx, contextPath(name, "tracer"), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetBacklog fetches the published trace events of a context, optionally for one node.
func (c *Client) GetBacklog(ctx context.Context, name, nodeID string) ([]tracer.Event, error) {
	p := contextPath(name, "tracer", "backlog")
	if nodeID != "" {
		p += "?node=" + url.QueryEscape(nodeID)
	}
	var events []tracer.Event
	if err := c.getJSON(ctx, p, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// SetTracerControl asks the context's agent to reconfigure its tracer.
func (c *Client) SetTracerControl(ctx context.Context, name string, ctl tracer.Control) error {
	b, err := json.Marshal(ctl)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+contextPath(name, "tracer", "control"), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return parseAPIError(resp)
	}
	return nil
}

// GetClusterStatus fetches every context with its tracer status.
func (c *Client) GetClusterStatus(ctx context.Context) (*cluster.ClusterStatus, error) {
	var status cluster.ClusterStatus
	if err := c.getJSON(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
