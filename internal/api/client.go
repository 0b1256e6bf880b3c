package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/idealoop/ideas/internal/engine"
	"github.com/idealoop/ideas/internal/types"
)

// Client talks to an ideas server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. A zero timeout means 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Health checks GET /health once.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// WaitHealthy retries Health with exponential backoff until it succeeds or maxWait elapses.
func (c *Client) WaitHealthy(ctx context.Context, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = maxWait
	err := backoff.Retry(func() error { return c.Health(ctx) }, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("server at %s not healthy: %w", c.baseURL, err)
	}
	return nil
}

func (c *Client) Create(ctx context.Context, content string) (*types.Idea, error) {
	var idea types.Idea
	if err := c.do(ctx, http.MethodPost, "/api/ideas", CreateRequest{Content: content}, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

// List returns ideas newest first, optionally filtered by status.
func (c *Client) List(ctx context.Context, status *types.Status) ([]*types.Idea, error) {
	path := "/api/ideas"
	if status != nil {
		path += "?status_filter=" + url.QueryEscape(string(*status))
	}
	var ideas []*types.Idea
	if err := c.do(ctx, http.MethodGet, path, nil, &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*types.IdeaWithMessages, error) {
	var idea types.IdeaWithMessages
	if err := c.do(ctx, http.MethodGet, ideaPath(id, ""), nil, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (c *Client) Update(ctx context.Context, id int64, content *string) (*types.Idea, error) {
	var idea types.Idea
	if err := c.do(ctx, http.MethodPut, ideaPath(id, ""), UpdateRequest{Content: content}, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, ideaPath(id, ""), nil, nil)
}

func (c *Client) Execute(ctx context.Context, id int64) (*types.StatusChange, error) {
	return c.change(ctx, ideaPath(id, "/execute"), nil)
}

func (c *Client) Cancel(ctx context.Context, id int64) (*types.StatusChange, error) {
	return c.change(ctx, ideaPath(id, "/cancel"), nil)
}

// Reply appends a user_input message to the idea's thread.
func (c *Client) Reply(ctx context.Context, id int64, content string) (*types.Message, error) {
	var msg types.Message
	if err := c.do(ctx, http.MethodPost, ideaPath(id, "/messages"), ReplyRequest{Content: content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) Messages(ctx context.Context, id int64) ([]*types.Message, error) {
	var msgs []*types.Message
	if err := c.do(ctx, http.MethodGet, ideaPath(id, "/messages"), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) Verify(ctx context.Context, id int64) (*engine.Verification, error) {
	var v engine.Verification
	if err := c.do(ctx, http.MethodGet, ideaPath(id, "/verify"), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Poll returns the ideas waiting for an agent, least recently updated first.
func (c *Client) Poll(ctx context.Context) ([]*types.Idea, error) {
	var ideas []*types.Idea
	if err := c.do(ctx, http.MethodGet, "/api/agent/poll", nil, &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

func (c *Client) Claim(ctx context.Context, id int64, agent string) (*types.StatusChange, error) {
	return c.change(ctx, agentPath("claim", id), AgentRequest{AgentID: agent})
}

func (c *Client) Start(ctx context.Context, id int64, agent string) (*types.StatusChange, error) {
	return c.change(ctx, agentPath("start", id), AgentRequest{AgentID: agent})
}

func (c *Client) Feedback(ctx context.Context, id int64, agent, content string) (*types.StatusChange, error) {
	return c.change(ctx, agentPath("feedback", id), AgentRequest{AgentID: agent, Content: content})
}

func (c *Client) Ask(ctx context.Context, id int64, agent, question string) (*types.StatusChange, error) {
	return c.change(ctx, agentPath("ask", id), AgentRequest{AgentID: agent, Question: question})
}

func (c *Client) Complete(ctx context.Context, id int64, agent, summary string) (*types.StatusChange, error) {
	return c.change(ctx, agentPath("complete", id), AgentRequest{AgentID: agent, Summary: summary})
}

func (c *Client) Fail(ctx context.Context, id int64, agent, reason string) (*types.StatusChange, error) {
	return c.change(ctx, agentPath("fail", id), AgentRequest{AgentID: agent, Reason: reason})
}

func (c *Client) change(ctx context.Context, path string, body any) (*types.StatusChange, error) {
	var sc types.StatusChange
	if err := c.do(ctx, http.MethodPost, path, body, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func ideaPath(id int64, suffix string) string {
	return fmt.Sprintf("/api/ideas/%d%s", id, suffix)
}

func agentPath(op string, id int64) string {
	return fmt.Sprintf("/api/agent/%s/%d", op, id)
}

// do sends one request. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb ErrorBody
		if json.Unmarshal(data, &eb) != nil || eb.Error == "" {
			eb.Error = strings.TrimSpace(string(data))
		}
		return newAPIError(resp.StatusCode, eb)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
