// Package client is a typed HTTP client for the task API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

const defaultTimeout = 15 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to the task API on behalf of one Session.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API rooted at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "api_client"))
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// AuthResult is a successful signup or login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Signup registers a password account and stores the issued token in the session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, body, false, &res); err != nil {
		return nil, err
	}
	c.session.SetToken(res.Token)
	return &res, nil
}

// Login signs in and stores the issued token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, false, &res); err != nil {
		return nil, err
	}
	c.session.SetToken(res.Token)
	return &res, nil
}

// ListOptions selects one page of tasks. Zero fields use server defaults.
type ListOptions struct {
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("status", o.Status)
	set("priority", o.Priority)
	set("search", o.Search)
	set("sortBy", o.SortBy)
	set("sortOrder", o.SortOrder)
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	return v
}

// Pagination mirrors the server's pagination block.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// TaskPage is one page of the user's tasks.
type TaskPage struct {
	Tasks      []domain.Task `json:"tasks"`
	Pagination Pagination    `json:"pagination"`
}

type taskEnvelope struct {
	Task domain.Task `json:"task"`
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*TaskPage, error) {
	var page TaskPage
	if err := c.do(ctx, http.MethodGet, "/api/tasks", opts.values(), nil, true, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	body := map[string]any{"title": draft.Title}
	if draft.Description != "" {
		body["description"] = draft.Description
	}
	if draft.Status != "" {
		body["status"] = draft.Status
	}
	if draft.Priority != "" {
		body["priority"] = draft.Priority
	}
	if draft.DueDate != nil {
		body["dueDate"] = draft.DueDate.UTC().Format(time.RFC3339)
	}

	var env taskEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/tasks", nil, body, true, &env); err != nil {
		return nil, err
	}
	return &env.Task, nil
}

func (c *Client) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var env taskEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+id.String(), nil, nil, true, &env); err != nil {
		return nil, err
	}
	return &env.Task, nil
}

// UpdateTask sends only the fields set in patch and returns the server's
// representation of the task.
func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	var env taskEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id.String(), nil, patchBody(patch), true, &env); err != nil {
		return nil, err
	}
	return &env.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id.String(), nil, nil, true, nil)
}

func patchBody(p domain.TaskPatch) map[string]any {
	body := make(map[string]any)
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Status != nil {
		body["status"] = *p.Status
	}
	if p.Priority != nil {
		body["priority"] = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		body["dueDate"] = nil
	case p.DueDate != nil:
		body["dueDate"] = p.DueDate.UTC().Format(time.RFC3339)
	}
	return body
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
	authenticated bool,
	out any,
) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	token := c.session.Token()
	if authenticated && token == "" {
		return &APIError{StatusCode: http.StatusUnauthorized, Message: "no authentication token"}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized && authenticated {
			c.session.Clear()
		}
		log.Debug("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status_code", resp.StatusCode),
			slog.String("trace_id", apiErr.TraceID))
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error   string              `json:"error"`
		Details []domain.FieldError `json:"details"`
		TraceID string              `json:"traceId"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
		apiErr.TraceID = body.TraceID
	}
	return apiErr
}
