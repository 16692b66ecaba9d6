package taskboardsdk

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
)

// Client is a minimal Taskboard HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	// SelectedProject is sent as X-Project-Id so new tasks without a project
	// land in it.
	SelectedProject string
	HTTPClient      *http.Client
	Timeout         time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Status      string    `json:"status"`
	ProjectID   string    `json:"projectId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewTask is the create-task payload. DueDate is YYYY-MM-DD or RFC3339.
type NewTask struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     string  `json:"dueDate"`
	Status      string  `json:"status,omitempty"`
	ProjectID   *string `json:"projectId,omitempty"`
}

// TaskChanges is a partial update; nil fields are left alone.
type TaskChanges struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Status      *string `json:"status,omitempty"`
	ProjectID   *string `json:"projectId,omitempty"`
}

// TaskQuery narrows ListTasks. Empty fields match everything.
type TaskQuery struct {
	Project string
	Query   string
	Status  string
	Due     string
}

type Session struct {
	User struct {
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

// Event represents a journal entry.
type Event struct {
	ID       int64          `json:"id"`
	TS       string         `json:"ts"`
	Domain   string         `json:"domain"`
	Op       string         `json:"op"`
	EntityID string         `json:"entity_id"`
	Payload  map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login opens a session and keeps its token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPost, "v0/auth/login", map[string]string{"email": email, "password": password}, &resp)
	if err == nil {
		c.BearerToken = resp.Token
	}
	return resp, err
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "v0/auth/logout", nil, nil); err != nil {
		return err
	}
	c.BearerToken = ""
	return nil
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp []Project
	err := c.do(ctx, http.MethodGet, "v0/projects", nil, &resp)
	return resp, err
}

func (c *Client) CreateProject(ctx context.Context, name string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "v0/projects", map[string]string{"name": name}, &resp)
	return resp, err
}

func (c *Client) RenameProject(ctx context.Context, id, name string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPatch, "v0/projects/"+url.PathEscape(id), map[string]string{"name": name}, &resp)
	return resp, err
}

// DeleteProject removes the project and every task assigned to it.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v0/projects/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]Task, error) {
	params := url.Values{}
	if q.Project != "" {
		params.Set("project", q.Project)
	}
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Due != "" {
		params.Set("due", q.Due)
	}
	endpoint := "v0/tasks"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var resp []Task
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) CreateTask(ctx context.Context, in NewTask) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "v0/tasks", in, &resp)
	return resp, err
}

func (c *Client) GetTask(ctx context.Context, id string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodGet, "v0/tasks/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, changes TaskChanges) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPatch, "v0/tasks/"+url.PathEscape(id), changes, &resp)
	return resp, err
}

func (c *Client) SetTaskStatus(ctx context.Context, id, status string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPut, "v0/tasks/"+url.PathEscape(id)+"/status", map[string]string{"status": status}, &resp)
	return resp, err
}

func (c *Client) ToggleTask(ctx context.Context, id string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "v0/tasks/"+url.PathEscape(id)+"/toggle", nil, &resp)
	return resp, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v0/tasks/"+url.PathEscape(id), nil, nil)
}

// Events lists recent journal entries, newest first.
func (c *Client) Events(ctx context.Context, domain string, limit int) ([]Event, error) {
	params := url.Values{}
	if domain != "" {
		params.Set("domain", domain)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	endpoint := "v0/events"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	if c.SelectedProject != "" {
		req.Header.Set("X-Project-Id", c.SelectedProject)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
