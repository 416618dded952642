// Package client talks to the tracker REST API and keeps the client-side
// cache of its entities.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	apierrors "github.com/yukikurage/municipal-tracker/internal/errors"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

// Client is a bearer-token API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding body: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", constants.BearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &TransportError{Op: op, Status: resp.StatusCode}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body apierrors.APIError
	_ = json.NewDecoder(resp.Body).Decode(&body)
	details, _ := body.Details.(map[string]interface{})
	if body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusBadRequest {
		fields := make(map[string]string, len(details))
		for name, value := range details {
			fields[name] = fmt.Sprint(value)
		}
		return &ValidationError{Message: body.Message, Fields: fields}
	}

	apiErr := &APIError{
		Status:  resp.StatusCode,
		Code:    body.Code,
		Message: body.Message,
		Details: details,
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		apiErr.kind = ErrUnauthorized
	case http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case http.StatusConflict:
		if body.Code == apierrors.ErrCodeInvalidTransition {
			apiErr.kind = ErrTransition
		} else {
			apiErr.kind = ErrConflict
		}
	}
	return apiErr
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/users/login", nil, dto.LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*dto.UserDTO, error) {
	var user dto.UserDTO
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserDTO, error) {
	var user dto.UserDTO
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TaskQuery mirrors the list parameters of GET /api/tasks.
type TaskQuery struct {
	Statuses   []models.TaskStatus
	Categories []models.TaskCategory
	From       string
	To         string
	FileID     *uint64
	Sort       string
	Descending bool
	Page       int
	Limit      int
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	if len(q.Statuses) > 0 {
		parts := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			parts[i] = string(s)
		}
		v.Set("status", strings.Join(parts, ","))
	}
	if len(q.Categories) > 0 {
		parts := make([]string, len(q.Categories))
		for i, c := range q.Categories {
			parts[i] = string(c)
		}
		v.Set("category", strings.Join(parts, ","))
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	if q.FileID != nil {
		v.Set("file_id", strconv.FormatUint(*q.FileID, 10))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Descending {
		v.Set("order", "desc")
	}
	setPage(v, q.Page, q.Limit)
	return v
}

func setPage(v url.Values, page, limit int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]dto.TaskDTO, utils.PaginationResponse, error) {
	var resp dto.TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks", q.values(), nil, &resp); err != nil {
		return nil, utils.PaginationResponse{}, err
	}
	return resp.Tasks, resp.Pagination, nil
}

// AllTasks walks every page of the task list.
func (c *Client) AllTasks(ctx context.Context) ([]dto.TaskDTO, error) {
	return collect(func(page int) ([]dto.TaskDTO, utils.PaginationResponse, error) {
		return c.ListTasks(ctx, TaskQuery{Page: page, Limit: constants.MaxPageSize})
	})
}

func collect[T any](fetch func(page int) ([]T, utils.PaginationResponse, error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		items, pagination, err := fetch(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || !pagination.HasNext() {
			return all, nil
		}
	}
}

func (c *Client) GetTask(ctx context.Context, id uint64) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, req dto.TaskRequest) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodPost, "/api/tasks", nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id uint64, req dto.TaskRequest) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil, nil)
}

// ChangeTaskStatus returns the task as stored after the change.
func (c *Client) ChangeTaskStatus(ctx context.Context, id uint64, req dto.StatusChangeRequest) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/status", id), nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) TaskHistory(ctx context.Context, id uint64) ([]dto.StatusChangeDTO, error) {
	var resp dto.HistoryResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d/history", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

func (c *Client) ListFiles(ctx context.Context, status, query string, page, limit int) ([]dto.FileDTO, utils.PaginationResponse, error) {
	v := url.Values{}
	if status != "" {
		v.Set("status", status)
	}
	if query != "" {
		v.Set("q", query)
	}
	setPage(v, page, limit)

	var resp dto.FileListResponse
	if err := c.do(ctx, http.MethodGet, "/api/files", v, nil, &resp); err != nil {
		return nil, utils.PaginationResponse{}, err
	}
	return resp.Files, resp.Pagination, nil
}

func (c *Client) AllFiles(ctx context.Context) ([]dto.FileDTO, error) {
	return collect(func(page int) ([]dto.FileDTO, utils.PaginationResponse, error) {
		return c.ListFiles(ctx, "", "", page, constants.MaxPageSize)
	})
}

func (c *Client) CreateFile(ctx context.Context, req dto.FileRequest) (*dto.FileDTO, error) {
	var file dto.FileDTO
	if err := c.do(ctx, http.MethodPost, "/api/files", nil, req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *Client) UpdateFile(ctx context.Context, id uint64, req dto.FileRequest) (*dto.FileDTO, error) {
	var file dto.FileDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/files/%d", id), nil, req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *Client) DeleteFile(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/files/%d", id), nil, nil, nil)
}

func (c *Client) FileTasks(ctx context.Context, id uint64) ([]dto.TaskDTO, error) {
	var resp struct {
		Tasks []dto.TaskDTO `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/files/%d/tasks", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) ListActivities(ctx context.Context, query string, page, limit int) ([]dto.ActivityDTO, utils.PaginationResponse, error) {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	setPage(v, page, limit)

	var resp dto.ActivityListResponse
	if err := c.do(ctx, http.MethodGet, "/api/other-activities", v, nil, &resp); err != nil {
		return nil, utils.PaginationResponse{}, err
	}
	return resp.Activities, resp.Pagination, nil
}

func (c *Client) AllActivities(ctx context.Context) ([]dto.ActivityDTO, error) {
	return collect(func(page int) ([]dto.ActivityDTO, utils.PaginationResponse, error) {
		return c.ListActivities(ctx, "", page, constants.MaxPageSize)
	})
}

func (c *Client) CreateActivity(ctx context.Context, req dto.ActivityRequest) (*dto.ActivityDTO, error) {
	var activity dto.ActivityDTO
	if err := c.do(ctx, http.MethodPost, "/api/other-activities", nil, req, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (c *Client) UpdateActivity(ctx context.Context, id uint64, req dto.ActivityRequest) (*dto.ActivityDTO, error) {
	var activity dto.ActivityDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/other-activities/%d", id), nil, req, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (c *Client) DeleteActivity(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/other-activities/%d", id), nil, nil, nil)
}

func (c *Client) DashboardStats(ctx context.Context) (*services.DashboardStats, error) {
	var stats services.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DailyReport fetches the report feed of day (YYYY-MM-DD); empty means today.
func (c *Client) DailyReport(ctx context.Context, day string) (*dto.DailyReportDTO, error) {
	v := url.Values{}
	if day != "" {
		v.Set("date", day)
	}
	var report dto.DailyReportDTO
	if err := c.do(ctx, http.MethodGet, "/api/reports/daily", v, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
