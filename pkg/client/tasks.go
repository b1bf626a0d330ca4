package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Task mirrors the server's task representation.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Progress    int       `json:"progress"`
	Deadline    string    `json:"deadline,omitempty"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Progress    int    `json:"progress"`
	Deadline    string `json:"deadline,omitempty"`
	AssignedTo  string `json:"assignedTo,omitempty"`
}

// TaskPatch changes only the non-nil fields.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Progress    *int    `json:"progress,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	AssignedTo  *string `json:"assignedTo,omitempty"`
}

// TaskQuery filters ListTasks. Empty fields are not sent.
type TaskQuery struct {
	Bucket   string
	Priority string
	Status   string
	Search   string
	Sort     string
	Desc     bool
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("bucket", q.Bucket)
	set("priority", q.Priority)
	set("status", q.Status)
	set("q", q.Search)
	set("sort", q.Sort)
	if q.Desc {
		v.Set("order", "desc")
	}
	return v
}

type TaskStats struct {
	Total      int `json:"total"`
	ToDo       int `json:"toDo"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
}

type Board struct {
	ToDo       []Task `json:"To Do"`
	InProgress []Task `json:"In Progress"`
	Completed  []Task `json:"Completed"`
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]Task, error) {
	path := "/api/tasks"
	if v := q.values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, path, true, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, t NewTask) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", true, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, p TaskPatch) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), true, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), true, nil, nil)
}

func (c *Client) SetProgress(ctx context.Context, id string, progress int) (*Task, error) {
	var out Task
	body := map[string]int{"progress": progress}
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id)+"/progress", true, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleTask(ctx context.Context, id string) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id)+"/toggle", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveTask drops a task into a board column ("To Do", "In Progress", "Completed").
func (c *Client) MoveTask(ctx context.Context, id, column string) (*Task, error) {
	var out Task
	body := map[string]string{"status": column}
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id)+"/move", true, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Board(ctx context.Context) (*Board, error) {
	var out Board
	if err := c.do(ctx, http.MethodGet, "/api/tasks/board", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TaskStats(ctx context.Context) (*TaskStats, error) {
	var out TaskStats
	if err := c.do(ctx, http.MethodGet, "/api/tasks/stats", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
