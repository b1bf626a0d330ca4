package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type User struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthEvent struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"username"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ipAddress,omitempty"`
	At        time.Time `json:"loginTime"`
}

type Dashboard struct {
	Message    string         `json:"message"`
	TotalUsers int            `json:"totalUsers"`
	ByRole     map[string]int `json:"byRole"`
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", true, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) UpdateUser(ctx context.Context, email, fullName, role string) (*User, error) {
	var out User
	body := map[string]string{"fullName": fullName, "role": role}
	if err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(email), true, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(email), true, nil, nil)
}

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := c.do(ctx, http.MethodGet, "/admin/dashboard", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthLogs returns recent auth events, newest first. limit <= 0 uses the server default.
func (c *Client) AuthLogs(ctx context.Context, limit int) ([]AuthEvent, error) {
	path := "/admin/logs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var events []AuthEvent
	if err := c.do(ctx, http.MethodGet, path, true, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UserTasks lists the tasks of the user with the given ID.
func (c *Client) UserTasks(ctx context.Context, userID string) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/admin/tasks/"+url.PathEscape(userID), true, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteUserTask toggles completion of another user's task.
func (c *Client) CompleteUserTask(ctx context.Context, userID, taskID string) (*Task, error) {
	var out Task
	path := "/admin/tasks/" + url.PathEscape(userID) + "/" + url.PathEscape(taskID) + "/complete"
	if err := c.do(ctx, http.MethodPatch, path, true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
