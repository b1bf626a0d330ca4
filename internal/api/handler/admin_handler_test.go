package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

type stubUserService struct {
	users     []*domain.User
	updated   [3]string
	deleted   string
	deleteErr error
}

func (s *stubUserService) ListUsers(context.Context) ([]*domain.User, error) {
	return s.users, nil
}

func (s *stubUserService) UpdateUser(_ context.Context, email, fullName, role string) (*domain.User, error) {
	s.updated = [3]string{email, fullName, role}
	return &domain.User{Email: email, FullName: fullName, Role: role}, nil
}

func (s *stubUserService) DeleteUser(_ context.Context, email string) error {
	s.deleted = email
	return s.deleteErr
}

func (s *stubUserService) Overview(context.Context) (*domain.UserOverview, error) {
	return &domain.UserOverview{TotalUsers: len(s.users), ByRole: map[string]int{"user": len(s.users)}}, nil
}

type stubAuditService struct {
	limit int
}

func (s *stubAuditService) Record(context.Context, domain.AuthEvent) error { return nil }

func (s *stubAuditService) Recent(_ context.Context, limit int) ([]*domain.AuthEvent, error) {
	s.limit = limit
	return []*domain.AuthEvent{{Email: "a@example.com", Action: domain.ActionLogin}}, nil
}

func TestAdminHandler_Users(t *testing.T) {
	users := &stubUserService{users: []*domain.User{{Email: "a@example.com", Role: "user"}}}
	h, _ := newAdminHandler(users)

	c, rec := newContext(http.MethodGet, "/admin/users", "")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	var listed []domain.User
	decode(t, rec, &listed)
	if len(listed) != 1 || listed[0].Email != "a@example.com" {
		t.Fatalf("unexpected users: %+v", listed)
	}

	c, _ = newContext(http.MethodPut, "/", `{"fullName":"Alice","role":"admin"}`)
	c.SetParamNames("email")
	c.SetParamValues("a%40example.com")
	if err := h.UpdateUser(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if users.updated != [3]string{"a@example.com", "Alice", "admin"} {
		t.Fatalf("unexpected update args: %v", users.updated)
	}

	c, _ = newContext(http.MethodPut, "/", `{"fullName":"Alice","role":"owner"}`)
	c.SetParamNames("email")
	c.SetParamValues("a@example.com")
	if code := httpStatus(t, h.UpdateUser(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", code)
	}
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	users := &stubUserService{}
	h, _ := newAdminHandler(users)

	c, rec := newContext(http.MethodDelete, "/", "")
	c.SetParamNames("email")
	c.SetParamValues("a@example.com")
	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var msg messageResponse
	decode(t, rec, &msg)
	if users.deleted != "a@example.com" || msg.Message != "User deleted successfully" {
		t.Fatalf("unexpected result: deleted=%q msg=%q", users.deleted, msg.Message)
	}

	users.deleteErr = domain.ErrUserNotFound
	c, _ = newContext(http.MethodDelete, "/", "")
	c.SetParamNames("email")
	c.SetParamValues("ghost@example.com")
	if err := h.DeleteUser(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminHandler_DashboardAndLogs(t *testing.T) {
	users := &stubUserService{users: []*domain.User{{}, {}}}
	h, audit := newAdminHandler(users)

	c, rec := newContext(http.MethodGet, "/admin/dashboard", "")
	if err := h.Dashboard(c); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	var dash dashboardResponse
	decode(t, rec, &dash)
	if dash.Message != "Welcome to the admin dashboard" || dash.TotalUsers != 2 {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}

	c, _ = newContext(http.MethodGet, "/admin/logs?limit=20", "")
	if err := h.Logs(c); err != nil {
		t.Fatalf("logs: %v", err)
	}
	if audit.limit != 20 {
		t.Fatalf("expected limit 20, got %d", audit.limit)
	}

	c, _ = newContext(http.MethodGet, "/admin/logs?limit=many", "")
	if code := httpStatus(t, h.Logs(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAdminHandler_CompleteTaskIsIdempotent(t *testing.T) {
	h, _ := newAdminHandler(&stubUserService{})
	task := seedTask(t, h.tasks, "u7", ports.CreateTaskInput{Title: "audit"})

	for i := 0; i < 2; i++ {
		c, rec := newContext(http.MethodPatch, "/", "")
		c.SetParamNames("owner", "id")
		c.SetParamValues("u7", task.ID)
		if err := h.CompleteTask(c); err != nil {
			t.Fatalf("complete #%d: %v", i+1, err)
		}
		var done domain.Task
		decode(t, rec, &done)
		if done.Progress != 100 || done.Bucket() != domain.BucketCompleted {
			t.Fatalf("complete #%d: expected completed at 100, got %+v", i+1, done)
		}
	}
}

func TestAdminHandler_CompleteTaskFromAlmostDone(t *testing.T) {
	h, _ := newAdminHandler(&stubUserService{})
	task := seedTask(t, h.tasks, "u7", ports.CreateTaskInput{Title: "release", Progress: 90})
	if task.Bucket() != domain.BucketCompleted {
		t.Fatalf("seed: expected Completed bucket at 90, got %s", task.Bucket())
	}

	c, rec := newContext(http.MethodPatch, "/", "")
	c.SetParamNames("owner", "id")
	c.SetParamValues("u7", task.ID)
	if err := h.CompleteTask(c); err != nil {
		t.Fatalf("complete: %v", err)
	}
	var done domain.Task
	decode(t, rec, &done)
	if done.Progress != 100 || done.Bucket() != domain.BucketCompleted {
		t.Fatalf("expected completed at 100, got %+v", done)
	}
}

func TestAdminHandler_OwnerTasks(t *testing.T) {
	h, _ := newAdminHandler(&stubUserService{})
	task := seedTask(t, h.tasks, "u7", ports.CreateTaskInput{Title: "audit"})

	c, rec := newContext(http.MethodPatch, "/", "")
	c.SetParamNames("owner", "id")
	c.SetParamValues("u7", task.ID)
	if err := h.CompleteTask(c); err != nil {
		t.Fatalf("complete: %v", err)
	}
	var done domain.Task
	decode(t, rec, &done)
	if done.Bucket() != domain.BucketCompleted {
		t.Fatalf("expected completed task, got %+v", done)
	}

	c, rec = newContext(http.MethodGet, "/", "")
	c.SetParamNames("owner")
	c.SetParamValues("u7")
	if err := h.OwnerStats(c); err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats domain.TaskStats
	decode(t, rec, &stats)
	if stats.Total != 1 || stats.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	c, rec = newContext(http.MethodGet, "/", "")
	c.SetParamNames("owner")
	c.SetParamValues("u7")
	if err := h.OwnerTasks(c); err != nil {
		t.Fatalf("tasks: %v", err)
	}
	var tasks []domain.Task
	decode(t, rec, &tasks)
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func newAdminHandler(users *stubUserService) (*AdminHandler, *stubAuditService) {
	_, tasks := newTaskHandler()
	audit := &stubAuditService{}
	return NewAdminHandler(users, audit, tasks), audit
}
