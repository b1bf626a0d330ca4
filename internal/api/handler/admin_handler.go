package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

// AdminHandler serves the /admin routes. Every route sits behind Auth and
// RBAC("admin").
type AdminHandler struct {
	users ports.UserService
	audit ports.AuditService
	tasks ports.TaskService
}

func NewAdminHandler(users ports.UserService, audit ports.AuditService, tasks ports.TaskService) *AdminHandler {
	return &AdminHandler{users: users, audit: audit, tasks: tasks}
}

type updateUserRequest struct {
	FullName string `json:"fullName" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,oneof=user admin"`
}

type dashboardResponse struct {
	Message string `json:"message"`
	domain.UserOverview
}

// ListUsers returns every registered account.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser edits the name and role of the account with the given email.
//
// @Summary      Update a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string             true  "Account email"
// @Param        body   body      updateUserRequest  true  "New name and role"
// @Success      200    {object}  domain.User
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /admin/users/{email} [put]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.UpdateUser(c.Request().Context(), emailParam(c), req.FullName, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes the account with the given email.
//
// @Summary      Delete a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Account email"
// @Success      200    {object}  messageResponse
// @Failure      404    {object}  map[string]string
// @Router       /admin/users/{email} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.users.DeleteUser(c.Request().Context(), emailParam(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

// Dashboard summarises the user base.
//
// @Summary      Admin dashboard
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ov, err := h.users.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{Message: "Welcome to the admin dashboard", UserOverview: *ov})
}

// Logs lists recent registrations, logins and password resets.
//
// @Summary      Auth activity log
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 50, max 500)"
// @Success      200    {array}   domain.AuthEvent
// @Failure      400    {object}  map[string]string
// @Router       /admin/logs [get]
func (h *AdminHandler) Logs(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a number")
		}
		limit = n
	}

	events, err := h.audit.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

// OwnerTasks lists the tasks of one user.
//
// @Summary      List a user's tasks
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        owner  path      string  true  "User ID"
// @Success      200    {array}   domain.Task
// @Router       /admin/tasks/{owner} [get]
func (h *AdminHandler) OwnerTasks(c echo.Context) error {
	tasks, err := h.tasks.List(c.Request().Context(), c.Param("owner"), ports.TaskFilter{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// OwnerStats returns the task counters of one user.
//
// @Summary      A user's task statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        owner  path      string  true  "User ID"
// @Success      200    {object}  domain.TaskStats
// @Router       /admin/tasks/{owner}/stats [get]
func (h *AdminHandler) OwnerStats(c echo.Context) error {
	stats, err := h.tasks.Stats(c.Request().Context(), c.Param("owner"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// CompleteTask marks a user's task Completed.
//
// @Summary      Mark a user's task completed
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        owner  path      string  true  "User ID"
// @Param        id     path      string  true  "Task ID"
// @Success      200    {object}  domain.Task
// @Failure      404    {object}  map[string]string
// @Router       /admin/tasks/{owner}/{id}/complete [patch]
func (h *AdminHandler) CompleteTask(c echo.Context) error {
	task, err := h.tasks.Complete(c.Request().Context(), c.Param("owner"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// emailParam reads :email, undoing percent-encoding of "@" and "+".
func emailParam(c echo.Context) string {
	raw := c.Param("email")
	if email, err := url.PathUnescape(raw); err == nil {
		return email
	}
	return raw
}
