package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

const sseKeepAlive = 25 * time.Second

// TaskHandler serves the caller's own task collection.
type TaskHandler struct {
	tasks ports.TaskService
	log   zerolog.Logger
	now   func() time.Time
}

func NewTaskHandler(tasks ports.TaskService, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log, now: time.Now}
}

// --- Request / Response types ---

type listTasksQuery struct {
	Bucket   string `query:"bucket"`
	Priority string `query:"priority"`
	Status   string `query:"status"`
	Search   string `query:"q"`
	Sort     string `query:"sort"`
	Order    string `query:"order"`
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Priority    string `json:"priority"`
	Progress    int    `json:"progress" validate:"gte=0,lte=100"`
	Deadline    string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	AssignedTo  string `json:"assignedTo"`
}

type updateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Priority    *string `json:"priority"`
	Progress    *int    `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Deadline    *string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	AssignedTo  *string `json:"assignedTo"`
}

type progressRequest struct {
	Progress *int `json:"progress" validate:"required,gte=0,lte=100"`
}

type moveRequest struct {
	Status string `json:"status" validate:"required"`
}

// List returns the caller's tasks, filtered and sorted.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        bucket    query     string  false  "To Do, In Progress or Completed"
// @Param        priority  query     string  false  "High, Medium or Low"
// @Param        status    query     string  false  "completed or pending"
// @Param        q         query     string  false  "Search in title and description"
// @Param        sort      query     string  false  "created, deadline, priority, progress or title"
// @Param        order     query     string  false  "asc or desc"
// @Success      200       {array}   domain.Task
// @Failure      422       {object}  map[string]string
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var q listTasksQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	filter := ports.TaskFilter{
		Status: q.Status,
		Search: q.Search,
		SortBy: q.Sort,
		Desc:   strings.EqualFold(q.Order, "desc"),
	}
	if q.Bucket != "" {
		if filter.Bucket, err = domain.ParseBucket(q.Bucket); err != nil {
			return err
		}
	}
	if q.Priority != "" {
		if filter.Priority, err = domain.ParsePriority(q.Priority); err != nil {
			return err
		}
	}

	tasks, err := h.tasks.List(c.Request().Context(), id.UserID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create adds a task at the end of the caller's list.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      422   {object}  map[string]string
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	task, err := h.tasks.Create(c.Request().Context(), id.UserID, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Progress:    req.Progress,
		Deadline:    req.Deadline,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Get returns one task.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Update edits the fields present in the body.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  domain.Task
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	task, err := h.tasks.Update(c.Request().Context(), id.UserID, c.Param("id"), ports.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Progress:    req.Progress,
		Deadline:    req.Deadline,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes a task.
//
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.Request().Context(), id.UserID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

// SetProgress sets the progress percentage; the bucket follows from it.
//
// @Summary      Set task progress
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Task ID"
// @Param        body  body      progressRequest  true  "Progress 0-100"
// @Success      200   {object}  domain.Task
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/tasks/{id}/progress [patch]
func (h *TaskHandler) SetProgress(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req progressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	task, err := h.tasks.SetProgress(c.Request().Context(), id.UserID, c.Param("id"), *req.Progress)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Toggle flips a task between Completed and To Do.
//
// @Summary      Toggle task completion
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id}/toggle [patch]
func (h *TaskHandler) Toggle(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.ToggleStatus(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Move drops a task into a board column.
//
// @Summary      Move a task to another column
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Task ID"
// @Param        body  body      moveRequest  true  "Target column: To Do, In Progress or Completed"
// @Success      200   {object}  domain.Task
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/tasks/{id}/move [patch]
func (h *TaskHandler) Move(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	bucket, err := domain.ParseBucket(req.Status)
	if err != nil {
		return err
	}

	task, err := h.tasks.Move(c.Request().Context(), id.UserID, c.Param("id"), bucket)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Board groups the caller's tasks by column.
//
// @Summary      Kanban board
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Board
// @Router       /api/tasks/board [get]
func (h *TaskHandler) Board(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	board, err := h.tasks.Board(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board)
}

// Stats returns the caller's task counters.
//
// @Summary      Task statistics
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.TaskStats
// @Router       /api/tasks/stats [get]
func (h *TaskHandler) Stats(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	stats, err := h.tasks.Stats(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Due lists open tasks due today or tomorrow.
//
// @Summary      Tasks due soon
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  false  "Reference day YYYY-MM-DD (default today)"
// @Success      200   {object}  domain.DueTasks
// @Failure      400   {object}  map[string]string
// @Router       /api/tasks/due [get]
func (h *TaskHandler) Due(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	ref := h.now()
	if raw := c.QueryParam("date"); raw != "" {
		if ref, err = time.Parse(domain.DeadlineLayout, raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
	}

	due, err := h.tasks.DueSoon(c.Request().Context(), id.UserID, ref)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, due)
}

// Events streams the caller's collection as server-sent events. The current
// snapshot is sent first, then one "tasks" event per change.
//
// @Summary      Task change stream
// @Tags         tasks
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {object}  domain.TaskSnapshot
// @Router       /api/tasks/events [get]
func (h *TaskHandler) Events(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	sub, err := h.tasks.Subscribe(ctx, id.UserID)
	if err != nil {
		return err
	}
	defer sub.Close()

	// Subscribe before reading so no change between the two is missed.
	current, err := h.tasks.Snapshot(ctx, id.UserID)
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	last := current.Version
	if err := writeSnapshotEvent(res, current); err != nil {
		return nil
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.Changes():
			if !ok {
				return nil
			}
			if snap.Version <= last {
				continue
			}
			last = snap.Version
			if err := writeSnapshotEvent(res, snap); err != nil {
				h.log.Debug().Err(err).Str("user_id", id.UserID).Msg("task stream closed")
				return nil
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeSnapshotEvent(res *echo.Response, snap *domain.TaskSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "id: %d\nevent: tasks\ndata: %s\n\n", snap.Version, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
