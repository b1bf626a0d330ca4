package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

// WorkspaceHandler serves the caller's notes and profile.
type WorkspaceHandler struct {
	workspace ports.WorkspaceService
}

func NewWorkspaceHandler(workspace ports.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: workspace}
}

type notesRequest struct {
	Notes string `json:"notes" validate:"max=20000"`
}

type profileRequest struct {
	Name       string `json:"name" validate:"max=120"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"max=32"`
	Address    string `json:"address" validate:"max=300"`
	DOB        string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	LinkedIn   string `json:"linkedin" validate:"omitempty,url"`
	GitHub     string `json:"github" validate:"omitempty,url"`
	ProfilePic string `json:"profilePic"`
}

// GetNotes returns the caller's scratchpad.
//
// @Summary      Get notes
// @Tags         workspace
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Notes
// @Router       /api/notes [get]
func (h *WorkspaceHandler) GetNotes(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	notes, err := h.workspace.GetNotes(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// SaveNotes replaces the caller's scratchpad.
//
// @Summary      Save notes
// @Tags         workspace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      notesRequest  true  "Notes text"
// @Success      200   {object}  domain.Notes
// @Failure      400   {object}  map[string]string
// @Router       /api/notes [put]
func (h *WorkspaceHandler) SaveNotes(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	notes := domain.Notes{Text: req.Notes}
	if err := h.workspace.SaveNotes(c.Request().Context(), id.UserID, notes); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// GetProfile returns the caller's profile for their current role.
//
// @Summary      Get profile
// @Tags         workspace
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Profile
// @Router       /api/profile [get]
func (h *WorkspaceHandler) GetProfile(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	profile, err := h.workspace.GetProfile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// SaveProfile replaces the caller's profile. The role is taken from the
// session, never from the body.
//
// @Summary      Save profile
// @Tags         workspace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile"
// @Success      200   {object}  domain.Profile
// @Failure      400   {object}  map[string]string
// @Router       /api/profile [put]
func (h *WorkspaceHandler) SaveProfile(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.workspace.SaveProfile(c.Request().Context(), id, domain.Profile{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		DOB:        req.DOB,
		LinkedIn:   req.LinkedIn,
		GitHub:     req.GitHub,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
