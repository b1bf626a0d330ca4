package handler

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/service"
	"github.com/taskflow/taskflow/internal/infrastructure/db/memory"
)

func newWorkspaceHandler() *WorkspaceHandler {
	return NewWorkspaceHandler(service.NewWorkspaceService(memory.NewWorkspaceStore(), zerolog.Nop()))
}

func TestWorkspaceHandler_Notes(t *testing.T) {
	h := newWorkspaceHandler()

	c, rec := newContext(http.MethodGet, "/api/notes", "")
	if err := h.GetNotes(withIdentity(c, "u1", "user")); err != nil {
		t.Fatalf("get notes: %v", err)
	}
	var notes domain.Notes
	decode(t, rec, &notes)
	if notes.Text != "" {
		t.Fatalf("expected empty notes, got %q", notes.Text)
	}

	c, _ = newContext(http.MethodPut, "/api/notes", `{"notes":"buy milk"}`)
	if err := h.SaveNotes(withIdentity(c, "u1", "user")); err != nil {
		t.Fatalf("save notes: %v", err)
	}

	c, rec = newContext(http.MethodGet, "/api/notes", "")
	if err := h.GetNotes(withIdentity(c, "u1", "user")); err != nil {
		t.Fatalf("get notes: %v", err)
	}
	decode(t, rec, &notes)
	if notes.Text != "buy milk" {
		t.Fatalf("expected saved notes, got %q", notes.Text)
	}
}

func TestWorkspaceHandler_ProfileIsPerRole(t *testing.T) {
	h := newWorkspaceHandler()

	c, rec := newContext(http.MethodPut, "/api/profile", `{"name":"Alice","email":"a@example.com","role":"admin"}`)
	if err := h.SaveProfile(withIdentity(c, "u1", "user")); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	var saved domain.Profile
	decode(t, rec, &saved)
	if saved.Role != "user" || saved.Name != "Alice" {
		t.Fatalf("role must come from the session: %+v", saved)
	}

	c, rec = newContext(http.MethodGet, "/api/profile", "")
	if err := h.GetProfile(withIdentity(c, "u1", "admin")); err != nil {
		t.Fatalf("get profile: %v", err)
	}
	var other domain.Profile
	decode(t, rec, &other)
	if other.Name != "" || other.Role != "admin" {
		t.Fatalf("expected a separate admin profile, got %+v", other)
	}
}

func TestWorkspaceHandler_SaveProfile_Invalid(t *testing.T) {
	h := newWorkspaceHandler()

	c, _ := newContext(http.MethodPut, "/api/profile", `{"email":"not-an-email"}`)
	if code := httpStatus(t, h.SaveProfile(withIdentity(c, "u1", "user"))); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}

	c, _ = newContext(http.MethodPut, "/api/profile", "{")
	if code := httpStatus(t, h.SaveProfile(withIdentity(c, "u1", "user"))); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", code)
	}
}
