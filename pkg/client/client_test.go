package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers the routes the tests hit and records the Authorization
// header of the last request.
type fakeServer struct {
	lastAuth string
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, Session{Message: "Login successful", Token: "tok-" + req.Email, Role: "admin"})
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, Session{Message: "User registered successfully", Token: "new-tok", UserID: "u9", Role: "user"})
	})
	mux.HandleFunc("POST /api/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	})
	mux.HandleFunc("GET /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("status") == "expired" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, []Task{{ID: "t1", Title: r.URL.Query().Get("q"), Progress: 50}})
	})
	mux.HandleFunc("PATCH /api/tasks/{id}/move", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		progress := 0
		if body["status"] == "Completed" {
			progress = 100
		}
		writeJSON(w, http.StatusOK, Task{ID: r.PathValue("id"), Progress: progress})
	})
	mux.HandleFunc("DELETE /admin/users/{email}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted " + r.PathValue("email")})
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeServer) {
	t.Helper()
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/", Logger: zerolog.Nop()})
	require.NoError(t, err)
	return c, fake
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestClient_LoginKeepsSession(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	_, err := c.ListTasks(ctx, TaskQuery{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	s, err := c.Login(ctx, LoginRequest{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Login successful", s.Message)
	assert.Equal(t, "tok-a@example.com", c.Token())
	assert.Equal(t, "admin", c.Role())

	tasks, err := c.ListTasks(ctx, TaskQuery{Search: "report", Desc: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "report", tasks[0].Title)
	assert.Equal(t, "Bearer tok-a@example.com", fake.lastAuth)
}

func TestClient_RegisterKeepsSession(t *testing.T) {
	c, _ := newTestClient(t)

	s, err := c.Register(context.Background(), RegisterRequest{FullName: "New", Email: "n@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "u9", s.UserID)
	assert.Equal(t, "new-tok", c.Token())
	assert.Equal(t, "user", c.Role())
}

func TestClient_ErrorsCarryServerMessage(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "invalid email or password")
	assert.Empty(t, c.Token())

	_, err = c.ForgotPassword(ctx, "ghost@example.com")
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_UnauthorizedSignsOut(t *testing.T) {
	c, _ := newTestClient(t)
	c.SetSession("stale", "user")

	_, err := c.ListTasks(context.Background(), TaskQuery{Status: "expired"})
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, c.Token())
	assert.Empty(t, c.Role())
}

func TestClient_MoveAndAdminCalls(t *testing.T) {
	c, _ := newTestClient(t)
	c.SetSession("tok", "admin")
	ctx := context.Background()

	task, err := c.MoveTask(ctx, "t1", "Completed")
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, 100, task.Progress)

	require.NoError(t, c.DeleteUser(ctx, "a+b@example.com"))
}

func TestRedirect(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		token string
		role  string
		want  string
	}{
		{"public page signed out", "/login", "", "", ""},
		{"reset page signed out", "/reset-password", "", "", ""},
		{"landing", "/", "", "", ""},
		{"user page signed out", "/user/dashboard", "", "", LoginPage},
		{"admin page signed out", "/admin/users", "", "", LoginPage},
		{"user page as user", "/user/profile", "t", "user", ""},
		{"user page as admin", "/user/calendar", "t", "admin", ""},
		{"admin page as user", "/admin/dashboard", "t", "user", UserDashboard},
		{"admin page as admin", "/admin/user-logs/", "t", "admin", ""},
		{"unknown page", "/nowhere", "t", "user", LandingPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{}
			c.SetSession(tt.token, tt.role)
			assert.Equal(t, tt.want, c.Redirect(tt.path))
			assert.Equal(t, tt.want == "", c.CanAccess(tt.path))
		})
	}
}
