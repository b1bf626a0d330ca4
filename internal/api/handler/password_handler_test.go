package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/taskflow/taskflow/internal/core/domain"
)

func TestPasswordHandler_ForgotPassword(t *testing.T) {
	var got string
	stub := &stubAuthService{
		forgotFn: func(ctx context.Context, email string) error {
			got = email
			return nil
		},
	}
	handler := NewPasswordHandler(stub)

	c, rec := newContext(http.MethodPost, "/api/forgot-password", `{"email":"a@example.com"}`)
	if err := handler.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || got != "a@example.com" {
		t.Fatalf("unexpected result: code=%d email=%q", rec.Code, got)
	}
	var resp messageResponse
	decode(t, rec, &resp)
	if resp.Message != "Password reset link sent to your email." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestPasswordHandler_ForgotPassword_UnknownEmail(t *testing.T) {
	stub := &stubAuthService{
		forgotFn: func(ctx context.Context, email string) error { return domain.ErrUserNotFound },
	}
	c, _ := newContext(http.MethodPost, "/api/forgot-password", `{"email":"ghost@example.com"}`)
	if err := NewPasswordHandler(stub).ForgotPassword(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPasswordHandler_ResetPassword(t *testing.T) {
	stub := &stubAuthService{
		resetFn: func(ctx context.Context, token, password string) error {
			if token != "abc" || password != "newpass" {
				t.Fatalf("unexpected args %q %q", token, password)
			}
			return nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/reset-password", `{"token":"abc","password":"newpass"}`)
	if err := NewPasswordHandler(stub).ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp messageResponse
	decode(t, rec, &resp)
	if resp.Message != "Password reset successful!" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestPasswordHandler_ResetPassword_Rejects(t *testing.T) {
	stub := &stubAuthService{
		resetFn: func(ctx context.Context, token, password string) error { return domain.ErrInvalidOrExpiredToken },
	}
	handler := NewPasswordHandler(stub)

	c, _ := newContext(http.MethodPost, "/api/reset-password", `{"token":"abc","password":"123"}`)
	if code := httpStatus(t, handler.ResetPassword(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", code)
	}

	c, _ = newContext(http.MethodPost, "/api/reset-password", `{"token":"abc","password":"newpass"}`)
	if err := handler.ResetPassword(c); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}
