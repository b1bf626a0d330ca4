package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSMTPMailer_SendPasswordReset(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", User: "noreply@example.com", Password: "pw"}, zerolog.Nop())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	link := "http://localhost:5173/reset-password?token=abc"
	if err := m.SendPasswordReset(context.Background(), "user@example.com", link); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("expected default port 587, got %s", gotAddr)
	}
	if gotAuth == nil {
		t.Fatalf("expected plain auth when a user is configured")
	}
	if gotFrom != "noreply@example.com" || len(gotTo) != 1 || gotTo[0] != "user@example.com" {
		t.Fatalf("unexpected envelope: from=%s to=%v", gotFrom, gotTo)
	}
	body := string(gotMsg)
	if !strings.Contains(body, "Subject: Reset Your Password") || !strings.Contains(body, link) {
		t.Fatalf("unexpected message:\n%s", body)
	}
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "app@example.com"}, zerolog.Nop())
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	if err := m.SendPasswordReset(context.Background(), "user@example.com", "http://x"); err == nil {
		t.Fatalf("expected delivery error")
	}
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost"}, zerolog.Nop())
	called := false
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.SendPasswordReset(ctx, "user@example.com", "http://x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("nothing should be sent after cancellation")
	}
}

func TestLogMailer(t *testing.T) {
	var buf strings.Builder
	m := NewLogMailer(zerolog.New(&buf))

	if err := m.SendPasswordReset(context.Background(), "user@example.com", "http://x?token=t"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), "http://x?token=t") {
		t.Fatalf("reset link not logged: %s", buf.String())
	}
}
