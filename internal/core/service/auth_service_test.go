package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

func registerInput(email, password, role string) ports.RegisterInput {
	return ports.RegisterInput{FullName: "Test User", Email: email, Password: password, Role: role}
}

func loginInput(email, password, role string) ports.LoginInput {
	return ports.LoginInput{Email: email, Password: password, Role: role}
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by email
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.ResetTokenExpires != nil {
		exp := *u.ResetTokenExpires
		clone.ResetTokenExpires = &exp
	}
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrDuplicateEmail
	}
	r.seq++
	stored := cloneUser(user)
	stored.ID = "user-" + strconv.Itoa(r.seq)
	r.users[stored.Email] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetResetToken(_ context.Context, userID, tokenHash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			u.ResetTokenHash = tokenHash
			u.ResetTokenExpires = &expires
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetTokenHash == tokenHash && u.ResetTokenExpires != nil && u.ResetTokenExpires.After(now) {
			u.PasswordHash = passwordHash
			u.ResetTokenHash = ""
			u.ResetTokenExpires = nil
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrInvalidOrExpiredToken
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) UpdateByEmail(_ context.Context, email, fullName, role string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.FullName = fullName
	u.Role = role
	return cloneUser(u), nil
}

func (r *stubUserRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, email)
	return nil
}

type stubMailer struct {
	err   error
	sent  []string // recipients
	links []string
}

func (m *stubMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.sent = append(m.sent, to)
	m.links = append(m.links, link)
	return m.err
}

type stubSink struct {
	events []domain.AuthEvent
}

func (s *stubSink) Enqueue(e domain.AuthEvent) {
	s.events = append(s.events, e)
}

type authFixture struct {
	svc    *AuthService
	repo   *stubUserRepo
	mailer *stubMailer
	sink   *stubSink
	clock  time.Time
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		repo:   newStubUserRepo(),
		mailer: &stubMailer{},
		sink:   &stubSink{},
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(f.repo, f.mailer, f.sink, AuthOptions{
		JWTSecret:     "secret",
		SessionTTL:    time.Hour,
		ResetLinkBase: "http://localhost:5173/reset-password",
	}, zerolog.Nop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *authFixture) register(t *testing.T, email, password, role string) {
	t.Helper()
	if _, err := f.svc.Register(context.Background(), registerInput(email, password, role)); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatalf("link carries no token: %s", link)
	}
	return token
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture()

	session, err := f.svc.Register(context.Background(), registerInput("Alice@Example.com ", "pass123", ""))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if session.Token == "" || session.UserID == "" {
		t.Fatalf("expected token and user id, got %+v", session)
	}
	if session.Role != domain.RoleUser {
		t.Fatalf("role should default to user, got %s", session.Role)
	}

	stored, err := f.repo.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("user not stored under normalised email: %v", err)
	}
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	if err != nil || cost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d (%v)", cost, err)
	}

	id, err := f.svc.VerifySessionToken(session.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if id.UserID != session.UserID || id.Role != domain.RoleUser {
		t.Fatalf("unexpected identity: %+v", id)
	}

	if len(f.sink.events) != 1 || f.sink.events[0].Action != domain.ActionRegister {
		t.Fatalf("expected one register audit event, got %+v", f.sink.events)
	}
}

func TestAuthService_Register_ThenLogin(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "carol@example.com", "s3cret", domain.RoleAdmin)

	session, err := f.svc.Login(context.Background(), loginInput("carol@example.com", "s3cret", ""))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", session.Role)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(session.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return f.clock }))
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != domain.RoleAdmin {
		t.Fatalf("expected role %s, got %v", domain.RoleAdmin, claims["role"])
	}
	exp, _ := claims.GetExpirationTime()
	if exp == nil || !exp.Time.Equal(f.clock.Add(time.Hour)) {
		t.Fatalf("expected 1h expiry, got %v", exp)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "bob@example.com", "pass", "")

	_, err := f.svc.Register(context.Background(), registerInput("bob@example.com", "pass2", ""))
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if len(f.repo.users) != 1 {
		t.Fatalf("expected no new record, have %d", len(f.repo.users))
	}
	if len(f.sink.events) != 1 {
		t.Fatalf("duplicate registration must not be audited as success")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture()

	if _, err := f.svc.Register(context.Background(), registerInput("", "pass", "")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty email, got %v", err)
	}
	if _, err := f.svc.Register(context.Background(), registerInput("x@example.com", "pass", "root")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad role, got %v", err)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "dave@example.com", "goodpass", "")

	for _, email := range []string{"dave@example.com", "ghost@example.com"} {
		if _, err := f.svc.Login(context.Background(), loginInput(email, "badpass", "")); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", email, err)
		}
	}
}

func TestAuthService_Login_UnknownEmailComparesHash(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "frank@example.com", "goodpass", "")

	var compared [][]byte
	orig := comparePassword
	comparePassword = func(hash, password []byte) error {
		compared = append(compared, hash)
		return orig(hash, password)
	}
	t.Cleanup(func() { comparePassword = orig })

	for _, email := range []string{"frank@example.com", "ghost@example.com"} {
		if _, err := f.svc.Login(context.Background(), loginInput(email, "badpass", "")); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", email, err)
		}
	}

	if len(compared) != 2 {
		t.Fatalf("expected a hash comparison for both emails, got %d", len(compared))
	}
	cost, err := bcrypt.Cost(compared[1])
	if err != nil {
		t.Fatalf("unknown email compared against an invalid hash: %v", err)
	}
	if cost != passwordCost {
		t.Fatalf("expected cost %d, got %d", passwordCost, cost)
	}
}

func TestAuthService_Login_RoleMismatch(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "erin@example.com", "pw", domain.RoleUser)

	_, err := f.svc.Login(context.Background(), loginInput("erin@example.com", "pw", domain.RoleAdmin))
	if !errors.Is(err, domain.ErrUnauthorizedRole) {
		t.Fatalf("expected ErrUnauthorizedRole, got %v", err)
	}

	if _, err := f.svc.Login(context.Background(), loginInput("erin@example.com", "pw", domain.RoleUser)); err != nil {
		t.Fatalf("matching role should succeed: %v", err)
	}
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newAuthFixture()

	err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no email should be dispatched")
	}
}

func TestAuthService_ResetFlow(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "frank@example.com", "oldpass", "")

	if err := f.svc.RequestPasswordReset(context.Background(), "frank@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0] != "frank@example.com" {
		t.Fatalf("expected one email to frank, got %v", f.mailer.sent)
	}
	link := f.mailer.links[0]
	if !strings.HasPrefix(link, "http://localhost:5173/reset-password?token=") {
		t.Fatalf("unexpected link: %s", link)
	}
	token := tokenFromLink(t, link)

	stored, _ := f.repo.FindByEmail(context.Background(), "frank@example.com")
	if stored.ResetTokenHash == token {
		t.Fatalf("plain reset token must not be stored")
	}
	if stored.ResetTokenExpires == nil || !stored.ResetTokenExpires.Equal(f.clock.Add(15*time.Minute)) {
		t.Fatalf("expected 15 minute expiry, got %v", stored.ResetTokenExpires)
	}

	if err := f.svc.ResetPassword(context.Background(), token, "newpass"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), loginInput("frank@example.com", "newpass", "")); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), loginInput("frank@example.com", "oldpass", "")); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should no longer work, got %v", err)
	}

	if err := f.svc.ResetPassword(context.Background(), token, "again"); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("replayed token should fail, got %v", err)
	}
}

func TestAuthService_ResetPassword_Expiry(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "gina@example.com", "pw", "")
	if err := f.svc.RequestPasswordReset(context.Background(), "gina@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	token := tokenFromLink(t, f.mailer.links[0])

	// Expiry must be strictly in the future.
	f.clock = f.clock.Add(15 * time.Minute)
	if err := f.svc.ResetPassword(context.Background(), token, "newpw"); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken at expiry instant, got %v", err)
	}

	if err := f.svc.ResetPassword(context.Background(), "not-a-token", "newpw"); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken for unknown token, got %v", err)
	}
}

func TestAuthService_RequestPasswordReset_MailerFailure(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "hank@example.com", "pw", "")
	f.mailer.err = errors.New("smtp down")

	err := f.svc.RequestPasswordReset(context.Background(), "hank@example.com")
	if err == nil {
		t.Fatalf("expected error when mailer fails")
	}
	for _, sentinel := range []error{domain.ErrUserNotFound, domain.ErrInvalidInput} {
		if errors.Is(err, sentinel) {
			t.Fatalf("mailer failure must surface as a server error, got %v", err)
		}
	}

	stored, _ := f.repo.FindByEmail(context.Background(), "hank@example.com")
	if stored.ResetTokenHash == "" {
		t.Fatalf("token is persisted even though delivery failed")
	}
}

func TestAuthService_VerifySessionToken(t *testing.T) {
	f := newAuthFixture()
	session, err := f.svc.Register(context.Background(), registerInput("ivy@example.com", "pw", ""))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := f.svc.VerifySessionToken(session.Token + "x"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("tampered token: expected ErrUnauthorized, got %v", err)
	}

	other := NewAuthService(f.repo, f.mailer, nil, AuthOptions{JWTSecret: "other"}, zerolog.Nop())
	if _, err := other.VerifySessionToken(session.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("foreign secret: expected ErrUnauthorized, got %v", err)
	}

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "u", "role": "admin", "exp": f.clock.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := f.svc.VerifySessionToken(unsigned); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("alg none: expected ErrUnauthorized, got %v", err)
	}

	f.clock = f.clock.Add(time.Hour + time.Second)
	if _, err := f.svc.VerifySessionToken(session.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expired token: expected ErrUnauthorized, got %v", err)
	}
}
