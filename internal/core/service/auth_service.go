package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskflow/taskflow/internal/api/metrics"
	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

const (
	passwordCost         = 10
	defaultSessionTTL    = time.Hour
	defaultResetTokenTTL = 15 * time.Minute
	resetTokenBytes      = 32
)

var (
	// comparePassword is swapped in tests.
	comparePassword = bcrypt.CompareHashAndPassword

	dummyHashOnce sync.Once
	dummyHash     []byte
)

// unknownUserHash is compared against when the email has no account, so an
// unknown email costs one bcrypt comparison like a wrong password does.
func unknownUserHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskflow-unknown-user"), passwordCost)
	})
	return dummyHash
}

// AuthOptions configures token issuance.
type AuthOptions struct {
	JWTSecret     string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	// ResetLinkBase is the page the reset email points to; the token is
	// appended as the "token" query parameter.
	ResetLinkBase string
}

// AuthService implements registration, login, password reset and session
// token verification.
type AuthService struct {
	repo   ports.UserRepository
	mailer ports.Mailer
	events ports.AuthEventSink
	opts   AuthOptions
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(repo ports.UserRepository, mailer ports.Mailer, events ports.AuthEventSink, opts AuthOptions, log zerolog.Logger) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = defaultResetTokenTTL
	}
	return &AuthService{
		repo:   repo,
		mailer: mailer,
		events: events,
		opts:   opts,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type sessionClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "duplicate_email").Inc()
		}
		return nil, err
	}

	token, err := s.issueToken(created)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "ok").Inc()
	s.record(created, domain.ActionRegister, in.IPAddress)
	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")

	return &ports.Session{Token: token, UserID: created.ID, Role: created.Role}, nil
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = comparePassword(unknownUserHash(), []byte(in.Password))
			metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if comparePassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if in.Role != "" && in.Role != user.Role {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "unauthorized_role").Inc()
		s.log.Warn().Str("user_id", user.ID).Str("requested_role", in.Role).Msg("login with mismatched role")
		return nil, domain.ErrUnauthorizedRole
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "ok").Inc()
	s.record(user, domain.ActionLogin, in.IPAddress)

	return &ports.Session{Token: token, UserID: user.ID, Role: user.Role}, nil
}

// RequestPasswordReset stores a fresh reset token for the user and mails the
// reset link. If delivery fails the token stays stored until it expires or
// is overwritten by the next request.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("password_reset_request", "user_not_found").Inc()
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}

	expires := s.now().Add(s.opts.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, hashResetToken(token), expires); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetLink(token)); err != nil {
		metrics.ResetEmailsTotal.WithLabelValues("failed").Inc()
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("reset email delivery failed, token left in place")
		return fmt.Errorf("send reset email: %w", err)
	}

	metrics.ResetEmailsTotal.WithLabelValues("sent").Inc()
	metrics.AuthAttemptsTotal.WithLabelValues("password_reset_request", "ok").Inc()
	s.log.Info().Str("user_id", user.ID).Time("expires", expires).Msg("password reset requested")
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidOrExpiredToken
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), passwordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.ConsumeResetToken(ctx, hashResetToken(token), s.now(), string(hash))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			metrics.AuthAttemptsTotal.WithLabelValues("password_reset", "invalid_token").Inc()
		}
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("password_reset", "ok").Inc()
	s.record(user, domain.ActionPasswordReset, "")
	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

// VerifySessionToken checks signature, algorithm and expiry. Any failure is
// reported as domain.ErrUnauthorized.
func (s *AuthService) VerifySessionToken(token string) (domain.Identity, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if claims.UserID == "" || !domain.ValidRole(claims.Role) {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.SessionTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) resetLink(token string) string {
	base := s.opts.ResetLinkBase
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

func (s *AuthService) record(user *domain.User, action domain.AuthAction, ip string) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(domain.AuthEvent{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		Action:    action,
		IPAddress: ip,
		At:        s.now(),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashResetToken is what gets stored; the plain token only travels by email.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
