package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/curaious/dashboard/internal/notify"
	"github.com/curaious/dashboard/internal/services/activity"
	"github.com/curaious/dashboard/internal/services/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrSessionNotFound    = errors.New("session not found")
)

var tracer = otel.Tracer("auth")

const tokenBytes = 32

// dummyHash is compared against when the identifier is unknown, so both
// failure paths spend the same bcrypt work.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
	// Location is a free-form hint about where the new login came from,
	// forwarded to a superseded client.
	Location string `json:"-"`
}

type LoginResult struct {
	User       user.PublicUser `json:"user"`
	Token      string          `json:"-"`
	ExpiresAt  time.Time       `json:"expiresAt"`
	IsTakeover bool            `json:"isTakeover"`
}

// AuthService owns the session lifecycle of a user: login, verification,
// sliding extension, logout and the opportunistic activity touch.
//
// There are no locks around the session fields. Each write is a single
// atomic update of the user record, so two racing logins resolve
// last-writer-wins and the losing token simply stops verifying.
type AuthService struct {
	users    user.Repository
	notifier notify.Notifier
	activity user.ActivityRecorder
	clock    clock.Clock
	policy   Policy
}

func NewAuthService(users user.Repository, notifier notify.Notifier, recorder user.ActivityRecorder, clk clock.Clock, policy Policy) *AuthService {
	return &AuthService{
		users:    users,
		notifier: notifier,
		activity: recorder,
		clock:    clk,
		policy:   policy,
	}
}

func (s *AuthService) Policy() Policy {
	return s.policy
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Login")
	defer span.End()

	u, err := s.users.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("user.id", u.ID.String()))

	now := s.clock.Now()
	isTakeover := u.HasActiveSession(now)
	if isTakeover {
		span.AddEvent("session.takeover")
		s.notifier.Notify(ctx, notify.SessionTakeover(u.ID.String(), req.Location, now))
	}

	token, err := NewToken()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	session := user.Session{
		Token:     token,
		CreatedAt: now,
		ExpiresAt: s.policy.ExpiresAt(now, req.RememberMe),
	}
	if err := s.users.StartSession(ctx, u.ID, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session write failed")
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	u.SessionToken = &session.Token
	u.SessionCreatedAt = &session.CreatedAt
	u.SessionExpiresAt = &session.ExpiresAt
	u.LastActivity = &now
	u.LastLogin = &now

	action := activity.ActionLogin
	if isTakeover {
		action = activity.ActionSessionTakeover
	}
	s.activity.Record(ctx, u.ID, action, activity.Details{
		"username":   u.Username,
		"rememberMe": req.RememberMe,
		"location":   req.Location,
	})

	public := u.Public(now)
	user.PublishCounts(ctx, s.users, s.notifier, now)
	s.notifier.Notify(ctx, notify.UserLoggedIn(u.ID.String(), public, isTakeover, now))

	slog.InfoContext(ctx, "User logged in",
		slog.String("user_id", u.ID.String()),
		slog.Bool("takeover", isTakeover),
		slog.Bool("remember_me", req.RememberMe))

	return &LoginResult{
		User:       public,
		Token:      token,
		ExpiresAt:  session.ExpiresAt,
		IsTakeover: isTakeover,
	}, nil
}

// VerifySession returns the user owning token, or nil when the token is empty,
// unknown, expired or belongs to a deactivated account. Stale tokens are left
// in place; the next login or logout overwrites them.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "Auth.VerifySession", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	u, err := s.users.GetBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("failed to verify session: %w", err)
	}

	if !u.HasActiveSession(s.clock.Now()) || !u.IsActive {
		return nil, nil
	}
	return u, nil
}

// ExtendSession slides the expiry to now plus the timeout for rememberMe.
func (s *AuthService) ExtendSession(ctx context.Context, token string, rememberMe bool) (time.Time, error) {
	u, err := s.VerifySession(ctx, token)
	if err != nil {
		return time.Time{}, err
	}
	if u == nil {
		return time.Time{}, ErrUnauthenticated
	}

	now := s.clock.Now()
	expiresAt := s.policy.ExpiresAt(now, rememberMe)

	ok, err := s.users.ExtendSession(ctx, token, expiresAt, now)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, ErrSessionNotFound
	}
	return expiresAt, nil
}

// Logout clears the session owning token. It reports whether a session was
// actually cleared; an unknown or already cleared token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	u, err := s.users.GetBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up session: %w", err)
	}

	cleared, err := s.users.ClearSession(ctx, u.ID, token)
	if err != nil {
		return false, err
	}
	if !cleared {
		return false, nil
	}

	now := s.clock.Now()
	u.SessionToken = nil
	u.SessionCreatedAt = nil
	u.SessionExpiresAt = nil
	u.LastActivity = nil

	s.activity.Record(ctx, u.ID, activity.ActionLogout, activity.Details{"username": u.Username})
	s.notifier.Notify(ctx, notify.UserLoggedOut(u.ID.String(), u.Public(now), now))
	user.PublishCounts(ctx, s.users, s.notifier, now)

	return true, nil
}

// TouchActivity refreshes the user's last activity, at most once per touch
// interval. It reports whether a write happened.
func (s *AuthService) TouchActivity(ctx context.Context, u *user.User) (bool, error) {
	now := s.clock.Now()
	if !s.policy.ShouldTouch(u.LastActivity, now) {
		return false, nil
	}

	if err := s.users.TouchActivity(ctx, u.ID, now); err != nil {
		return false, err
	}
	u.LastActivity = &now
	return true, nil
}

func (s *AuthService) Counts(ctx context.Context) (*user.Counts, error) {
	return s.users.Counts(ctx, s.clock.Now())
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
