package auth_test

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/curaious/dashboard/internal/notify"
	"github.com/curaious/dashboard/internal/services/activity"
	"github.com/curaious/dashboard/internal/services/auth"
	"github.com/curaious/dashboard/internal/services/user"
	"github.com/curaious/dashboard/internal/store/memory"
)

const password = "correct-horse"

type fixture struct {
	clock    *clock.Mock
	store    *memory.Store
	notifier *notify.Recorder
	activity *activity.ActivityService
	auth     *auth.AuthService
	user     *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewMock()
	clk.Add(1000 * time.Hour)

	store := memory.New(clk, 8)
	recorder := notify.NewRecorder()
	activitySvc := activity.NewActivityService(store.Activity(), clk)

	f := &fixture{
		clock:    clk,
		store:    store,
		notifier: recorder,
		activity: activitySvc,
		auth:     auth.NewAuthService(store.Users(), recorder, activitySvc, clk, auth.DefaultPolicy()),
	}
	f.user = f.createUser(t, "ada@example.com", "ada", true)
	return f
}

func (f *fixture) createUser(t *testing.T, email, username string, active bool) *user.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u, err := f.store.Users().Create(context.Background(), &user.User{
		Email:        email,
		Username:     username,
		Name:         username,
		PasswordHash: string(hash),
		Role:         user.RoleUser,
		IsActive:     active,
		CreatedBy:    user.System(),
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) login(t *testing.T, rememberMe bool) *auth.LoginResult {
	t.Helper()

	res, err := f.auth.Login(context.Background(), auth.LoginRequest{
		Identifier: "ada",
		Password:   password,
		RememberMe: rememberMe,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) actions(t *testing.T) []activity.Action {
	t.Helper()

	entries, err := f.activity.List(context.Background(), 0)
	require.NoError(t, err)

	out := make([]activity.Action, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i].Action)
	}
	return out
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "ghost@example.com", "ghost", false)
	ctx := context.Background()

	cases := []auth.LoginRequest{
		{Identifier: "nobody", Password: password},
		{Identifier: "ada", Password: "wrong-password"},
		{Identifier: "ghost", Password: password},
	}
	for _, req := range cases {
		res, err := f.auth.Login(ctx, req)
		assert.Nil(t, res)
		assert.Equal(t, auth.ErrInvalidCredentials, err, req.Identifier)
	}

	assert.Empty(t, f.notifier.Events())
	assert.Empty(t, f.actions(t))
}

func TestLogin_IdentifierIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, identifier := range []string{"ADA@Example.COM", "  Ada "} {
		res, err := f.auth.Login(ctx, auth.LoginRequest{Identifier: identifier, Password: password})
		require.NoError(t, err, identifier)
		assert.Equal(t, f.user.ID, res.User.ID)
	}
}

func TestLogin_IssuesSession(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	res := f.login(t, false)

	raw, err := hex.DecodeString(res.Token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.True(t, res.ExpiresAt.Equal(now.Add(30*time.Minute)))
	assert.False(t, res.IsTakeover)
	assert.True(t, res.User.IsOnline)

	stored, err := f.store.Users().GetByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SessionToken)
	assert.Equal(t, res.Token, *stored.SessionToken)
	assert.True(t, stored.SessionCreatedAt.Equal(now))
	assert.True(t, stored.LastActivity.Equal(now))
	assert.True(t, stored.LastLogin.Equal(now))

	events := f.notifier.Events()
	require.Len(t, events, 2)
	assert.Equal(t, notify.EventCountsUpdated, events[0].Name)
	assert.Equal(t, notify.ChannelUserCounts, events[0].Channel)
	assert.Equal(t, &user.Counts{TotalUsers: 1, TotalOnline: 1}, events[0].Data)
	assert.Equal(t, notify.EventUserLoggedIn, events[1].Name)
	assert.Equal(t, notify.ChannelUserUpdates, events[1].Channel)

	payload := events[1].Data.(notify.UserActionPayload)
	assert.Equal(t, "LOGIN", payload.Action)
	assert.False(t, *payload.SessionTakeover)
	assert.False(t, *payload.PreviousSessionInvalidated)

	assert.Equal(t, []activity.Action{activity.ActionLogin}, f.actions(t))
}

func TestLogin_RememberMeUsesLongTimeout(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	res := f.login(t, true)
	assert.True(t, res.ExpiresAt.Equal(now.Add(7*24*time.Hour)))
}

func TestLogin_SecondLoginInvalidatesFirstToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.login(t, false)
	f.clock.Add(time.Minute)
	second := f.login(t, false)
	require.NotEqual(t, first.Token, second.Token)

	u, err := f.auth.VerifySession(ctx, first.Token)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = f.auth.VerifySession(ctx, second.Token)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, f.user.ID, u.ID)
}

// takeoverWatcher checks, at the moment the takeover event is emitted, that the
// superseded token is still the stored one.
type takeoverWatcher struct {
	*notify.Recorder
	t          *testing.T
	users      user.Repository
	priorToken string
	checked    bool
}

func (p *takeoverWatcher) Notify(ctx context.Context, ev notify.Event) {
	if ev.Name == notify.EventSessionTakeover {
		u, err := p.users.GetBySessionToken(ctx, p.priorToken)
		assert.NoError(p.t, err)
		assert.NotNil(p.t, u)
		p.checked = true
	}
	p.Recorder.Notify(ctx, ev)
}

func TestLogin_TakeoverNotifiesBeforeSessionWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.login(t, false)
	f.notifier.Reset()

	watcher := &takeoverWatcher{Recorder: notify.NewRecorder(), t: t, users: f.store.Users(), priorToken: first.Token}
	svc := auth.NewAuthService(f.store.Users(), watcher, f.activity, f.clock, auth.DefaultPolicy())

	f.clock.Add(5 * time.Minute)
	res, err := svc.Login(ctx, auth.LoginRequest{Identifier: "ada", Password: password, Location: "Berlin"})
	require.NoError(t, err)
	assert.True(t, res.IsTakeover)
	assert.True(t, watcher.checked)

	takeovers := watcher.Named(notify.EventSessionTakeover)
	require.Len(t, takeovers, 1)
	assert.Equal(t, notify.UserChannel(f.user.ID.String()), takeovers[0].Channel)
	assert.Equal(t, "Berlin", takeovers[0].Data.(notify.SessionTakeoverPayload).NewLoginLocation)

	events := watcher.Events()
	require.Len(t, events, 3)
	assert.Equal(t, notify.EventSessionTakeover, events[0].Name)
	assert.Equal(t, notify.EventUserLoggedIn, events[2].Name)
	assert.True(t, *events[2].Data.(notify.UserActionPayload).SessionTakeover)

	assert.Equal(t, []activity.Action{activity.ActionLogin, activity.ActionSessionTakeover}, f.actions(t))
}

func TestLogin_NoTakeoverAfterExpiry(t *testing.T) {
	f := newFixture(t)

	f.login(t, false)
	f.clock.Add(30 * time.Minute)
	res := f.login(t, false)

	assert.False(t, res.IsTakeover)
	assert.Empty(t, f.notifier.Named(notify.EventSessionTakeover))
	assert.Equal(t, []activity.Action{activity.ActionLogin, activity.ActionLogin}, f.actions(t))
}

func TestLogin_NoTakeoverAfterLogout(t *testing.T) {
	f := newFixture(t)

	first := f.login(t, false)
	_, err := f.auth.Logout(context.Background(), first.Token)
	require.NoError(t, err)

	res := f.login(t, false)
	assert.False(t, res.IsTakeover)
	assert.Empty(t, f.notifier.Named(notify.EventSessionTakeover))
}

func TestVerifySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.VerifySession(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = f.auth.VerifySession(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, u)

	res := f.login(t, false)

	f.clock.Add(29 * time.Minute)
	u, err = f.auth.VerifySession(ctx, res.Token)
	require.NoError(t, err)
	assert.NotNil(t, u)

	f.clock.Add(time.Minute)
	u, err = f.auth.VerifySession(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, u, "a session expiring exactly now is expired")

	stale, err := f.store.Users().GetBySessionToken(ctx, res.Token)
	require.NoError(t, err, "expired tokens are not deleted on verify")
	assert.Equal(t, f.user.ID, stale.ID)
}

func TestVerifySession_InactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := f.createUser(t, "gone@example.com", "gone", false)
	now := f.clock.Now()
	require.NoError(t, f.store.Users().StartSession(ctx, inactive.ID, user.Session{
		Token:     "inactive-token",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	u, err := f.auth.VerifySession(ctx, "inactive-token")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestExtendSession_Slides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.login(t, false)

	f.clock.Add(20 * time.Minute)
	extendedAt := f.clock.Now()
	expiresAt, err := f.auth.ExtendSession(ctx, res.Token, false)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(extendedAt.Add(30*time.Minute)))

	stored, err := f.store.Users().GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, stored.SessionExpiresAt.Equal(expiresAt))
	assert.True(t, stored.LastActivity.Equal(extendedAt))

	// Past the original expiry but within the extended one.
	f.clock.Add(25 * time.Minute)
	u, err := f.auth.VerifySession(ctx, res.Token)
	require.NoError(t, err)
	assert.NotNil(t, u)

	expiresAt, err = f.auth.ExtendSession(ctx, res.Token, true)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(f.clock.Now().Add(7*24*time.Hour)))
}

func TestExtendSession_RequiresValidSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.ExtendSession(ctx, "unknown", false)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	res := f.login(t, false)
	f.clock.Add(time.Hour)
	_, err = f.auth.ExtendSession(ctx, res.Token, false)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

// vanishingSessions reports that the extend matched nothing, as when the
// session is cleared between verify and update.
type vanishingSessions struct {
	*memory.UserRepo
}

func (vanishingSessions) ExtendSession(context.Context, string, time.Time, time.Time) (bool, error) {
	return false, nil
}

func TestExtendSession_SessionVanished(t *testing.T) {
	f := newFixture(t)
	res := f.login(t, false)

	svc := auth.NewAuthService(vanishingSessions{f.store.Users()}, notify.Nop{}, f.activity, f.clock, auth.DefaultPolicy())
	_, err := svc.ExtendSession(context.Background(), res.Token, false)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestLogout_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.login(t, false)
	f.notifier.Reset()

	cleared, err := f.auth.Logout(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = f.auth.Logout(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = f.auth.Logout(ctx, "")
	require.NoError(t, err)
	assert.False(t, cleared)

	assert.Len(t, f.notifier.Named(notify.EventUserLoggedOut), 1)
	assert.Len(t, f.notifier.Named(notify.EventCountsUpdated), 1)
	assert.Equal(t, []activity.Action{activity.ActionLogin, activity.ActionLogout}, f.actions(t))

	stored, err := f.store.Users().GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.SessionToken)
	assert.Nil(t, stored.SessionExpiresAt)
	assert.Nil(t, stored.LastActivity)
	assert.NotNil(t, stored.LastLogin)

	u, err := f.auth.VerifySession(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestTouchActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.login(t, false)
	u, err := f.auth.VerifySession(ctx, res.Token)
	require.NoError(t, err)
	loginAt := *u.LastActivity

	f.clock.Add(30 * time.Minute)
	touched, err := f.auth.TouchActivity(ctx, u)
	require.NoError(t, err)
	assert.False(t, touched)

	f.clock.Add(time.Second)
	touched, err = f.auth.TouchActivity(ctx, u)
	require.NoError(t, err)
	assert.True(t, touched)

	stored, err := f.store.Users().GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastActivity.Equal(loginAt.Add(30*time.Minute+time.Second)))

	fresh := &user.User{ID: uuid.New()}
	touched, err = f.auth.TouchActivity(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, touched)
}

func TestCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "bob@example.com", "bob", true)

	counts, err := f.auth.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &user.Counts{TotalUsers: 2}, counts)

	f.login(t, false)
	counts, err = f.auth.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.TotalOnline)

	f.clock.Add(31 * time.Minute)
	counts, err = f.auth.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.TotalOnline)
}
