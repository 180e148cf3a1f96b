package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/config"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/events"
	"github.com/spec-kit/contacts-service/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// lastLinkToken returns the token at the end of the most recent link of eventType.
func (p *recordingPublisher) lastLinkToken(t *testing.T, eventType events.EventType) string {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type != eventType {
			continue
		}
		payload, ok := p.events[i].Payload.(events.AccountLinkPayload)
		require.True(t, ok)
		return payload.Link[strings.LastIndex(payload.Link, "/")+1:]
	}
	t.Fatalf("no %s event published", eventType)
	return ""
}

func (p *recordingPublisher) count(eventType events.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type authFixture struct {
	svc       *AuthService
	users     *repository.MemoryUserRepository
	issuer    *auth.Issuer
	publisher *recordingPublisher
	clock     *time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	f := &authFixture{
		users:     repository.NewMemoryUserRepository(),
		publisher: &recordingPublisher{},
		clock:     &now,
	}
	codec, err := auth.NewCodec("test-secret", config.AlgorithmHS256, auth.WithClock(func() time.Time { return *f.clock }))
	require.NoError(t, err)
	f.issuer = auth.NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)
	f.svc = NewAuthService(config.AppConfig{BaseURL: "http://api.test/"}, AuthDependencies{
		UserRepo:  f.users,
		Hasher:    auth.NewHasher(4),
		Issuer:    f.issuer,
		Publisher: f.publisher,
	})
	return f
}

func (f *authFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *authFixture) confirmedUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	ctx := context.Background()
	user, err := f.svc.Signup(ctx, SignupInput{Email: email, Password: password})
	require.NoError(t, err)
	_, err = f.svc.ConfirmEmail(ctx, f.publisher.lastLinkToken(t, events.EventUserRegistered))
	require.NoError(t, err)
	return user
}

func assertKind(t *testing.T, err error, kind auth.ErrorKind) {
	t.Helper()
	got, ok := auth.KindOf(err)
	require.True(t, ok, "expected auth error, got %v", err)
	assert.Equal(t, kind, got)
}

func TestAuthServiceLifecycle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	name := "alice"
	user, err := f.svc.Signup(ctx, SignupInput{Username: &name, Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.False(t, user.Confirmed)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = f.svc.Signup(ctx, SignupInput{Email: "ALICE@example.com", Password: "secret1"})
	assertKind(t, err, auth.KindConflict)

	_, err = f.svc.Login(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrUnconfirmed)

	token := f.publisher.lastLinkToken(t, events.EventUserRegistered)
	already, err := f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, already)

	pair, err := f.svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, TokenTypeBearer, pair.TokenType)

	stored, err := f.users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *stored.RefreshToken)

	rotated, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.confirmedUser(t, "bob@example.com", "secret1")

	_, err := f.svc.Login(ctx, "nobody@example.com", "secret1")
	assertKind(t, err, auth.KindInvalidCredentials)
	assert.Equal(t, "Invalid email", err.(*auth.Error).Message)

	_, err = f.svc.Login(ctx, "bob@example.com", "wrong-password")
	assertKind(t, err, auth.KindInvalidCredentials)
	assert.Equal(t, "Invalid password", err.(*auth.Error).Message)

	_, err = f.svc.Login(ctx, "BOB@example.com", "secret1")
	require.NoError(t, err)
}

func TestAuthServiceLogoutRevokesRefreshOnly(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.confirmedUser(t, "carol@example.com", "secret1")

	pair, err := f.svc.Login(ctx, "carol@example.com", "secret1")
	require.NoError(t, err)
	user, err := f.users.FindByEmail(ctx, "carol@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, user))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	resolved, err := auth.NewResolver(f.issuer, f.users).Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestAuthServiceRefreshRejectsBadTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.confirmedUser(t, "dan@example.com", "secret1")
	pair, err := f.svc.Login(ctx, "dan@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, "garbage")
	assertKind(t, err, auth.KindInvalidToken)

	noSubject, err := f.issuer.CreateRefreshToken("")
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, noSubject)
	assertKind(t, err, auth.KindMissingSubject)

	ghost, err := f.issuer.CreateRefreshToken("ghost@example.com")
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, ghost)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	f.advance(8 * 24 * time.Hour)
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assertKind(t, err, auth.KindInvalidToken)
}

func TestAuthServiceConcurrentRefreshHasOneWinner(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.confirmedUser(t, "erin@example.com", "secret1")
	pair, err := f.svc.Login(ctx, "erin@example.com", "secret1")
	require.NoError(t, err)

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Refresh(ctx, pair.RefreshToken); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestAuthServiceConfirmEmailFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Signup(ctx, SignupInput{Email: "frank@example.com", Password: "secret1"})
	require.NoError(t, err)
	token := f.publisher.lastLinkToken(t, events.EventUserRegistered)

	reset, err := f.issuer.CreateResetPasswordToken("frank@example.com")
	require.NoError(t, err)
	_, err = f.svc.ConfirmEmail(ctx, reset)
	assertKind(t, err, auth.KindInvalidScope)

	ghost, err := f.issuer.CreateEmailVerifyToken("ghost@example.com")
	require.NoError(t, err)
	_, err = f.svc.ConfirmEmail(ctx, ghost)
	assertKind(t, err, auth.KindUserNotFound)
	assert.Equal(t, domain.ScopeEmailVerify, err.(*auth.Error).Scope)

	f.advance(25 * time.Hour)
	_, err = f.svc.ConfirmEmail(ctx, token)
	assertKind(t, err, auth.KindExpiredToken)
}

func TestAuthServiceResendConfirmation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Signup(ctx, SignupInput{Email: "gina@example.com", Password: "secret1"})
	require.NoError(t, err)

	msg, err := f.svc.ResendConfirmation(ctx, "gina@example.com")
	require.NoError(t, err)
	assert.Equal(t, MsgConfirmationResent, msg)
	assert.Equal(t, 1, f.publisher.count(events.EventConfirmationResent))

	msg, err = f.svc.ResendConfirmation(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, MsgConfirmationResent, msg)
	assert.Equal(t, 1, f.publisher.count(events.EventConfirmationResent))

	_, err = f.svc.ConfirmEmail(ctx, f.publisher.lastLinkToken(t, events.EventConfirmationResent))
	require.NoError(t, err)
	msg, err = f.svc.ResendConfirmation(ctx, "gina@example.com")
	require.NoError(t, err)
	assert.Equal(t, MsgConfirmationResent, msg)
	assert.Equal(t, 1, f.publisher.count(events.EventConfirmationResent))
}

func TestAuthServicePasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.confirmedUser(t, "hank@example.com", "secret1")

	msg, err := f.svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, MsgResetRequested, msg)
	assert.Zero(t, f.publisher.count(events.EventPasswordResetRequested))

	msg, err = f.svc.RequestPasswordReset(ctx, "hank@example.com")
	require.NoError(t, err)
	assert.Equal(t, MsgResetRequested, msg)
	token := f.publisher.lastLinkToken(t, events.EventPasswordResetRequested)

	require.NoError(t, f.svc.ResetPassword(ctx, token, "newsecret"))

	_, err = f.svc.Login(ctx, "hank@example.com", "secret1")
	assertKind(t, err, auth.KindInvalidCredentials)
	_, err = f.svc.Login(ctx, "hank@example.com", "newsecret")
	require.NoError(t, err)

	verify, err := f.issuer.CreateEmailVerifyToken("hank@example.com")
	require.NoError(t, err)
	err = f.svc.ResetPassword(ctx, verify, "another1")
	assertKind(t, err, auth.KindInvalidScope)
	assert.Equal(t, domain.ScopeResetPassword, err.(*auth.Error).Scope)

	ghost, err := f.issuer.CreateResetPasswordToken("ghost@example.com")
	require.NoError(t, err)
	err = f.svc.ResetPassword(ctx, ghost, "another1")
	assertKind(t, err, auth.KindNotFound)

	f.advance(2 * time.Hour)
	err = f.svc.ResetPassword(ctx, token, "another1")
	assertKind(t, err, auth.KindExpiredToken)
}

func TestAuthServiceLinksUseBaseURL(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Signup(context.Background(), SignupInput{Email: "ivy@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	payload := f.publisher.events[0].Payload.(events.AccountLinkPayload)
	assert.True(t, strings.HasPrefix(payload.Link, "http://api.test/api/auth/confirmed_email/"))
	assert.Equal(t, "ivy@example.com", payload.Email)
	assert.Equal(t, "user", payload.Username)
}
