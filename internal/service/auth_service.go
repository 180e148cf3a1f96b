package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/config"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/events"
	"github.com/spec-kit/contacts-service/internal/observability"
	"github.com/spec-kit/contacts-service/internal/repository"
)

// TokenTypeBearer is the token_type reported alongside every issued pair.
const TokenTypeBearer = "bearer"

// Replies that must not reveal whether an account exists.
const (
	MsgConfirmationResent = "If the account exists and is not confirmed yet, a confirmation email has been sent"
	MsgResetRequested     = "If the account exists, a password reset email has been sent"
)

// TokenPair is the result of a login or a refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// SignupInput describes a new account.
type SignupInput struct {
	Username *string
	Email    string
	Password string
}

// AuthService coordinates registration, login and the token lifecycle.
type AuthService struct {
	users     repository.UserRepository
	hasher    *auth.Hasher
	issuer    *auth.Issuer
	publisher events.Publisher
	baseURL   string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	Hasher    *auth.Hasher
	Issuer    *auth.Issuer
	Publisher events.Publisher
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AppConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     deps.UserRepo,
		hasher:    deps.Hasher,
		issuer:    deps.Issuer,
		publisher: deps.Publisher,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		logger:    logger,
		metrics:   deps.Metrics,
	}
}

// Signup creates an unconfirmed account and queues the confirmation mail.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, auth.NewError(auth.KindConflict, "Account already exists")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, auth.NewError(auth.KindConflict, "Account already exists")
		}
		return nil, err
	}

	if err := s.sendConfirmation(ctx, user, events.EventUserRegistered); err != nil {
		return nil, err
	}
	s.metrics.RecordAuth("signup", "created")
	return user, nil
}

// Login exchanges credentials for a token pair. Only confirmed accounts may log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordAuth("login", "rejected")
			return nil, auth.NewError(auth.KindInvalidCredentials, "Invalid email")
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordAuth("login", "rejected")
		return nil, auth.NewError(auth.KindInvalidCredentials, "Invalid password")
	}
	if !user.Confirmed {
		s.metrics.RecordAuth("login", "unconfirmed")
		return nil, auth.ErrUnconfirmed
	}

	pair, err := s.issuePair(user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, err
	}
	s.metrics.RecordAuth("login", "ok")
	return pair, nil
}

// Logout forgets the stored refresh token. Access tokens already issued stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, user *domain.User) error {
	if err := s.users.SetRefreshToken(ctx, user.ID, nil); err != nil {
		return err
	}
	s.metrics.RecordAuth("logout", "ok")
	return nil
}

// Refresh rotates the presented refresh token. The stored token is the only
// source of truth: a rotated-out or cleared token is rejected even when its
// signature is still valid. Of two concurrent rotations of the same token
// exactly one wins.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	claims, err := s.issuer.Parse(presented)
	if err != nil {
		s.metrics.RecordAuth("refresh", "rejected")
		return nil, &auth.Error{Kind: auth.KindInvalidToken, Message: "Invalid token", Err: err}
	}
	if claims.Subject == "" {
		s.metrics.RecordAuth("refresh", "rejected")
		return nil, auth.NewError(auth.KindMissingSubject, "Invalid token payload")
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if user == nil || user.RefreshToken == nil || *user.RefreshToken != presented {
		s.metrics.RecordAuth("refresh", "rejected")
		return nil, auth.ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(user.Email)
	if err != nil {
		return nil, err
	}
	rotated, err := s.users.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !rotated {
		s.metrics.RecordAuth("refresh", "lost_race")
		return nil, auth.ErrInvalidRefreshToken
	}
	s.metrics.RecordAuth("refresh", "rotated")
	return pair, nil
}

// ConfirmEmail redeems an email-verify token. It reports alreadyConfirmed
// instead of failing when the account was confirmed before.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error) {
	email, err := s.issuer.VerifyScoped(token, domain.ScopeEmailVerify)
	if err != nil {
		return false, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, &auth.Error{Kind: auth.KindUserNotFound, Message: "Verification error", Scope: domain.ScopeEmailVerify}
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	if err := s.users.SetConfirmed(ctx, user.ID, true); err != nil {
		return false, err
	}
	s.logger.Info("email confirmed", zap.String("user_id", user.ID))
	return false, nil
}

// ResendConfirmation queues a new confirmation mail for an unconfirmed
// account. The reply is the same whether or not the account exists.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MsgConfirmationResent, nil
		}
		return "", err
	}
	if user.Confirmed {
		return MsgConfirmationResent, nil
	}
	if err := s.sendConfirmation(ctx, user, events.EventConfirmationResent); err != nil {
		return "", err
	}
	return MsgConfirmationResent, nil
}

// RequestPasswordReset queues a reset link. The reply never reveals whether the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MsgResetRequested, nil
		}
		return "", err
	}

	token, err := s.issuer.CreateResetPasswordToken(user.Email)
	if err != nil {
		return "", err
	}
	s.publish(ctx, events.NewEvent(events.EventPasswordResetRequested, user.ID, events.AccountLinkPayload{
		Email:    user.Email,
		Username: user.DisplayName(),
		Link:     s.baseURL + "/api/auth/reset_password/" + token,
	}))
	return MsgResetRequested, nil
}

// ResetPassword redeems a reset token and replaces the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.issuer.VerifyScoped(token, domain.ScopeResetPassword)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.NewError(auth.KindNotFound, "User not found")
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) issuePair(subject string) (*TokenPair, error) {
	access, err := s.issuer.CreateAccessToken(subject)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.CreateRefreshToken(subject)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

func (s *AuthService) sendConfirmation(ctx context.Context, user *domain.User, eventType events.EventType) error {
	token, err := s.issuer.CreateEmailVerifyToken(user.Email)
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(eventType, user.ID, events.AccountLinkPayload{
		Email:    user.Email,
		Username: user.DisplayName(),
		Link:     s.baseURL + "/api/auth/confirmed_email/" + token,
	}))
	return nil
}

// publish is fire-and-forget: a failed notification never fails the flow.
func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
