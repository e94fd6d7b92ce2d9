// Package service implements the access token lifecycle: credential
// verification, quota enforcement, token issuance, validation, and
// revocation. The service holds no cross-request state; every check
// is a live query against the store.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/domain"
	"github.com/authgate/authgate/hashing"
	"github.com/authgate/authgate/repository"
)

// Service composes the four auth flows over the repository ports.
type Service struct {
	users  repository.UserRepository
	tokens repository.TokenRepository

	mainField     string
	passwordField string
	tokenLength   int
	maxAllowed    int

	hash        hashing.Func
	defaultHash bool
	silent      bool
	logger      *logrus.Logger
}

// LoginResult carries the outcome of a successful login.
type LoginResult struct {
	User  *domain.User
	Token *domain.AccessToken
}

// Session is a resolved token together with its owning user. The
// token record is included so revocation does not re-query it.
type Session struct {
	User  *domain.User
	Token *domain.AccessToken
}

// New constructs a Service over the given repositories. A nil logger
// gets a default logrus instance; a nil cfg.HashFunc falls back to
// the weak identity hash.
func New(users repository.UserRepository, tokens repository.TokenRepository, cfg config.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	hash := cfg.HashFunc
	defaultHash := false
	if hash == nil {
		hash = hashing.Identity
		defaultHash = true
	}
	return &Service{
		users:         users,
		tokens:        tokens,
		mainField:     cfg.Users.MainField,
		passwordField: cfg.Users.PasswordField,
		tokenLength:   cfg.Tokens.Length,
		maxAllowed:    cfg.Tokens.MaxAllowed,
		hash:          hash,
		defaultHash:   defaultHash,
		silent:        cfg.Silent,
		logger:        logger,
	}
}

// Login verifies the supplied credentials and issues a new access
// token for the matched user.
//
// The user is resolved first, the token quota is checked second, and
// the password is compared last, so an over-quota login reports the
// quota error regardless of the password. The count and the insert
// are not atomic: concurrent logins for one user can briefly push the
// number of live tokens past the configured limit. Known limitation.
func (s *Service) Login(ctx context.Context, credentials map[string]string) (*LoginResult, error) {
	value := credentials[s.mainField]
	if value == "" {
		return nil, ErrMissingField
	}

	user, err := s.users.FindByField(ctx, s.mainField, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.checkTokenQuota(ctx, user); err != nil {
		return nil, err
	}
	if err := s.comparePassword(user, credentials[s.passwordField]); err != nil {
		return nil, err
	}

	token, err := generateToken(s.tokenLength)
	if err != nil {
		return nil, err
	}
	record, err := s.persistToken(ctx, user, token)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Token: record}, nil
}

// Authorize resolves a presented token to its owner. A token whose
// user record has vanished (deleted out-of-band without token
// cleanup) fails with ErrOwnerNotFound.
func (s *Service) Authorize(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	record, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}

	return &Session{User: user, Token: record}, nil
}

// Logout revokes the presented token. The token is resolved first, so
// repeating a logout with the same token fails with ErrInvalidToken;
// the delete itself does not error on zero rows.
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.Authorize(ctx, token)
	if err != nil {
		return err
	}
	if _, err := s.tokens.DeleteByID(ctx, session.Token.ID); err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	return nil
}

// LogoutAll revokes every token issued to the presented token's
// owner, the presented one included.
func (s *Service) LogoutAll(ctx context.Context, token string) error {
	session, err := s.Authorize(ctx, token)
	if err != nil {
		return err
	}
	if _, err := s.tokens.DeleteByUser(ctx, session.Token.UserID); err != nil {
		return fmt.Errorf("delete access tokens: %w", err)
	}
	return nil
}

// checkTokenQuota counts live tokens before the new one is inserted
// and compares with strict greater-than, so the effective ceiling is
// maxAllowed+1. Kept as-is for compatibility with existing
// deployments.
func (s *Service) checkTokenQuota(ctx context.Context, user *domain.User) error {
	count, err := s.tokens.CountByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if count > int64(s.maxAllowed) {
		return ErrTooManyTokens
	}
	return nil
}

func (s *Service) comparePassword(user *domain.User, password string) error {
	if s.defaultHash && !s.silent {
		s.logger.Warn("default password hash stores the raw secret; configure HashFunc for production")
	}
	hashed := s.hash(password)
	stored := user.Field(s.passwordField)
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(stored)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) persistToken(ctx context.Context, user *domain.User, token string) (*domain.AccessToken, error) {
	record := &domain.AccessToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	stored, err := s.tokens.Insert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("save access token: %w", err)
	}
	return stored, nil
}
