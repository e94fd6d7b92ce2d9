package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/domain"
	"github.com/authgate/authgate/hashing"
	"github.com/authgate/authgate/repository"
)

type memUsers struct {
	users []*domain.User
	err   error
}

func (m *memUsers) FindByField(_ context.Context, field, value string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Field(field) == value {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memTokens struct {
	records   []*domain.AccessToken
	insertErr error
	countErr  error
}

func (m *memTokens) Insert(_ context.Context, token *domain.AccessToken) (*domain.AccessToken, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	stored := *token
	m.records = append(m.records, &stored)
	return &stored, nil
}

func (m *memTokens) FindByToken(_ context.Context, token string) (*domain.AccessToken, error) {
	for _, r := range m.records {
		if r.Token == token {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTokens) CountByUser(_ context.Context, userID string) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	var count int64
	for _, r := range m.records {
		if r.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memTokens) DeleteByID(_ context.Context, id string) (int64, error) {
	var kept []*domain.AccessToken
	var deleted int64
	for _, r := range m.records {
		if r.ID == id {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return deleted, nil
}

func (m *memTokens) DeleteByUser(_ context.Context, userID string) (int64, error) {
	var kept []*domain.AccessToken
	var deleted int64
	for _, r := range m.records {
		if r.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return deleted, nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Tokens.Length = 24
	cfg.Tokens.MaxAllowed = 5
	cfg.Silent = true
	return cfg
}

func testUser(id, username, password string) *domain.User {
	return &domain.User{
		ID: id,
		Fields: map[string]any{
			"username": username,
			"password": password,
		},
	}
}

func TestLoginIssuesTokenOfConfiguredLength(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	tokens := &memTokens{}
	svc := New(users, tokens, testConfig(), nil)

	result, err := svc.Login(context.Background(), map[string]string{"username": "alice", "password": "secret"})
	require.NoError(t, err)
	assert.Len(t, result.Token.Token, 24)
	assert.Equal(t, "u1", result.User.ID)
	assert.Equal(t, "u1", result.Token.UserID)
	assert.NotEmpty(t, result.Token.ID)
	assert.False(t, result.Token.CreatedAt.IsZero())

	// persisted record is byte-identical to the returned token
	require.Len(t, tokens.records, 1)
	assert.Equal(t, result.Token.Token, tokens.records[0].Token)
}

func TestLoginMissingMainField(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	svc := New(users, &memTokens{}, testConfig(), nil)

	// missing main field wins even when the password would match
	_, err := svc.Login(context.Background(), map[string]string{"password": "secret"})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.Login(context.Background(), map[string]string{"username": "", "password": "secret"})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.Login(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestLoginUnknownUser(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	svc := New(users, &memTokens{}, testConfig(), nil)

	_, err := svc.Login(context.Background(), map[string]string{"username": "mallory", "password": "secret"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginWrongPassword(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	svc := New(users, &memTokens{}, testConfig(), nil)

	_, err := svc.Login(context.Background(), map[string]string{"username": "alice", "password": "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), map[string]string{"username": "alice"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginHashFuncVerification(t *testing.T) {
	hash := hashing.HMACSHA256("test-key")
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", hash("secret"))}}
	cfg := testConfig()
	cfg.HashFunc = hash
	svc := New(users, &memTokens{}, cfg, nil)

	_, err := svc.Login(context.Background(), map[string]string{"username": "alice", "password": "secret"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), map[string]string{"username": "alice", "password": "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginQuotaAllowsMaxPlusOne(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	tokens := &memTokens{}
	cfg := testConfig()
	cfg.Tokens.MaxAllowed = 2
	svc := New(users, tokens, cfg, nil)

	credentials := map[string]string{"username": "alice", "password": "secret"}

	// the count runs before the insert with a strict greater-than
	// comparison, so maxAllowed+1 logins succeed
	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), credentials)
		require.NoError(t, err, "login %d", i+1)
	}
	assert.Len(t, tokens.records, 3)

	_, err := svc.Login(context.Background(), credentials)
	assert.ErrorIs(t, err, ErrTooManyTokens)
	assert.Len(t, tokens.records, 3)
}

func TestLoginQuotaCheckedBeforePassword(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	tokens := &memTokens{}
	cfg := testConfig()
	cfg.Tokens.MaxAllowed = 1
	svc := New(users, tokens, cfg, nil)

	good := map[string]string{"username": "alice", "password": "secret"}
	for i := 0; i < 2; i++ {
		_, err := svc.Login(context.Background(), good)
		require.NoError(t, err)
	}

	_, err := svc.Login(context.Background(), map[string]string{"username": "alice", "password": "wrong"})
	assert.ErrorIs(t, err, ErrTooManyTokens)
}

func TestAuthorizeRoundTrip(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	tokens := &memTokens{}
	svc := New(users, tokens, testConfig(), nil)

	result, err := svc.Login(context.Background(), map[string]string{"username": "alice", "password": "secret"})
	require.NoError(t, err)

	session, err := svc.Authorize(context.Background(), result.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, result.Token.Token, session.Token.Token)
	assert.Equal(t, result.Token.ID, session.Token.ID)
}

func TestAuthorizeMissingToken(t *testing.T) {
	svc := New(&memUsers{}, &memTokens{}, testConfig(), nil)

	_, err := svc.Authorize(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestAuthorizeUnknownToken(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	svc := New(users, &memTokens{}, testConfig(), nil)

	_, err := svc.Authorize(context.Background(), "tampered-token-that-was-never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthorizeDanglingToken(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	tokens := &memTokens{}
	svc := New(users, tokens, testConfig(), nil)

	result, err := svc.Login(context.Background(), map[string]string{"username": "alice", "password": "secret"})
	require.NoError(t, err)

	// user removed out-of-band without token cleanup
	users.users = nil

	_, err = svc.Authorize(context.Background(), result.Token.Token)
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	tokens := &memTokens{}
	svc := New(users, tokens, testConfig(), nil)

	result, err := svc.Login(context.Background(), map[string]string{"username": "alice", "password": "secret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.Token.Token))

	_, err = svc.Authorize(context.Background(), result.Token.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a second logout fails at resolution
	err = svc.Logout(context.Background(), result.Token.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutAllScopedToOwner(t *testing.T) {
	users := &memUsers{users: []*domain.User{
		testUser("u1", "alice", "secret"),
		testUser("u2", "bob", "hunter2"),
	}}
	tokens := &memTokens{}
	svc := New(users, tokens, testConfig(), nil)

	login := func(username, password string) string {
		result, err := svc.Login(context.Background(), map[string]string{"username": username, "password": password})
		require.NoError(t, err)
		return result.Token.Token
	}

	t1 := login("alice", "secret")
	t2 := login("alice", "secret")
	t3 := login("bob", "hunter2")

	require.NoError(t, svc.LogoutAll(context.Background(), t1))

	_, err := svc.Authorize(context.Background(), t1)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Authorize(context.Background(), t2)
	assert.ErrorIs(t, err, ErrInvalidToken)

	session, err := svc.Authorize(context.Background(), t3)
	require.NoError(t, err)
	assert.Equal(t, "u2", session.User.ID)
}

func TestStorageErrorsPropagate(t *testing.T) {
	storageErr := errors.New("connection reset")

	users := &memUsers{err: storageErr}
	svc := New(users, &memTokens{}, testConfig(), nil)
	_, err := svc.Login(context.Background(), map[string]string{"username": "alice", "password": "secret"})
	assert.ErrorIs(t, err, storageErr)

	users = &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	tokens := &memTokens{countErr: storageErr}
	svc = New(users, tokens, testConfig(), nil)
	_, err = svc.Login(context.Background(), map[string]string{"username": "alice", "password": "secret"})
	assert.ErrorIs(t, err, storageErr)

	tokens = &memTokens{insertErr: storageErr}
	svc = New(users, tokens, testConfig(), nil)
	_, err = svc.Login(context.Background(), map[string]string{"username": "alice", "password": "secret"})
	assert.ErrorIs(t, err, storageErr)
}

func TestDefaultHashWarning(t *testing.T) {
	users := &memUsers{users: []*domain.User{testUser("u1", "alice", "secret")}}
	credentials := map[string]string{"username": "alice", "password": "secret"}

	logger, hook := logtest.NewNullLogger()
	cfg := testConfig()
	cfg.Silent = false
	svc := New(users, &memTokens{}, cfg, logger)

	_, err := svc.Login(context.Background(), credentials)
	require.NoError(t, err)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[0].Level)

	// silenced
	logger, hook = logtest.NewNullLogger()
	cfg.Silent = true
	svc = New(users, &memTokens{}, cfg, logger)

	_, err = svc.Login(context.Background(), credentials)
	require.NoError(t, err)
	assert.Empty(t, hook.Entries)

	// no warning when a real hash function is configured
	logger, hook = logtest.NewNullLogger()
	hash := hashing.HMACSHA256("k")
	cfg.Silent = false
	cfg.HashFunc = hash
	users = &memUsers{users: []*domain.User{testUser("u1", "alice", hash("secret"))}}
	svc = New(users, &memTokens{}, cfg, logger)

	_, err = svc.Login(context.Background(), credentials)
	require.NoError(t, err)
	assert.Empty(t, hook.Entries)
}
