package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/card-tracker/backend/internal/models"
)

// memUserStore is an in-memory UserStore.
type memUserStore struct {
	mu      sync.Mutex
	byName  map[string]*models.User
	lookErr error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byName: map[string]*models.User{}}
}

func (m *memUserStore) CreateUser(_ context.Context, username, email, hashedPw string, role models.Role) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return nil, fmt.Errorf("create user: %w", models.ErrAlreadyExists)
	}
	u := &models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Password:  hashedPw,
		Role:      role,
		CreatedAt: time.Now(),
	}
	m.byName[username] = u
	return u, nil
}

func (m *memUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookErr != nil {
		return nil, m.lookErr
	}
	u, ok := m.byName[username]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (m *memUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

// revokerMock records revoked token IDs.
type revokerMock struct {
	RevokeFunc func(ctx context.Context, tokenID string, expiresAt time.Time) error
}

func (m *revokerMock) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return m.RevokeFunc(ctx, tokenID, expiresAt)
}

func newTestService(t *testing.T, users UserStore, revoker Revoker, log *zap.Logger) *Service {
	t.Helper()
	if revoker == nil {
		revoker = &revokerMock{RevokeFunc: func(context.Context, string, time.Time) error { return nil }}
	}
	s := NewService(users, NewTokenManager(testSecret, "iss", time.Hour), revoker, log)
	s.cost = bcrypt.MinCost
	return s
}

func TestService_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	users := newMemUserStore()
	s := newTestService(t, users, nil, zap.NewNop())
	ctx := context.Background()

	reg, err := s.Register(ctx, models.RegisterRequest{
		Username: " alice ", Email: "alice@example.com", Password: "secret1", Role: models.RoleEditor,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Equal(t, models.RoleEditor, reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	stored := users.byName["alice"]
	assert.NotEqual(t, "secret1", stored.Password)

	login, err := s.Login(ctx, models.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	id, err := s.tokens.Validate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id.UserID)
}

func TestService_Register_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		req   models.RegisterRequest
		field string
	}{
		{name: "missing username", req: models.RegisterRequest{Email: "a@b.c", Password: "secret1"}, field: "username"},
		{name: "bad email", req: models.RegisterRequest{Username: "a", Email: "abc", Password: "secret1"}, field: "email"},
		{name: "short password", req: models.RegisterRequest{Username: "a", Email: "a@b.c", Password: "123"}, field: "password"},
		{name: "admin role", req: models.RegisterRequest{Username: "a", Email: "a@b.c", Password: "secret1", Role: models.RoleAdmin}, field: "role"},
		{name: "owner role", req: models.RegisterRequest{Username: "a", Email: "a@b.c", Password: "secret1", Role: models.RoleOwner}, field: "role"},
		{name: "unknown role", req: models.RegisterRequest{Username: "a", Email: "a@b.c", Password: "secret1", Role: "god"}, field: "role"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestService(t, newMemUserStore(), nil, zap.NewNop())

			_, err := s.Register(context.Background(), tt.req)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Len(t, ve.Errors, 1)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	t.Parallel()

	s := newTestService(t, newMemUserStore(), nil, zap.NewNop())
	req := models.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "secret1"}

	_, err := s.Register(context.Background(), req)
	require.NoError(t, err)
	_, err = s.Register(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	t.Parallel()

	s := newTestService(t, newMemUserStore(), nil, zap.NewNop())
	_, err := s.Register(context.Background(), models.RegisterRequest{Username: "carol", Email: "c@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = s.Login(context.Background(), models.LoginRequest{Username: "carol", Password: "wrong-pw"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = s.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestService_Login_StoreDown(t *testing.T) {
	t.Parallel()

	users := newMemUserStore()
	users.lookErr = models.ErrStoreUnavailable
	s := newTestService(t, users, nil, zap.NewNop())

	_, err := s.Login(context.Background(), models.LoginRequest{Username: "x", Password: "y"})
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestService_Logout(t *testing.T) {
	t.Parallel()

	var gotID string
	revoker := &revokerMock{RevokeFunc: func(_ context.Context, tokenID string, _ time.Time) error {
		gotID = tokenID
		return nil
	}}
	s := newTestService(t, newMemUserStore(), revoker, zap.NewNop())

	require.NoError(t, s.Logout(context.Background(), Identity{TokenID: "jti-9", ExpiresAt: time.Now().Add(time.Hour)}))
	assert.Equal(t, "jti-9", gotID)
}

func TestService_Bootstrap(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	users := newMemUserStore()
	s := newTestService(t, users, nil, zap.New(core))
	accounts := []BootstrapAccount{
		{Username: "admin", Email: "admin@example.com", Password: "admin123", Role: models.RoleAdmin},
		{Username: "owner", Email: "owner@example.com", Password: "owner123", Role: models.RoleOwner},
	}

	s.Bootstrap(context.Background(), accounts)
	s.Bootstrap(context.Background(), accounts)

	require.Len(t, users.byName, 2)
	assert.Equal(t, models.RoleAdmin, users.byName["admin"].Role)
	assert.Equal(t, models.RoleOwner, users.byName["owner"].Role)
	assert.Equal(t, 2, logs.FilterMessage("bootstrap account created").Len())

	resp, err := s.Login(context.Background(), models.LoginRequest{Username: "owner", Password: "owner123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, resp.User.Role)
}
