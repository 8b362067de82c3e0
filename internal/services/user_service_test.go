package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patio-backend/internal/auth"
	"patio-backend/internal/config"
	"patio-backend/internal/models"
)

type memUsers struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]*models.User), byEmail: make(map[string]*models.User)}
}

func (m *memUsers) Get(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func newUserService() (*UserService, *memUsers) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "patio-backend"
	store := newMemUsers()
	return NewUserService(store, auth.NewJWTManager(cfg)), store
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	resp, err := svc.Signup(ctx, &models.SignupRequest{
		Name:      "Ana",
		Email:     "Ana@Example.com",
		Password:  "segredo123",
		CompanyID: "emp-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.Equal(t, "operador", resp.User.Role)
	assert.True(t, resp.User.IsActive)

	login, err := svc.Login(ctx, &models.LoginRequest{Email: "ana@example.com", Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, &models.SignupRequest{Email: "a@b.com", Password: "segredo123", CompanyID: "emp-1"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Signup(ctx, &models.SignupRequest{Name: "Ana", Email: "a@b.com", Password: "123", CompanyID: "emp-1"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	req := &models.SignupRequest{Name: "Ana", Email: "a@b.com", Password: "segredo123", CompanyID: "emp-1"}
	_, err := svc.Signup(ctx, req)
	require.NoError(t, err)

	_, err = svc.Signup(ctx, req)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoginFailures(t *testing.T) {
	svc, store := newUserService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, &models.SignupRequest{Name: "Ana", Email: "a@b.com", Password: "segredo123", CompanyID: "emp-1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "a@b.com", Password: "errada"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "quem@b.com", Password: "segredo123"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Suspended accounts cannot log in even with the right password
	store.byEmail["a@b.com"].IsActive = false
	_, err = svc.Login(ctx, &models.LoginRequest{Email: "a@b.com", Password: "segredo123"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
