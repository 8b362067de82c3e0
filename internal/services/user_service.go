package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"patio-backend/internal/auth"
	"patio-backend/internal/models"
	"patio-backend/internal/timeutil"
)

// UserStore persists accounts. Implemented by repositories.UserRepository.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// UserService handles signup and login. Identity flows into the queue only
// through JWT claims; request bodies never carry an actor.
type UserService struct {
	store      UserStore
	jwtManager *auth.JWTManager
}

func NewUserService(store UserStore, jwtManager *auth.JWTManager) *UserService {
	return &UserService{store: store, jwtManager: jwtManager}
}

// Signup registers a new operator account and returns a ready session.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.CompanyID == "" {
		return nil, fmt.Errorf("%w: nome, email e empresa são obrigatórios", ErrInvalidState)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: senha deve ter no mínimo 6 caracteres", ErrInvalidState)
	}

	if _, err := s.store.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email já cadastrado", ErrConflict)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         "operador",
		CompanyID:    req.CompanyID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// Login authenticates by email and password. Suspended accounts are
// rejected here and again on every request by the auth middleware.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}
