package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yariga/internal/auth"
	apperrors "yariga/internal/errors"
	"yariga/internal/model"
	"yariga/internal/repository"
)

// Profile is the identity decoded from the login credential by the client.
type Profile struct {
	Name   string
	Email  string
	Avatar string
}

// UserService exposes sign-in and agent lookups.
type UserService interface {
	// Login returns the user registered under p.Email, creating it on first
	// sign-in, together with a session token. The profile is trusted as sent.
	Login(ctx context.Context, p Profile) (*model.User, string, error)
	List(ctx context.Context, start, end int) ([]model.User, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type userService struct {
	store repository.Store
	jwt   *auth.JWTService
}

// NewUserService builds a UserService.
func NewUserService(store repository.Store, jwtService *auth.JWTService) UserService {
	return &userService{store: store, jwt: jwtService}
}

func (s *userService) Login(ctx context.Context, p Profile) (*model.User, string, error) {
	email := normalizeEmail(p.Email)
	if email == "" {
		return nil, "", fmt.Errorf("%w: email is required", apperrors.ErrInvalidInput)
	}

	user, err := s.findOrCreate(ctx, &model.User{Name: p.Name, Email: email, Avatar: p.Avatar})
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwt.GenerateSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("generate session token: %w", err)
	}
	return user, token, nil
}

func (s *userService) findOrCreate(ctx context.Context, candidate *model.User) (*model.User, error) {
	users := s.store.Users()

	existing, err := users.FindByEmail(ctx, candidate.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := users.Create(ctx, candidate); err != nil {
		// a concurrent first sign-in won the unique email index
		if winner, ferr := users.FindByEmail(ctx, candidate.Email); ferr == nil {
			return winner, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return candidate, nil
}

func (s *userService) List(ctx context.Context, start, end int) ([]model.User, int64, error) {
	if start < 0 {
		return nil, 0, fmt.Errorf("%w: _start must not be negative", apperrors.ErrInvalidQuery)
	}
	users, total, err := s.store.Users().List(ctx, start, end-start)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Get returns the user with its properties joined.
func (s *userService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	properties, err := s.store.Properties().FindByIDs(ctx, user.AllProperties)
	if err != nil {
		return nil, fmt.Errorf("get user properties: %w", err)
	}
	user.Properties = properties
	return user, nil
}
