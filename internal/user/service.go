package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/auth"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/pkg/apperror"
)

// RegisterRequest carries a self-registration.
type RegisterRequest struct {
	Name       string
	Email      string
	Password   string
	Phone      string
	Department string
	Role       Role
}

// ProfileUpdate holds the fields a user may edit on their own profile.
// Nil means "leave unchanged".
type ProfileUpdate struct {
	Name       *string
	Phone      *string
	Department *string
}

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, req ProfileUpdate) (*User, error)
	List(ctx context.Context, filter Filter) ([]*User, error)
	SetRole(ctx context.Context, id string, role Role) (*User, error)
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	logger zerolog.Logger

	bootstrapAdminEmail string
	minPasswordLength   int
}

// NewService creates a new user Service. Registering with bootstrapAdminEmail
// yields an admin account, which is how the first administrator is created.
func NewService(repo Repository, hasher auth.PasswordHasher, bootstrapAdminEmail string, logger zerolog.Logger) Service {
	return &service{
		repo:                repo,
		hasher:              hasher,
		logger:              logger.With().Str("component", "user").Logger(),
		bootstrapAdminEmail: normalizeEmail(bootstrapAdminEmail),
		minPasswordLength:   8,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	cleanEmail := normalizeEmail(req.Email)
	if cleanEmail == "" {
		return nil, ErrEmailRequired
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if len(req.Password) < s.minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := req.Role
	switch {
	case s.bootstrapAdminEmail != "" && cleanEmail == s.bootstrapAdminEmail:
		role = RoleAdmin
	case role == "":
		role = RoleStudent
	case role != RoleStudent && role != RoleFaculty:
		// Admin is never self-assigned.
		return nil, ErrInvalidRole
	}

	// Check if email is already used.
	_, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err == nil {
		return nil, ErrEmailAlreadyUsed
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, apperror.Wrap(err, ErrStorage.Code, ErrStorage.Message)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Name:         name,
		Email:        cleanEmail,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
		Department:   strings.TrimSpace(req.Department),
		Role:         role,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailAlreadyUsed) {
			return nil, err
		}
		return nil, apperror.Wrap(err, ErrStorage.Code, ErrStorage.Message)
	}

	s.logger.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Wrap(err, ErrStorage.Code, ErrStorage.Message)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageErr(err)
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, id string, req ProfileUpdate) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageErr(err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		u.Name = name
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Department != nil {
		u.Department = strings.TrimSpace(*req.Department)
	}

	// Existing bookings keep the organizer snapshot taken at creation.
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, s.storageErr(err)
	}
	return u, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, ErrInvalidRole
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.storageErr(err)
	}
	return users, nil
}

func (s *service) SetRole(ctx context.Context, id string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageErr(err)
	}
	u.Role = role

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, s.storageErr(err)
	}

	s.logger.Info().Str("user_id", u.ID).Str("role", string(role)).Msg("user role changed")
	return u, nil
}

// storageErr passes domain errors through and masks everything else.
func (s *service) storageErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return apperror.Wrap(err, ErrStorage.Code, ErrStorage.Message)
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
