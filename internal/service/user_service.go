package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"loan-approval-service/internal/entity"
	"loan-approval-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrFieldTooLong       = errors.New("name or email is too long")
	ErrPasswordTooLong    = errors.New("password is longer than 72 bytes")
)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

// normalizeEmail trims and lower-cases an address so lookups ignore case.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore is the persistence UserService needs.
type UserStore interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

type UserService struct {
	repo UserStore
	cost int
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore) *UserService {
	return &UserService{repo: repo, cost: bcrypt.DefaultCost}
}

// Signup hashes the password and stores a new user with the default role.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*entity.User, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if utf8.RuneCountInString(name) > entity.MaxNameLength || utf8.RuneCountInString(email) > entity.MaxEmailLength {
		return nil, ErrFieldTooLong
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		logger.Error().Err(err).Msg("Error hashing password")
		return nil, err
	}

	user, err := s.repo.Create(ctx, &entity.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         entity.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	logger.Info().Int64("user_id", user.ID).Msg("User signed up")
	return user, nil
}

// Login returns the user whose email and password match. An unknown email
// and a wrong password both return ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		logger.Error().Err(err).Msg("Error looking up user")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting user by ID %d", id)
		return nil, err
	}
	return user, nil
}
