package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"commtracker-backend/internal/config"
	"commtracker-backend/internal/model"
	"commtracker-backend/internal/repository"
	"commtracker-backend/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	tokenTTL          = 24 * time.Hour
)

var errInvalidCredentials = &AuthenticationError{Reason: "invalid credentials"}

type AuthService struct {
	UserRepo   *repository.UserRepository
	Config     *config.Config
	Logger     *zap.Logger
	BcryptCost int
	Now        func() time.Time
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		UserRepo:   userRepo,
		Config:     cfg,
		Logger:     logger,
		BcryptCost: bcrypt.DefaultCost,
		Now:        time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "is not a valid address")
	}
	return email, nil
}

// SignUp registers a new account and returns it with a session token.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (string, *model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil, err
	}
	if len(password) < minPasswordLength {
		return "", nil, invalid("password", "must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return "", nil, err
	}

	now := s.Now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.UserRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", nil, &ValidationError{Field: "email", Reason: "is already registered", Err: ErrConflict}
		}
		return "", nil, storeErr("create user", err)
	}

	s.Logger.Info("User signed up", zap.String("user_id", user.ID))
	return s.issue(ctx, user)
}

// SignIn checks the credentials and returns a session token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, storeErr("get user", err)
	}
	if user == nil {
		return "", nil, errInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return "", nil, errInvalidCredentials
	} else if err != nil {
		return "", nil, err
	}

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (string, *model.User, error) {
	now := s.Now().UTC()
	if err := s.UserRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return "", nil, storeErr("update last login", err)
	}
	user.LastLogin = &now

	token, err := utils.GenerateToken(user.ID, s.Config.JWTSecret, now, tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to a user ID.
func (s *AuthService) Authenticate(token string) (string, error) {
	userID, err := utils.ParseUserIDFromToken(token, s.Config.JWTSecret, s.Now())
	if err != nil {
		return "", &AuthenticationError{Reason: err.Error()}
	}
	return userID, nil
}

// CurrentUser returns the account behind userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	if user == nil {
		return nil, &AuthenticationError{Reason: "user no longer exists"}
	}
	return user, nil
}
