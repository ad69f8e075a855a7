package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"llmchat-backend/internal/middleware"
	"llmchat-backend/internal/models"
)

const refreshTokenTTL = 7 * 24 * time.Hour

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type AuthService struct {
	users    userStore
	sessions SessionStore
	jwt      *middleware.JWTAuth
	logger   *zap.Logger
}

func NewAuthService(users userStore, sessions SessionStore, jwt *middleware.JWTAuth, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		jwt:      jwt,
		logger:   logger,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Register creates a user. Emails are case-normalized so the uniqueness
// constraint is effectively case-insensitive; sampling defaults are clamped,
// never rejected.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	fieldErrors := make(map[string]string)
	if !emailRegex.MatchString(email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = "Password must be at least 8 characters"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	// Check uniqueness
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, &ConflictError{Message: "Email already registered"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Hash password (bcrypt cost 12)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:              email,
		PasswordHash:       string(hash),
		DefaultTopP:        models.ClampTopP(req.DefaultTopP, models.DefaultTopP),
		DefaultTemperature: models.ClampTemperature(req.DefaultTemperature, models.DefaultTemperature),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	email := req.Username
	if email == "" {
		email = req.Email
	}
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Incorrect email or password"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Incorrect email or password"}
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	userID, err := s.sessions.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	// Rotation: the presented token is single-use
	if err := s.sessions.DeleteRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn("failed to delete rotated refresh token", zap.Error(err))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Account no longer exists"}
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.DeleteRefreshToken(ctx, refreshToken)
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "User not found"}
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SaveRefreshToken(ctx, refreshToken, user.ID, refreshTokenTTL); err != nil {
		return nil, err
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    900,
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Custom errors
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }
