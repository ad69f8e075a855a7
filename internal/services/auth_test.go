package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"llmchat-backend/internal/middleware"
	"llmchat-backend/internal/models"
)

func newAuthService() (*AuthService, *fakeUserStore, *fakeSessionStore) {
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	svc := NewAuthService(users, sessions, middleware.NewJWTAuth("test-secret"), zap.NewNop())
	return svc, users, sessions
}

func TestRegister_NormalizesAndClamps(t *testing.T) {
	svc, _, _ := newAuthService()

	topP := 2.5
	temp := -1.0
	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:              "  Alice@Example.COM ",
		Password:           "password123",
		DefaultTopP:        &topP,
		DefaultTemperature: &temp,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("Expected normalized email, got %q", user.Email)
	}
	if user.DefaultTopP != 1 {
		t.Errorf("Expected default_top_p clamped to 1, got %v", user.DefaultTopP)
	}
	if user.DefaultTemperature != 0 {
		t.Errorf("Expected default_temperature clamped to 0, got %v", user.DefaultTemperature)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("Expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Errorf("Stored hash does not verify: %v", err)
	}
}

func TestRegister_AppliesDefaultsWhenAbsent(t *testing.T) {
	svc, _, _ := newAuthService()

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "bob@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.DefaultTopP != models.DefaultTopP {
		t.Errorf("Expected default top_p %v, got %v", models.DefaultTopP, user.DefaultTopP)
	}
	if user.DefaultTemperature != models.DefaultTemperature {
		t.Errorf("Expected default temperature %v, got %v", models.DefaultTemperature, user.DefaultTemperature)
	}
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "dup@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("First register failed: %v", err)
	}

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Email:    "DUP@Example.com",
		Password: "password456",
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected ConflictError, got %v", err)
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
	})

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, ok := validation.Fields["email"]; !ok {
		t.Error("Expected email field error")
	}
	if _, ok := validation.Fields["password"]; !ok {
		t.Error("Expected password field error")
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "login@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("success via username field", func(t *testing.T) {
		tokens, err := svc.Login(context.Background(), models.LoginRequest{
			Username: "Login@Example.com",
			Password: "password123",
		})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if tokens.TokenType != "bearer" {
			t.Errorf("Expected token_type bearer, got %q", tokens.TokenType)
		}
		if tokens.AccessToken == "" || tokens.RefreshToken == "" {
			t.Error("Expected both tokens issued")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email:    "login@example.com",
			Password: "wrong-password",
		})
		var unauthorized *UnauthorizedError
		if !errors.As(err, &unauthorized) {
			t.Fatalf("Expected UnauthorizedError, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email:    "ghost@example.com",
			Password: "password123",
		})
		var unauthorized *UnauthorizedError
		if !errors.As(err, &unauthorized) {
			t.Fatalf("Expected UnauthorizedError, got %v", err)
		}
	})
}

func TestRefreshToken_Rotation(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "rotate@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tokens, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rotate@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Error("Expected a new refresh token after rotation")
	}

	// The presented token is single-use.
	_, err = svc.RefreshToken(context.Background(), tokens.RefreshToken)
	var unauthorized *UnauthorizedError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("Expected UnauthorizedError on reuse, got %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, _, _ := newAuthService()

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "me@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if got.Email != "me@example.com" {
		t.Errorf("Expected registered user, got %q", got.Email)
	}

	_, err = svc.Me(context.Background(), 9999)
	var unauthorized *UnauthorizedError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("Expected UnauthorizedError for unknown id, got %v", err)
	}
}
