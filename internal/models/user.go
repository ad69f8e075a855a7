package models

import "time"

type User struct {
	ID                 int64     `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	DefaultTopP        float64   `json:"default_top_p"`
	DefaultTemperature float64   `json:"default_temperature"`
	CreatedAt          time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Email              string   `json:"email"`
	Password           string   `json:"password"`
	DefaultTopP        *float64 `json:"default_top_p"`
	DefaultTemperature *float64 `json:"default_temperature"`
}

// LoginRequest accepts the credential under either key; "username" mirrors
// the OAuth2 password-grant field name and always carries the email.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID                 int64   `json:"id"`
	Email              string  `json:"email"`
	DefaultTopP        float64 `json:"default_top_p"`
	DefaultTemperature float64 `json:"default_temperature"`
	CreatedAt          string  `json:"created_at"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		DefaultTopP:        u.DefaultTopP,
		DefaultTemperature: u.DefaultTemperature,
		CreatedAt:          u.CreatedAt.Format(time.RFC3339),
	}
}
