package auth

import (
	"github.com/velora-shop/storefront-backend/internal/users"
)

// RegisterRequest contains the payload required to open a shopper account.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`

	// IP is filled by the controller for rate limiting, never by clients.
	IP string `json:"-"`
}

// LoginRequest carries the credential payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	// GuestBasketToken comes from the basket cookie; a guest basket carried
	// into login is merged into the account basket.
	GuestBasketToken string `json:"-"`
	IP               string `json:"-"`
}

// LoginResponse returns the token pair and account snapshot.
type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         users.UserDTO `json:"user"`
}

// RefreshRequest rotates a refresh token. The access token may be expired;
// only its signature and jti are used.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the replacement token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// VerifyEmailRequest confirms ownership of an address.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// ResendVerificationRequest asks for a fresh verification email.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`

	IP string `json:"-"`
}
