package user

import "time"

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	PasswordHash  string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	IsSuperuser   bool      `json:"is_superuser"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// RegisterRequest payload of sign-up.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Username string `json:"username" binding:"required"       example:"asha"`
	Email    string `json:"email"    binding:"required,email" example:"asha@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"s3cretpass"`
	Phone    string `json:"phone"    example:"+919800000000"`
}

// LoginRequest payload of login.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest payload of token refresh.
// swagger:model RefreshRequest
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SetActiveRequest payload of blocking/unblocking a user.
// swagger:model SetActiveRequest
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}
