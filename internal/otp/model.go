package otp

import "time"

// Purpose discriminates the flows that share one code table.
type Purpose string

const (
	PurposePasswordReset Purpose = "password_reset"
	PurposeEmailVerify   Purpose = "email_verify"
	PurposeOTP           Purpose = "otp"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposePasswordReset, PurposeEmailVerify, PurposeOTP:
		return true
	}
	return false
}

func (p Purpose) subject() string {
	switch p {
	case PurposePasswordReset:
		return "Your password reset code"
	case PurposeEmailVerify:
		return "Verify your email address"
	}
	return "Your one-time code"
}

type Code struct {
	ID        string
	UserID    string
	Purpose   Purpose
	CodeHash  string
	CreatedAt time.Time
	UsedAt    *time.Time
}

// Expired reports whether more than ttl has elapsed since issuance.
func (c Code) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CreatedAt) > ttl
}

// Effect is applied in the same transaction that marks the code used.
type Effect struct {
	UserID       string
	PasswordHash string
	VerifyEmail  bool
}

// SendCodeRequest payload of code issuance.
// swagger:model SendCodeRequest
type SendCodeRequest struct {
	Email string `json:"email" binding:"required,email" example:"asha@example.com"`
}

// VerifyCodeRequest payload of code verification.
// swagger:model VerifyCodeRequest
type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email" example:"asha@example.com"`
	Code  string `json:"code"  binding:"required,len=6,numeric" example:"482913"`
}

// ResetPasswordRequest payload of a password reset.
// swagger:model ResetPasswordRequest
type ResetPasswordRequest struct {
	Email       string `json:"email"        binding:"required,email"`
	Code        string `json:"code"         binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
