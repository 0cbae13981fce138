// Package otp implements single-use, time-limited numeric codes. Password reset, email
// verification and generic one-time passwords are the same flow with a different Purpose.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeMC777/storefront/internal/apperr"
	"github.com/MikeMC777/storefront/internal/notify"
	"github.com/MikeMC777/storefront/internal/user"
)

type Users interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type Cooldown interface {
	Acquire(ctx context.Context, purpose, email string) (bool, error)
}

type Service struct {
	store    Store
	users    Users
	mailer   notify.Mailer
	cooldown Cooldown
	ttl      time.Duration
	shop     string
	now      func() time.Time
	generate func() (string, error)
}

func NewService(store Store, users Users, mailer notify.Mailer, cooldown Cooldown, ttl time.Duration, shop string) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		store:    store,
		users:    users,
		mailer:   mailer,
		cooldown: cooldown,
		ttl:      ttl,
		shop:     shop,
		now:      time.Now,
		generate: generateCode,
	}
}

// generateCode returns a uniformly random code in 100000..999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// hashCode binds the code to its owner so equal codes of different users differ at rest.
func hashCode(userID, code string) string {
	sum := sha256.Sum256([]byte(userID + ":" + code))
	return hex.EncodeToString(sum[:])
}

func (s *Service) lookup(ctx context.Context, email string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, user.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, apperr.CodeUnknownEmail, "no account with this email")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// Issue creates a fresh code for purpose and mails it to the account owner.
func (s *Service) Issue(ctx context.Context, purpose Purpose, email string) error {
	if !purpose.Valid() {
		return apperr.Validation("unknown code purpose")
	}
	u, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if s.cooldown != nil {
		ok, err := s.cooldown.Acquire(ctx, string(purpose), u.Email)
		if err != nil {
			log.Printf("[otp] cooldown check failed, issuing anyway: %v", err)
		} else if !ok {
			return apperr.New(apperr.KindTooMany, apperr.CodeCodeCooldown, "a code was sent recently, try again later")
		}
	}

	code, err := s.generate()
	if err != nil {
		return apperr.Internal(err)
	}
	c := &Code{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Purpose:   purpose,
		CodeHash:  hashCode(u.ID, code),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return apperr.Internal(err)
	}

	msg := notify.Message{
		To:      []string{u.Email},
		Subject: fmt.Sprintf("%s: %s", s.shop, purpose.subject()),
		Text: fmt.Sprintf("Hi %s,\n\nyour code is %s. It expires in %d minutes and can be used once.\n\n%s\n",
			u.DisplayName(), code, int(s.ttl.Minutes()), s.shop),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperr.Wrap(apperr.KindExternal, apperr.CodeMailUnavailable, "could not send the code", err)
	}
	log.Printf("[otp] issued purpose=%s user=%s", purpose, u.ID)
	return nil
}

func (s *Service) consume(ctx context.Context, purpose Purpose, email, code string, eff Effect) error {
	u, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	c, err := s.store.FindUnused(ctx, u.ID, purpose, hashCode(u.ID, strings.TrimSpace(code)))
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.KindValidation, apperr.CodeInvalidCode, "invalid code")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	now := s.now().UTC()
	if c.Expired(now, s.ttl) {
		return apperr.New(apperr.KindValidation, apperr.CodeCodeExpired, "code has expired")
	}
	eff.UserID = u.ID
	if err := s.store.Consume(ctx, c, now, eff); err != nil {
		if errors.Is(err, ErrAlreadyUsed) {
			return apperr.New(apperr.KindValidation, apperr.CodeInvalidCode, "invalid code")
		}
		return apperr.Internal(err)
	}
	log.Printf("[otp] consumed purpose=%s user=%s", purpose, u.ID)
	return nil
}

// Verify consumes a generic one-time code.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	return s.consume(ctx, PurposeOTP, email, code, Effect{})
}

// VerifyEmail consumes an email-verification code and flags the address verified.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	return s.consume(ctx, PurposeEmailVerify, email, code, Effect{VerifyEmail: true})
}

// ResetPassword consumes a reset code and replaces the password in the same transaction.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return apperr.Validation("new_password must be at least 8 characters")
	}
	hash, err := user.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	return s.consume(ctx, PurposePasswordReset, email, code, Effect{PasswordHash: hash})
}
