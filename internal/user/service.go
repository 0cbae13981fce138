package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeMC777/storefront/internal/apperr"
	"github.com/MikeMC777/storefront/internal/auth"
)

type Service struct {
	repo   Repository
	tokens *auth.Issuer
}

func NewService(repo Repository, tokens *auth.Issuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

func roleOf(u *User) string {
	if u.IsSuperuser {
		return auth.RoleAdmin
	}
	return auth.RoleUser
}

// Register creates an account and its empty basket.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, apperr.New(apperr.KindConflict, apperr.CodeEmailTaken, "username or email already registered")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// Login checks credentials. Blocked accounts get AccountBlocked even with the right
// password; admin logins also require the superuser flag.
func (s *Service) Login(ctx context.Context, email, password string, admin bool) (*auth.Pair, *User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return nil, nil, apperr.New(apperr.KindAuth, apperr.CodeInvalidCredentials, "invalid email or password")
	}
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, nil, apperr.New(apperr.KindAuth, apperr.CodeInvalidCredentials, "invalid email or password")
	}
	if !u.IsActive {
		return nil, nil, apperr.New(apperr.KindForbidden, apperr.CodeAccountBlocked, "account is blocked")
	}
	if admin && !u.IsSuperuser {
		return nil, nil, apperr.New(apperr.KindForbidden, apperr.CodeForbidden, "admin access required")
	}
	pair, err := s.tokens.Issue(u.ID, roleOf(u))
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	return pair, u, nil
}

// Refresh exchanges a refresh token for a new pair, re-reading the account so that
// blocking or demoting a user takes effect at the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.Pair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperr.New(apperr.KindAuth, apperr.CodeUnauthorized, "invalid refresh token")
	}
	u, err := s.repo.GetByID(ctx, claims.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.KindAuth, apperr.CodeUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.KindForbidden, apperr.CodeAccountBlocked, "account is blocked")
	}
	pair, err := s.tokens.Issue(u.ID, roleOf(u))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pair, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, apperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// EnsureActive fails with AccountBlocked for accounts blocked after their token was issued.
func (s *Service) EnsureActive(ctx context.Context, id string) error {
	u, err := s.Get(ctx, id)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return apperr.New(apperr.KindAuth, apperr.CodeUnauthorized, "unauthorized")
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		return apperr.New(apperr.KindForbidden, apperr.CodeAccountBlocked, "account is blocked")
	}
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	out, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	err := s.repo.SetActive(ctx, id, active)
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.KindNotFound, apperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
