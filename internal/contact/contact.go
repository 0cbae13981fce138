// Package contact stores "contact us" messages and forwards each one to the shop mailbox.
package contact

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/storefront/internal/apperr"
	"github.com/MikeMC777/storefront/internal/notify"
)

type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitRequest payload of the contact form.
// swagger:model SubmitRequest
type SubmitRequest struct {
	Name    string `json:"name"    binding:"required,max=100" example:"Asha"`
	Email   string `json:"email"   binding:"required,email"   example:"asha@example.com"`
	Subject string `json:"subject" binding:"required,max=150" example:"Bulk order"`
	Message string `json:"message" binding:"required"         example:"Do you ship to Dubai?"`
}

type Repository interface {
	Create(ctx context.Context, m *Message) error
	List(ctx context.Context, limit, offset int) ([]Message, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, m *Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`, m.ID, m.Name, m.Email, m.Subject, m.Body).Scan(&m.CreatedAt)
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, subject, message, created_at
		FROM contact_messages ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type Service struct {
	repo   Repository
	mailer notify.Mailer
	inbox  string
	shop   string
}

// NewService forwards messages to inbox when both mailer and inbox are set.
func NewService(repo Repository, mailer notify.Mailer, inbox, shop string) *Service {
	return &Service{repo: repo, mailer: mailer, inbox: inbox, shop: shop}
}

// Submit stores the message first; the forward is best effort and never fails the call.
func (s *Service) Submit(ctx context.Context, in SubmitRequest) (*Message, error) {
	m := &Message{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Body:    strings.TrimSpace(in.Message),
	}
	if m.Name == "" || m.Subject == "" || m.Body == "" {
		return nil, apperr.Validation("name, subject and message must not be blank")
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, apperr.Internal(err)
	}
	if s.mailer != nil && s.inbox != "" {
		msg := notify.Message{
			To:      []string{s.inbox},
			Subject: fmt.Sprintf("[%s contact] %s", s.shop, m.Subject),
			Text:    fmt.Sprintf("From: %s <%s>\n\n%s\n", m.Name, m.Email, m.Body),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			log.Printf("[contact] message=%s not forwarded: %v", m.ID, err)
		}
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Message, error) {
	out, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
