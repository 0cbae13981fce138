package contact

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/MikeMC777/storefront/internal/apperr"
	"github.com/MikeMC777/storefront/internal/notify"
)

type memRepo struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (m *memRepo) Create(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memRepo) List(ctx context.Context, limit, offset int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.msgs...), nil
}

type memMailer struct {
	sent []notify.Message
	err  error
}

func (m *memMailer) Send(ctx context.Context, msg notify.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

var form = SubmitRequest{Name: " Asha ", Email: "asha@example.com", Subject: "Bulk order", Message: "Do you ship to Dubai?"}

func TestSubmitStoresAndForwards(t *testing.T) {
	repo, mailer := &memRepo{}, &memMailer{}
	svc := NewService(repo, mailer, "info@example.com", "HHH Perfumes")

	m, err := svc.Submit(context.Background(), form)
	if err != nil {
		t.Fatal(err)
	}
	if m.ID == "" || m.Name != "Asha" || len(repo.msgs) != 1 {
		t.Fatalf("message=%+v stored=%d", m, len(repo.msgs))
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To[0] != "info@example.com" {
		t.Fatalf("forwarded=%+v", mailer.sent)
	}
	if !strings.Contains(mailer.sent[0].Text, "asha@example.com") || !strings.Contains(mailer.sent[0].Subject, "Bulk order") {
		t.Fatalf("forward=%+v", mailer.sent[0])
	}
}

func TestSubmitSurvivesMailFailure(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, &memMailer{err: errors.New("smtp down")}, "info@example.com", "HHH Perfumes")
	if _, err := svc.Submit(context.Background(), form); err != nil {
		t.Fatalf("mail failure surfaced: %v", err)
	}
	if len(repo.msgs) != 1 {
		t.Fatalf("stored=%d", len(repo.msgs))
	}
}

func TestSubmitRejectsBlankFields(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, "", "HHH Perfumes")
	in := form
	in.Message = "   "
	if _, err := svc.Submit(context.Background(), in); !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(repo.msgs) != 0 {
		t.Fatalf("blank message stored")
	}
}

func TestSubmitStoreFailureIsInternal(t *testing.T) {
	svc := NewService(&memRepo{err: errors.New("db down")}, nil, "", "HHH Perfumes")
	if _, err := svc.Submit(context.Background(), form); !apperr.HasCode(err, apperr.CodeInternal) {
		t.Fatalf("want InternalError, got %v", err)
	}
}
