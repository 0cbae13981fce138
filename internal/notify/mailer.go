package notify

import (
	"context"
	"io"
	"time"

	mail "gopkg.in/mail.v2"
)

type Attachment struct {
	Name string
	Data []byte
}

type Message struct {
	To          []string
	Cc          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, password, from string, timeout time.Duration) *SMTPMailer {
	d := mail.NewDialer(host, port, user, password)
	d.Timeout = timeout
	return &SMTPMailer{dialer: d, from: from}
}

func (s *SMTPMailer) build(m Message) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To...)
	if len(m.Cc) > 0 {
		msg.SetHeader("Cc", m.Cc...)
	}
	msg.SetHeader("Subject", m.Subject)
	switch {
	case m.HTML != "" && m.Text != "":
		msg.SetBody("text/plain", m.Text)
		msg.AddAlternative("text/html", m.HTML)
	case m.HTML != "":
		msg.SetBody("text/html", m.HTML)
	default:
		msg.SetBody("text/plain", m.Text)
	}
	for _, a := range m.Attachments {
		data := a.Data
		msg.Attach(a.Name, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return msg
}

// Send delivers m. The dialer timeout bounds the SMTP exchange; ctx only stops the wait.
func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg := s.build(m)
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
