package mail

import (
	"fmt"
	"net/smtp"
	"strings"
	"sync"
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// SentMail records one delivery made through the Recorder.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// Recorder captures outgoing mail for tests instead of delivering it.
type Recorder struct {
	mu   sync.Mutex
	sent []SentMail
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(to, subject, body string) error {
	r.mu.Lock()
	r.sent = append(r.sent, SentMail{To: to, Subject: subject, Body: body})
	r.mu.Unlock()
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []SentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SentMail, len(r.sent))
	copy(out, r.sent)
	return out
}
