package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/CJang10/my-style-ai/internal/config"
)

// Sender defines the interface for sending notification emails.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, body string) error
}

// NewSender returns an SMTP sender when a host is configured, otherwise a
// logging sender so dev environments still show what would have gone out.
func NewSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		log.Println("SMTP host not configured, using logging email sender.")
		return &LoggingSender{cfg: cfg}
	}
	return &SMTPSender{
		cfg:  cfg,
		auth: smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost),
		addr: fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
	}
}

// SMTPSender implements Sender using Go's net/smtp package.
type SMTPSender struct {
	cfg  *config.Config
	auth smtp.Auth
	addr string
}

// Send delivers the message to all recipients in one SMTP transaction.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, body string) error {
	msg := strings.Builder{}
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.cfg.AppName, s.cfg.SmtpFromAddress)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %v failed: %w", to, err)
	}
	return nil
}

// LoggingSender logs messages instead of delivering them.
type LoggingSender struct {
	cfg *config.Config
}

func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, body string) error {
	log.Printf("EMAIL (not sent) to=%v subject=%q body=%q", to, subject, body)
	return nil
}
