// Package notify reports run outcomes to the operator over email and,
// optionally, telegram. All channels are best effort.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Password string
	To       string
}

// EmailNotifier sends plain-text mail over SMTP with STARTTLS.
type EmailNotifier struct {
	cfg EmailConfig
	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier returns notifier.
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

// Notify sends one message. The context is accepted for interface symmetry;
// net/smtp does not support cancellation mid-send.
func (n *EmailNotifier) Notify(_ context.Context, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", n.cfg.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	if err := n.send(addr, auth, n.cfg.From, []string{n.cfg.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("notify: send mail: %w", err)
	}
	return nil
}
