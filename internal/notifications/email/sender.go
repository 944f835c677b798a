// Package email sends notification mail over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/safetydesk/safetydesk/internal/pkg/ctxlog"
)

// sendTimeout bounds one complete SMTP conversation.
const sendTimeout = 30 * time.Second

// Config holds SMTP transport configuration.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	UseTLS      bool
	FromAddress string
	FromName    string
	RateLimit   float64
}

// Sender delivers mail over SMTP with STARTTLS, or implicit TLS when
// UseTLS is set. Sends are paced by a rate limiter shared across
// callers.
type Sender struct {
	config  Config
	auth    smtp.Auth
	limiter *rate.Limiter
}

// NewSender creates a new SMTP sender.
func NewSender(config Config) *Sender {
	if config.Port == 0 {
		config.Port = 587
	}

	var auth smtp.Auth
	if config.User != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}

	limit := rate.Limit(config.RateLimit)
	if config.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &Sender{
		config:  config,
		auth:    auth,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Send delivers one message to the recipients. When the SMTP host or
// credentials are not configured the send is skipped with a log entry
// and no error.
func (s *Sender) Send(ctx context.Context, subject, body string, html bool, recipients []string) error {
	logger := ctxlog.FromContext(ctx)

	if s.config.Host == "" || s.auth == nil {
		logger.Info("smtp not configured, skipping send",
			"subject", subject, "recipient_count", len(recipients))
		return nil
	}
	if len(recipients) == 0 {
		logger.Info("no recipients, skipping send", "subject", subject)
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	msg := s.buildMessage(subject, body, html)
	return s.send(ctx, recipients, msg)
}

// buildMessage constructs the message with headers in a fixed order.
func (s *Sender) buildMessage(subject, body string, html bool) []byte {
	contentType := "text/plain"
	if html {
		contentType = "text/html"
	}

	from := s.config.FromAddress
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString("To: undisclosed-recipients:;\r\n")
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"utf-8\"\r\n", contentType))
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return []byte(msg.String())
}

func (s *Sender) send(ctx context.Context, recipients []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	tlsConfig := &tls.Config{
		ServerName: s.config.Host,
		MinVersion: tls.VersionTLS12,
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}

	var conn net.Conn
	var err error
	if s.config.UseTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if !s.config.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if err := client.Auth(s.auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if err := client.Mail(s.config.FromAddress); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	var accepted int
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			ctxlog.FromContext(ctx).Warn("recipient rejected", "error", err)
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return errors.New("no valid recipients")
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

// SplitRecipients splits a configured recipient list on commas and
// semicolons, trimming whitespace and dropping empty entries.
func SplitRecipients(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})

	recipients := make([]string, 0, len(fields))
	for _, f := range fields {
		if addr := strings.TrimSpace(f); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}
