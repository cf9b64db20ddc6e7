package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/frahmantamala/goal-tracker/internal"
)

var ErrNoRecipients = errors.New("mail: message has no recipients")

type Message struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

// Sender delivers one message. Callers treat failures as best effort.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// SMTPSender sends plain-text mail; Cc addresses are also added to the
// envelope recipients.
type SMTPSender struct {
	addr     string
	from     string
	username string
	password string
	send     sendFunc
	logger   *slog.Logger
}

func NewSMTPSender(cfg internal.MailConfig, logger *slog.Logger) *SMTPSender {
	send := smtp.SendMail
	if cfg.UseTLS {
		send = smtp.SendMailTLS
	}
	return &SMTPSender{
		addr:     cfg.Addr(),
		from:     cfg.From,
		username: cfg.Username,
		password: cfg.Password,
		send:     send,
		logger:   logger,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(clean(msg.To)) == 0 {
		return ErrNoRecipients
	}
	recipients := clean(append(append([]string{}, msg.To...), msg.Cc...))

	var auth sasl.Client
	if s.username != "" {
		auth = sasl.NewPlainClient("", s.username, s.password)
	}

	if err := s.send(s.addr, auth, s.from, recipients, bytes.NewReader(s.compose(msg))); err != nil {
		s.logger.Error("failed to send mail", "error", err, "to", msg.To, "subject", msg.Subject)
		return err
	}
	s.logger.Info("mail sent", "to", msg.To, "cc_count", len(msg.Cc), "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) compose(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(clean(msg.To), ", "))
	if cc := clean(msg.Cc); len(cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", encodeHeader(msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// NoopSender logs and drops every message; used when mail is disabled.
type NoopSender struct {
	logger *slog.Logger
}

func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (n *NoopSender) Send(ctx context.Context, msg Message) error {
	n.logger.Debug("mail disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NewSender picks the SMTP sender when mail is enabled.
func NewSender(cfg internal.MailConfig, logger *slog.Logger) Sender {
	if !cfg.Enabled {
		return NewNoopSender(logger)
	}
	return NewSMTPSender(cfg, logger)
}

// encodeHeader folds line breaks into spaces and applies RFC 2047 encoding
// when the value is not plain ASCII.
func encodeHeader(v string) string {
	v = strings.Join(strings.FieldsFunc(v, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
	return mime.QEncoding.Encode("utf-8", v)
}

func clean(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	seen := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" || strings.ContainsAny(a, "\r\n") || seen[strings.ToLower(a)] {
			continue
		}
		seen[strings.ToLower(a)] = true
		out = append(out, a)
	}
	return out
}
