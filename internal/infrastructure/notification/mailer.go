package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rx-logistics/internal/config"
	"rx-logistics/internal/logger"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var ErrNoRecipients = errors.New("message has no recipients")

// Message is an HTML email.
type Message struct {
	To      []string
	CC      []string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

type SMTPMailer struct {
	from string
	send func(ctx context.Context, msg *mail.Msg) error
}

const smtpTimeout = 15 * time.Second

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(smtpTimeout),
	}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{
		from: cfg.From,
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	out, err := m.build(msg)
	if err != nil {
		return err
	}

	if err := m.send(ctx, out); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent",
		zap.String("event", "email_sent"),
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.To)+len(msg.CC)),
	)
	return nil
}

func (m *SMTPMailer) build(msg *Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}

	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := out.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if len(msg.CC) > 0 {
		if err := out.Cc(msg.CC...); err != nil {
			return nil, fmt.Errorf("invalid cc address: %w", err)
		}
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)

	return out, nil
}

// NoopMailer stands in when SMTP is not configured.
type NoopMailer struct{}

func (NoopMailer) Send(ctx context.Context, msg *Message) error {
	logger.Info("SMTP not configured, email skipped",
		zap.String("event", "email_skipped"),
		zap.String("subject", msg.Subject),
	)
	return nil
}
