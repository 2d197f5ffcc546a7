package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalyx/my2cents/internal/setup/config"
	gomail "github.com/wneessen/go-mail"
)

// ErrUnsupportedProtocol is returned for a mail protocol without a transport.
var ErrUnsupportedProtocol = errors.New("unsupported mail protocol")

// Sender delivers a composed mail message.
type Sender interface {
	Send(ctx context.Context, msg *gomail.Msg) error
}

// SMTPSender delivers mails through an SMTP server.
type SMTPSender struct {
	client *gomail.Client
}

// NewSMTPSender creates a sender for the configured SMTP server.
// Secure servers use implicit TLS, others upgrade with STARTTLS when offered.
func NewSMTPSender(cfg *config.SMTP) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.User),
		gomail.WithPassword(cfg.Password),
	}

	if cfg.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPSender{client: client}, nil
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg *gomail.Msg) error {
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail over smtp: %w", err)
	}

	return nil
}

// SendmailSender pipes mails into a local sendmail compatible binary.
type SendmailSender struct {
	path string
}

// NewSendmailSender creates a sender for the binary at path.
func NewSendmailSender(path string) *SendmailSender {
	return &SendmailSender{path: path}
}

// Send implements Sender.
func (s *SendmailSender) Send(ctx context.Context, msg *gomail.Msg) error {
	if err := msg.WriteToSendmailWithContext(ctx, s.path); err != nil {
		return fmt.Errorf("failed to send mail through %s: %w", s.path, err)
	}

	return nil
}

// NewSender returns the transport for the configured protocol.
// The nomail protocol yields a nil sender.
func NewSender(cfg *config.Mail) (Sender, error) {
	switch cfg.Protocol {
	case config.MailProtocolSMTP:
		sender, err := NewSMTPSender(&cfg.SMTP)
		if err != nil {
			return nil, err
		}

		return sender, nil
	case config.MailProtocolSendmail:
		return NewSendmailSender(cfg.Sendmail.Path), nil
	case config.MailProtocolNoMail:
		return nil, nil //nolint:nilnil // nomail has no transport
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, cfg.Protocol)
	}
}
