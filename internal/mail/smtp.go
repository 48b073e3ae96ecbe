package mail

import (
	"context"
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"careercraft/internal/config"
)

// ErrNotConfigured 表示未配置 SMTP，邮件无法发出。
var ErrNotConfigured = errors.New("email service not configured")

// Sender 发送一封 HTML 邮件。
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender 通过 SMTP 中继投递邮件。
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSender 根据配置返回 SMTPSender；未配置 Host 时返回始终失败的 Sender。
func NewSender(cfg config.MailConfig) (Sender, error) {
	if !cfg.Enabled() {
		return disabledSender{}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("init smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From}, nil
}

// Send 构造并发送邮件。
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("set from %q: %w", s.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("deliver mail to %q: %w", to, err)
	}
	return nil
}

type disabledSender struct{}

func (disabledSender) Send(context.Context, string, string, string) error {
	return ErrNotConfigured
}
