package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"todolist/internal/core/port"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	config SMTPConfig
	logger *zap.Logger
}

func NewSMTPMailer(config SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SMTPMailer{config: config, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, mail port.Mail) error {
	msg, err := m.message(mail)

	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.config.Host, m.clientOptions()...)

	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Debug("Mail sent", zap.String("subject", mail.Subject))

	return nil
}

func (m *SMTPMailer) message(mail port.Mail) (*gomail.Msg, error) {
	msg := gomail.NewMsg()

	if err := msg.From(m.config.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}

	if err := msg.To(mail.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(mail.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, mail.HTML)

	return msg, nil
}

func (m *SMTPMailer) clientOptions() []gomail.Option {
	options := []gomail.Option{
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}

	if m.config.Port != 0 {
		options = append(options, gomail.WithPort(m.config.Port))
	}

	if m.config.Username != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.config.Username),
			gomail.WithPassword(m.config.Password),
		)
	}

	return options
}

// LogMailer writes mails to the log instead of delivering them. It backs
// local runs without an SMTP server.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, mail port.Mail) error {
	m.logger.Info("Mail delivery disabled, dropping message",
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject))

	return nil
}
