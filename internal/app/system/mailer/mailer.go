// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is one outgoing message. TextBody is required; HTMLBody is sent as
// an alternative part when set.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers emails.
type Sender interface {
	Send(ctx context.Context, msg Email) error
}

// Config holds SMTP settings. An empty Host disables delivery.
type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

var ErrNoRecipient = errors.New("email has no recipient")

// Mailer sends through an SMTP server with gomail.
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
	log    *zap.Logger
}

// New returns an SMTP Mailer, or a LogSender when cfg.Host is empty so
// development setups work without a mail server.
func New(cfg Config, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		logger.Info("mail delivery disabled; emails will be logged")
		return LogSender{Log: logger}
	}
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		log:    logger,
	}
}

func (m *Mailer) message(msg Email) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.cfg.From)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		gm.AddAlternative("text/html", msg.HTMLBody)
	}
	return gm
}

// Send dials the server and delivers msg. gomail has no context support,
// so ctx is only checked before dialing.
func (m *Mailer) Send(ctx context.Context, msg Email) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.message(msg)); err != nil {
		m.log.Warn("email send failed", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	m.log.Debug("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogSender logs emails instead of sending them.
type LogSender struct {
	Log *zap.Logger
}

func (l LogSender) Send(_ context.Context, msg Email) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	l.Log.Info("email (not sent)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody))
	return nil
}
