package mail

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"authcore/config"
	"authcore/internal/domain/service"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

const fromDisplayName = "Auth Service"

// NewSender returns the SMTP sender, or the logging sender in dev mode and local runs.
func NewSender(cfg *config.Config, logger *slog.Logger) service.EmailSender {
	if cfg.Mail.DevMode || cfg.App.Local {
		return NewLogSender(cfg, logger)
	}

	return NewSMTPSender(cfg, logger)
}

// SMTPSender delivers account emails through an SMTP relay.
type SMTPSender struct {
	dialer          *gomail.Dialer
	from            string
	frontendURL     string
	verificationTTL time.Duration
	logger          *slog.Logger
}

func NewSMTPSender(cfg *config.Config, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{
		dialer:          gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password),
		from:            cfg.Mail.From,
		frontendURL:     cfg.App.FrontendURL,
		verificationTTL: cfg.Auth.VerificationTTL,
		logger:          logger,
	}
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, to, name, token string) error {
	body, err := render(verificationTemplate, templateData{
		Name:      name,
		Link:      verificationLink(s.frontendURL, token),
		ExpiresIn: humanizeTTL(s.verificationTTL),
	})
	if err != nil {
		return err
	}

	if err := s.send(ctx, to, verificationSubject, body); err != nil {
		return errors.Wrap(err, "failed to send verification email")
	}

	return nil
}

func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, to, name string) error {
	body, err := render(welcomeTemplate, templateData{Name: name, Link: s.frontendURL})
	if err != nil {
		return err
	}

	if err := s.send(ctx, to, welcomeSubject, body); err != nil {
		return errors.Wrap(err, "failed to send welcome email")
	}

	return nil
}

// send dials per message; gomail has no context support so cancellation is only
// checked before dialing.
func (s *SMTPSender) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, fromDisplayName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.WithStack(err)
	}

	s.logger.InfoContext(ctx, "Email sent", slog.String("subject", subject))

	return nil
}

// LogSender writes verification links to the log instead of sending mail.
type LogSender struct {
	frontendURL string
	logger      *slog.Logger
}

func NewLogSender(cfg *config.Config, logger *slog.Logger) *LogSender {
	return &LogSender{frontendURL: cfg.App.FrontendURL, logger: logger}
}

func (s *LogSender) SendVerificationEmail(ctx context.Context, to, _, token string) error {
	s.logger.InfoContext(ctx, "DEV MODE verification link",
		slog.String("to", to),
		slog.String("link", verificationLink(s.frontendURL, token)),
	)

	return nil
}

func (s *LogSender) SendWelcomeEmail(ctx context.Context, to, _ string) error {
	s.logger.DebugContext(ctx, "DEV MODE welcome email skipped", slog.String("to", to))

	return nil
}

func verificationLink(frontendURL, token string) string {
	return frontendURL + "/verify-email?token=" + url.QueryEscape(token)
}
