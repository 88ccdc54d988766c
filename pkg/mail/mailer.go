// Package mail dispatches invitation notifications over SMTP. Delivery is
// fire-and-forget from the caller's perspective: a failed send is logged and
// never affects invitation state.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Mailer sends transactional email.
type Mailer interface {
	// SendInvitation emails an acceptance link for a project invitation.
	// The token appears only inside this one-time notification.
	SendInvitation(ctx context.Context, to, projectName, token string) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the public server URL used to build acceptance links.
	BaseURL string
}

// smtpMailer implements Mailer using an SMTP relay.
type smtpMailer struct {
	client *gomail.Client
	cfg    *Config
	logger *zap.Logger
}

// NewSMTPMailer creates a Mailer that delivers through the configured relay.
func NewSMTPMailer(cfg *Config, logger *zap.Logger) (Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &smtpMailer{client: client, cfg: cfg, logger: logger}, nil
}

// SendInvitation emails an acceptance link to the invitee.
func (m *smtpMailer) SendInvitation(ctx context.Context, to, projectName, token string) error {
	acceptURL := fmt.Sprintf("%s/accept-invite?token=%s", m.cfg.BaseURL, token)

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(fmt.Sprintf("You're invited to join %q", projectName))
	msg.SetBodyString(gomail.TypeTextHTML, fmt.Sprintf(`<h2>Project Invitation</h2>
<p>You have been invited to join <b>%s</b>.</p>
<p><a href="%s">Accept Invitation</a></p>
<p>This link expires in 24 hours.</p>`, projectName, acceptURL))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	m.logger.Info("Invitation email sent", zap.String("project", projectName))
	return nil
}

// noopMailer is used when SMTP is not configured. Invitations are still
// created; operators see the skip in the logs.
type noopMailer struct {
	logger *zap.Logger
}

// NewNoopMailer creates a Mailer that records the skip and sends nothing.
func NewNoopMailer(logger *zap.Logger) Mailer {
	return &noopMailer{logger: logger}
}

// SendInvitation logs that delivery was skipped.
func (m *noopMailer) SendInvitation(ctx context.Context, to, projectName, token string) error {
	m.logger.Info("SMTP not configured, skipping invitation email",
		zap.String("project", projectName))
	return nil
}

var (
	_ Mailer = (*smtpMailer)(nil)
	_ Mailer = (*noopMailer)(nil)
)
