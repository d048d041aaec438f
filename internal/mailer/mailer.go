package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// Mailer delivers the account emails. Handlers only depend on this interface;
// tests substitute a recorder.
type Mailer interface {
	SendVerification(ctx context.Context, to, username, token string) error
	SendPasswordReset(ctx context.Context, to, username, token string) error
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	client    *resend.Client
	from      string
	publicURL string
}

func NewResendMailer(apiKey, from, publicURL string) *ResendMailer {
	return &ResendMailer{
		client:    resend.NewClient(apiKey),
		from:      from,
		publicURL: publicURL,
	}
}

func (m *ResendMailer) SendVerification(ctx context.Context, to, username, token string) error {
	verifyURL := fmt.Sprintf("%s/api/auth/verify/%s", m.publicURL, token)

	body := fmt.Sprintf(`Hello %s,

Thank you for registering with Lorekeep, the character backstory & RP event platform!

Please click the following link to verify your email address:
%s

If you did not register for Lorekeep, please ignore this email.

The Lorekeep Team
`, username, verifyURL)

	return m.send(ctx, to, "Verify Your Lorekeep Account", body)
}

func (m *ResendMailer) SendPasswordReset(ctx context.Context, to, username, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password/%s", m.publicURL, token)

	body := fmt.Sprintf(`Hello %s,

You've requested to reset your password for your Lorekeep account.

Please click the following link to reset your password:
%s

If you did not request a password reset, please ignore this email.

The Lorekeep Team
`, username, resetURL)

	return m.send(ctx, to, "Reset Your Lorekeep Password", body)
}

func (m *ResendMailer) send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)

	if err != nil {
		return fmt.Errorf("resend API error: %w", err)
	}

	log.Info().Str("email_id", sent.Id).Str("to", to).Msg("email sent")
	return nil
}

// LogMailer is used when no Resend API key is configured; it logs the token
// instead of sending anything, which is enough for local development.
type LogMailer struct{}

func (LogMailer) SendVerification(_ context.Context, to, _, token string) error {
	log.Info().Str("to", to).Str("token", token).Msg("verification email (not sent: mail disabled)")
	return nil
}

func (LogMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	log.Info().Str("to", to).Str("token", token).Msg("password reset email (not sent: mail disabled)")
	return nil
}
