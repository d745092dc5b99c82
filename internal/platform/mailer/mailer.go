// Copyright (c) 2026 Communication LTD. All rights reserved.

/*
Package mailer implements outbound email delivery over SMTP.

It is the concrete implementation of the [auth.EmailSender] collaborator.
Delivery is best-effort: the authentication service dispatches reset mail
asynchronously and treats failures as log-and-continue, never as a reason to
roll back persisted state.
*/
package mailer

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer sends transactional mail through a configured SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// Options holds the SMTP relay settings.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// New constructs an [SMTPMailer] from relay options.
//
// Authentication is only enabled when a username is configured, so local
// development against an unauthenticated relay (e.g. Mailpit) works out of
// the box.
func New(opts Options) (*SMTPMailer, error) {
	clientOpts := []gomail.Option{
		gomail.WithPort(opts.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}

	if opts.Username != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.Username),
			gomail.WithPassword(opts.Password),
		)
	}

	client, err := gomail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{client: client, from: opts.From}, nil
}

// SendPasswordReset delivers the reset token to the given address.
//
// The mail body names the 1-hour expiry window; the token itself is useless
// without also knowing the account email, which the reset endpoint verifies.
func (mailer *SMTPMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	message := gomail.NewMsg()
	if err := message.From(mailer.from); err != nil {
		return fmt.Errorf("mailer: invalid sender address: %w", err)
	}
	if err := message.To(email); err != nil {
		return fmt.Errorf("mailer: invalid recipient address: %w", err)
	}

	message.Subject("Password Reset Request")
	message.SetBodyString(gomail.TypeTextHTML, fmt.Sprintf(`
		<h1>Password Reset Request</h1>
		<p>You requested a password reset for your Communication LTD account.</p>
		<p>Your reset token is: <strong>%s</strong></p>
		<p>Please use this token to reset your password. The token will expire in 1 hour.</p>
		<p>If you did not request this reset, please ignore this email.</p>`, token))

	if err := mailer.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("mailer: failed to send reset mail: %w", err)
	}

	return nil
}
