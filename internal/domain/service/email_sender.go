package service

import "context"

// EmailSender delivers account emails. Template rendering belongs to the implementation.
type EmailSender interface {
	// SendVerificationEmail sends the link that confirms ownership of the address.
	SendVerificationEmail(ctx context.Context, to, name, token string) error

	// SendWelcomeEmail greets a freshly verified account.
	SendWelcomeEmail(ctx context.Context, to, name string) error
}
