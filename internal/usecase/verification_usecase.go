package usecase

import "context"

// ResendInput locates the account by its pending token or, failing that, its email.
type ResendInput struct {
	Email string
	Token string
}

// ResendOutput reports whether a new link was actually sent. Callers must not
// reveal the difference to the client.
type ResendOutput struct {
	Sent bool
}

// CancelOutput reports whether an account was removed.
type CancelOutput struct {
	Deleted bool
}

// VerificationUsecase drives the email verification lifecycle after registration.
type VerificationUsecase interface {
	// VerifyEmail consumes a verification token and signs the user in.
	VerifyEmail(ctx context.Context, token string) (*SessionOutput, error)
	ResendVerification(ctx context.Context, input ResendInput) (*ResendOutput, error)
	// CancelRegistration deletes an unverified account. Unknown tokens succeed.
	CancelRegistration(ctx context.Context, token string) (*CancelOutput, error)
}
