// Package handler contains the HTTP handlers for the application.
package handler

import (
	"net/http"

	"authcore/internal/delivery/http/response"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Client-facing outcome messages.
const (
	msgRegistered      = "Registration successful. Please check your email to verify your account."
	msgLoggedOut       = "Logged out successfully"
	msgEmailVerified   = "Email verified successfully"
	msgResendGeneric   = "If the email exists, a verification link has been sent."
	msgResendSent      = "Verification email sent. Please check your inbox."
	msgCancelGeneric   = "Registration cancelled."
	msgCancelConfirmed = "Registration cancelled successfully."

	msgSignedOutEverywhere = "Signed out of all sessions."
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

type resendRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Token string `json:"token"`
}

type cancelRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthHandler serves the email/password and verification actions.
type AuthHandler struct {
	auth         usecase.AuthUsecase
	verification usecase.VerificationUsecase
	cookies      *response.SessionCookies
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(auth usecase.AuthUsecase, verification usecase.VerificationUsecase, cookies *response.SessionCookies) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		verification: verification,
		cookies:      cookies,
	}
}

// bind decodes the JSON body into req and validates it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}

	return errors.WithStack(c.Validate(req))
}

// Login handles the user login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.auth.Login(c.Request().Context(), usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookies.Set(c, out.Tokens, http.SameSiteLaxMode)

	return c.JSON(http.StatusOK, response.UserResponse{User: out.User.Public()})
}

// Register creates an account; the caller is not signed in until verification.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.auth.Register(c.Request().Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusCreated, response.RegisterResponse{
		User:    out.User.Public(),
		Message: msgRegistered,
	})
}

// Logout always succeeds. The session row is deleted in the background.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.auth.Logout(c.Request().Context(), response.Cookie(c, response.RefreshTokenCookie))
	h.cookies.Clear(c, http.SameSiteStrictMode)

	return response.Message(c, msgLoggedOut)
}

// Refresh rotates the refresh token cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	out, err := h.auth.Refresh(c.Request().Context(), response.Cookie(c, response.RefreshTokenCookie))
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidToken) || errors.Is(err, domainerrors.ErrInvalidTokenType) {
			h.cookies.Clear(c, http.SameSiteLaxMode)
		}

		return errors.WithStack(err)
	}

	h.cookies.Set(c, out.Tokens, http.SameSiteLaxMode)

	return c.JSON(http.StatusOK, response.UserResponse{User: out.User.Public()})
}

// VerifyEmail consumes the emailed token and signs the user in.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	out, err := h.verification.VerifyEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookies.Set(c, out.Tokens, http.SameSiteLaxMode)

	return c.JSON(http.StatusOK, response.VerifyResponse{
		Success: true,
		Message: msgEmailVerified,
		User:    out.User.Public(),
	})
}

// ResendVerification never tells unknown accounts apart from known ones by status.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req resendRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.verification.ResendVerification(c.Request().Context(), usecase.ResendInput{
		Email: req.Email,
		Token: req.Token,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if !out.Sent {
		return response.Message(c, msgResendGeneric)
	}

	return response.Message(c, msgResendSent)
}

// CancelRegistration deletes an unverified account and is idempotent.
func (h *AuthHandler) CancelRegistration(c echo.Context) error {
	var req cancelRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.verification.CancelRegistration(c.Request().Context(), req.Token)
	if err != nil {
		return errors.WithStack(err)
	}

	if !out.Deleted {
		return response.Message(c, msgCancelGeneric)
	}

	return response.Message(c, msgCancelConfirmed)
}
