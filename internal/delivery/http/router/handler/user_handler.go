package handler

import (
	"net/http"

	deliverycontext "authcore/internal/delivery/context"
	"authcore/internal/delivery/http/response"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler serves the authenticated account endpoints.
type UserHandler struct {
	profile  usecase.ProfileUsecase
	sessions usecase.SessionUsecase
	cookies  *response.SessionCookies
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(profile usecase.ProfileUsecase, sessions usecase.SessionUsecase, cookies *response.SessionCookies) *UserHandler {
	return &UserHandler{
		profile:  profile,
		sessions: sessions,
		cookies:  cookies,
	}
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return domainerrors.ErrNotAuthenticated
	}

	user, err := h.profile.Me(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, response.ProfileResponse{User: user.Profile()})
}

// Sessions lists the caller's active sessions, marking the one making the request.
func (h *UserHandler) Sessions(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return domainerrors.ErrNotAuthenticated
	}

	ctx := c.Request().Context()

	// A valid access token can outlive its account
	if _, err := h.profile.Me(ctx, userID); err != nil {
		return errors.WithStack(err)
	}

	sessions, err := h.sessions.ListSessions(ctx, userID, response.Cookie(c, response.RefreshTokenCookie))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, response.SessionsResponse{
		Sessions: sessions,
		Total:    len(sessions),
	})
}

// RevokeSession deletes one of the caller's sessions by ID.
func (h *UserHandler) RevokeSession(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return domainerrors.ErrNotAuthenticated
	}

	if err := h.sessions.RevokeSession(c.Request().Context(), userID, c.QueryParam("sessionId")); err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse{Success: true})
}

// RevokeAllSessions signs the caller out of every device, this one included.
func (h *UserHandler) RevokeAllSessions(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return domainerrors.ErrNotAuthenticated
	}

	ctx := c.Request().Context()

	active, err := h.sessions.CountActive(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.sessions.RevokeAll(ctx, userID); err != nil {
		return errors.WithStack(err)
	}

	h.cookies.Clear(c, http.SameSiteStrictMode)

	return c.JSON(http.StatusOK, response.RevokeAllResponse{
		Message: msgSignedOutEverywhere,
		Revoked: active,
	})
}
