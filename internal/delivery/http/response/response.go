// Package response renders the JSON bodies and cookies of the HTTP API.
package response

import (
	"net/http"

	"authcore/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// UserResponse wraps the public projection of a user.
type UserResponse struct {
	User entity.PublicUser `json:"user"`
}

// RegisterResponse is returned by registration.
type RegisterResponse struct {
	User    entity.PublicUser `json:"user"`
	Message string            `json:"message"`
}

// VerifyResponse is returned by a successful email verification.
type VerifyResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	User    entity.PublicUser `json:"user"`
}

// ProfileResponse wraps the owner-facing projection of a user.
type ProfileResponse struct {
	User entity.Profile `json:"user"`
}

// SessionsResponse lists the caller's active sessions.
type SessionsResponse struct {
	Sessions []entity.SessionInfo `json:"sessions"`
	Total    int                  `json:"total"`
}

// RevokeAllResponse reports how many active sessions were signed out.
type RevokeAllResponse struct {
	Message string `json:"message"`
	Revoked int    `json:"revoked"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// SuccessResponse acknowledges an operation without further data.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// Message writes {"message": msg} with a 200 status.
func Message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: msg})
}
