package errors

import (
	"maps"

	"authcore/internal/errors"
)

// Body builds the JSON error object for err. Every body has an "error" field.
// Errors that are not AppErrors collapse into ErrInternalError.
func Body(err error) (status int, body map[string]any) {
	var appErr AppError
	if !errors.As(err, &appErr) {
		appErr = ErrInternalError
	}

	body = map[string]any{
		"error": appErr.Message(),
		"code":  appErr.ErrorCode(),
	}
	if details := appErr.Details(); details != "" {
		body["details"] = details
	}
	if withExtra, ok := appErr.(ExtraFielder); ok {
		maps.Copy(body, withExtra.Extra())
	}

	return appErr.HTTPCode(), body
}
