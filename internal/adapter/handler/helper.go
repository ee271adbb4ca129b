package handler

import (
	stdErrors "errors"

	"github.com/labstack/echo/v4"

	"github.com/thinkingjet/SpeakSync/errors"
)

// respondAppError writes an AppError as a JSON response with its
// mapped status code. Non-AppError values become a 500.
func respondAppError(c echo.Context, err error) error {
	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) {
		appErr = errors.ErrInternal(err)
	}
	return c.JSON(appErr.HTTPCode, appErr)
}
