package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONResponse writes data as-is. Endpoints here return flat records, no envelope.
func JSONResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, data)
}

// SuccessResponse writes a 200 with data.
func SuccessResponse(c echo.Context, data interface{}) error {
	return JSONResponse(c, http.StatusOK, data)
}

// ValidationErrorResponse writes a 400 listing every failed field.
func ValidationErrorResponse(c echo.Context, errs []ValidationError) error {
	return JSONResponse(c, http.StatusBadRequest, ErrorBody{
		Error:   "Invalid request",
		Code:    CodeValidation,
		Details: errs,
	})
}

// InternalServerErrorResponse writes a generic 500.
func InternalServerErrorResponse(c echo.Context) error {
	return JSONResponse(c, http.StatusInternalServerError, ErrorBody{
		Error: "Internal server error",
		Code:  CodeInternal,
	})
}

// AppErrorResponse writes an application error; anything else becomes a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError && appErr.Status != http.StatusBadGateway {
			return InternalServerErrorResponse(c)
		}
		return JSONResponse(c, appErr.Status, ErrorBody{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Field:  appErr.Field,
			Params: appErr.Params,
		})
	}
	return InternalServerErrorResponse(c)
}
