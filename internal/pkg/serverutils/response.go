package serverutils

import (
	"errors"
	"net/http"
	"strings"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(status int, message string) Response {
	return Response{
		Status:  status,
		Code:    strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		Message: message,
	}
}

func appErrorResponse(err apperror.AppError) Response {
	resp := Response{
		Status:  err.HTTPStatus(),
		Code:    err.ErrorCode(),
		Message: apperror.PublicMessage(err),
	}
	if d, ok := err.(apperror.Detailed); ok {
		resp.Details = d.Details()
	}
	return resp
}

// NewErrorHandler maps handler errors onto the response envelope. Domain
// errors keep their status and code; anything unrecognised is logged and
// answered with a generic 500.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var appErr apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.Internal(ctx.Method()+" "+ctx.Path(), err)
		}
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}
		return ctx.Status(appErr.HTTPStatus()).JSON(appErrorResponse(appErr))
	}
}
