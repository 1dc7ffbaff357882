package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shade-pay/backend/internal/http/dto"
	"github.com/shade-pay/backend/internal/services"
)

// respondError maps engine errors to HTTP statuses. Unknown errors are
// masked as 500 to avoid leaking internals.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvoiceNotFound),
		errors.Is(err, services.ErrMerchantNotFound),
		errors.Is(err, services.ErrAccountNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrTokenNotAccepted):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyInitialized),
		errors.Is(err, services.ErrNotInitialized),
		errors.Is(err, services.ErrMerchantAlreadyRegistered),
		errors.Is(err, services.ErrContractPaused),
		errors.Is(err, services.ErrContractNotPaused),
		errors.Is(err, services.ErrInvalidInvoiceStatus),
		errors.Is(err, services.ErrRefundPeriodExpired),
		errors.Is(err, services.ErrAccountRestricted),
		errors.Is(err, services.ErrAccountNotSet),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrReentrancy):
		status = fiber.StatusConflict
	}

	if status != fiber.StatusInternalServerError {
		msg = err.Error()
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg})
}
