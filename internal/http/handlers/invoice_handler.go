package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shade-pay/backend/internal/http/dto"
	"github.com/shade-pay/backend/internal/middleware"
	"github.com/shade-pay/backend/internal/models"
	"github.com/shade-pay/backend/internal/services"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	log            *zap.Logger
}

func NewInvoiceHandler(invoiceService *services.InvoiceService, log *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, log: log}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "token is required"})
	}
	invoice, err := h.invoiceService.Create(c.Context(), middleware.GetCaller(c), req.Description, req.Amount, req.Token)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: invoice})
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}
	invoice, err := h.invoiceService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: invoice})
}

// List handles GET /invoices?status=&merchant=&min_amount=&max_amount=.
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var f models.InvoiceFilter
	if v := c.Query("status"); v != "" {
		f.Status = &v
	}
	if v := c.Query("merchant"); v != "" {
		f.Merchant = &v
	}
	if v := c.Query("min_amount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid min_amount"})
		}
		f.MinAmount = &n
	}
	if v := c.Query("max_amount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid max_amount"})
		}
		f.MaxAmount = &n
	}
	invoices, err := h.invoiceService.List(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: invoices})
}

// Pay handles POST /invoices/:id/pay. The caller is the payer.
func (h *InvoiceHandler) Pay(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}
	if err := h.invoiceService.Pay(c.Context(), middleware.GetCaller(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Void handles POST /invoices/:id/void.
func (h *InvoiceHandler) Void(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}
	if err := h.invoiceService.Void(c.Context(), middleware.GetCaller(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Refund handles POST /invoices/:id/refund. Without an amount the whole
// remaining balance is refunded.
func (h *InvoiceHandler) Refund(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}
	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	caller := middleware.GetCaller(c)
	if req.Amount != nil {
		err = h.invoiceService.RefundPartial(c.Context(), caller, id, *req.Amount)
	} else {
		err = h.invoiceService.Refund(c.Context(), caller, id)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetEvents handles GET /invoices/:id/events.
func (h *InvoiceHandler) GetEvents(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}
	logs, err := h.invoiceService.GetEvents(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}
