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

type MerchantHandler struct {
	merchantService *services.MerchantService
	log             *zap.Logger
}

func NewMerchantHandler(merchantService *services.MerchantService, log *zap.Logger) *MerchantHandler {
	return &MerchantHandler{merchantService: merchantService, log: log}
}

func parseID(c *fiber.Ctx, name string) (uint64, error) {
	return strconv.ParseUint(c.Params(name), 10, 64)
}

// Register handles POST /merchants. The caller registers itself.
func (h *MerchantHandler) Register(c *fiber.Ctx) error {
	merchant, err := h.merchantService.Register(c.Context(), middleware.GetCaller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: merchant})
}

// Get handles GET /merchants/:id.
func (h *MerchantHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid merchant id"})
	}
	merchant, err := h.merchantService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: merchant})
}

// List handles GET /merchants?active=&verified=.
func (h *MerchantHandler) List(c *fiber.Ctx) error {
	var f models.MerchantFilter
	if v := c.Query("active"); v != "" {
		active := v == "true"
		f.IsActive = &active
	}
	if v := c.Query("verified"); v != "" {
		verified := v == "true"
		f.IsVerified = &verified
	}
	merchants, err := h.merchantService.List(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: merchants})
}

// Verify handles POST /merchants/:id/verify. Admin-only.
func (h *MerchantHandler) Verify(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid merchant id"})
	}
	var req dto.VerifyMerchantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := h.merchantService.Verify(c.Context(), middleware.GetCaller(c), id, req.Status); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// IsVerified handles GET /merchants/:id/verified.
func (h *MerchantHandler) IsVerified(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid merchant id"})
	}
	verified, err := h.merchantService.IsVerified(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BoolResponse{Result: verified})
}

// IsMerchant handles GET /merchants/by-address/:address.
func (h *MerchantHandler) IsMerchant(c *fiber.Ctx) error {
	registered, err := h.merchantService.IsMerchant(c.Context(), c.Params("address"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BoolResponse{Result: registered})
}

// SetAccount handles POST /merchants/account. Links the caller's escrow
// account to its merchant record.
func (h *MerchantHandler) SetAccount(c *fiber.Ctx) error {
	var req dto.SetAccountRequest
	if err := c.BodyParser(&req); err != nil || req.Account == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "account is required"})
	}
	if err := h.merchantService.SetAccount(c.Context(), middleware.GetCaller(c), req.Account); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
