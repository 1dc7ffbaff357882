package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shade-pay/backend/internal/http/dto"
	"github.com/shade-pay/backend/internal/middleware"
	"github.com/shade-pay/backend/internal/services"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService  *services.AdminService
	accessService *services.AccessService
	log           *zap.Logger
}

func NewAdminHandler(adminService *services.AdminService, accessService *services.AccessService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, accessService: accessService, log: log}
}

// Initialize handles POST /admin/initialize. Only possible once; no
// bearer token is required because no admin exists before this call.
func (h *AdminHandler) Initialize(c *fiber.Ctx) error {
	var req dto.InitializeRequest
	if err := c.BodyParser(&req); err != nil || req.Admin == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "admin is required"})
	}
	if err := h.adminService.Initialize(c.Context(), req.Admin); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetAdmin handles GET /admin.
func (h *AdminHandler) GetAdmin(c *fiber.Ctx) error {
	admin, err := h.adminService.GetAdmin(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"admin": admin})
}

// Pause handles POST /admin/pause.
func (h *AdminHandler) Pause(c *fiber.Ctx) error {
	if err := h.adminService.Pause(c.Context(), middleware.GetCaller(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Unpause handles POST /admin/unpause.
func (h *AdminHandler) Unpause(c *fiber.Ctx) error {
	if err := h.adminService.Unpause(c.Context(), middleware.GetCaller(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// IsPaused handles GET /admin/paused.
func (h *AdminHandler) IsPaused(c *fiber.Ctx) error {
	paused, err := h.adminService.IsPaused(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BoolResponse{Result: paused})
}

// AddAcceptedToken handles POST /admin/tokens.
func (h *AdminHandler) AddAcceptedToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "token is required"})
	}
	if err := h.adminService.AddAcceptedToken(c.Context(), middleware.GetCaller(c), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// RemoveAcceptedToken handles DELETE /admin/tokens/:token.
func (h *AdminHandler) RemoveAcceptedToken(c *fiber.Ctx) error {
	token := c.Params("token")
	if err := h.adminService.RemoveAcceptedToken(c.Context(), middleware.GetCaller(c), token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// IsAcceptedToken handles GET /admin/tokens/:token.
func (h *AdminHandler) IsAcceptedToken(c *fiber.Ctx) error {
	accepted, err := h.adminService.IsAcceptedToken(c.Context(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BoolResponse{Result: accepted})
}

// SetFee handles PUT /admin/fees.
func (h *AdminHandler) SetFee(c *fiber.Ctx) error {
	var req dto.SetFeeRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "token is required"})
	}
	if err := h.adminService.SetFee(c.Context(), middleware.GetCaller(c), req.Token, req.FeeBPS); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetFee handles GET /admin/fees/:token.
func (h *AdminHandler) GetFee(c *fiber.Ctx) error {
	token := c.Params("token")
	bps, err := h.adminService.GetFee(c.Context(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FeeResponse{Token: token, FeeBPS: bps})
}

// Mint handles POST /admin/mint.
func (h *AdminHandler) Mint(c *fiber.Ctx) error {
	var req dto.MintRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" || req.To == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "token and to are required"})
	}
	if err := h.adminService.Mint(c.Context(), middleware.GetCaller(c), req.Token, req.To, req.Amount); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GrantRole handles POST /admin/roles/grant.
func (h *AdminHandler) GrantRole(c *fiber.Ctx) error {
	var req dto.RoleRequest
	if err := c.BodyParser(&req); err != nil || req.User == "" || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "user and role are required"})
	}
	if err := h.accessService.GrantRole(c.Context(), middleware.GetCaller(c), req.User, req.Role); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// RevokeRole handles POST /admin/roles/revoke.
func (h *AdminHandler) RevokeRole(c *fiber.Ctx) error {
	var req dto.RoleRequest
	if err := c.BodyParser(&req); err != nil || req.User == "" || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "user and role are required"})
	}
	if err := h.accessService.RevokeRole(c.Context(), middleware.GetCaller(c), req.User, req.Role); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// HasRole handles GET /roles/:user/:role.
func (h *AdminHandler) HasRole(c *fiber.Ctx) error {
	has, err := h.accessService.HasRole(c.Context(), c.Params("user"), c.Params("role"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BoolResponse{Result: has})
}
