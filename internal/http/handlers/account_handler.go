package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shade-pay/backend/internal/http/dto"
	"github.com/shade-pay/backend/internal/middleware"
	"github.com/shade-pay/backend/internal/services"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accountService *services.AccountService
	log            *zap.Logger
}

func NewAccountHandler(accountService *services.AccountService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, log: log}
}

// Open handles POST /accounts. Creates the caller's escrow account.
func (h *AccountHandler) Open(c *fiber.Ctx) error {
	account, err := h.accountService.Open(c.Context(), middleware.GetCaller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: account})
}

// Get handles GET /accounts/:address.
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	account, err := h.accountService.Get(c.Context(), c.Params("address"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: account})
}

// AddToken handles POST /accounts/:address/tokens.
func (h *AccountHandler) AddToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "token is required"})
	}
	if err := h.accountService.AddToken(c.Context(), middleware.GetCaller(c), c.Params("address"), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// HasToken handles GET /accounts/:address/tokens/:token.
func (h *AccountHandler) HasToken(c *fiber.Ctx) error {
	has, err := h.accountService.HasToken(c.Context(), c.Params("address"), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BoolResponse{Result: has})
}

// GetBalance handles GET /accounts/:address/balance/:token.
func (h *AccountHandler) GetBalance(c *fiber.Ctx) error {
	token := c.Params("token")
	balance, err := h.accountService.GetBalance(c.Context(), c.Params("address"), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BalanceResponse{Token: token, Balance: balance})
}

// GetBalances handles GET /accounts/:address/balances.
func (h *AccountHandler) GetBalances(c *fiber.Ctx) error {
	balances, err := h.accountService.GetBalances(c.Context(), c.Params("address"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: balances})
}

// Withdraw handles POST /accounts/:address/withdraw. Owner only.
func (h *AccountHandler) Withdraw(c *fiber.Ctx) error {
	var req dto.WithdrawRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" || req.Recipient == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "token and recipient are required"})
	}
	err := h.accountService.WithdrawTo(c.Context(), middleware.GetCaller(c), c.Params("address"), req.Token, req.Amount, req.Recipient)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Refund handles POST /accounts/:address/refund. Manager only.
func (h *AccountHandler) Refund(c *fiber.Ctx) error {
	var req dto.AccountRefundRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" || req.Recipient == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "token and recipient are required"})
	}
	err := h.accountService.Refund(c.Context(), middleware.GetCaller(c), c.Params("address"), req.Token, req.Amount, req.Recipient)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Restrict handles PUT /accounts/:address/restricted. Manager only.
func (h *AccountHandler) Restrict(c *fiber.Ctx) error {
	var req dto.RestrictRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := h.accountService.Restrict(c.Context(), middleware.GetCaller(c), c.Params("address"), req.Restricted); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// IsRestricted handles GET /accounts/:address/restricted.
func (h *AccountHandler) IsRestricted(c *fiber.Ctx) error {
	restricted, err := h.accountService.IsRestricted(c.Context(), c.Params("address"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BoolResponse{Result: restricted})
}
