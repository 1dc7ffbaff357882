package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shade-pay/backend/internal/auth"
	"github.com/shade-pay/backend/internal/config"
	"github.com/shade-pay/backend/internal/http/dto"
	"go.uber.org/zap"
)

// AuthHandler issues bearer tokens binding a caller to a ledger address.
// Identity proofing (wallet signatures, SSO, ...) lives outside this
// service; the API key gates issuance per deployment.
type AuthHandler struct {
	cfg *config.Config
	log *zap.Logger
}

func NewAuthHandler(cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, log: log}
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.IssueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address is required"})
	}
	if h.cfg.AuthAPIKey != "" && req.APIKey != h.cfg.AuthAPIKey {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid api key"})
	}

	expiration := time.Duration(h.cfg.JWTExpiration) * time.Hour
	token, err := auth.GenerateJWT(h.cfg.JWTSecret, req.Address, expiration)
	if err != nil {
		h.log.Error("failed to sign token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.TokenResponse{Token: token})
}
