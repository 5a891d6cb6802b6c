package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ventaro/pos-api/internal/application/billing"
	"github.com/ventaro/pos-api/internal/application/dto"
)

// FiscalConfigHandler expone la configuración fiscal del tenant (solo lectura;
// la carga y edición pertenecen al flujo de ajustes, fuera de esta API).
type FiscalConfigHandler struct {
	uc *billing.Service
}

// NewFiscalConfigHandler construye el handler.
func NewFiscalConfigHandler(uc *billing.Service) *FiscalConfigHandler {
	return &FiscalConfigHandler{uc: uc}
}

// Get devuelve la configuración visible del tenant, sin material criptográfico.
// GET /api/v1/fiscal/config
func (h *FiscalConfigHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	cfg, err := h.uc.FiscalProfile(c.Context(), companyID)
	if err != nil {
		return voucherError(c, err)
	}
	return c.JSON(dto.ToFiscalConfigResponse(cfg))
}
