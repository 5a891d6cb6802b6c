package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ventaro/pos-api/internal/application/billing"
	"github.com/ventaro/pos-api/internal/application/dto"
	"github.com/ventaro/pos-api/internal/domain"
	"github.com/ventaro/pos-api/internal/domain/entity"
)

// VoucherHandler maneja las peticiones HTTP de facturación electrónica.
type VoucherHandler struct {
	uc *billing.Service
}

// NewVoucherHandler construye el handler.
func NewVoucherHandler(uc *billing.Service) *VoucherHandler {
	return &VoucherHandler{uc: uc}
}

// IssueInvoice congela el snapshot de la venta, crea la factura y dispara el
// intento de autorización. La respuesta siempre trae el comprobante en estado
// terminal: 201 si quedó AUTHORIZED, 422 si quedó REJECTED (el detalle del
// rechazo viaja en el propio comprobante).
// POST /api/v1/sales/:id/invoice
func (h *VoucherHandler) IssueInvoice(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	saleID := c.Params("id")

	// Cuerpo opcional: sin body se asume el modo histórico.
	var in dto.IssueInvoiceRequest
	_ = c.BodyParser(&in)
	mode := in.PricingMode
	if mode == "" {
		mode = billing.PricingHistoric
	}
	if mode != billing.PricingHistoric && mode != billing.PricingCurrent {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "pricing_mode inválido"})
	}

	voucher, err := h.uc.BuildInvoiceFromSale(c.Context(), companyID, saleID, userID, mode)
	if err != nil {
		return voucherError(c, err)
	}
	outcome, err := h.uc.RequestCAE(c.Context(), companyID, voucher.ID)
	if err != nil {
		return voucherError(c, err)
	}
	status := fiber.StatusCreated
	if !outcome.Authorized() {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(dto.ToVoucherResponse(outcome.Voucher, outcome.Failure))
}

// IssueCreditNote emite la nota de crédito total que anula la factura
// autorizada de la venta y, si ARCA la autoriza, anula la venta.
// POST /api/v1/sales/:id/credit-note
func (h *VoucherHandler) IssueCreditNote(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	saleID := c.Params("id")

	var in dto.IssueCreditNoteRequest
	_ = c.BodyParser(&in)

	invoice, err := h.authorizedInvoice(c, companyID, saleID)
	if err != nil {
		return voucherError(c, err)
	}
	note, err := h.uc.BuildCreditNoteFromInvoice(c.Context(), companyID, invoice.ID, userID, in.Reason)
	if err != nil {
		return voucherError(c, err)
	}
	outcome, err := h.uc.RequestCreditNoteCAE(c.Context(), companyID, note.ID)
	if err != nil {
		return voucherError(c, err)
	}
	status := fiber.StatusCreated
	if !outcome.Authorized() {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(dto.ToVoucherResponse(outcome.Voucher, outcome.Failure))
}

// GetByID obtiene un comprobante.
// GET /api/v1/vouchers/:id
func (h *VoucherHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	voucher, err := h.uc.GetVoucher(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return voucherError(c, err)
	}
	return c.JSON(dto.ToVoucherResponse(voucher, ""))
}

// GetQR devuelve la URL de verificación pública del comprobante autorizado.
// GET /api/v1/vouchers/:id/qr
func (h *VoucherHandler) GetQR(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	url, err := h.uc.QRURL(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return voucherError(c, err)
	}
	if url == "" {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "QR_UNAVAILABLE", Message: "el comprobante no está autorizado"})
	}
	return c.JSON(dto.QRResponse{URL: url})
}

// ListBySale lista los comprobantes de una venta.
// GET /api/v1/sales/:id/vouchers
func (h *VoucherHandler) ListBySale(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	vouchers, err := h.uc.ListSaleVouchers(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return voucherError(c, err)
	}
	out := make([]*dto.VoucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		out = append(out, dto.ToVoucherResponse(v, ""))
	}
	return c.JSON(out)
}

// authorizedInvoice localiza la única factura AUTORIZADA de la venta. Más de
// una factura autorizada es un estado inconsistente (la emisión las bloquea):
// antes que anular una al azar, se rechaza la operación.
func (h *VoucherHandler) authorizedInvoice(c *fiber.Ctx, companyID, saleID string) (*entity.Voucher, error) {
	vouchers, err := h.uc.ListSaleVouchers(c.Context(), companyID, saleID)
	if err != nil {
		return nil, err
	}
	var invoice *entity.Voucher
	for _, v := range vouchers {
		if v.Kind != entity.VoucherKindInvoice || !v.IsAuthorized() {
			continue
		}
		if invoice != nil {
			return nil, domain.ErrConflict
		}
		invoice = v
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

// voucherError traduce errores de dominio a códigos HTTP.
func voucherError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrSaleNotConfirmed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SALE_NOT_CONFIRMED", Message: "la venta no está confirmada"})
	case errors.Is(err, domain.ErrSaleAlreadyVoided):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SALE_VOIDED", Message: "la venta ya tiene una nota de crédito"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el comprobante no admite esta operación"})
	case errors.Is(err, domain.ErrFiscalDisabled):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "FISCAL_DISABLED", Message: "facturación electrónica deshabilitada"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
