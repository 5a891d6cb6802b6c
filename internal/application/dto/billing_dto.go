package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/ventaro/pos-api/internal/domain/entity"
)

// IssueInvoiceRequest cuerpo de POST /api/v1/sales/:id/invoice.
// PricingMode: "HISTORIC" (default) usa los precios de la venta; "CURRENT"
// re-resuelve el precio vigente del producto.
type IssueInvoiceRequest struct {
	PricingMode string `json:"pricing_mode"`
}

// IssueCreditNoteRequest cuerpo de POST /api/v1/sales/:id/credit-note.
type IssueCreditNoteRequest struct {
	Reason string `json:"reason"`
}

// VoucherItemResponse línea del snapshot del comprobante.
type VoucherItemResponse struct {
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
}

// VoucherResponse vista del comprobante fiscal.
type VoucherResponse struct {
	ID             string                `json:"id"`
	SaleID         string                `json:"sale_id"`
	Kind           string                `json:"kind"`
	Type           string                `json:"type"`
	Status         string                `json:"status"`
	Failure        string                `json:"failure,omitempty"`
	PosNumber      int                   `json:"pos_number"`
	SequenceNumber *int64                `json:"sequence_number,omitempty"`
	CAE            *string               `json:"cae,omitempty"`
	CAEDueDate     *time.Time            `json:"cae_due_date,omitempty"`
	NetAmount      decimal.Decimal       `json:"net_amount"`
	VATAmount      decimal.Decimal       `json:"vat_amount"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	Items          []VoucherItemResponse `json:"items"`
	RelatedID      string                `json:"related_voucher_id,omitempty"`
	Reason         string                `json:"reason,omitempty"`
	IssuedAt       time.Time             `json:"issued_at"`
	CreatedAt      time.Time             `json:"created_at"`
}

// QRResponse URL de verificación del comprobante autorizado.
type QRResponse struct {
	URL string `json:"url"`
}

// FiscalConfigResponse vista de la configuración fiscal del tenant. Nunca
// expone el material criptográfico, solo si está cargado.
type FiscalConfigResponse struct {
	Enabled        bool            `json:"enabled"`
	Environment    string          `json:"environment"`
	CUIT           string          `json:"cuit"`
	TaxpayerType   string          `json:"taxpayer_type"`
	DefaultVATRate decimal.Decimal `json:"default_vat_rate"`
	HasCredentials bool            `json:"has_credentials"`
}

// ToFiscalConfigResponse proyecta la configuración sin certificados ni claves.
func ToFiscalConfigResponse(c *entity.FiscalConfig) *FiscalConfigResponse {
	if c == nil {
		return nil
	}
	return &FiscalConfigResponse{
		Enabled:        c.Enabled,
		Environment:    c.Environment,
		CUIT:           c.CUIT,
		TaxpayerType:   c.TaxpayerType,
		DefaultVATRate: c.DefaultVATRate,
		HasCredentials: c.HasCredentials(),
	}
}

// ToVoucherResponse proyecta la entidad al DTO de respuesta.
func ToVoucherResponse(v *entity.Voucher, failure string) *VoucherResponse {
	if v == nil {
		return nil
	}
	items := make([]VoucherItemResponse, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, VoucherItemResponse{
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
			VATRate:     it.VATRate,
			NetAmount:   it.NetAmount,
			VATAmount:   it.VATAmount,
		})
	}
	return &VoucherResponse{
		ID:             v.ID,
		SaleID:         v.SaleID,
		Kind:           v.Kind,
		Type:           v.Type,
		Status:         v.Status,
		Failure:        failure,
		PosNumber:      v.PosNumber,
		SequenceNumber: v.SequenceNumber,
		CAE:            v.CAE,
		CAEDueDate:     v.CAEDueDate,
		NetAmount:      v.NetAmount,
		VATAmount:      v.VATAmount,
		TotalAmount:    v.TotalAmount,
		Items:          items,
		RelatedID:      v.RelatedVoucherID,
		Reason:         v.Reason,
		IssuedAt:       v.IssuedAt,
		CreatedAt:      v.CreatedAt,
	}
}
