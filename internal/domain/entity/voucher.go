package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del comprobante fiscal. El ciclo es estrictamente
// DRAFT → REQUESTED → {AUTHORIZED | REJECTED}; de los terminales no se sale.
// Un comprobante rechazado no se reintenta en el lugar: para volver a
// intentar se crea un comprobante nuevo, preservando la auditoría completa.
const (
	VoucherStatusDraft      = "DRAFT"
	VoucherStatusRequested  = "REQUESTED"
	VoucherStatusAuthorized = "AUTHORIZED"
	VoucherStatusRejected   = "REJECTED"
)

// Clases de comprobante.
const (
	VoucherKindInvoice    = "INVOICE"
	VoucherKindCreditNote = "CREDIT_NOTE"
)

// Voucher representa una factura o nota de crédito electrónica.
// Invariante: Status == AUTHORIZED ⇔ CAE != nil y SequenceNumber != nil.
// Una vez autorizado es inmutable, salvo ser referenciado por una nota de
// crédito posterior.
type Voucher struct {
	ID        string
	CompanyID string
	SaleID    string
	Kind      string // VoucherKindInvoice | VoucherKindCreditNote
	Type      string // tipo simbólico, ver arca.Voucher* (FACTURA_B, NOTA_CREDITO_C, ...)
	Status    string
	IssuedBy  string // usuario que disparó la emisión

	PosNumber      int
	SequenceNumber *int64     // número asignado por ARCA; nil hasta autorizar
	CAE            *string    // código de autorización; nil hasta autorizar
	CAEDueDate     *time.Time // vencimiento del CAE

	NetAmount   decimal.Decimal
	VATAmount   decimal.Decimal
	TotalAmount decimal.Decimal

	// Items es el snapshot congelado al crear el comprobante; nunca se
	// recalcula desde la venta viva.
	Items []VoucherItem

	// Receptor tal como viajó en la solicitud.
	ReceiverDocType   string
	ReceiverDocNumber string

	// Auditoría: request y response crudos de cada intento de autorización,
	// tal como fueron al/del servicio (o el texto del error).
	RawRequest  string
	RawResponse string

	// Solo para notas de crédito.
	RelatedVoucherID string // factura original anulada
	Reason           string // motivo en texto libre

	IssuedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoucherItem es una línea del snapshot del comprobante.
type VoucherItem struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
}

// IsAuthorized indica si el comprobante quedó legalmente emitido.
func (v *Voucher) IsAuthorized() bool {
	return v.Status == VoucherStatusAuthorized && v.CAE != nil && v.SequenceNumber != nil
}

// IsTerminal indica si el comprobante ya no admite transiciones.
func (v *Voucher) IsTerminal() bool {
	return v.Status == VoucherStatusAuthorized || v.Status == VoucherStatusRejected
}
