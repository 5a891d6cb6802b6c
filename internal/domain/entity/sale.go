package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusOpen      = "OPEN"
	SaleStatusConfirmed = "CONFIRMED"
	SaleStatusVoided    = "VOIDED"
)

// Sale representa una venta de mostrador ya registrada por el POS.
// El core fiscal la lee para congelar el snapshot del comprobante; nunca la
// recalcula. Solo pasa a VOIDED cuando su nota de crédito queda AUTORIZADA.
type Sale struct {
	ID         string
	CompanyID  string
	CustomerID string // vacío = consumidor final
	Number     string // numeración interna del POS, no la fiscal
	PosNumber  int    // punto de venta habilitado ante ARCA
	Status     string
	Total      decimal.Decimal
	CreatedBy  string
	SoldAt     time.Time
	VoidedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaleItem es una línea de venta con el precio efectivamente cobrado.
// VATRate es un override de alícuota a nivel línea; nil delega en el producto.
type SaleItem struct {
	ID          string
	SaleID      string
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal // precio unitario histórico (al momento de la venta)
	LineTotal   decimal.Decimal
	VATRate     *decimal.Decimal
}
