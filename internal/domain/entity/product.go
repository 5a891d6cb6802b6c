package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU vendible.
// VATRate es la alícuota de IVA propia del producto; nil delega en la
// categoría y, en última instancia, en la alícuota por defecto del tenant.
type Product struct {
	ID         string
	CompanyID  string
	CategoryID string // vacío si no tiene categoría
	SKU        string // código único por empresa
	Name       string
	Price      decimal.Decimal  // precio de venta vigente
	VATRate    *decimal.Decimal // nil = heredar de la categoría
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Category representa una categoría de productos. Puede fijar una alícuota de
// IVA que heredan los productos sin alícuota propia.
type Category struct {
	ID        string
	CompanyID string
	Name      string
	VATRate   *decimal.Decimal // nil = sin alícuota definida
	CreatedAt time.Time
	UpdatedAt time.Time
}
