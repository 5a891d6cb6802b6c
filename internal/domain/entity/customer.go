package entity

import "time"

// Customer representa un cliente de la empresa (receptor de comprobantes).
// DocType usa los símbolos del catálogo ARCA ("CUIT", "DNI", etc.); vacío
// significa consumidor final no identificado (99/0 en el comprobante y el QR).
type Customer struct {
	ID           string
	CompanyID    string
	Name         string
	DocType      string
	DocNumber    string
	VATCondition string // condición frente al IVA del receptor
	Email        string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
