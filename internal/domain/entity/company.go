package entity

import "time"

// Company representa una organización/tenant del sistema (multi-tenant).
// Los datos fiscales (CUIT, certificado, ambiente) viven en FiscalConfig.
type Company struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
