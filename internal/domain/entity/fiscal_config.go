package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ambientes del servicio fiscal ARCA.
const (
	EnvHomologation = "HOMOLOGATION" // wswhomo/wsaahomo: ambiente de pruebas
	EnvProduction   = "PRODUCTION"
)

// FiscalConfig es la configuración de facturación electrónica de un tenant.
// Una por Company; la muta solo el flujo de ajustes del tenant, el core
// fiscal la lee. El certificado y la clave se aceptan tal como el operador
// los pega (con o sin marcadores PEM); la normalización ocurre al usarlos.
type FiscalConfig struct {
	ID             string
	CompanyID      string
	Enabled        bool
	Environment    string // EnvHomologation | EnvProduction
	CUIT           string // CUIT del emisor, con o sin guiones
	CertificatePEM string
	PrivateKeyPEM  string
	// CredentialP12 bundle .p12/.pfx en base64, alternativa a pegar los PEM;
	// si está presente tiene prioridad sobre CertificatePEM/PrivateKeyPEM.
	CredentialP12 string
	Passphrase    string // passphrase de la clave privada o del bundle; vacío si no está cifrada
	TaxpayerType  string // arca.TaxpayerResponsableInscripto | arca.TaxpayerMonotributo | arca.TaxpayerOther

	// DefaultVATRate alícuota genérica aplicada cuando ni la línea, ni el
	// producto, ni la categoría definen una (habitualmente 21).
	DefaultVATRate decimal.Decimal
	// ApplyDefaultVAT si es false las líneas sin alícuota quedan exentas.
	ApplyDefaultVAT bool
	// DefaultReceiverVATCondition condición de IVA del receptor por omisión
	// (ej: "CONSUMIDOR_FINAL").
	DefaultReceiverVATCondition string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCredentials indica si hay material criptográfico cargado, sea el par PEM
// o el bundle .p12.
func (c *FiscalConfig) HasCredentials() bool {
	return (c.CertificatePEM != "" && c.PrivateKeyPEM != "") || c.CredentialP12 != ""
}
