// Package arca contiene catálogos y validaciones alineados a las tablas del
// servicio de facturación electrónica de ARCA (ex AFIP, Argentina): WSFEv1 y
// la especificación del QR fiscal (RG 4892/2020).
package arca

import "github.com/shopspring/decimal"

// =============================================================================
// Tipos de comprobante (WSFEv1 - FEParamGetTiposCbte)
// El tipo concreto lo elige la capa de orquestación según la condición fiscal
// del emisor: Responsable Inscripto emite "B", Monotributo emite "C".
// =============================================================================

const (
	VoucherInvoiceB    = "FACTURA_B"
	VoucherInvoiceC    = "FACTURA_C"
	VoucherCreditNoteB = "NOTA_CREDITO_B"
	VoucherCreditNoteC = "NOTA_CREDITO_C"
)

// VoucherTypeCodes mapea el tipo simbólico del comprobante al código numérico
// que esperan tanto WSFE (CbteTipo) como el payload del QR (tipoCmp).
var VoucherTypeCodes = map[string]int{
	VoucherInvoiceB:    6,
	VoucherInvoiceC:    11,
	VoucherCreditNoteB: 8,
	VoucherCreditNoteC: 13,
}

// =============================================================================
// Condición frente al IVA del emisor
// =============================================================================

const (
	TaxpayerResponsableInscripto = "RESPONSABLE_INSCRIPTO"
	TaxpayerMonotributo          = "MONOTRIBUTO"
	TaxpayerOther                = "OTHER"
)

// InvoiceTypeFor devuelve el tipo simbólico de factura según la condición fiscal del emisor.
func InvoiceTypeFor(taxpayerType string) string {
	if taxpayerType == TaxpayerMonotributo {
		return VoucherInvoiceC
	}
	return VoucherInvoiceB
}

// CreditNoteTypeFor devuelve el tipo simbólico de nota de crédito según la condición fiscal.
func CreditNoteTypeFor(taxpayerType string) string {
	if taxpayerType == TaxpayerMonotributo {
		return VoucherCreditNoteC
	}
	return VoucherCreditNoteB
}

// =============================================================================
// Tipos de documento del receptor (FEParamGetTiposDoc / tabla QR tipoDocRec)
// =============================================================================

const (
	DocTypeCUIT         = 80
	DocTypeCUIL         = 86
	DocTypeCDI          = 87
	DocTypeDNI          = 96
	DocTypeCIExtranjera = 91
	DocTypePasaporte    = 94
	// DocTypeConsumidorFinal se usa junto con número 0 cuando el comprador no
	// está identificado (consumidor final).
	DocTypeConsumidorFinal = 99
)

// receiverDocTypeCodes tabla fija de documento simbólico → código ARCA.
var receiverDocTypeCodes = map[string]int{
	"CUIT":          DocTypeCUIT,
	"CUIL":          DocTypeCUIL,
	"CDI":           DocTypeCDI,
	"DNI":           DocTypeDNI,
	"LC":            DocTypeDNI,
	"LE":            DocTypeDNI,
	"CI_EXTRANJERA": DocTypeCIExtranjera,
	"PASAPORTE":     DocTypePasaporte,
}

// ReceiverDocTypeCode mapea el tipo de documento del receptor al código numérico
// de ARCA. Cualquier tipo desconocido o vacío cae en 99 (consumidor final).
func ReceiverDocTypeCode(docType string) int {
	if code, ok := receiverDocTypeCodes[docType]; ok {
		return code
	}
	return DocTypeConsumidorFinal
}

// =============================================================================
// Alícuotas de IVA (FEParamGetTiposIva) — id regulatorio por alícuota exacta
// =============================================================================

const (
	VATBucketZero      = 3 // 0%
	VATBucketReduced   = 4 // 10.5%
	VATBucketGeneral   = 5 // 21%
	VATBucketIncreased = 6 // 27%
)

// vatBuckets alícuota exacta → id de alícuota WSFE.
var vatBuckets = []struct {
	Rate   decimal.Decimal
	Bucket int
}{
	{decimal.Zero, VATBucketZero},
	{decimal.RequireFromString("10.5"), VATBucketReduced},
	{decimal.RequireFromString("21"), VATBucketGeneral},
	{decimal.RequireFromString("27"), VATBucketIncreased},
}

// VATBucketFor devuelve el id de alícuota WSFE para una tasa de IVA.
// Tasas no listadas caen en el id general (21%), que es el caso.
func VATBucketFor(rate decimal.Decimal) int {
	for _, b := range vatBuckets {
		if rate.Equal(b.Rate) {
			return b.Bucket
		}
	}
	return VATBucketGeneral
}

// =============================================================================
// Conceptos del comprobante (FEParamGetTiposConcepto)
// =============================================================================

const (
	ConceptProducts            = 1 // Productos
	ConceptServices            = 2 // Servicios
	ConceptProductsAndServices = 3 // Productos y servicios
)

// =============================================================================
// Moneda
// =============================================================================

const (
	// CurrencyPesos moneda local; la cotización que la acompaña es siempre 1.
	CurrencyPesos = "PES"
)
