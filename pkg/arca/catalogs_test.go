package arca_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/ventaro/pos-api/pkg/arca"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests de los catálogos regulatorios: los códigos numéricos son tablas fijas
// de la autoridad fiscal y cualquier cambio accidental rompe la emisión.
// ──────────────────────────────────────────────────────────────────────────────

func TestVoucherTypeCodes_TablaRegulatoria(t *testing.T) {
	assert.Equal(t, 6, arca.VoucherTypeCodes[arca.VoucherInvoiceB], "Factura B es código 6")
	assert.Equal(t, 8, arca.VoucherTypeCodes[arca.VoucherCreditNoteB], "Nota de Crédito B es código 8")
	assert.Equal(t, 11, arca.VoucherTypeCodes[arca.VoucherInvoiceC], "Factura C es código 11")
	assert.Equal(t, 13, arca.VoucherTypeCodes[arca.VoucherCreditNoteC], "Nota de Crédito C es código 13")
}

func TestInvoiceTypeFor_SegunCondicionFiscal(t *testing.T) {
	assert.Equal(t, arca.VoucherInvoiceB, arca.InvoiceTypeFor(arca.TaxpayerResponsableInscripto))
	assert.Equal(t, arca.VoucherInvoiceC, arca.InvoiceTypeFor(arca.TaxpayerMonotributo))
	// Condición desconocida cae en "B", el caso general.
	assert.Equal(t, arca.VoucherInvoiceB, arca.InvoiceTypeFor("CUALQUIER_COSA"))
}

func TestCreditNoteTypeFor_SegunCondicionFiscal(t *testing.T) {
	assert.Equal(t, arca.VoucherCreditNoteB, arca.CreditNoteTypeFor(arca.TaxpayerResponsableInscripto))
	assert.Equal(t, arca.VoucherCreditNoteC, arca.CreditNoteTypeFor(arca.TaxpayerMonotributo))
}

func TestVATBucketFor_AlicuotasExactas(t *testing.T) {
	cases := []struct {
		rate   string
		bucket int
	}{
		{"0", 3},
		{"10.5", 4},
		{"21", 5},
		{"27", 6},
		// Alícuotas no listadas caen en la general.
		{"19", 5},
		{"5", 5},
	}
	for _, c := range cases {
		got := arca.VATBucketFor(decimal.RequireFromString(c.rate))
		assert.Equalf(t, c.bucket, got, "alícuota %s%% debe mapear al id %d", c.rate, c.bucket)
	}
}

func TestVATBucketFor_EquivalenciaDecimal(t *testing.T) {
	// 21.0 y 21 son la misma alícuota aunque difieran en representación.
	assert.Equal(t, arca.VATBucketGeneral, arca.VATBucketFor(decimal.RequireFromString("21.0")))
	assert.Equal(t, arca.VATBucketReduced, arca.VATBucketFor(decimal.RequireFromString("10.50")))
}

func TestReceiverDocTypeCode_TablaYFallback(t *testing.T) {
	assert.Equal(t, arca.DocTypeCUIT, arca.ReceiverDocTypeCode("CUIT"))
	assert.Equal(t, arca.DocTypeCUIL, arca.ReceiverDocTypeCode("CUIL"))
	assert.Equal(t, arca.DocTypeDNI, arca.ReceiverDocTypeCode("DNI"))
	assert.Equal(t, arca.DocTypeDNI, arca.ReceiverDocTypeCode("LC"), "libreta cívica viaja como DNI")
	assert.Equal(t, arca.DocTypeDNI, arca.ReceiverDocTypeCode("LE"), "libreta de enrolamiento viaja como DNI")
	assert.Equal(t, arca.DocTypePasaporte, arca.ReceiverDocTypeCode("PASAPORTE"))
	assert.Equal(t, arca.DocTypeCIExtranjera, arca.ReceiverDocTypeCode("CI_EXTRANJERA"))

	// Desconocido o vacío: consumidor final.
	assert.Equal(t, arca.DocTypeConsumidorFinal, arca.ReceiverDocTypeCode(""))
	assert.Equal(t, arca.DocTypeConsumidorFinal, arca.ReceiverDocTypeCode("OTRO"))
}
