package arca_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainarca "github.com/ventaro/pos-api/internal/domain/arca"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del QR fiscal (RG 4892/2020): la URL lleva un JSON en base64 con los
// campos del comprobante; un campo mal nombrado o mal tipado rompe la
// verificación pública del comprobante.
// ──────────────────────────────────────────────────────────────────────────────

func completeInput() domainarca.QRInput {
	return domainarca.QRInput{
		CAE:               "74123456789012",
		IssuedAt:          time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
		SequenceNumber:    1042,
		PosNumber:         4,
		VoucherType:       "FACTURA_B",
		TaxID:             "20-12345678-6",
		Total:             decimal.RequireFromString("121.00"),
		ReceiverDocType:   "DNI",
		ReceiverDocNumber: "32.456.789",
	}
}

func decodePayload(t *testing.T, url string) map[string]any {
	t.Helper()
	require.True(t, strings.HasPrefix(url, domainarca.QRBaseURL+"?p="), "la URL debe montar sobre la base de verificación")
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, domainarca.QRBaseURL+"?p="))
	require.NoError(t, err, "el payload debe ser base64 estándar")
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload), "el payload debe ser JSON")
	return payload
}

func TestBuildQRURL_PayloadCompleto(t *testing.T) {
	url := domainarca.BuildQRURL(completeInput())
	require.NotEmpty(t, url)

	payload := decodePayload(t, url)
	assert.EqualValues(t, 1, payload["ver"])
	assert.Equal(t, "2026-03-15", payload["fecha"])
	assert.EqualValues(t, 20123456786, payload["cuit"])
	assert.EqualValues(t, 4, payload["ptoVta"])
	assert.EqualValues(t, 6, payload["tipoCmp"], "Factura B es tipo 6")
	assert.EqualValues(t, 1042, payload["nroCmp"])
	assert.EqualValues(t, 121, payload["importe"])
	assert.Equal(t, "PES", payload["moneda"])
	assert.EqualValues(t, 1, payload["ctz"])
	assert.EqualValues(t, 96, payload["tipoDocRec"], "DNI es tipo 96")
	assert.EqualValues(t, 32456789, payload["nroDocRec"])
	assert.Equal(t, "E", payload["tipoCodAut"], "E = CAE")
	assert.EqualValues(t, 74123456789012, payload["codAut"])
}

func TestBuildQRURL_ConsumidorFinal(t *testing.T) {
	in := completeInput()
	in.ReceiverDocType = ""
	in.ReceiverDocNumber = ""

	payload := decodePayload(t, domainarca.BuildQRURL(in))
	assert.EqualValues(t, 99, payload["tipoDocRec"], "sin receptor identificado viaja 99")
	assert.EqualValues(t, 0, payload["nroDocRec"])
}

func TestBuildQRURL_CamposFaltantes(t *testing.T) {
	mutations := map[string]func(*domainarca.QRInput){
		"sin CAE":            func(in *domainarca.QRInput) { in.CAE = "" },
		"sin fecha":          func(in *domainarca.QRInput) { in.IssuedAt = time.Time{} },
		"sin secuencia":      func(in *domainarca.QRInput) { in.SequenceNumber = 0 },
		"punto de venta 0":   func(in *domainarca.QRInput) { in.PosNumber = 0 },
		"sin tipo":           func(in *domainarca.QRInput) { in.VoucherType = "" },
		"tipo desconocido":   func(in *domainarca.QRInput) { in.VoucherType = "REMITO_X" },
		"sin CUIT":           func(in *domainarca.QRInput) { in.TaxID = "" },
		"CUIT corto":         func(in *domainarca.QRInput) { in.TaxID = "123" },
		"CAE sin dígitos":    func(in *domainarca.QRInput) { in.CAE = "---" },
	}
	for name, mutate := range mutations {
		in := completeInput()
		mutate(&in)
		assert.Emptyf(t, domainarca.BuildQRURL(in), "%s: el QR debe quedar indisponible, no inventarse", name)
	}
}

func TestBuildQRURL_EsPura(t *testing.T) {
	in := completeInput()
	assert.Equal(t, domainarca.BuildQRURL(in), domainarca.BuildQRURL(in), "misma entrada, misma URL")
}
