// Package arca contiene la lógica fiscal pura (sin I/O) de la integración
// con ARCA: el payload del QR de la RG 4892/2020.
package arca

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	pkgarca "github.com/ventaro/pos-api/pkg/arca"
)

// QRBaseURL es la URL de verificación pública sobre la que se monta el payload.
const QRBaseURL = "https://www.afip.gob.ar/fe/qr/"

// qrVersion versión del protocolo del payload.
const qrVersion = 1

// QRInput son los datos del comprobante autorizado que alimentan el QR.
type QRInput struct {
	CAE            string
	IssuedAt       time.Time
	SequenceNumber int64
	PosNumber      int
	VoucherType    string // tipo simbólico, ver pkg/arca
	TaxID          string // CUIT del emisor
	Total          decimal.Decimal

	// Receptor; si DocNumber está vacío o no es numérico se informa 99/0
	// (consumidor final).
	ReceiverDocType   string
	ReceiverDocNumber string
}

// qrPayload es el JSON exacto que se codifica en base64 dentro de la URL.
type qrPayload struct {
	Ver        int     `json:"ver"`
	Fecha      string  `json:"fecha"`
	CUIT       int64   `json:"cuit"`
	PtoVta     int     `json:"ptoVta"`
	TipoCmp    int     `json:"tipoCmp"`
	NroCmp     int64   `json:"nroCmp"`
	Importe    float64 `json:"importe"`
	Moneda     string  `json:"moneda"`
	Ctz        int     `json:"ctz"`
	TipoDocRec int     `json:"tipoDocRec"`
	NroDocRec  int64   `json:"nroDocRec"`
	TipoCodAut string  `json:"tipoCodAut"`
	CodAut     int64   `json:"codAut"`
}

// BuildQRURL construye la URL de verificación del comprobante. Es una función
// pura: si falta cualquiera de {CAE, fecha de emisión, número de secuencia,
// punto de venta positivo, tipo de comprobante, CUIT} devuelve cadena vacía,
// que el caller debe tratar como "QR no disponible", no como error.
func BuildQRURL(in QRInput) string {
	if in.CAE == "" || in.IssuedAt.IsZero() || in.SequenceNumber == 0 ||
		in.PosNumber <= 0 || in.VoucherType == "" || in.TaxID == "" {
		return ""
	}

	cuit, err := pkgarca.CUITAsNumber(in.TaxID)
	if err != nil {
		return ""
	}

	// El CAE viaja como número: se descartan los caracteres no numéricos.
	caeDigits := pkgarca.OnlyDigits(in.CAE)
	if caeDigits == "" {
		return ""
	}
	codAut, err := strconv.ParseInt(caeDigits, 10, 64)
	if err != nil {
		return ""
	}

	typeCode, ok := pkgarca.VoucherTypeCodes[in.VoucherType]
	if !ok {
		return ""
	}

	docType := pkgarca.DocTypeConsumidorFinal
	var docNumber int64
	if n, err := strconv.ParseInt(pkgarca.OnlyDigits(in.ReceiverDocNumber), 10, 64); err == nil && n > 0 {
		docType = pkgarca.ReceiverDocTypeCode(in.ReceiverDocType)
		docNumber = n
	}

	payload := qrPayload{
		Ver:        qrVersion,
		Fecha:      in.IssuedAt.Format("2006-01-02"),
		CUIT:       cuit,
		PtoVta:     in.PosNumber,
		TipoCmp:    typeCode,
		NroCmp:     in.SequenceNumber,
		Importe:    in.Total.Round(2).InexactFloat64(),
		Moneda:     pkgarca.CurrencyPesos,
		Ctz:        1,
		TipoDocRec: docType,
		NroDocRec:  docNumber,
		TipoCodAut: "E", // CAE (a diferencia de "A", CAEA)
		CodAut:     codAut,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return QRBaseURL + "?p=" + base64.StdEncoding.EncodeToString(raw)
}
