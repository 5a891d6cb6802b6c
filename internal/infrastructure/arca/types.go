// Estructuras SOAP tipadas de las operaciones WSFEv1 que consume este core:
// FECompUltimoAutorizado (última numeración autorizada) y FECAESolicitar
// (solicitud de CAE de un comprobante). Los montos viajan como texto con dos
// decimales, tal como los espera el servicio.

package arca

import "encoding/xml"

const (
	wsfeNS         = "http://ar.gov.afip.dif.FEV1/"
	wsfeActionBase = "http://ar.gov.afip.dif.FEV1/"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// feAuth credenciales WSAA + CUIT del emisor; viaja en cada operación WSFE.
type feAuth struct {
	Token string `xml:"ar:Token"`
	Sign  string `xml:"ar:Sign"`
	Cuit  int64  `xml:"ar:Cuit"`
}

type feCompUltimoAutorizadoRequest struct {
	XMLName  xml.Name `xml:"ar:FECompUltimoAutorizado"`
	Auth     feAuth   `xml:"ar:Auth"`
	PtoVta   int      `xml:"ar:PtoVta"`
	CbteTipo int      `xml:"ar:CbteTipo"`
}

type fecaeSolicitarRequest struct {
	XMLName  xml.Name `xml:"ar:FECAESolicitar"`
	Auth     feAuth   `xml:"ar:Auth"`
	FeCAEReq fecaeReq `xml:"ar:FeCAEReq"`
}

type fecaeReq struct {
	FeCabReq fecaeCabecera `xml:"ar:FeCabReq"`
	FeDetReq fecaeDetalle  `xml:"ar:FeDetReq"`
}

// fecaeCabecera cabecera del lote; este core siempre envía lotes de un único
// comprobante (CantReg = 1).
type fecaeCabecera struct {
	CantReg  int `xml:"ar:CantReg"`
	PtoVta   int `xml:"ar:PtoVta"`
	CbteTipo int `xml:"ar:CbteTipo"`
}

type fecaeDetalle struct {
	Det []fecaeDetRequest `xml:"ar:FECAEDetRequest"`
}

type fecaeDetRequest struct {
	Concepto   int    `xml:"ar:Concepto"`
	DocTipo    int    `xml:"ar:DocTipo"`
	DocNro     int64  `xml:"ar:DocNro"`
	CbteDesde  int64  `xml:"ar:CbteDesde"`
	CbteHasta  int64  `xml:"ar:CbteHasta"`
	CbteFch    string `xml:"ar:CbteFch"` // yyyymmdd
	ImpTotal   string `xml:"ar:ImpTotal"`
	ImpTotConc string `xml:"ar:ImpTotConc"` // neto no gravado
	ImpNeto    string `xml:"ar:ImpNeto"`
	ImpOpEx    string `xml:"ar:ImpOpEx"` // exento
	ImpTrib    string `xml:"ar:ImpTrib"` // otros tributos
	ImpIVA     string `xml:"ar:ImpIVA"`
	MonId      string `xml:"ar:MonId"`
	MonCotiz   string `xml:"ar:MonCotiz"`

	// CbtesAsoc solo viaja en notas de crédito: la referencia al comprobante
	// original que se anula.
	CbtesAsoc *fecaeCbtesAsoc `xml:"ar:CbtesAsoc,omitempty"`

	// Iva solo se incluye cuando el comprobante lleva IVA distinto de cero
	// (las facturas C no discriminan).
	Iva *fecaeIva `xml:"ar:Iva,omitempty"`
}

type fecaeCbtesAsoc struct {
	CbteAsoc []fecaeCbteAsoc `xml:"ar:CbteAsoc"`
}

// fecaeCbteAsoc comprobante asociado: tipo, punto de venta y número.
type fecaeCbteAsoc struct {
	Tipo   int   `xml:"ar:Tipo"`
	PtoVta int   `xml:"ar:PtoVta"`
	Nro    int64 `xml:"ar:Nro"`
}

type fecaeIva struct {
	AlicIva []fecaeAlicIva `xml:"ar:AlicIva"`
}

// fecaeAlicIva una línea del desglose de IVA: id de alícuota, base neta e importe.
type fecaeAlicIva struct {
	Id      int    `xml:"ar:Id"`
	BaseImp string `xml:"ar:BaseImp"`
	Importe string `xml:"ar:Importe"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type feErrors struct {
	Err []feErr `xml:"Err"`
}

type feErr struct {
	Code int    `xml:"Code"`
	Msg  string `xml:"Msg"`
}

type feCompUltimoAutorizadoEnvelope struct {
	Body struct {
		Response *struct {
			Result feCompUltimoAutorizadoResult `xml:"FECompUltimoAutorizadoResult"`
		} `xml:"FECompUltimoAutorizadoResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type feCompUltimoAutorizadoResult struct {
	PtoVta   int      `xml:"PtoVta"`
	CbteTipo int      `xml:"CbteTipo"`
	CbteNro  int64    `xml:"CbteNro"`
	Errors   feErrors `xml:"Errors"`
}

type fecaeSolicitarEnvelope struct {
	Body struct {
		Response *struct {
			Result fecaeSolicitarResult `xml:"FECAESolicitarResult"`
		} `xml:"FECAESolicitarResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type fecaeSolicitarResult struct {
	FeCabResp struct {
		Resultado string `xml:"Resultado"` // "A" aprobado, "R" rechazado, "P" parcial
	} `xml:"FeCabResp"`
	FeDetResp struct {
		Det []fecaeDetResponse `xml:"FECAEDetResponse"`
	} `xml:"FeDetResp"`
	Errors feErrors `xml:"Errors"`
}

type fecaeDetResponse struct {
	CbteDesde     int64  `xml:"CbteDesde"`
	CbteHasta     int64  `xml:"CbteHasta"`
	Resultado     string `xml:"Resultado"`
	CAE           string `xml:"CAE"`
	CAEFchVto     string `xml:"CAEFchVto"` // yyyymmdd
	Observaciones struct {
		Obs []feErr `xml:"Obs"`
	} `xml:"Observaciones"`
}
