package arca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ventaro/pos-api/internal/domain"
	pkgarca "github.com/ventaro/pos-api/pkg/arca"
	"github.com/ventaro/pos-api/pkg/logger"
)

// compactDate formato yyyymmdd de WSFE (CbteFch, CAEFchVto).
const compactDate = "20060102"

// VATEntry es un renglón del desglose de IVA ya agrupado por alícuota exacta.
type VATEntry struct {
	Rate   decimal.Decimal
	Base   decimal.Decimal // neto gravado a esa alícuota
	Amount decimal.Decimal // IVA resultante
}

// RelatedVoucher identifica al comprobante original que una nota de crédito
// anula. WSFE rechaza una nota sin esta referencia (CbtesAsoc).
type RelatedVoucher struct {
	TypeCode  int
	PosNumber int
	Sequence  int64
}

// VoucherRequest es la solicitud de autorización de un único comprobante,
// completamente especificada por la capa de orquestación.
type VoucherRequest struct {
	PosNumber       int
	VoucherTypeCode int
	Concept         int
	DocType         int
	DocNumber       int64
	Sequence        int64 // número elegido: último autorizado + 1
	IssuedAt        time.Time

	Total      decimal.Decimal
	Net        decimal.Decimal
	VAT        decimal.Decimal
	Exempt     decimal.Decimal
	NotTaxed   decimal.Decimal
	OtherTaxes decimal.Decimal

	// VATEntries desglose por alícuota; vacío cuando el comprobante no
	// discrimina IVA (facturas C).
	VATEntries []VATEntry

	// Related referencia al comprobante original; solo las notas de crédito
	// lo llevan.
	Related *RelatedVoucher
}

// AuthorizationResult es el resultado del intento de autorización. CAE y
// CAEDueDate nil señalan rechazo; los payloads crudos se devuelven siempre,
// pase lo que pase, para la auditoría del comprobante.
type AuthorizationResult struct {
	RawRequest  string
	RawResponse string
	Sequence    int64
	CAE         *string
	CAEDueDate  *time.Time
	Result      string // "A" aprobado, "R" rechazado
	Observation string // observaciones/errores devueltos por ARCA, aplanados
}

// WSFEClient consume las operaciones de facturación de WSFEv1.
//
// Precondición explícita, no verificada acá: para un mismo
// (tenant, punto de venta, tipo de comprobante) no debe haber dos
// autorizaciones en vuelo. El patrón "leer último número y usarlo + 1" solo
// es correcto si el caller serializa (ver billing.RequestCAE, que toma un
// lock por clave antes de invocar este cliente).
type WSFEClient struct {
	transport *soapTransport
	log       *logger.Logger
	opts      Options
}

// NewWSFEClient construye el cliente con su transporte.
func NewWSFEClient(log *logger.Logger, opts Options) (*WSFEClient, error) {
	transport, err := newSOAPTransport(opts)
	if err != nil {
		return nil, err
	}
	return &WSFEClient{transport: transport, log: log, opts: opts}, nil
}

// Auth son las credenciales WSAA más el CUIT del emisor.
type Auth struct {
	Token string
	Sign  string
	CUIT  int64
}

func (a Auth) toSOAP() feAuth {
	return feAuth{Token: a.Token, Sign: a.Sign, Cuit: a.CUIT}
}

// LastAuthorized consulta el último número autorizado para el punto de venta
// y tipo de comprobante. El próximo comprobante usa el valor devuelto + 1.
func (c *WSFEClient) LastAuthorized(ctx context.Context, environment string, auth Auth, posNumber, voucherTypeCode int) (int64, error) {
	body := &feCompUltimoAutorizadoRequest{
		Auth:     auth.toSOAP(),
		PtoVta:   posNumber,
		CbteTipo: voucherTypeCode,
	}

	var last int64
	urls := Candidates(ServiceWSFE, environment, c.opts.WSFEURLOverride)
	err := tryEndpoints(ctx, c.log, urls, "FECompUltimoAutorizado", func(ctx context.Context, url string) error {
		raw, postErr := c.transport.post(ctx, url, wsfeActionBase+"FECompUltimoAutorizado", wsfeNS, body)
		if postErr != nil {
			return postErr
		}
		var env feCompUltimoAutorizadoEnvelope
		if err := unmarshalSOAP(raw, &env); err != nil {
			return permanent(fmt.Errorf("%w: respuesta no parseable: %s", domain.ErrFiscalRemote, truncate(string(raw), 300)))
		}
		if env.Body.Fault != nil {
			return permanent(fmt.Errorf("%w: SOAP Fault [%s]: %s", domain.ErrFiscalRemote, env.Body.Fault.FaultCode, env.Body.Fault.FaultString))
		}
		if env.Body.Response == nil {
			return permanent(fmt.Errorf("%w: respuesta FECompUltimoAutorizado vacía", domain.ErrFiscalRemote))
		}
		if msg := flattenErrors(env.Body.Response.Result.Errors); msg != "" {
			return permanent(fmt.Errorf("%w: %s", domain.ErrFiscalRemote, msg))
		}
		last = env.Body.Response.Result.CbteNro
		return nil
	})
	if err != nil {
		return 0, err
	}
	return last, nil
}

// Authorize envía el comprobante en un lote de un registro y parsea el
// resultado. La ausencia de CAE en la respuesta es un rechazo de negocio, no
// un error: el resultado lo refleja con CAE nil y los payloads completos.
//
// Nunca se reintenta acá adentro: repetir una solicitud numerada arriesga
// consumir dos veces un número de secuencia asignado por ARCA. El fallback de
// endpoints es seguro porque ocurre antes de que alguna llamada haya mutado
// estado remoto.
func (c *WSFEClient) Authorize(ctx context.Context, environment string, auth Auth, req VoucherRequest) (*AuthorizationResult, error) {
	body := c.buildSolicitarBody(auth, req)
	payload, err := marshalEnvelope(wsfeNS, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFiscalRemote, err)
	}

	result := &AuthorizationResult{
		RawRequest: string(payload),
		Sequence:   req.Sequence,
	}

	urls := Candidates(ServiceWSFE, environment, c.opts.WSFEURLOverride)
	err = tryEndpoints(ctx, c.log, urls, "FECAESolicitar", func(ctx context.Context, url string) error {
		raw, postErr := c.transport.postRaw(ctx, url, wsfeActionBase+"FECAESolicitar", payload)
		if postErr != nil {
			return postErr
		}
		result.RawResponse = string(raw)
		return permanentIfParseFails(parseSolicitarResponse(raw, result))
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// permanentIfParseFails corta el fallback cuando el endpoint ya respondió.
func permanentIfParseFails(err error) error {
	if err == nil {
		return nil
	}
	return permanent(err)
}

func (c *WSFEClient) buildSolicitarBody(auth Auth, req VoucherRequest) *fecaeSolicitarRequest {
	det := fecaeDetRequest{
		Concepto:   req.Concept,
		DocTipo:    req.DocType,
		DocNro:     req.DocNumber,
		CbteDesde:  req.Sequence,
		CbteHasta:  req.Sequence,
		CbteFch:    req.IssuedAt.Format(compactDate),
		ImpTotal:   req.Total.StringFixed(2),
		ImpTotConc: req.NotTaxed.StringFixed(2),
		ImpNeto:    req.Net.StringFixed(2),
		ImpOpEx:    req.Exempt.StringFixed(2),
		ImpTrib:    req.OtherTaxes.StringFixed(2),
		ImpIVA:     req.VAT.StringFixed(2),
		MonId:      pkgarca.CurrencyPesos,
		MonCotiz:   "1",
	}
	if req.Related != nil {
		det.CbtesAsoc = &fecaeCbtesAsoc{CbteAsoc: []fecaeCbteAsoc{{
			Tipo:   req.Related.TypeCode,
			PtoVta: req.Related.PosNumber,
			Nro:    req.Related.Sequence,
		}}}
	}
	if len(req.VATEntries) > 0 && !req.VAT.IsZero() {
		iva := &fecaeIva{}
		for _, e := range req.VATEntries {
			iva.AlicIva = append(iva.AlicIva, fecaeAlicIva{
				Id:      pkgarca.VATBucketFor(e.Rate),
				BaseImp: e.Base.StringFixed(2),
				Importe: e.Amount.StringFixed(2),
			})
		}
		det.Iva = iva
	}
	return &fecaeSolicitarRequest{
		Auth: auth.toSOAP(),
		FeCAEReq: fecaeReq{
			FeCabReq: fecaeCabecera{CantReg: 1, PtoVta: req.PosNumber, CbteTipo: req.VoucherTypeCode},
			FeDetReq: fecaeDetalle{Det: []fecaeDetRequest{det}},
		},
	}
}

// parseSolicitarResponse vuelca la respuesta sobre result. Solo devuelve
// error ante respuestas estructuralmente inválidas; un rechazo con la
// respuesta bien formada no es error.
func parseSolicitarResponse(raw []byte, result *AuthorizationResult) error {
	var env fecaeSolicitarEnvelope
	if err := unmarshalSOAP(raw, &env); err != nil {
		return fmt.Errorf("%w: respuesta no parseable: %s", domain.ErrFiscalRemote, truncate(string(raw), 300))
	}
	if env.Body.Fault != nil {
		return fmt.Errorf("%w: SOAP Fault [%s]: %s", domain.ErrFiscalRemote, env.Body.Fault.FaultCode, env.Body.Fault.FaultString)
	}
	if env.Body.Response == nil {
		return fmt.Errorf("%w: respuesta FECAESolicitar vacía", domain.ErrFiscalRemote)
	}

	res := env.Body.Response.Result
	result.Result = res.FeCabResp.Resultado

	var notes []string
	if msg := flattenErrors(res.Errors); msg != "" {
		notes = append(notes, msg)
	}
	if len(res.FeDetResp.Det) > 0 {
		det := res.FeDetResp.Det[0]
		for _, o := range det.Observaciones.Obs {
			notes = append(notes, fmt.Sprintf("[%d] %s", o.Code, o.Msg))
		}
		// CAE y vencimiento presentes ⇔ autorizado; cualquier otra
		// combinación se trata como rechazo.
		if det.CAE != "" && det.CAEFchVto != "" {
			due, err := time.Parse(compactDate, det.CAEFchVto)
			if err == nil {
				cae := det.CAE
				result.CAE = &cae
				result.CAEDueDate = &due
			} else {
				notes = append(notes, fmt.Sprintf("CAEFchVto inválido: %q", det.CAEFchVto))
			}
		}
	}
	result.Observation = strings.Join(notes, "; ")
	return nil
}

func flattenErrors(errs feErrors) string {
	if len(errs.Err) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs.Err))
	for _, e := range errs.Err {
		parts = append(parts, fmt.Sprintf("[%d] %s", e.Code, e.Msg))
	}
	return strings.Join(parts, "; ")
}
