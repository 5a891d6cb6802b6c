package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	domainarca "github.com/ventaro/pos-api/internal/domain/arca"
	infraarca "github.com/ventaro/pos-api/internal/infrastructure/arca"

	"github.com/ventaro/pos-api/internal/domain"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
	"github.com/ventaro/pos-api/pkg/arca"
	"github.com/ventaro/pos-api/pkg/logger"
)

// Clases de fallo del intento de autorización. "Rechazado" y "error" son
// resultados normales del caso de uso, no excepciones: el caller siempre
// recibe un comprobante en estado terminal más el payload para diagnosticar.
const (
	FailureNone      = ""
	FailureConfig    = "CONFIG"    // integración apagada o credenciales ausentes
	FailureSigning   = "SIGNING"   // certificado/clave/passphrase inválidos
	FailureEndpoints = "ENDPOINTS" // todos los endpoints candidatos fallaron
	FailureRemote    = "REMOTE"    // el servicio respondió mal o sin credenciales
	FailureRejected  = "REJECTED"  // ARCA procesó y no otorgó CAE
	FailureUnknown   = "UNEXPECTED"
)

// Outcome es el resultado terminal de un intento de autorización: el
// comprobante ya persistido en AUTHORIZED o REJECTED y, si falló, la clase
// del fallo. La transición REQUESTED→terminal la garantiza la estructura del
// caso de uso, nunca queda un comprobante colgado en REQUESTED.
type Outcome struct {
	Voucher *entity.Voucher
	Failure string
}

// Authorized indica si el intento terminó con CAE otorgado.
func (o *Outcome) Authorized() bool { return o.Failure == FailureNone }

// Service orquesta el ciclo de vida de facturas y notas de crédito:
// snapshot desde la venta → DRAFT → REQUESTED → llamadas WSAA/WSFE →
// AUTHORIZED o REJECTED, con los payloads crudos persistidos en cada intento.
type Service struct {
	vouchers   repository.VoucherRepository
	sales      repository.SaleRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	customers  repository.CustomerRepository
	fiscal     repository.FiscalConfigRepository

	auth  Authenticator
	wsfe  VoucherAuthorizer
	tx    TxRunner
	locks *posLocks
	log   *logger.Logger
	now   func() time.Time
}

// NewService construye el servicio de facturación con todas sus dependencias.
func NewService(
	vouchers repository.VoucherRepository,
	sales repository.SaleRepository,
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	customers repository.CustomerRepository,
	fiscal repository.FiscalConfigRepository,
	auth Authenticator,
	wsfe VoucherAuthorizer,
	tx TxRunner,
	log *logger.Logger,
) *Service {
	return &Service{
		vouchers:   vouchers,
		sales:      sales,
		products:   products,
		categories: categories,
		customers:  customers,
		fiscal:     fiscal,
		auth:       auth,
		wsfe:       wsfe,
		tx:         tx,
		locks:      newPOSLocks(),
		log:        log,
		now:        time.Now,
	}
}

// BuildInvoiceFromSale congela el snapshot de una venta confirmada y crea la
// factura en DRAFT. mode decide si se usan los precios históricos de la venta
// o los vigentes del producto. El snapshot nunca se recalcula después.
func (s *Service) BuildInvoiceFromSale(ctx context.Context, companyID, saleID, issuedBy, mode string) (*entity.Voucher, error) {
	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil || sale.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if sale.Status != entity.SaleStatusConfirmed {
		return nil, domain.ErrSaleNotConfirmed
	}

	// Una venta lleva a lo sumo una factura viva. Solo una factura RECHAZADA
	// libera la venta para un nuevo intento.
	siblings, err := s.vouchers.ListBySale(ctx, companyID, saleID)
	if err != nil {
		return nil, err
	}
	for _, v := range siblings {
		if v.Kind == entity.VoucherKindInvoice && v.Status != entity.VoucherStatusRejected {
			return nil, domain.ErrConflict
		}
	}

	cfg, err := s.fiscal.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrFiscalDisabled
	}

	saleItems, err := s.sales.GetItems(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if len(saleItems) == 0 {
		return nil, domain.ErrInvalidInput
	}

	items, totals, err := s.buildSnapshot(ctx, saleItems, cfg, mode)
	if err != nil {
		return nil, err
	}

	docType, docNumber := s.resolveReceiver(ctx, sale)

	now := s.now()
	voucher := &entity.Voucher{
		ID:                uuid.New().String(),
		CompanyID:         companyID,
		SaleID:            saleID,
		Kind:              entity.VoucherKindInvoice,
		Type:              arca.InvoiceTypeFor(cfg.TaxpayerType),
		Status:            entity.VoucherStatusDraft,
		IssuedBy:          issuedBy,
		PosNumber:         sale.PosNumber,
		NetAmount:         totals.Net,
		VATAmount:         totals.VAT,
		TotalAmount:       totals.Total,
		Items:             items,
		ReceiverDocType:   docType,
		ReceiverDocNumber: docNumber,
		IssuedAt:          now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.vouchers.Create(ctx, voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// RequestCAE ejecuta el intento de autorización de una factura en DRAFT.
// Siempre devuelve un Outcome con el comprobante en estado terminal: todo
// error en el camino se captura, el comprobante queda REJECTED con el mensaje
// como respuesta persistida y no se reintenta (reintentar una solicitud
// numerada arriesga consumir dos veces un número de ARCA).
func (s *Service) RequestCAE(ctx context.Context, companyID, voucherID string) (*Outcome, error) {
	return s.requestCAE(ctx, companyID, voucherID, s.vouchers.Update)
}

// requestCAE es la máquina común a facturas y notas de crédito. persist
// recibe el comprobante ya terminal y lo escribe; la nota de crédito lo usa
// para atar la anulación de la venta en la misma transacción.
func (s *Service) requestCAE(ctx context.Context, companyID, voucherID string, persist func(context.Context, *entity.Voucher) error) (*Outcome, error) {
	voucher, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil || voucher.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if voucher.Status != entity.VoucherStatusDraft {
		return nil, domain.ErrConflict
	}

	typeCode, ok := arca.VoucherTypeCodes[voucher.Type]
	if !ok {
		return nil, domain.ErrInvalidInput
	}

	// Punto de serialización: sin esto, dos solicitudes concurrentes del
	// mismo (tenant, punto de venta, tipo) leen el mismo "último número" y
	// duplican la numeración.
	lock := s.locks.acquire(companyID, voucher.PosNumber, typeCode)
	lock.Lock()
	defer lock.Unlock()

	// Releído bajo el lock: otra solicitud pudo haber llevado el comprobante
	// a un estado terminal mientras esta esperaba. Sin esta segunda lectura,
	// la solicitud tardía arrastraría un AUTHORIZED de vuelta a REQUESTED y
	// consumiría un segundo número de ARCA para la misma venta.
	voucher, err = s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil || voucher.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if voucher.Status != entity.VoucherStatusDraft {
		return nil, domain.ErrConflict
	}

	voucher.Status = entity.VoucherStatusRequested
	voucher.UpdatedAt = s.now()
	if err := s.vouchers.Update(ctx, voucher); err != nil {
		return nil, err
	}

	outcome := s.authorize(ctx, voucher, typeCode)

	voucher.UpdatedAt = s.now()
	if err := persist(ctx, voucher); err != nil {
		// El resultado ya se conoce; un fallo al persistir sí es un error
		// del caso de uso porque dejaría al comprobante en REQUESTED.
		return nil, err
	}

	if outcome.Authorized() {
		s.log.Info().
			Str("voucher_id", voucher.ID).
			Str("type", voucher.Type).
			Int64("sequence", *voucher.SequenceNumber).
			Msg("comprobante autorizado")
	} else {
		s.log.Warn().
			Str("voucher_id", voucher.ID).
			Str("failure", outcome.Failure).
			Msg("comprobante rechazado")
	}
	return outcome, nil
}

// authorize corre los pasos remotos y deja el comprobante en estado terminal
// en memoria (el caller persiste). Nunca devuelve error: toda falla se
// convierte en REJECTED con la clase correspondiente.
func (s *Service) authorize(ctx context.Context, voucher *entity.Voucher, typeCode int) *Outcome {
	reject := func(err error) *Outcome {
		voucher.Status = entity.VoucherStatusRejected
		if raw, mErr := json.Marshal(map[string]string{"error": err.Error()}); mErr == nil {
			voucher.RawResponse = string(raw)
		} else {
			voucher.RawResponse = err.Error()
		}
		return &Outcome{Voucher: voucher, Failure: classify(err)}
	}

	cfg, err := s.fiscal.GetByCompany(ctx, voucher.CompanyID)
	if err != nil {
		return reject(err)
	}
	if cfg == nil || !cfg.Enabled {
		return reject(domain.ErrFiscalDisabled)
	}

	if err := arca.ValidateCUIT(cfg.CUIT); err != nil {
		// Un CUIT mal cargado es un problema de configuración del tenant, no
		// tiene sentido gastar una llamada a WSAA para descubrirlo.
		return reject(fmt.Errorf("%w: %v", domain.ErrFiscalDisabled, err))
	}
	cuit, err := arca.CUITAsNumber(cfg.CUIT)
	if err != nil {
		return reject(err)
	}

	creds, err := s.auth.Authenticate(ctx, cfg, infraarca.ServiceWSFE)
	if err != nil {
		return reject(err)
	}
	auth := infraarca.Auth{Token: creds.Token, Sign: creds.Sign, CUIT: cuit}

	last, err := s.wsfe.LastAuthorized(ctx, cfg.Environment, auth, voucher.PosNumber, typeCode)
	if err != nil {
		return reject(err)
	}
	sequence := last + 1

	docType := arca.DocTypeConsumidorFinal
	var docNumber int64
	if n, perr := strconv.ParseInt(arca.OnlyDigits(voucher.ReceiverDocNumber), 10, 64); perr == nil && n > 0 {
		docType = arca.ReceiverDocTypeCode(voucher.ReceiverDocType)
		docNumber = n
	}

	req := infraarca.VoucherRequest{
		PosNumber:       voucher.PosNumber,
		VoucherTypeCode: typeCode,
		Concept:         arca.ConceptProducts,
		DocType:         docType,
		DocNumber:       docNumber,
		Sequence:        sequence,
		IssuedAt:        voucher.IssuedAt,
		Total:           voucher.TotalAmount,
		Net:             voucher.NetAmount,
		VAT:             voucher.VATAmount,
		VATEntries:      groupVATByRate(voucher.Items),
	}
	if voucher.Kind == entity.VoucherKindCreditNote {
		related, relErr := s.relatedInvoiceRef(ctx, voucher)
		if relErr != nil {
			return reject(relErr)
		}
		req.Related = related
	}

	result, err := s.wsfe.Authorize(ctx, cfg.Environment, auth, req)
	if result != nil {
		// Los payloads crudos se conservan pase lo que pase: son la
		// evidencia ante una disputa con la autoridad fiscal.
		voucher.RawRequest = result.RawRequest
		if result.RawResponse != "" {
			voucher.RawResponse = result.RawResponse
		}
	}
	if err != nil {
		return reject(err)
	}

	if result.CAE != nil && result.CAEDueDate != nil {
		seq := sequence
		voucher.Status = entity.VoucherStatusAuthorized
		voucher.SequenceNumber = &seq
		voucher.CAE = result.CAE
		voucher.CAEDueDate = result.CAEDueDate
		return &Outcome{Voucher: voucher}
	}

	voucher.Status = entity.VoucherStatusRejected
	return &Outcome{Voucher: voucher, Failure: FailureRejected}
}

// relatedInvoiceRef arma la referencia al comprobante original que WSFE exige
// en toda nota de crédito (CbtesAsoc): tipo, punto de venta y número de la
// factura autorizada que se anula.
func (s *Service) relatedInvoiceRef(ctx context.Context, note *entity.Voucher) (*infraarca.RelatedVoucher, error) {
	invoice, err := s.vouchers.GetByID(ctx, note.RelatedVoucherID)
	if err != nil {
		return nil, err
	}
	if invoice == nil || !invoice.IsAuthorized() || invoice.SequenceNumber == nil {
		return nil, fmt.Errorf("%w: la nota no referencia una factura autorizada", domain.ErrInvalidInput)
	}
	typeCode, ok := arca.VoucherTypeCodes[invoice.Type]
	if !ok {
		return nil, fmt.Errorf("%w: tipo de comprobante original desconocido %q", domain.ErrInvalidInput, invoice.Type)
	}
	return &infraarca.RelatedVoucher{
		TypeCode:  typeCode,
		PosNumber: invoice.PosNumber,
		Sequence:  *invoice.SequenceNumber,
	}, nil
}

// resolveReceiver arma el documento del receptor desde el cliente de la
// venta; sin cliente identificado queda consumidor final (99/0).
func (s *Service) resolveReceiver(ctx context.Context, sale *entity.Sale) (docType, docNumber string) {
	if sale.CustomerID == "" {
		return "", ""
	}
	customer, err := s.customers.GetByID(ctx, sale.CustomerID)
	if err != nil || customer == nil {
		return "", ""
	}
	return customer.DocType, customer.DocNumber
}

// GetVoucher obtiene un comprobante del tenant, o ErrNotFound.
func (s *Service) GetVoucher(ctx context.Context, companyID, voucherID string) (*entity.Voucher, error) {
	voucher, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil || voucher.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return voucher, nil
}

// FiscalProfile devuelve la configuración fiscal del tenant para su consulta,
// o ErrNotFound si nunca fue cargada. El caller decide qué campos exponer.
func (s *Service) FiscalProfile(ctx context.Context, companyID string) (*entity.FiscalConfig, error) {
	cfg, err := s.fiscal.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

// ListSaleVouchers devuelve todos los comprobantes emitidos para una venta.
func (s *Service) ListSaleVouchers(ctx context.Context, companyID, saleID string) ([]*entity.Voucher, error) {
	return s.vouchers.ListBySale(ctx, companyID, saleID)
}

// QRURL devuelve la URL de verificación del comprobante, o cadena vacía si el
// comprobante todavía no tiene los datos para armarla.
func (s *Service) QRURL(ctx context.Context, companyID, voucherID string) (string, error) {
	voucher, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return "", err
	}
	if voucher == nil || voucher.CompanyID != companyID {
		return "", domain.ErrNotFound
	}
	cfg, err := s.fiscal.GetByCompany(ctx, companyID)
	if err != nil {
		return "", err
	}
	if cfg == nil {
		return "", nil
	}

	in := domainarca.QRInput{
		IssuedAt:          voucher.IssuedAt,
		PosNumber:         voucher.PosNumber,
		VoucherType:       voucher.Type,
		TaxID:             cfg.CUIT,
		Total:             voucher.TotalAmount,
		ReceiverDocType:   voucher.ReceiverDocType,
		ReceiverDocNumber: voucher.ReceiverDocNumber,
	}
	if voucher.CAE != nil {
		in.CAE = *voucher.CAE
	}
	if voucher.SequenceNumber != nil {
		in.SequenceNumber = *voucher.SequenceNumber
	}
	return domainarca.BuildQRURL(in), nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, domain.ErrFiscalDisabled):
		return FailureConfig
	case errors.Is(err, domain.ErrFiscalSigning):
		return FailureSigning
	case errors.Is(err, domain.ErrFiscalEndpoints):
		return FailureEndpoints
	case errors.Is(err, domain.ErrFiscalRemote):
		return FailureRemote
	default:
		return FailureUnknown
	}
}

