package billing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	infraarca "github.com/ventaro/pos-api/internal/infrastructure/arca"

	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
	"github.com/ventaro/pos-api/pkg/arca"
	"github.com/ventaro/pos-api/pkg/logger"
)

// ── Dobles en memoria de los puertos del servicio ─────────────────────────────

type fakeVoucherRepo struct {
	mu        sync.Mutex
	byID      map[string]*entity.Voucher
	created   []string
	updateErr error

	// trail registra la secuencia de estados persistidos por comprobante,
	// para verificar que REQUESTED siempre precede al estado terminal.
	trail map[string][]string
}

func newFakeVoucherRepo() *fakeVoucherRepo {
	return &fakeVoucherRepo{byID: map[string]*entity.Voucher{}, trail: map[string][]string{}}
}

func (f *fakeVoucherRepo) store(v *entity.Voucher) {
	clone := *v
	f.byID[v.ID] = &clone
}

func (f *fakeVoucherRepo) Create(_ context.Context, v *entity.Voucher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store(v)
	f.created = append(f.created, v.ID)
	f.trail[v.ID] = append(f.trail[v.ID], v.Status)
	return nil
}

func (f *fakeVoucherRepo) Update(_ context.Context, v *entity.Voucher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.store(v)
	f.trail[v.ID] = append(f.trail[v.ID], v.Status)
	return nil
}

func (f *fakeVoucherRepo) GetByID(_ context.Context, id string) (*entity.Voucher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *v
	return &clone, nil
}

func (f *fakeVoucherRepo) ListBySale(_ context.Context, companyID, saleID string) ([]*entity.Voucher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Voucher
	for _, id := range f.created {
		v := f.byID[id]
		if v.CompanyID == companyID && v.SaleID == saleID {
			clone := *v
			out = append(out, &clone)
		}
	}
	return out, nil
}

// gatedVoucherRepo retiene en una barrera las primeras lecturas, para que el
// test pueda forzar a varias solicitudes a leer el mismo estado antes de que
// alguna tome el lock del punto de venta.
type gatedVoucherRepo struct {
	*fakeVoucherRepo
	reads   atomic.Int32
	gated   int32
	arrived chan struct{}
	release chan struct{}
}

func newGatedVoucherRepo(inner *fakeVoucherRepo, gated int) *gatedVoucherRepo {
	return &gatedVoucherRepo{
		fakeVoucherRepo: inner,
		gated:           int32(gated),
		arrived:         make(chan struct{}, gated),
		release:         make(chan struct{}),
	}
}

func (g *gatedVoucherRepo) GetByID(ctx context.Context, id string) (*entity.Voucher, error) {
	if g.reads.Add(1) <= g.gated {
		g.arrived <- struct{}{}
		<-g.release
	}
	return g.fakeVoucherRepo.GetByID(ctx, id)
}

type fakeSaleRepo struct {
	sale       *entity.Sale
	items      []*entity.SaleItem
	markVoided int
}

func (f *fakeSaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	if f.sale == nil || f.sale.ID != id {
		return nil, nil
	}
	return f.sale, nil
}

func (f *fakeSaleRepo) GetItems(_ context.Context, _ string) ([]*entity.SaleItem, error) {
	return f.items, nil
}

func (f *fakeSaleRepo) MarkVoided(_ context.Context, _ string) error {
	f.markVoided++
	f.sale.Status = entity.SaleStatusVoided
	return nil
}

type fakeProductRepo struct{ byID map[string]*entity.Product }

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return f.byID[id], nil
}

func (f *fakeProductRepo) ListByCompany(_ context.Context, _ string, _, _ int) ([]*entity.Product, error) {
	return nil, nil
}

type fakeCategoryRepo struct{ byID map[string]*entity.Category }

func (f *fakeCategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	return f.byID[id], nil
}

type fakeCustomerRepo struct{ byID map[string]*entity.Customer }

func (f *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return f.byID[id], nil
}

func (f *fakeCustomerRepo) ListByCompany(_ context.Context, _ string, _, _ int) ([]*entity.Customer, error) {
	return nil, nil
}

type fakeFiscalRepo struct{ cfg *entity.FiscalConfig }

func (f *fakeFiscalRepo) GetByCompany(_ context.Context, companyID string) (*entity.FiscalConfig, error) {
	if f.cfg == nil || f.cfg.CompanyID != companyID {
		return nil, nil
	}
	return f.cfg, nil
}

type fakeAuthenticator struct {
	creds *infraarca.Credentials
	err   error
	calls int
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, _ *entity.FiscalConfig, _ string) (*infraarca.Credentials, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.creds, nil
}

type fakeWSFE struct {
	last    int64
	lastErr error

	result   *infraarca.AuthorizationResult
	authErr  error
	gotReq   *infraarca.VoucherRequest
	gotAuth  infraarca.Auth
	attempts int
}

func (f *fakeWSFE) LastAuthorized(_ context.Context, _ string, auth infraarca.Auth, _, _ int) (int64, error) {
	f.gotAuth = auth
	if f.lastErr != nil {
		return 0, f.lastErr
	}
	return f.last, nil
}

func (f *fakeWSFE) Authorize(_ context.Context, _ string, _ infraarca.Auth, req infraarca.VoucherRequest) (*infraarca.AuthorizationResult, error) {
	f.attempts++
	f.gotReq = &req
	if f.authErr != nil {
		return f.result, f.authErr
	}
	return f.result, nil
}

type fakeTxRunner struct {
	vouchers repository.VoucherRepository
	sales    repository.SaleRepository
	runs     int
}

func (f *fakeTxRunner) Run(_ context.Context, fn func(repository.VoucherRepository, repository.SaleRepository) error) error {
	f.runs++
	return fn(f.vouchers, f.sales)
}

// ── Armado del servicio bajo prueba ───────────────────────────────────────────

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	svc        *Service
	vouchers   *fakeVoucherRepo
	sales      *fakeSaleRepo
	products   *fakeProductRepo
	categories *fakeCategoryRepo
	customers  *fakeCustomerRepo
	fiscal     *fakeFiscalRepo
	auth       *fakeAuthenticator
	wsfe       *fakeWSFE
	tx         *fakeTxRunner
}

func newTestEnv() *testEnv {
	env := &testEnv{
		vouchers:   newFakeVoucherRepo(),
		sales:      &fakeSaleRepo{},
		products:   &fakeProductRepo{byID: map[string]*entity.Product{}},
		categories: &fakeCategoryRepo{byID: map[string]*entity.Category{}},
		customers:  &fakeCustomerRepo{byID: map[string]*entity.Customer{}},
		fiscal:     &fakeFiscalRepo{cfg: billingConfig()},
		auth: &fakeAuthenticator{creds: &infraarca.Credentials{
			Token:     "tok",
			Sign:      "sig",
			ExpiresAt: testNow.Add(11 * time.Hour),
		}},
		wsfe: &fakeWSFE{},
	}
	env.tx = &fakeTxRunner{vouchers: env.vouchers, sales: env.sales}
	env.svc = NewService(
		env.vouchers, env.sales, env.products, env.categories, env.customers,
		env.fiscal, env.auth, env.wsfe, env.tx, logger.Nop(),
	)
	env.svc.now = func() time.Time { return testNow }
	return env
}

func billingConfig() *entity.FiscalConfig {
	return &entity.FiscalConfig{
		ID:              "fc-1",
		CompanyID:       "company-1",
		Enabled:         true,
		Environment:     entity.EnvHomologation,
		CUIT:            "20-12345678-6",
		CertificatePEM:  "cert",
		PrivateKeyPEM:   "key",
		TaxpayerType:    arca.TaxpayerResponsableInscripto,
		DefaultVATRate:  decimal.RequireFromString("21"),
		ApplyDefaultVAT: true,
	}
}

// confirmedSale venta confirmada con una línea de 121.00 (100 neto + 21 IVA).
func (env *testEnv) confirmedSale() {
	env.sales.sale = &entity.Sale{
		ID:        "sale-1",
		CompanyID: "company-1",
		Number:    "V-0001",
		PosNumber: 4,
		Status:    entity.SaleStatusConfirmed,
		Total:     decimal.RequireFromString("121.00"),
		SoldAt:    testNow.Add(-time.Hour),
	}
	env.sales.items = []*entity.SaleItem{{
		ID:          "li-1",
		SaleID:      "sale-1",
		ProductID:   "prod-1",
		Description: "Yerba 1kg",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.RequireFromString("121.00"),
		LineTotal:   decimal.RequireFromString("121.00"),
	}}
	env.products.byID["prod-1"] = &entity.Product{
		ID:        "prod-1",
		CompanyID: "company-1",
		SKU:       "YER-001",
		Name:      "Yerba 1kg",
		Price:     decimal.RequireFromString("121.00"),
	}
}

// seedDraftInvoice siembra una factura en DRAFT lista para pedir CAE.
func (env *testEnv) seedDraftInvoice() *entity.Voucher {
	v := &entity.Voucher{
		ID:          "inv-1",
		CompanyID:   "company-1",
		SaleID:      "sale-1",
		Kind:        entity.VoucherKindInvoice,
		Type:        arca.VoucherInvoiceB,
		Status:      entity.VoucherStatusDraft,
		IssuedBy:    "user-1",
		PosNumber:   4,
		NetAmount:   decimal.RequireFromString("100.00"),
		VATAmount:   decimal.RequireFromString("21.00"),
		TotalAmount: decimal.RequireFromString("121.00"),
		Items: []entity.VoucherItem{{
			ProductID:   "prod-1",
			Description: "Yerba 1kg",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("121.00"),
			LineTotal:   decimal.RequireFromString("121.00"),
			VATRate:     decimal.RequireFromString("21"),
			NetAmount:   decimal.RequireFromString("100.00"),
			VATAmount:   decimal.RequireFromString("21.00"),
		}},
		IssuedAt:  testNow,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	env.vouchers.Create(context.Background(), v)
	return v
}

// seedAuthorizedInvoice siembra una factura ya autorizada, anulable.
func (env *testEnv) seedAuthorizedInvoice() *entity.Voucher {
	v := env.seedDraftInvoice()
	seq := int64(42)
	cae := "74123456789012"
	due := testNow.AddDate(0, 0, 10)
	v.Status = entity.VoucherStatusAuthorized
	v.SequenceNumber = &seq
	v.CAE = &cae
	v.CAEDueDate = &due
	env.vouchers.Update(context.Background(), v)
	return v
}

// approvedResult resultado WSFE con CAE otorgado.
func approvedResult(sequence int64) *infraarca.AuthorizationResult {
	cae := "74123456789012"
	due := testNow.AddDate(0, 0, 10)
	return &infraarca.AuthorizationResult{
		RawRequest:  `<ar:FECAESolicitar/>`,
		RawResponse: `<FECAESolicitarResponse/>`,
		Sequence:    sequence,
		CAE:         &cae,
		CAEDueDate:  &due,
		Result:      "A",
	}
}

// rejectedResult resultado WSFE bien formado pero sin CAE.
func rejectedResult(sequence int64, observation string) *infraarca.AuthorizationResult {
	return &infraarca.AuthorizationResult{
		RawRequest:  `<ar:FECAESolicitar/>`,
		RawResponse: `<FECAESolicitarResponse/>`,
		Sequence:    sequence,
		Result:      "R",
		Observation: observation,
	}
}
