package billing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/pkg/arca"
)

func ratePtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestBuildSnapshot_DesgloseNetoIVA(t *testing.T) {
	env := newTestEnv()
	env.confirmedSale()

	items, totals, err := env.svc.buildSnapshot(context.Background(), env.sales.items, env.fiscal.cfg, PricingHistoric)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// 121.00 con IVA incluido al 21%: neto 100.00, IVA 21.00.
	assert.Equal(t, "100.00", totals.Net.StringFixed(2))
	assert.Equal(t, "21.00", totals.VAT.StringFixed(2))
	assert.Equal(t, "121.00", totals.Total.StringFixed(2))
	assert.Equal(t, "21", items[0].VATRate.String())
	assert.Equal(t, "121.00", items[0].LineTotal.StringFixed(2))
}

func TestBuildSnapshot_MonotributoNoDiscrimina(t *testing.T) {
	env := newTestEnv()
	env.confirmedSale()
	env.fiscal.cfg.TaxpayerType = arca.TaxpayerMonotributo

	items, totals, err := env.svc.buildSnapshot(context.Background(), env.sales.items, env.fiscal.cfg, PricingHistoric)
	require.NoError(t, err)

	assert.Equal(t, "121.00", totals.Net.StringFixed(2), "el neto es el total: no se discrimina IVA")
	assert.Equal(t, "0.00", totals.VAT.StringFixed(2))
	assert.True(t, items[0].VATRate.IsZero())
}

func TestBuildSnapshot_PrecioVigente(t *testing.T) {
	env := newTestEnv()
	env.confirmedSale()
	env.products.byID["prod-1"].Price = decimal.RequireFromString("150.00")

	_, totalsHistoric, err := env.svc.buildSnapshot(context.Background(), env.sales.items, env.fiscal.cfg, PricingHistoric)
	require.NoError(t, err)
	_, totalsCurrent, err := env.svc.buildSnapshot(context.Background(), env.sales.items, env.fiscal.cfg, PricingCurrent)
	require.NoError(t, err)

	assert.Equal(t, "121.00", totalsHistoric.Total.StringFixed(2), "HISTORIC respeta el precio cobrado")
	assert.Equal(t, "150.00", totalsCurrent.Total.StringFixed(2), "CURRENT toma el precio vigente del producto")
}

func TestResolveVATRate_Precedencia(t *testing.T) {
	env := newTestEnv()
	env.categories.byID["cat-1"] = &entity.Category{ID: "cat-1", VATRate: ratePtr("27")}

	product := &entity.Product{ID: "prod-1", CategoryID: "cat-1"}
	item := &entity.SaleItem{ProductID: "prod-1"}
	cfg := env.fiscal.cfg
	ctx := context.Background()

	// Nadie define alícuota: default del tenant.
	rate, err := env.svc.resolveVATRate(ctx, &entity.SaleItem{}, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, "21", rate.String())

	// La categoría le gana al default.
	rate, err = env.svc.resolveVATRate(ctx, item, product, cfg)
	require.NoError(t, err)
	assert.Equal(t, "27", rate.String())

	// El producto le gana a la categoría.
	product.VATRate = ratePtr("10.5")
	rate, err = env.svc.resolveVATRate(ctx, item, product, cfg)
	require.NoError(t, err)
	assert.Equal(t, "10.5", rate.String())

	// La línea le gana a todos.
	item.VATRate = ratePtr("0")
	rate, err = env.svc.resolveVATRate(ctx, item, product, cfg)
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
}

func TestResolveVATRate_SinDefaultQuedaExenta(t *testing.T) {
	env := newTestEnv()
	env.fiscal.cfg.ApplyDefaultVAT = false

	rate, err := env.svc.resolveVATRate(context.Background(), &entity.SaleItem{}, nil, env.fiscal.cfg)
	require.NoError(t, err)
	assert.True(t, rate.IsZero(), "sin default aplicable la línea queda exenta")
}

func TestGroupVATByRate(t *testing.T) {
	items := []entity.VoucherItem{
		{VATRate: decimal.RequireFromString("21"), NetAmount: decimal.RequireFromString("100"), VATAmount: decimal.RequireFromString("21")},
		{VATRate: decimal.RequireFromString("10.5"), NetAmount: decimal.RequireFromString("200"), VATAmount: decimal.RequireFromString("21")},
		{VATRate: decimal.RequireFromString("21"), NetAmount: decimal.RequireFromString("50.555"), VATAmount: decimal.RequireFromString("10.617")},
		{VATRate: decimal.Zero, NetAmount: decimal.RequireFromString("30"), VATAmount: decimal.Zero},
	}

	entries := groupVATByRate(items)
	require.Len(t, entries, 2, "la tasa cero no genera renglón de alícuota")

	// Orden de aparición, bases acumuladas y redondeo a 2 decimales.
	assert.Equal(t, "21", entries[0].Rate.String())
	assert.Equal(t, "150.56", entries[0].Base.StringFixed(2))
	assert.Equal(t, "31.62", entries[0].Amount.StringFixed(2))
	assert.Equal(t, "10.5", entries[1].Rate.String())
	assert.Equal(t, "200.00", entries[1].Base.StringFixed(2))
}
