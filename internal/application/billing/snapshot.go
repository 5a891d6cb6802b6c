package billing

import (
	"context"

	"github.com/shopspring/decimal"

	infraarca "github.com/ventaro/pos-api/internal/infrastructure/arca"

	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/pkg/arca"
)

// Modos de precio al congelar el snapshot.
const (
	// PricingHistoric usa los precios unitarios registrados en la venta.
	PricingHistoric = "HISTORIC"
	// PricingCurrent re-resuelve el precio vigente del producto al momento
	// de construir el comprobante.
	PricingCurrent = "CURRENT"
)

var oneHundred = decimal.NewFromInt(100)

// defaultVATRate alícuota general cuando nadie define una (21%).
var defaultVATRate = decimal.RequireFromString("21")

// snapshotTotals agregados del snapshot, ya redondeados a 2 decimales.
type snapshotTotals struct {
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Total decimal.Decimal
}

// buildSnapshot congela las líneas de la venta en items del comprobante y
// calcula neto/IVA por línea: neto = total ÷ (1 + alícuota/100),
// iva = total − neto. La alícuota se resuelve con precedencia
// línea → producto → categoría del producto → alícuota por defecto.
//
// Si el emisor es monotributista el comprobante no discrimina IVA: el neto se
// fuerza igual al total y el IVA a cero, sin importar las alícuotas por línea.
func (s *Service) buildSnapshot(ctx context.Context, saleItems []*entity.SaleItem, cfg *entity.FiscalConfig, mode string) ([]entity.VoucherItem, snapshotTotals, error) {
	simplified := cfg.TaxpayerType == arca.TaxpayerMonotributo

	items := make([]entity.VoucherItem, 0, len(saleItems))
	var net, vat, total decimal.Decimal

	for _, it := range saleItems {
		unitPrice := it.UnitPrice
		var product *entity.Product
		if it.ProductID != "" {
			p, err := s.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, snapshotTotals{}, err
			}
			product = p
		}
		if mode == PricingCurrent && product != nil {
			unitPrice = product.Price
		}
		lineTotal := unitPrice.Mul(it.Quantity)

		rate, err := s.resolveVATRate(ctx, it, product, cfg)
		if err != nil {
			return nil, snapshotTotals{}, err
		}

		var lineNet, lineVAT decimal.Decimal
		switch {
		case simplified:
			lineNet = lineTotal
			lineVAT = decimal.Zero
			rate = decimal.Zero
		case rate.IsZero():
			lineNet = lineTotal
			lineVAT = decimal.Zero
		default:
			lineNet = lineTotal.Div(decimal.NewFromInt(1).Add(rate.Div(oneHundred)))
			lineVAT = lineTotal.Sub(lineNet)
		}

		items = append(items, entity.VoucherItem{
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
			VATRate:     rate,
			NetAmount:   lineNet,
			VATAmount:   lineVAT,
		})
		net = net.Add(lineNet)
		vat = vat.Add(lineVAT)
		total = total.Add(lineTotal)
	}

	return items, snapshotTotals{
		Net:   net.Round(2),
		VAT:   vat.Round(2),
		Total: total.Round(2),
	}, nil
}

// resolveVATRate aplica la precedencia línea → producto → categoría → default.
func (s *Service) resolveVATRate(ctx context.Context, item *entity.SaleItem, product *entity.Product, cfg *entity.FiscalConfig) (decimal.Decimal, error) {
	if item.VATRate != nil {
		return *item.VATRate, nil
	}
	if product != nil {
		if product.VATRate != nil {
			return *product.VATRate, nil
		}
		if product.CategoryID != "" {
			category, err := s.categories.GetByID(ctx, product.CategoryID)
			if err != nil {
				return decimal.Zero, err
			}
			if category != nil && category.VATRate != nil {
				return *category.VATRate, nil
			}
		}
	}
	if !cfg.ApplyDefaultVAT {
		// Sin default del tenant, la línea queda exenta.
		return decimal.Zero, nil
	}
	if !cfg.DefaultVATRate.IsZero() {
		return cfg.DefaultVATRate, nil
	}
	return defaultVATRate, nil
}

// groupVATByRate agrupa las líneas por alícuota exacta para el desglose de
// IVA del request WSFE. Las líneas a tasa cero quedan fuera: su neto viaja en
// el neto gravado total pero no generan renglón de alícuota.
func groupVATByRate(items []entity.VoucherItem) []infraarca.VATEntry {
	type bucket struct {
		base   decimal.Decimal
		amount decimal.Decimal
	}
	order := make([]string, 0, 4)
	grouped := make(map[string]*bucket)
	rates := make(map[string]decimal.Decimal)

	for _, it := range items {
		if it.VATRate.IsZero() {
			continue
		}
		key := it.VATRate.String()
		b, ok := grouped[key]
		if !ok {
			b = &bucket{}
			grouped[key] = b
			rates[key] = it.VATRate
			order = append(order, key)
		}
		b.base = b.base.Add(it.NetAmount)
		b.amount = b.amount.Add(it.VATAmount)
	}

	entries := make([]infraarca.VATEntry, 0, len(order))
	for _, key := range order {
		b := grouped[key]
		entries = append(entries, infraarca.VATEntry{
			Rate:   rates[key],
			Base:   b.base.Round(2),
			Amount: b.amount.Round(2),
		})
	}
	return entries
}
