package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/ventaro/pos-api/internal/domain"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
	"github.com/ventaro/pos-api/pkg/arca"
)

// BuildCreditNoteFromInvoice crea en DRAFT la nota de crédito que anula una
// factura autorizada. Los montos y las líneas se copian textual de la factura
// original: una nota de crédito total nunca recalcula nada.
//
// Precondiciones: la factura existe en el tenant, está AUTORIZADA, y no hay
// otra nota de crédito AUTORIZADA o en curso (DRAFT/REQUESTED) sobre la misma
// venta. Una nota RECHAZADA no bloquea: el reintento es crear una nueva.
func (s *Service) BuildCreditNoteFromInvoice(ctx context.Context, companyID, invoiceID, issuedBy, reason string) (*entity.Voucher, error) {
	invoice, err := s.vouchers.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil || invoice.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if invoice.Kind != entity.VoucherKindInvoice || !invoice.IsAuthorized() {
		return nil, domain.ErrConflict
	}

	siblings, err := s.vouchers.ListBySale(ctx, companyID, invoice.SaleID)
	if err != nil {
		return nil, err
	}
	for _, v := range siblings {
		if v.Kind != entity.VoucherKindCreditNote {
			continue
		}
		if v.Status == entity.VoucherStatusAuthorized ||
			v.Status == entity.VoucherStatusDraft ||
			v.Status == entity.VoucherStatusRequested {
			return nil, domain.ErrSaleAlreadyVoided
		}
	}

	cfg, err := s.fiscal.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrFiscalDisabled
	}

	items := make([]entity.VoucherItem, len(invoice.Items))
	copy(items, invoice.Items)

	now := s.now()
	note := &entity.Voucher{
		ID:                uuid.New().String(),
		CompanyID:         companyID,
		SaleID:            invoice.SaleID,
		Kind:              entity.VoucherKindCreditNote,
		Type:              arca.CreditNoteTypeFor(cfg.TaxpayerType),
		Status:            entity.VoucherStatusDraft,
		IssuedBy:          issuedBy,
		PosNumber:         invoice.PosNumber,
		NetAmount:         invoice.NetAmount,
		VATAmount:         invoice.VATAmount,
		TotalAmount:       invoice.TotalAmount,
		Items:             items,
		ReceiverDocType:   invoice.ReceiverDocType,
		ReceiverDocNumber: invoice.ReceiverDocNumber,
		RelatedVoucherID:  invoice.ID,
		Reason:            reason,
		IssuedAt:          now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.vouchers.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// RequestCreditNoteCAE autoriza una nota de crédito en DRAFT y, solo si ARCA
// otorgó el CAE, marca la venta original como anulada. El orden importa: una
// venta nunca queda anulada con una nota rechazada.
func (s *Service) RequestCreditNoteCAE(ctx context.Context, companyID, voucherID string) (*Outcome, error) {
	note, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if note == nil || note.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if note.Kind != entity.VoucherKindCreditNote {
		return nil, domain.ErrInvalidInput
	}

	return s.requestCAE(ctx, companyID, voucherID, func(ctx context.Context, v *entity.Voucher) error {
		if !v.IsAuthorized() {
			return s.vouchers.Update(ctx, v)
		}
		// AUTHORIZED y la anulación de la venta entran juntas o ninguna.
		return s.tx.Run(ctx, func(vouchers repository.VoucherRepository, sales repository.SaleRepository) error {
			if err := vouchers.Update(ctx, v); err != nil {
				return err
			}
			return sales.MarkVoided(ctx, v.SaleID)
		})
	})
}
