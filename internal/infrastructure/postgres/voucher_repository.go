package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
)

var _ repository.VoucherRepository = (*VoucherRepo)(nil)

// VoucherRepo implementación de VoucherRepository sobre PostgreSQL (usable con pool o tx).
// Las líneas del comprobante se guardan como snapshot JSONB en la misma fila:
// son inmutables desde su creación y siempre se leen completas.
type VoucherRepo struct {
	q Querier
}

// NewVoucherRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVoucherRepository(q Querier) *VoucherRepo {
	return &VoucherRepo{q: q}
}

// Create persiste el comprobante recién construido (estado DRAFT).
func (r *VoucherRepo) Create(ctx context.Context, v *entity.Voucher) error {
	items, err := json.Marshal(v.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	query := `
		INSERT INTO vouchers (id, company_id, sale_id, kind, type, status, issued_by,
			pos_number, sequence_number, cae, cae_due_date,
			net_amount, vat_amount, total_amount, items,
			receiver_doc_type, receiver_doc_number,
			raw_request, raw_response, related_voucher_id, reason,
			issued_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err = r.q.Exec(ctx, query,
		v.ID, v.CompanyID, v.SaleID, v.Kind, v.Type, v.Status, nullIfEmpty(v.IssuedBy),
		v.PosNumber, v.SequenceNumber, v.CAE, v.CAEDueDate,
		v.NetAmount, v.VATAmount, v.TotalAmount, items,
		nullIfEmpty(v.ReceiverDocType), nullIfEmpty(v.ReceiverDocNumber),
		nullIfEmpty(v.RawRequest), nullIfEmpty(v.RawResponse),
		nullIfEmpty(v.RelatedVoucherID), nullIfEmpty(v.Reason),
		v.IssuedAt, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("voucher ya existe: %w", err)
		}
		return fmt.Errorf("insert voucher: %w", err)
	}
	return nil
}

// Update persiste estado, numeración, CAE y payloads de auditoría del intento.
func (r *VoucherRepo) Update(ctx context.Context, v *entity.Voucher) error {
	query := `
		UPDATE vouchers
		SET status          = $2,
		    sequence_number = $3,
		    cae             = $4,
		    cae_due_date    = $5,
		    raw_request     = COALESCE($6, raw_request),
		    raw_response    = COALESCE($7, raw_response),
		    updated_at      = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		v.ID, v.Status, v.SequenceNumber, v.CAE, v.CAEDueDate,
		nullIfEmpty(v.RawRequest), nullIfEmpty(v.RawResponse), v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update voucher %s: fila inexistente", v.ID)
	}
	return nil
}

// GetByID obtiene un comprobante por ID, o nil si no existe.
func (r *VoucherRepo) GetByID(ctx context.Context, id string) (*entity.Voucher, error) {
	query := voucherSelect + ` WHERE id = $1`
	v, err := scanVoucher(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	return v, nil
}

// ListBySale devuelve todos los comprobantes de una venta en orden de creación.
func (r *VoucherRepo) ListBySale(ctx context.Context, companyID, saleID string) ([]*entity.Voucher, error) {
	query := voucherSelect + ` WHERE company_id = $1 AND sale_id = $2 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, companyID, saleID)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	var list []*entity.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

const voucherSelect = `
	SELECT id, company_id, sale_id, kind, type, status, issued_by,
		pos_number, sequence_number, cae, cae_due_date,
		net_amount, vat_amount, total_amount, items,
		receiver_doc_type, receiver_doc_number,
		raw_request, raw_response, related_voucher_id, reason,
		issued_at, created_at, updated_at
	FROM vouchers`

func scanVoucher(row pgx.Row) (*entity.Voucher, error) {
	var v entity.Voucher
	var issuedBy, receiverDocType, receiverDocNumber *string
	var rawRequest, rawResponse, relatedVoucherID, reason *string
	var items []byte
	if err := row.Scan(
		&v.ID, &v.CompanyID, &v.SaleID, &v.Kind, &v.Type, &v.Status, &issuedBy,
		&v.PosNumber, &v.SequenceNumber, &v.CAE, &v.CAEDueDate,
		&v.NetAmount, &v.VATAmount, &v.TotalAmount, &items,
		&receiverDocType, &receiverDocNumber,
		&rawRequest, &rawResponse, &relatedVoucherID, &reason,
		&v.IssuedAt, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &v.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	v.IssuedBy = deref(issuedBy)
	v.ReceiverDocType = deref(receiverDocType)
	v.ReceiverDocNumber = deref(receiverDocNumber)
	v.RawRequest = deref(rawRequest)
	v.RawResponse = deref(rawResponse)
	v.RelatedVoucherID = deref(relatedVoucherID)
	v.Reason = deref(reason)
	return &v, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
