package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ventaro/pos-api/internal/domain"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// GetByID obtiene una venta por ID, o nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `
		SELECT id, company_id, COALESCE(customer_id, ''), number, pos_number, status,
			total, COALESCE(created_by, ''), sold_at, voided_at, created_at, updated_at
		FROM sales WHERE id = $1`
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CompanyID, &s.CustomerID, &s.Number, &s.PosNumber, &s.Status,
		&s.Total, &s.CreatedBy, &s.SoldAt, &s.VoidedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}

// GetItems devuelve las líneas de la venta en orden de inserción.
func (r *SaleRepo) GetItems(ctx context.Context, saleID string) ([]*entity.SaleItem, error) {
	query := `
		SELECT id, sale_id, COALESCE(product_id, ''), description, quantity,
			unit_price, line_total, vat_rate
		FROM sale_items WHERE sale_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	var list []*entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.LineTotal, &it.VATRate); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// MarkVoided marca la venta como anulada. Exige que esté CONFIRMED: anular
// dos veces, o anular una venta abierta, es un conflicto.
func (r *SaleRepo) MarkVoided(ctx context.Context, saleID string) error {
	now := time.Now()
	query := `
		UPDATE sales SET status = $2, voided_at = $3, updated_at = $3
		WHERE id = $1 AND status = $4`
	tag, err := r.q.Exec(ctx, query, saleID, entity.SaleStatusVoided, now, entity.SaleStatusConfirmed)
	if err != nil {
		return fmt.Errorf("void sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleAlreadyVoided
	}
	return nil
}
