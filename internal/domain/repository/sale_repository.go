package repository

import (
	"context"

	"github.com/ventaro/pos-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas del POS.
// El core fiscal solo lee ventas y las marca anuladas; el alta y la
// confirmación pertenecen al flujo de caja, fuera de este core.
type SaleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetItems(ctx context.Context, saleID string) ([]*entity.SaleItem, error)

	// MarkVoided marca la venta como anulada. Solo se invoca después de que
	// la nota de crédito asociada quedó AUTORIZADA, nunca antes.
	MarkVoided(ctx context.Context, saleID string) error
}
