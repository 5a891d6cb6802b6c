package repository

import (
	"context"

	"github.com/ventaro/pos-api/internal/domain/entity"
)

// VoucherRepository define el puerto de persistencia para comprobantes fiscales.
type VoucherRepository interface {
	Create(ctx context.Context, v *entity.Voucher) error

	// Update persiste estado, numeración, CAE y los payloads crudos de
	// auditoría. Es la escritura que acompaña cada transición del ciclo
	// DRAFT → REQUESTED → {AUTHORIZED | REJECTED}.
	Update(ctx context.Context, v *entity.Voucher) error

	GetByID(ctx context.Context, id string) (*entity.Voucher, error)

	// ListBySale devuelve todos los comprobantes emitidos para una venta,
	// facturas y notas de crédito, en orden de creación.
	ListBySale(ctx context.Context, companyID, saleID string) ([]*entity.Voucher, error)
}

// TokenRepository define el puerto del cache de tokens WSAA, con clave
// (company, service, environment). Las lecturas/escrituras por clave pueden
// competir sin exclusión: dos logins concurrentes producen valores
// intercambiables y gana la última escritura.
type TokenRepository interface {
	// Get devuelve la entrada cacheada o nil si no existe.
	Get(ctx context.Context, companyID, service, environment string) (*entity.CachedToken, error)
	// Upsert crea o pisa la entrada de la clave del token.
	Upsert(ctx context.Context, token *entity.CachedToken) error
}
