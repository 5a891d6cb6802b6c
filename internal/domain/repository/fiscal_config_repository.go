package repository

import (
	"context"

	"github.com/ventaro/pos-api/internal/domain/entity"
)

// FiscalConfigRepository define el puerto de lectura de la configuración
// fiscal del tenant. El core la consume de solo lectura; la mutación vive en
// el flujo de ajustes del tenant.
type FiscalConfigRepository interface {
	GetByCompany(ctx context.Context, companyID string) (*entity.FiscalConfig, error)
}
