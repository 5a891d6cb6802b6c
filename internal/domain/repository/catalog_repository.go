package repository

import (
	"context"

	"github.com/ventaro/pos-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para productos.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Product, error)
}

// CategoryRepository define el puerto de persistencia para categorías.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Category, error)
}

// CustomerRepository define el puerto de persistencia para clientes.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error)
}

// CompanyRepository define el puerto de persistencia para tenants.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
