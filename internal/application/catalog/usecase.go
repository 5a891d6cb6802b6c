package catalog

import (
	"context"

	"github.com/ventaro/pos-api/internal/domain"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
)

// UseCase lecturas de catálogo del tenant: productos, clientes y los datos
// de la propia organización.
type UseCase struct {
	products  repository.ProductRepository
	customers repository.CustomerRepository
	companies repository.CompanyRepository
}

// NewUseCase construye el caso de uso de catálogo.
func NewUseCase(products repository.ProductRepository, customers repository.CustomerRepository, companies repository.CompanyRepository) *UseCase {
	return &UseCase{products: products, customers: customers, companies: companies}
}

// ListProducts lista productos del tenant con paginación.
func (uc *UseCase) ListProducts(ctx context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	return uc.products.ListByCompany(ctx, companyID, limit, offset)
}

// ListCustomers lista clientes del tenant con paginación.
func (uc *UseCase) ListCustomers(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	return uc.customers.ListByCompany(ctx, companyID, limit, offset)
}

// GetCompany devuelve los datos de la organización del token, o ErrNotFound.
func (uc *UseCase) GetCompany(ctx context.Context, companyID string) (*entity.Company, error) {
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return company, nil
}
