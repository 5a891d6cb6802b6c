package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
)

var _ repository.FiscalConfigRepository = (*FiscalConfigRepo)(nil)

// FiscalConfigRepo lectura de la configuración fiscal del tenant.
type FiscalConfigRepo struct {
	q Querier
}

// NewFiscalConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalConfigRepository(q Querier) *FiscalConfigRepo {
	return &FiscalConfigRepo{q: q}
}

// GetByCompany obtiene la configuración fiscal del tenant, o nil si no tiene.
func (r *FiscalConfigRepo) GetByCompany(ctx context.Context, companyID string) (*entity.FiscalConfig, error) {
	query := `
		SELECT id, company_id, enabled, environment, cuit,
			COALESCE(certificate_pem, ''), COALESCE(private_key_pem, ''),
				COALESCE(credential_p12, ''), COALESCE(passphrase, ''),
			taxpayer_type, default_vat_rate, apply_default_vat,
			COALESCE(default_receiver_vat_condition, ''),
			created_at, updated_at
		FROM fiscal_configs WHERE company_id = $1`
	var c entity.FiscalConfig
	err := r.q.QueryRow(ctx, query, companyID).Scan(
		&c.ID, &c.CompanyID, &c.Enabled, &c.Environment, &c.CUIT,
		&c.CertificatePEM, &c.PrivateKeyPEM, &c.CredentialP12, &c.Passphrase,
		&c.TaxpayerType, &c.DefaultVATRate, &c.ApplyDefaultVAT,
		&c.DefaultReceiverVATCondition,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal config: %w", err)
	}
	return &c, nil
}
