package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
)

var _ repository.TokenRepository = (*TokenRepo)(nil)

// TokenRepo cache de tokens WSAA persistido en PostgreSQL. Sobrevive a los
// reinicios del proceso, que importa: WSAA rechaza un segundo login mientras
// el ticket anterior sigue vigente.
type TokenRepo struct {
	q Querier
}

// NewTokenRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTokenRepository(q Querier) *TokenRepo {
	return &TokenRepo{q: q}
}

// Get devuelve la entrada cacheada para la clave, o nil si no existe.
// No filtra por vencimiento: esa decisión es del caller (UsableAt).
func (r *TokenRepo) Get(ctx context.Context, companyID, service, environment string) (*entity.CachedToken, error) {
	query := `
		SELECT company_id, service, environment, token, sign, expires_at, updated_at
		FROM wsaa_tokens
		WHERE company_id = $1 AND service = $2 AND environment = $3`
	var t entity.CachedToken
	err := r.q.QueryRow(ctx, query, companyID, service, environment).Scan(
		&t.CompanyID, &t.Service, &t.Environment, &t.Token, &t.Sign, &t.ExpiresAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &t, nil
}

// Upsert crea o pisa la entrada de la clave. Última escritura gana: dos
// logins concurrentes producen tokens intercambiables.
func (r *TokenRepo) Upsert(ctx context.Context, token *entity.CachedToken) error {
	query := `
		INSERT INTO wsaa_tokens (company_id, service, environment, token, sign, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, service, environment)
		DO UPDATE SET token = EXCLUDED.token, sign = EXCLUDED.sign,
		              expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		token.CompanyID, token.Service, token.Environment,
		token.Token, token.Sign, token.ExpiresAt, token.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}
