package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/infrastructure/cache"
)

func TestMemoryTokenStore_UpsertYGet(t *testing.T) {
	store := cache.NewMemoryTokenStore()
	defer store.Stop()
	ctx := context.Background()

	token := &entity.CachedToken{
		CompanyID:   "company-1",
		Service:     "wsfe",
		Environment: entity.EnvHomologation,
		Token:       "tok",
		Sign:        "sig",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Upsert(ctx, token))

	got, err := store.Get(ctx, "company-1", "wsfe", entity.EnvHomologation)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "sig", got.Sign)

	// La clave es compuesta: otro ambiente no comparte token.
	got, err = store.Get(ctx, "company-1", "wsfe", entity.EnvProduction)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryTokenStore_NoGuardaVencidos(t *testing.T) {
	store := cache.NewMemoryTokenStore()
	defer store.Stop()
	ctx := context.Background()

	expired := &entity.CachedToken{
		CompanyID:   "company-1",
		Service:     "wsfe",
		Environment: entity.EnvHomologation,
		Token:       "viejo",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.Upsert(ctx, expired))

	got, err := store.Get(ctx, "company-1", "wsfe", entity.EnvHomologation)
	require.NoError(t, err)
	assert.Nil(t, got, "un token ya vencido nunca entra al cache")
}

func TestMemoryTokenStore_UpsertPisaLaEntrada(t *testing.T) {
	store := cache.NewMemoryTokenStore()
	defer store.Stop()
	ctx := context.Background()

	old := &entity.CachedToken{
		CompanyID: "company-1", Service: "wsfe", Environment: entity.EnvHomologation,
		Token: "viejo", ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Upsert(ctx, old))

	renewed := &entity.CachedToken{
		CompanyID: "company-1", Service: "wsfe", Environment: entity.EnvHomologation,
		Token: "nuevo", ExpiresAt: time.Now().Add(12 * time.Hour),
	}
	require.NoError(t, store.Upsert(ctx, renewed))

	got, err := store.Get(ctx, "company-1", "wsfe", entity.EnvHomologation)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "nuevo", got.Token, "gana la última escritura")
}
