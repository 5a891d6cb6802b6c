// Package cache provee la implementación en memoria del cache de tokens WSAA.
// Sirve para despliegues de un solo nodo y como doble de pruebas; en una
// flota, el cache compartido es el de postgres.TokenRepo.
package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
)

var _ repository.TokenRepository = (*MemoryTokenStore)(nil)

// tokenKey clave del cache: (tenant, servicio, ambiente).
type tokenKey struct {
	CompanyID   string
	Service     string
	Environment string
}

// MemoryTokenStore implementa repository.TokenRepository sobre ttlcache.
// La TTL de cada entrada es la vida restante del token: una entrada expirada
// desaparece sola y fuerza el próximo login.
type MemoryTokenStore struct {
	cache *ttlcache.Cache[tokenKey, *entity.CachedToken]
}

// NewMemoryTokenStore construye el store y arranca el recolector de entradas vencidas.
func NewMemoryTokenStore() *MemoryTokenStore {
	c := ttlcache.New[tokenKey, *entity.CachedToken]()
	go c.Start()
	return &MemoryTokenStore{cache: c}
}

// Get devuelve la entrada cacheada o nil si no existe o ya venció.
func (s *MemoryTokenStore) Get(_ context.Context, companyID, service, environment string) (*entity.CachedToken, error) {
	item := s.cache.Get(tokenKey{CompanyID: companyID, Service: service, Environment: environment})
	if item == nil {
		return nil, nil
	}
	return item.Value(), nil
}

// Upsert crea o pisa la entrada; los tokens ya vencidos no se guardan.
func (s *MemoryTokenStore) Upsert(_ context.Context, token *entity.CachedToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	key := tokenKey{CompanyID: token.CompanyID, Service: token.Service, Environment: token.Environment}
	s.cache.Set(key, token, ttl)
	return nil
}

// Stop detiene el recolector (para shutdown ordenado).
func (s *MemoryTokenStore) Stop() {
	s.cache.Stop()
}
