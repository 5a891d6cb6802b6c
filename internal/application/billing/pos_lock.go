package billing

import (
	"fmt"
	"sync"
)

// posLocks serializa las autorizaciones por (tenant, punto de venta, tipo de
// comprobante). El patrón "consultar último número y usar el siguiente" de
// WSFE duplica o saltea numeración si dos solicitudes de la misma clave
// corren a la vez, así que el lock se toma antes de consultar y se suelta
// después de persistir el resultado.
//
// Cubre un único proceso. En una flota con varios nodos la serialización debe
// venir de afuera (advisory lock de PostgreSQL o una cola por punto de venta).
type posLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPOSLocks() *posLocks {
	return &posLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire devuelve el mutex de la clave, creándolo la primera vez.
func (p *posLocks) acquire(companyID string, posNumber, voucherTypeCode int) *sync.Mutex {
	key := fmt.Sprintf("%s/%d/%d", companyID, posNumber, voucherTypeCode)
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.locks[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	p.locks[key] = m
	return m
}
