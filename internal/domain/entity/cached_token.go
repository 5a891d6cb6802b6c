package entity

import "time"

// CachedToken es el par token/firma de corta vida que WSAA entrega a cambio
// del ticket de acceso firmado. Único por (company, service, environment);
// nunca se borra explícitamente: una entrada vencida se pisa con el próximo
// login exitoso.
type CachedToken struct {
	CompanyID   string
	Service     string // nombre del servicio destino, ej: "wsfe"
	Environment string
	Token       string // opaco, lo emite WSAA
	Sign        string // opaco, lo emite WSAA
	ExpiresAt   time.Time
	UpdatedAt   time.Time
}

// UsableAt indica si el token sigue siendo seguro de usar en el instante now:
// debe quedarle más de margin de vida para no vencer con la llamada en vuelo.
func (t *CachedToken) UsableAt(now time.Time, margin time.Duration) bool {
	return t.ExpiresAt.After(now.Add(margin))
}
