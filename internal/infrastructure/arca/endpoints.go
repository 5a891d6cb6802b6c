package arca

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/ventaro/pos-api/internal/domain"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/pkg/logger"
)

// Servicios remotos de ARCA que consume este core.
const (
	// ServiceWSAA autenticación: canjea el ticket firmado por token/sign.
	ServiceWSAA = "wsaa"
	// ServiceWSFE facturación electrónica: numeración y solicitud de CAE.
	ServiceWSFE = "wsfe"
)

// Endpoints por defecto por servicio y ambiente. El orden importa: se
// intentan de primero a último.
var defaultEndpoints = map[string]map[string][]string{
	ServiceWSAA: {
		entity.EnvHomologation: {"https://wsaahomo.afip.gov.ar/ws/services/LoginCms"},
		entity.EnvProduction:   {"https://wsaa.afip.gov.ar/ws/services/LoginCms"},
	},
	ServiceWSFE: {
		entity.EnvHomologation: {"https://wswhomo.afip.gov.ar/wsfev1/service.asmx"},
		entity.EnvProduction:   {"https://servicios1.afip.gov.ar/wsfev1/service.asmx"},
	},
}

// Candidates devuelve la lista ordenada y sin duplicados de endpoints para un
// servicio y ambiente: el override configurado (si existe) primero, luego los
// defaults estáticos del ambiente.
func Candidates(service, environment, override string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	add(override)
	for _, u := range defaultEndpoints[service][environment] {
		add(u)
	}
	return out
}

// rutas habituales del bundle de CAs del sistema operativo, en orden de sondeo.
var systemCABundles = []string{
	"/etc/ssl/certs/ca-certificates.crt",
	"/etc/pki/tls/certs/ca-bundle.crt",
	"/etc/ssl/ca-bundle.pem",
	"/etc/ssl/cert.pem",
}

// TrustStore resuelve el pool de CAs para el transporte TLS: usa el bundle
// configurado si es legible; si no, sondea las rutas conocidas del sistema y
// usa la primera legible; si ninguna existe devuelve nil y el transporte queda
// con los defaults de la plataforma.
func TrustStore(caBundlePath string) (*x509.CertPool, error) {
	paths := systemCABundles
	if caBundlePath != "" {
		paths = append([]string{caBundlePath}, systemCABundles...)
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("arca: el bundle de CAs %s no contiene certificados PEM válidos", p)
		}
		return pool, nil
	}
	return nil, nil
}

// permanentError marca un fallo en el que el endpoint sí respondió (ej: el
// servicio devolvió credenciales vacías): no tiene sentido reintentar contra
// el siguiente candidato.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

// tryEndpoints intenta la operación contra cada candidato en orden. Ante un
// fallo de conexión/inicialización registra el problema y sigue con el
// siguiente; recién cuando todos fallaron devuelve un error agregado que
// menciona cada URL intentada. Un permanentError corta el fallback de
// inmediato.
func tryEndpoints(ctx context.Context, log *logger.Logger, urls []string, op string, call func(ctx context.Context, url string) error) error {
	if len(urls) == 0 {
		return fmt.Errorf("%w: sin endpoints candidatos para %s", domain.ErrFiscalEndpoints, op)
	}
	var merr *multierror.Error
	for _, u := range urls {
		err := call(ctx, u)
		if err == nil {
			return nil
		}
		var pe permanentError
		if errors.As(err, &pe) {
			return pe.err
		}
		log.Warn().Str("op", op).Str("url", u).Err(err).Msg("endpoint fiscal falló, probando el siguiente")
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", u, err))
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrFiscalEndpoints, op, merr.ErrorOrNil())
}
