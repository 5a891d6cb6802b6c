package billing

import (
	"context"

	infraarca "github.com/ventaro/pos-api/internal/infrastructure/arca"

	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
)

// Authenticator define el puerto de salida hacia WSAA. La implementación
// concreta es el cliente SOAP; para tests se inyecta un fake.
type Authenticator interface {
	// Authenticate devuelve credenciales vigentes para el servicio destino,
	// resolviendo contra el cache de tokens antes de ir a la red.
	Authenticate(ctx context.Context, cfg *entity.FiscalConfig, service string) (*infraarca.Credentials, error)
}

// VoucherAuthorizer define el puerto de salida hacia WSFE.
type VoucherAuthorizer interface {
	// LastAuthorized devuelve el último número autorizado para el punto de
	// venta y tipo de comprobante; el próximo es ese valor + 1.
	LastAuthorized(ctx context.Context, environment string, auth infraarca.Auth, posNumber, voucherTypeCode int) (int64, error)

	// Authorize envía el comprobante (lote de 1) y devuelve el resultado con
	// los payloads crudos, incluso ante rechazo.
	Authorize(ctx context.Context, environment string, auth infraarca.Auth, req infraarca.VoucherRequest) (*infraarca.AuthorizationResult, error)
}

// TxRunner ejecuta un callback con repos atados a una misma transacción.
// La nota de crédito lo usa para que AUTHORIZED y la anulación de la venta
// entren o no entren juntas.
type TxRunner interface {
	Run(ctx context.Context, fn func(vouchers repository.VoucherRepository, sales repository.SaleRepository) error) error
}
