package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrSaleNotConfirmed   = errors.New("la venta no está confirmada")
	ErrSaleAlreadyVoided  = errors.New("la venta ya fue anulada")
)

// Errores de la integración fiscal ARCA. La capa de orquestación los captura
// todos y los convierte en un comprobante RECHAZADO con el mensaje persistido;
// los sentinel permiten clasificar el motivo con errors.Is.
var (
	// ErrFiscalDisabled la integración está apagada o faltan credenciales:
	// se reporta al operador antes de intentar cualquier llamada remota.
	ErrFiscalDisabled = errors.New("facturación electrónica deshabilitada o sin credenciales")
	// ErrFiscalSigning falló la firma criptográfica del ticket de acceso.
	ErrFiscalSigning = errors.New("error de firma del ticket de acceso")
	// ErrFiscalRemote el servicio remoto falló o devolvió credenciales vacías.
	ErrFiscalRemote = errors.New("error del servicio fiscal remoto")
	// ErrFiscalEndpoints todos los endpoints candidatos fallaron.
	ErrFiscalEndpoints = errors.New("ningún endpoint del servicio fiscal respondió")
)
