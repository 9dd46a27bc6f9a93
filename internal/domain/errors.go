package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrHasActiveStock    = errors.New("el recurso tiene stock activo")
)

// IsRetryable indica si el error admite reintento automático (solo ErrConflict).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
