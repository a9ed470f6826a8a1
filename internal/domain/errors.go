package domain

import (
	"errors"
	"fmt"
)

// Kind clasifica un error de dominio; el caller decide qué hacer según la clase, no según el texto.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"         // el caller debe corregir y reintentar
	KindNotFound          Kind = "NOT_FOUND"          // entidad inexistente para el tenant
	KindConflict          Kind = "CONFLICT"           // llave única duplicada
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK" // rechazo de regla de negocio, no una falla
	KindStateTransition   Kind = "STATE_TRANSITION"   // transición no permitida en el estado actual
	KindInternal          Kind = "INTERNAL"           // falla de almacenamiento u otra inesperada
)

// Error es un error de dominio estructurado: clase + código + mensaje + entidad afectada.
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	EntityID string
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Error implementa la interfaz error.
func (e *Error) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.EntityID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is compara por código, de modo que errors.Is(errConEntidad, ErrX) funciona.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithEntity devuelve una copia del error que nombra la entidad afectada.
func (e *Error) WithEntity(id string) *Error {
	c := *e
	c.EntityID = id
	return &c
}

// WithMessage devuelve una copia del error con un mensaje más específico.
func (e *Error) WithMessage(format string, args ...any) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// KindOf devuelve la clase del error; errores ajenos al dominio son INTERNAL.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError extrae el *Error de dominio de la cadena, si hay uno.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Errores genéricos.
var (
	ErrInvalidInput = newError(KindValidation, "VALIDATION", "entrada inválida")
	ErrNotFound     = newError(KindNotFound, "NOT_FOUND", "recurso no encontrado")
	ErrConflict     = newError(KindConflict, "CONFLICT", "conflicto con el estado actual")
)

// Caja y movimientos.
var (
	ErrSessionAlreadyOpen                = newError(KindConflict, "SESSION_ALREADY_OPEN", "ya existe una caja abierta para el registro")
	ErrSessionNotFound                   = newError(KindNotFound, "SESSION_NOT_FOUND", "caja no encontrada")
	ErrSessionAlreadyClosed              = newError(KindStateTransition, "SESSION_ALREADY_CLOSED", "la caja ya está cerrada")
	ErrNoOpenSession                     = newError(KindStateTransition, "NO_OPEN_SESSION", "no hay caja abierta")
	ErrCrossSessionModificationForbidden = newError(KindStateTransition, "CROSS_SESSION_MODIFICATION_FORBIDDEN", "el documento pertenece a una caja ya cerrada")
	ErrMovementNotFound                  = newError(KindNotFound, "MOVEMENT_NOT_FOUND", "movimiento no encontrado")
)

// Inventario.
var (
	ErrProductNotFound   = newError(KindNotFound, "PRODUCT_NOT_FOUND", "producto no encontrado")
	ErrProductInactive   = newError(KindStateTransition, "PRODUCT_INACTIVE", "producto inactivo")
	ErrDuplicate         = newError(KindConflict, "DUPLICATE", "recurso duplicado")
	ErrInsufficientStock = newError(KindInsufficientStock, "INSUFFICIENT_STOCK", "stock insuficiente")
)

// Cuentas por cobrar / por pagar.
var (
	ErrObligationNotFound             = newError(KindNotFound, "OBLIGATION_NOT_FOUND", "obligación no encontrada")
	ErrSettlementNotFound             = newError(KindNotFound, "SETTLEMENT_NOT_FOUND", "liquidación no encontrada")
	ErrInvalidInstallment             = newError(KindValidation, "INVALID_INSTALLMENT", "cuota inválida")
	ErrAmountExceedsRemaining         = newError(KindValidation, "AMOUNT_EXCEEDS_REMAINING", "el monto supera el saldo pendiente")
	ErrAlreadySettled                 = newError(KindStateTransition, "ALREADY_SETTLED", "la obligación ya está liquidada")
	ErrObligationCanceled             = newError(KindStateTransition, "OBLIGATION_CANCELED", "la obligación está cancelada")
	ErrReverseAmountExceedsSettlement = newError(KindValidation, "REVERSE_AMOUNT_EXCEEDS_SETTLEMENT", "el monto a revertir supera la liquidación")
	ErrAlreadyReversed                = newError(KindStateTransition, "ALREADY_REVERSED", "ya fue revertido por completo")
	ErrMixedPartyBatchSettlement      = newError(KindValidation, "MIXED_PARTY_BATCH_SETTLEMENT", "las obligaciones del lote pertenecen a partes distintas")
)

// Documentos (ventas y órdenes de servicio).
var (
	ErrDocumentNotFound  = newError(KindNotFound, "DOCUMENT_NOT_FOUND", "documento no encontrado")
	ErrAlreadyCanceled   = newError(KindStateTransition, "ALREADY_CANCELED", "el documento ya está cancelado")
	ErrInvalidTransition = newError(KindStateTransition, "INVALID_TRANSITION", "transición de estado no permitida")
)
