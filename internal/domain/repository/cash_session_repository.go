package repository

import (
	"context"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// CashSessionRepository define el puerto de persistencia para sesiones de caja.
// Las búsquedas devuelven (nil, nil) cuando no hay resultado.
type CashSessionRepository interface {
	Create(ctx context.Context, session *entity.CashSession) error
	Update(ctx context.Context, session *entity.CashSession) error
	GetByID(ctx context.Context, tenant entity.Tenant, id string) (*entity.CashSession, error)
	// GetByIDForUpdate bloquea la fila (saldo en efectivo) hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.CashSession, error)
	// FindOpen sesión OPEN del registro (bloqueada para update).
	FindOpen(ctx context.Context, tenant entity.Tenant, registerNumber int) (*entity.CashSession, error)
	// FindLatestOpen sesión OPEN más reciente del tenant, cualquier registro (bloqueada para update).
	FindLatestOpen(ctx context.Context, tenant entity.Tenant) (*entity.CashSession, error)
	// FindLastClosed última sesión CLOSED del registro (por fecha de cierre).
	FindLastClosed(ctx context.Context, tenant entity.Tenant, registerNumber int) (*entity.CashSession, error)
}

// MovementRepository define el puerto de persistencia para movimientos de caja.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// Update solo se usa para anular en sitio.
	Update(ctx context.Context, movement *entity.Movement) error
	// Delete solo se usa al alterar un documento cuya caja sigue abierta.
	Delete(ctx context.Context, tenant entity.Tenant, id string) error
	GetByID(ctx context.Context, tenant entity.Tenant, id string) (*entity.Movement, error)
	ListBySession(ctx context.Context, tenant entity.Tenant, sessionID string) ([]*entity.Movement, error)
	// FindByReversalOf asiento compensatorio de original, si existe.
	FindByReversalOf(ctx context.Context, tenant entity.Tenant, originalID string) (*entity.Movement, error)
	// ListBySource asientos del documento, incluidos los anulados en sitio (por su origen previo).
	ListBySource(ctx context.Context, tenant entity.Tenant, kind entity.SourceKind, documentID string) ([]*entity.Movement, error)
}
