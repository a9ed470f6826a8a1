package ports

import (
	"context"
	"fmt"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// Tipos de recurso para las llaves de bloqueo.
const (
	LockCashRegister = "cash_register"
	LockProduct      = "product"
	LockObligation   = "obligation"
	LockDocument     = "document"
)

// Locker serializa operaciones por llave (tenant, tipo de recurso, llave).
// Acquire toma todas las llaves (en orden estable) o ninguna; release libera las tomadas.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// LockKey llave de bloqueo; tenants distintos nunca comparten llaves.
func LockKey(tenant entity.Tenant, kind, key string) string {
	return fmt.Sprintf("lock:%s:%s:%s:%s", tenant.StoreID, tenant.CompanyID, kind, key)
}
