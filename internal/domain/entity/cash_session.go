package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la caja.
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)

// CashSession un ciclo abierto/cerrado de una caja física ("Caixa").
// Solo puede haber una sesión OPEN por (tenant, register_number).
type CashSession struct {
	ID                 string
	Tenant             Tenant
	RegisterNumber     int
	SessionCode        int64
	Status             SessionStatus
	OpeningBalance     decimal.Decimal
	RunningCashBalance decimal.Decimal
	OpenedBy           string
	ClosedBy           string
	OpenedAt           time.Time
	ClosedAt           *time.Time
	Version            int
}

// IsOpen indica si la sesión admite movimientos.
func (s *CashSession) IsOpen() bool {
	return s.Status == SessionStatusOpen
}
