package cashier

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// OpeningBalance saldo de apertura: el saldo final de la última sesión cerrada del registro
// o, si no hay, el saldo inicial informado (0 por defecto).
func OpeningBalance(lastClosed *entity.CashSession, initial *decimal.Decimal) decimal.Decimal {
	if lastClosed != nil {
		return lastClosed.RunningCashBalance
	}
	if initial != nil {
		return *initial
	}
	return decimal.Zero
}

// Close cierra la sesión y congela el saldo.
func Close(s *entity.CashSession, actor string, at time.Time) error {
	if !s.IsOpen() {
		return domain.ErrSessionAlreadyClosed.WithEntity(s.ID)
	}
	s.Status = entity.SessionStatusClosed
	s.ClosedBy = actor
	s.ClosedAt = &at
	return nil
}

// ApplyCashEffect suma al saldo en efectivo el aporte firmado de un movimiento.
func ApplyCashEffect(s *entity.CashSession, effect decimal.Decimal) error {
	if !s.IsOpen() {
		return domain.ErrNoOpenSession.WithEntity(s.ID)
	}
	s.RunningCashBalance = s.RunningCashBalance.Add(effect)
	return nil
}

// Summary totales de una sesión por instrumento y sentido (reporte de cierre).
type Summary struct {
	SessionID      string
	OpeningBalance decimal.Decimal
	CashBalance    decimal.Decimal
	TotalIn        map[entity.Instrument]decimal.Decimal
	TotalOut       map[entity.Instrument]decimal.Decimal
	MovementCount  int
}

// Summarize agrega los movimientos no anulados de la sesión.
func Summarize(s *entity.CashSession, movements []*entity.Movement) Summary {
	sum := Summary{
		SessionID:      s.ID,
		OpeningBalance: s.OpeningBalance,
		CashBalance:    s.RunningCashBalance,
		TotalIn:        map[entity.Instrument]decimal.Decimal{},
		TotalOut:       map[entity.Instrument]decimal.Decimal{},
	}
	for _, m := range movements {
		if m.Annulled {
			continue
		}
		sum.MovementCount++
		if m.Direction == entity.DirectionIn {
			sum.TotalIn[m.Instrument] = sum.TotalIn[m.Instrument].Add(m.Amount)
		} else {
			sum.TotalOut[m.Instrument] = sum.TotalOut[m.Instrument].Add(m.Amount)
		}
	}
	return sum
}
