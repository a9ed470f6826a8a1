// Package finance reglas de liquidación y reversión de cuentas por cobrar y por pagar.
package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// DeriveStatus estado en función del saldo: 0 → SETTLED, 0<r<total → PARTIAL, r=total → OPEN.
func DeriveStatus(total, remaining decimal.Decimal) entity.ObligationStatus {
	switch {
	case remaining.IsZero():
		return entity.ObligationSettled
	case remaining.LessThan(total):
		return entity.ObligationPartial
	default:
		return entity.ObligationOpen
	}
}

// Recompute recalcula saldo y estado a partir de las liquidaciones. CANCELED no se resucita.
func Recompute(o *entity.Obligation) {
	paid := decimal.Zero
	for i := range o.Settlements {
		paid = paid.Add(o.Settlements[i].Unreversed())
	}
	o.RemainingAmount = o.TotalAmount.Sub(paid)
	if o.Status == entity.ObligationCanceled {
		return
	}
	o.Status = DeriveStatus(o.TotalAmount, o.RemainingAmount)
}

// ValidateInstallment una cuota necesita monto positivo y fecha de vencimiento.
func ValidateInstallment(amount decimal.Decimal, dueDate time.Time) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidInstallment.WithMessage("el monto de la cuota debe ser positivo")
	}
	if !entity.IsMoney(amount) {
		return domain.ErrInvalidInstallment.WithMessage("la cuota %s tiene más de dos decimales", amount)
	}
	if dueDate.IsZero() {
		return domain.ErrInvalidInstallment.WithMessage("la cuota requiere fecha de vencimiento")
	}
	return nil
}

// EnsureSettleable rechaza obligaciones liquidadas o canceladas.
func EnsureSettleable(o *entity.Obligation) error {
	switch o.Status {
	case entity.ObligationSettled:
		return domain.ErrAlreadySettled.WithEntity(o.ID)
	case entity.ObligationCanceled:
		return domain.ErrObligationCanceled.WithEntity(o.ID)
	}
	return nil
}

// Settle agrega una liquidación y recalcula saldo y estado. Devuelve el id de la liquidación.
func Settle(o *entity.Obligation, id string, amount decimal.Decimal, instrument entity.Instrument, actor string, at time.Time) (string, error) {
	if err := EnsureSettleable(o); err != nil {
		return "", err
	}
	if !amount.IsPositive() {
		return "", domain.ErrInvalidInput.WithMessage("el monto de la liquidación debe ser positivo")
	}
	if !entity.IsMoney(amount) {
		return "", domain.ErrInvalidInput.WithMessage("la liquidación %s tiene más de dos decimales", amount)
	}
	if amount.GreaterThan(o.RemainingAmount) {
		return "", domain.ErrAmountExceedsRemaining.
			WithMessage("monto %s supera el saldo pendiente %s", amount.StringFixed(2), o.RemainingAmount.StringFixed(2)).
			WithEntity(o.ID)
	}
	o.Settlements = append(o.Settlements, entity.Settlement{
		ID:             id,
		Amount:         amount,
		ReversedAmount: decimal.Zero,
		Instrument:     instrument,
		SettledAt:      at,
		SettledBy:      actor,
	})
	Recompute(o)
	o.UpdatedAt = at
	return id, nil
}

// ReverseSettlement revierte total o parcialmente una liquidación.
// El saldo vuelve a crecer en el monto revertido; una obligación CANCELED sigue CANCELED.
func ReverseSettlement(o *entity.Obligation, settlementID, reversalID string, amount decimal.Decimal, actor string, at time.Time) (*entity.Settlement, error) {
	s := o.Settlement(settlementID)
	if s == nil {
		return nil, domain.ErrSettlementNotFound.WithEntity(settlementID)
	}
	if s.Reversed || !s.Unreversed().IsPositive() {
		return nil, domain.ErrAlreadyReversed.WithEntity(settlementID)
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidInput.WithMessage("el monto a revertir debe ser positivo")
	}
	if !entity.IsMoney(amount) {
		return nil, domain.ErrInvalidInput.WithMessage("la reversión %s tiene más de dos decimales", amount)
	}
	if amount.GreaterThan(s.Unreversed()) {
		return nil, domain.ErrReverseAmountExceedsSettlement.
			WithMessage("monto %s supera lo liquidado sin revertir %s", amount.StringFixed(2), s.Unreversed().StringFixed(2)).
			WithEntity(settlementID)
	}
	s.ReversedAmount = s.ReversedAmount.Add(amount)
	s.Reversed = s.ReversedAmount.Equal(s.Amount)
	s.Reversals = append(s.Reversals, entity.SettlementReversal{
		ID:         reversalID,
		Amount:     amount,
		ReversedAt: at,
		ReversedBy: actor,
	})
	Recompute(o)
	o.UpdatedAt = at
	return s, nil
}

// Cancel pasa la obligación a CANCELED. Nunca se borra físicamente.
func Cancel(o *entity.Obligation, actor string, at time.Time) error {
	switch o.Status {
	case entity.ObligationCanceled:
		return domain.ErrObligationCanceled.WithEntity(o.ID)
	case entity.ObligationSettled:
		return domain.ErrAlreadySettled.WithEntity(o.ID)
	}
	o.Status = entity.ObligationCanceled
	o.CanceledAt = &at
	o.CanceledBy = actor
	o.UpdatedAt = at
	return nil
}

// Allocation porción de un pago en lote asignada a una obligación.
type Allocation struct {
	Obligation *entity.Obligation
	Amount     decimal.Decimal
}

// AllocateBatch reparte un pago entre varias cuotas de la misma parte, en orden ascendente de
// vencimiento: cada cuota consume lo necesario antes de pasar a la siguiente.
func AllocateBatch(obligations []*entity.Obligation, amount decimal.Decimal) ([]Allocation, error) {
	if len(obligations) == 0 {
		return nil, domain.ErrInvalidInput.WithMessage("el lote no tiene obligaciones")
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidInput.WithMessage("el monto del pago debe ser positivo")
	}
	if !entity.IsMoney(amount) {
		return nil, domain.ErrInvalidInput.WithMessage("el pago %s tiene más de dos decimales", amount)
	}
	first := obligations[0]
	pending := decimal.Zero
	for _, o := range obligations {
		if o.PartyID != first.PartyID || o.Kind != first.Kind {
			return nil, domain.ErrMixedPartyBatchSettlement.WithEntity(o.ID)
		}
		if err := EnsureSettleable(o); err != nil {
			return nil, err
		}
		pending = pending.Add(o.RemainingAmount)
	}
	if amount.GreaterThan(pending) {
		return nil, domain.ErrAmountExceedsRemaining.
			WithMessage("monto %s supera el saldo del lote %s", amount.StringFixed(2), pending.StringFixed(2))
	}

	ordered := make([]*entity.Obligation, len(obligations))
	copy(ordered, obligations)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].Number < ordered[j].Number
	})

	left := amount
	var out []Allocation
	for _, o := range ordered {
		if !left.IsPositive() {
			break
		}
		part := decimal.Min(left, o.RemainingAmount)
		out = append(out, Allocation{Obligation: o, Amount: part})
		left = left.Sub(part)
	}
	return out, nil
}

// MovementDirection sentido del movimiento de caja que genera una liquidación.
func MovementDirection(kind entity.ObligationKind) entity.Direction {
	if kind == entity.ObligationPayable {
		return entity.DirectionOut
	}
	return entity.DirectionIn
}

// MovementSource origen y categoría contable de la liquidación.
func MovementSource(kind entity.ObligationKind) (entity.SourceKind, string) {
	if kind == entity.ObligationPayable {
		return entity.SourcePayableSettlement, entity.CategoryPayableSettlement
	}
	return entity.SourceReceivableSettlement, entity.CategoryReceivableSettlement
}
