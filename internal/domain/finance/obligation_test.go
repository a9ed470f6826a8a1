package finance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/finance"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newObligation(id, party string, total string, due time.Time, number int64) *entity.Obligation {
	return &entity.Obligation{
		ID:              id,
		Kind:            entity.ObligationReceivable,
		Number:          number,
		PartyID:         party,
		TotalAmount:     d(total),
		RemainingAmount: d(total),
		DueDate:         due,
		Status:          entity.ObligationOpen,
	}
}

// assertInvariant remaining = total − Σ(no revertido) y estado derivado del saldo.
func assertInvariant(t *testing.T, o *entity.Obligation) {
	t.Helper()
	paid := decimal.Zero
	for _, s := range o.Settlements {
		paid = paid.Add(s.Amount.Sub(s.ReversedAmount))
	}
	assert.True(t, o.RemainingAmount.Equal(o.TotalAmount.Sub(paid)), "saldo inconsistente")
	if o.Status != entity.ObligationCanceled {
		assert.Equal(t, finance.DeriveStatus(o.TotalAmount, o.RemainingAmount), o.Status)
	}
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, entity.ObligationOpen, finance.DeriveStatus(d("100"), d("100")))
	assert.Equal(t, entity.ObligationPartial, finance.DeriveStatus(d("100"), d("0.01")))
	assert.Equal(t, entity.ObligationSettled, finance.DeriveStatus(d("100"), d("0")))
}

func TestSettle_ParcialYTotal(t *testing.T) {
	o := newObligation("o1", "c1", "100", now, 1)

	_, err := finance.Settle(o, "s1", d("60"), entity.InstrumentCash, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, entity.ObligationPartial, o.Status)
	assert.True(t, o.RemainingAmount.Equal(d("40")))
	assertInvariant(t, o)

	_, err = finance.Settle(o, "s2", d("40"), entity.InstrumentPix, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, entity.ObligationSettled, o.Status)
	assert.True(t, o.RemainingAmount.IsZero())
	assertInvariant(t, o)

	_, err = finance.Settle(o, "s3", d("1"), entity.InstrumentPix, "u1", now)
	assert.True(t, errors.Is(err, domain.ErrAlreadySettled))
}

func TestSettle_MontoSuperaSaldo(t *testing.T) {
	o := newObligation("o1", "c1", "100", now, 1)
	_, err := finance.Settle(o, "s1", d("100.01"), entity.InstrumentCash, "u1", now)
	assert.True(t, errors.Is(err, domain.ErrAmountExceedsRemaining))
	assert.Empty(t, o.Settlements)
}

func TestSettle_Cancelada(t *testing.T) {
	o := newObligation("o1", "c1", "100", now, 1)
	require.NoError(t, finance.Cancel(o, "u1", now))
	_, err := finance.Settle(o, "s1", d("10"), entity.InstrumentCash, "u1", now)
	assert.True(t, errors.Is(err, domain.ErrObligationCanceled))
}

func TestReverseSettlement_TotalYParcial(t *testing.T) {
	o := newObligation("o1", "c1", "100", now, 1)
	_, err := finance.Settle(o, "s1", d("60"), entity.InstrumentCash, "u1", now)
	require.NoError(t, err)

	s, err := finance.ReverseSettlement(o, "s1", "r1", d("20"), "u1", now)
	require.NoError(t, err)
	assert.False(t, s.Reversed, "reversión parcial no marca reversed")
	assert.True(t, o.RemainingAmount.Equal(d("60")))
	assertInvariant(t, o)

	_, err = finance.ReverseSettlement(o, "s1", "r2", d("41"), "u1", now)
	assert.True(t, errors.Is(err, domain.ErrReverseAmountExceedsSettlement))

	s, err = finance.ReverseSettlement(o, "s1", "r3", d("40"), "u1", now)
	require.NoError(t, err)
	assert.True(t, s.Reversed)
	assert.Equal(t, entity.ObligationOpen, o.Status)
	assert.True(t, o.RemainingAmount.Equal(d("100")))
	assertInvariant(t, o)

	_, err = finance.ReverseSettlement(o, "s1", "r4", d("1"), "u1", now)
	assert.True(t, errors.Is(err, domain.ErrAlreadyReversed))
}

func TestReverseSettlement_NoResucitaCancelada(t *testing.T) {
	o := newObligation("o1", "c1", "100", now, 1)
	_, err := finance.Settle(o, "s1", d("30"), entity.InstrumentCash, "u1", now)
	require.NoError(t, err)
	require.NoError(t, finance.Cancel(o, "u1", now))

	_, err = finance.ReverseSettlement(o, "s1", "r1", d("30"), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, entity.ObligationCanceled, o.Status)
	assert.True(t, o.RemainingAmount.Equal(d("100")))
}

func TestAllocateBatch_OrdenPorVencimiento(t *testing.T) {
	late := newObligation("late", "c1", "100", now.AddDate(0, 2, 0), 1)
	early := newObligation("early", "c1", "100", now, 2)
	mid := newObligation("mid", "c1", "100", now.AddDate(0, 1, 0), 3)

	allocs, err := finance.AllocateBatch([]*entity.Obligation{late, early, mid}, d("150"))
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, "early", allocs[0].Obligation.ID)
	assert.True(t, allocs[0].Amount.Equal(d("100")))
	assert.Equal(t, "mid", allocs[1].Obligation.ID)
	assert.True(t, allocs[1].Amount.Equal(d("50")))
}

func TestAllocateBatch_PartesDistintas(t *testing.T) {
	a := newObligation("a", "c1", "100", now, 1)
	b := newObligation("b", "c2", "100", now, 2)
	_, err := finance.AllocateBatch([]*entity.Obligation{a, b}, d("10"))
	assert.True(t, errors.Is(err, domain.ErrMixedPartyBatchSettlement))
}

func TestAllocateBatch_MontoSuperaSaldoDelLote(t *testing.T) {
	a := newObligation("a", "c1", "100", now, 1)
	_, err := finance.AllocateBatch([]*entity.Obligation{a}, d("100.5"))
	assert.True(t, errors.Is(err, domain.ErrAmountExceedsRemaining))
}

func TestValidateInstallment(t *testing.T) {
	assert.True(t, errors.Is(finance.ValidateInstallment(d("0"), now), domain.ErrInvalidInstallment))
	assert.True(t, errors.Is(finance.ValidateInstallment(d("10"), time.Time{}), domain.ErrInvalidInstallment))
	assert.NoError(t, finance.ValidateInstallment(d("10"), now))
}
