package cashier_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/cashier"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

func TestOpeningBalance_UsaSaldoDeLaUltimaCerrada(t *testing.T) {
	initial := decimal.NewFromInt(20)
	last := &entity.CashSession{RunningCashBalance: decimal.RequireFromString("150.00")}
	assert.True(t, cashier.OpeningBalance(last, &initial).Equal(decimal.NewFromInt(150)))
	assert.True(t, cashier.OpeningBalance(nil, &initial).Equal(initial))
	assert.True(t, cashier.OpeningBalance(nil, nil).IsZero())
}

func TestClose_DosVeces(t *testing.T) {
	s := &entity.CashSession{ID: "s1", Status: entity.SessionStatusOpen}
	require.NoError(t, cashier.Close(s, "u1", time.Now()))
	assert.Equal(t, entity.SessionStatusClosed, s.Status)
	require.NotNil(t, s.ClosedAt)
	assert.True(t, errors.Is(cashier.Close(s, "u1", time.Now()), domain.ErrSessionAlreadyClosed))
}

func TestSummarize_IgnoraAnulados(t *testing.T) {
	s := &entity.CashSession{ID: "s1", Status: entity.SessionStatusOpen}
	movs := []*entity.Movement{
		{Direction: entity.DirectionIn, Amount: decimal.NewFromInt(100), Instrument: entity.InstrumentCash},
		{Direction: entity.DirectionIn, Amount: decimal.NewFromInt(30), Instrument: entity.InstrumentPix},
		{Direction: entity.DirectionOut, Amount: decimal.NewFromInt(10), Instrument: entity.InstrumentCash},
		{Direction: entity.DirectionOut, Amount: decimal.NewFromInt(50), Instrument: entity.InstrumentCash, Annulled: true},
	}
	sum := cashier.Summarize(s, movs)
	assert.Equal(t, 3, sum.MovementCount)
	assert.True(t, sum.TotalIn[entity.InstrumentCash].Equal(decimal.NewFromInt(100)))
	assert.True(t, sum.TotalIn[entity.InstrumentPix].Equal(decimal.NewFromInt(30)))
	assert.True(t, sum.TotalOut[entity.InstrumentCash].Equal(decimal.NewFromInt(10)))
}

func TestMovementCashEffect(t *testing.T) {
	in := &entity.Movement{Direction: entity.DirectionIn, Amount: decimal.NewFromInt(5), Instrument: entity.InstrumentCash}
	out := &entity.Movement{Direction: entity.DirectionOut, Amount: decimal.NewFromInt(5), Instrument: entity.InstrumentCash}
	card := &entity.Movement{Direction: entity.DirectionIn, Amount: decimal.NewFromInt(5), Instrument: entity.InstrumentCardDebit}
	assert.True(t, in.CashEffect().Equal(decimal.NewFromInt(5)))
	assert.True(t, out.CashEffect().Equal(decimal.NewFromInt(-5)))
	assert.True(t, card.CashEffect().IsZero(), "solo el efectivo afecta el saldo")
}
