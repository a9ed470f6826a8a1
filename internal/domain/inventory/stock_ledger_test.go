package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Apply por política
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_BlockNegative_RechazaSalidaMayorAlStock(t *testing.T) {
	res, err := inventory.Apply(d("5"), d("-6"), entity.StockPolicyBlockNegative, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.False(t, res.Applied)
	assert.True(t, res.After.Equal(d("5")), "la cantidad no debe cambiar")
}

func TestApply_BlockNegative_PermiteLlegarACero(t *testing.T) {
	res, err := inventory.Apply(d("5"), d("-5"), entity.StockPolicyBlockNegative, false)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.After.IsZero())
}

func TestApply_BlockNegative_OverridePermiteNegativo(t *testing.T) {
	res, err := inventory.Apply(d("1"), d("-3"), entity.StockPolicyBlockNegative, true)
	require.NoError(t, err)
	assert.True(t, res.After.Equal(d("-2")))
}

func TestApply_AllowNegative_SiempreAplica(t *testing.T) {
	res, err := inventory.Apply(d("0"), d("-4"), entity.StockPolicyAllowNegative, false)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.After.Equal(d("-4")))
}

func TestApply_NoTracking_NoModificaCantidad(t *testing.T) {
	res, err := inventory.Apply(d("2"), d("-10"), entity.StockPolicyNoTracking, false)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.True(t, res.After.Equal(d("2")))
}

func TestApply_PoliticaDesconocida(t *testing.T) {
	_, err := inventory.Apply(d("2"), d("1"), entity.StockPolicy("X"), false)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

// Propiedad: con BLOCK_NEGATIVE ninguna secuencia de ajustes deja el stock bajo cero.
func TestApplyToProduct_BlockNegative_NuncaNegativo(t *testing.T) {
	p := &entity.Product{Code: "P1", OnHandQuantity: d("3"), StockPolicy: entity.StockPolicyBlockNegative}
	deltas := []string{"-1", "-5", "+4", "-6", "-1", "+2", "-3", "-10"}
	for _, raw := range deltas {
		before := p.OnHandQuantity
		_, err := inventory.ApplyToProduct(p, d(raw), false)
		if err != nil {
			de, ok := domain.AsError(err)
			require.True(t, ok)
			assert.Equal(t, "P1", de.EntityID, "el error debe nombrar el producto")
			assert.True(t, p.OnHandQuantity.Equal(before), "un rechazo no modifica la cantidad")
		}
		assert.False(t, p.OnHandQuantity.IsNegative(), "stock negativo tras delta %s", raw)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// CostCalculator
// ──────────────────────────────────────────────────────────────────────────────

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	// (10*5 + 10*7) / 20 = 6
	got := inventory.CostCalculator(d("10"), d("5"), d("10"), d("7"))
	assert.True(t, got.Equal(d("6")), "got %s", got)
}

func TestCostCalculator_SinStockPrevioUsaCostoEntrada(t *testing.T) {
	got := inventory.CostCalculator(d("0"), d("5"), d("4"), d("9"))
	assert.True(t, got.Equal(d("9")))
}
