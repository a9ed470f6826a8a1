package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retaguarda-api/internal/application/inventory"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/lock"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/memory"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

var tenant = entity.Tenant{StoreID: "store-1", CompanyID: "company-1"}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func newStock(t *testing.T, code, qty string, policy entity.StockPolicy) *inventory.StockUseCase {
	t.Helper()
	uc := inventory.NewStockUseCase(memory.New(), lock.NewLocal(), logger.Nop())
	_, err := uc.CreateProduct(context.Background(), inventory.CreateProductInput{
		Tenant:          tenant,
		Code:            code,
		Name:            "Tornillo",
		StockPolicy:     policy,
		InitialQuantity: d(qty),
		Prices:          entity.Prices{Purchase: d("1.00"), Cost: d("1.00"), Sale: d("2.50"), Wholesale: d("2.00")},
	})
	require.NoError(t, err)
	return uc
}

func adjust(uc *inventory.StockUseCase, code, delta string) (*entity.Product, error) {
	return uc.AdjustStock(context.Background(), inventory.AdjustStockInput{
		Tenant: tenant, Actor: "u1", ProductCode: code, Delta: d(delta),
	})
}

func TestCreateProduct_CodigoDuplicado(t *testing.T) {
	uc := newStock(t, "T-1", "5", entity.StockPolicyBlockNegative)
	_, err := uc.CreateProduct(context.Background(), inventory.CreateProductInput{
		Tenant: tenant, Code: "T-1", Name: "Otro",
	})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	other := entity.Tenant{StoreID: "store-2", CompanyID: "company-1"}
	p, err := uc.CreateProduct(context.Background(), inventory.CreateProductInput{
		Tenant: other, Code: "T-1", Name: "Otro",
	})
	require.NoError(t, err, "el código es único por tenant")
	assert.Equal(t, entity.StockPolicyBlockNegative, p.StockPolicy, "política por defecto")
}

// Con BLOCK_NEGATIVE ninguna secuencia de ajustes deja el stock bajo cero y cada rechazo
// deja la cantidad intacta.
func TestAdjustStock_BlockNegative_NuncaNegativo(t *testing.T) {
	uc := newStock(t, "T-1", "3", entity.StockPolicyBlockNegative)
	for _, delta := range []string{"-1", "-5", "4", "-6", "-1", "2", "-7", "-10"} {
		before, err := uc.GetProduct(context.Background(), tenant, "T-1")
		require.NoError(t, err)

		p, err := adjust(uc, "T-1", delta)
		if err != nil {
			assert.True(t, errors.Is(err, domain.ErrInsufficientStock), "delta %s: %v", delta, err)
			after, getErr := uc.GetProduct(context.Background(), tenant, "T-1")
			require.NoError(t, getErr)
			assert.True(t, after.OnHandQuantity.Equal(before.OnHandQuantity))
			continue
		}
		assert.False(t, p.OnHandQuantity.IsNegative(), "delta %s dejó %s", delta, p.OnHandQuantity)
	}
}

func TestAdjustStock_OverrideYPoliticas(t *testing.T) {
	uc := newStock(t, "T-1", "1", entity.StockPolicyBlockNegative)
	p, err := uc.AdjustStock(context.Background(), inventory.AdjustStockInput{
		Tenant: tenant, Actor: "u1", ProductCode: "T-1", Delta: d("-3"), AllowOverride: true,
	})
	require.NoError(t, err)
	assert.True(t, p.OnHandQuantity.Equal(d("-2")))

	allow := newStock(t, "A-1", "0", entity.StockPolicyAllowNegative)
	p, err = adjust(allow, "A-1", "-4")
	require.NoError(t, err)
	assert.True(t, p.OnHandQuantity.Equal(d("-4")))

	none := newStock(t, "N-1", "2", entity.StockPolicyNoTracking)
	p, err = adjust(none, "N-1", "-40")
	require.NoError(t, err)
	assert.True(t, p.OnHandQuantity.Equal(d("2")))
	list, err := none.ListStockMovements(context.Background(), tenant, "N-1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "NO_TRACKING no deja auditoría")
}

func TestAdjustStock_Errores(t *testing.T) {
	uc := newStock(t, "T-1", "1", entity.StockPolicyBlockNegative)

	_, err := adjust(uc, "NOPE", "-1")
	assert.True(t, errors.Is(err, domain.ErrProductNotFound))
	_, err = adjust(uc, "T-1", "0")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = uc.DeactivateProduct(context.Background(), tenant, "T-1")
	require.NoError(t, err)
	_, err = adjust(uc, "T-1", "-1")
	assert.True(t, errors.Is(err, domain.ErrProductInactive))
	p, err := adjust(uc, "T-1", "2")
	require.NoError(t, err, "un producto inactivo todavía recibe entradas")
	assert.False(t, p.Active)
}

func TestReceiveStock_RotaPreciosYCostoPromedio(t *testing.T) {
	uc := newStock(t, "T-1", "10", entity.StockPolicyBlockNegative)

	p, err := uc.ReceiveStock(context.Background(), inventory.ReceiveStockInput{
		Tenant:      tenant,
		Actor:       "u1",
		ProductCode: "T-1",
		Quantity:    d("10"),
		UnitCost:    ptr("3.00"),
		Prices:      entity.PriceUpdate{Sale: ptr("4.00")},
		DocumentID:  "nota-1",
	})
	require.NoError(t, err)
	assert.True(t, p.OnHandQuantity.Equal(d("20")))
	assert.True(t, p.Prices.Cost.Equal(d("2")), "(10*1 + 10*3) / 20")
	assert.True(t, p.Prices.Purchase.Equal(d("3")))
	assert.True(t, p.Prices.Sale.Equal(d("4")))
	assert.True(t, p.Prices.Wholesale.Equal(d("2")), "los precios no informados se conservan")
	assert.True(t, p.PreviousPrices.Sale.Equal(d("2.50")))
	assert.True(t, p.PreviousPrices.Cost.Equal(d("1")))

	list, err := uc.ListStockMovements(context.Background(), tenant, "T-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.StockReasonReceipt, list[0].Reason)
	assert.Equal(t, "nota-1", list[0].SourceDocumentID)
	assert.True(t, list[0].QuantityBefore.Equal(d("10")))
	assert.True(t, list[0].QuantityAfter.Equal(d("20")))
}

func TestReceiveStock_SinPreciosNoRota(t *testing.T) {
	uc := newStock(t, "T-1", "1", entity.StockPolicyBlockNegative)
	p, err := uc.ReceiveStock(context.Background(), inventory.ReceiveStockInput{
		Tenant: tenant, Actor: "u1", ProductCode: "T-1", Quantity: d("5"),
	})
	require.NoError(t, err)
	assert.True(t, p.PreviousPrices.Sale.IsZero())
	assert.True(t, p.Prices.Sale.Equal(d("2.50")))

	_, err = uc.ReceiveStock(context.Background(), inventory.ReceiveStockInput{
		Tenant: tenant, Actor: "u1", ProductCode: "T-1", Quantity: d("-5"),
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestListStockMovements_MasRecientesPrimero(t *testing.T) {
	uc := newStock(t, "T-1", "10", entity.StockPolicyBlockNegative)
	for _, delta := range []string{"-1", "-2", "3"} {
		_, err := adjust(uc, "T-1", delta)
		require.NoError(t, err)
	}
	list, err := uc.ListStockMovements(context.Background(), tenant, "T-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Delta.Equal(d("3")))
	assert.Greater(t, list[0].Number, list[1].Number)
}
