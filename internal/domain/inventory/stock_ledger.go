package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// Result resultado de aplicar un delta al stock.
type Result struct {
	Before  decimal.Decimal
	After   decimal.Decimal
	Applied bool // false con NO_TRACKING
}

// Apply aplica un delta firmado según la política de stock.
//   - BLOCK_NEGATIVE: rechaza con ErrInsufficientStock si el resultado queda < 0, salvo override.
//   - ALLOW_NEGATIVE: aplica siempre.
//   - NO_TRACKING: no cambia la cantidad.
func Apply(onHand, delta decimal.Decimal, policy entity.StockPolicy, override bool) (Result, error) {
	res := Result{Before: onHand, After: onHand}
	switch policy {
	case entity.StockPolicyNoTracking:
		return res, nil
	case entity.StockPolicyBlockNegative:
		next := onHand.Add(delta)
		if next.IsNegative() && !override {
			return res, domain.ErrInsufficientStock
		}
		res.After, res.Applied = next, true
	case entity.StockPolicyAllowNegative:
		res.After, res.Applied = onHand.Add(delta), true
	default:
		return res, domain.ErrInvalidInput.WithMessage("política de stock desconocida: %s", policy)
	}
	return res, nil
}

// ApplyToProduct aplica el delta sobre el producto usando su política vigente.
// El error de stock insuficiente nombra el código del producto.
func ApplyToProduct(p *entity.Product, delta decimal.Decimal, override bool) (Result, error) {
	res, err := Apply(p.OnHandQuantity, delta, p.StockPolicy, override)
	if err != nil {
		if de, ok := domain.AsError(err); ok && de.Is(domain.ErrInsufficientStock) {
			return res, domain.ErrInsufficientStock.
				WithMessage("stock insuficiente: disponible %s, solicitado %s", p.OnHandQuantity.String(), delta.Neg().String()).
				WithEntity(p.Code)
		}
		return res, err
	}
	p.OnHandQuantity = res.After
	return res, nil
}
