package sales

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	rules "github.com/jhoicas/retaguarda-api/internal/domain/finance"
)

// validateDocument revisa líneas y pagos; devuelve el total del documento.
func validateDocument(in DocumentInput) (decimal.Decimal, error) {
	if in.Tenant.IsZero() || in.Actor == "" {
		return decimal.Zero, domain.ErrInvalidInput.WithMessage("tenant y actor son obligatorios")
	}
	if len(in.Items) == 0 {
		return decimal.Zero, domain.ErrInvalidInput.WithMessage("el documento no tiene líneas")
	}
	total := decimal.Zero
	for i, it := range in.Items {
		if it.ProductCode == "" {
			return decimal.Zero, domain.ErrInvalidInput.WithMessage("línea %d: código de producto obligatorio", i+1)
		}
		if !it.Quantity.IsPositive() {
			return decimal.Zero, domain.ErrInvalidInput.WithMessage("línea %d: la cantidad debe ser positiva", i+1).WithEntity(it.ProductCode)
		}
		if it.UnitPrice.IsNegative() {
			return decimal.Zero, domain.ErrInvalidInput.WithMessage("línea %d: precio unitario negativo", i+1).WithEntity(it.ProductCode)
		}
		if it.Discount.IsNegative() || it.Discount.GreaterThan(it.Quantity.Mul(it.UnitPrice)) {
			return decimal.Zero, domain.ErrInvalidInput.WithMessage("línea %d: descuento fuera de rango", i+1).WithEntity(it.ProductCode)
		}
		total = total.Add(it.Total())
	}

	if len(in.Payments) == 0 {
		return decimal.Zero, domain.ErrInvalidInput.WithMessage("el documento no tiene pagos")
	}
	paid := decimal.Zero
	for i, p := range in.Payments {
		if !p.Instrument.IsValid() {
			return decimal.Zero, domain.ErrInvalidInput.WithMessage("pago %d: instrumento inválido %q", i+1, p.Instrument)
		}
		if !p.Amount.IsPositive() {
			return decimal.Zero, domain.ErrInvalidInput.WithMessage("pago %d: el monto debe ser positivo", i+1)
		}
		if !entity.IsMoney(p.Amount) {
			return decimal.Zero, domain.ErrInvalidInput.WithMessage("pago %d: el monto tiene más de dos decimales", i+1)
		}
		if p.Instrument == entity.InstrumentDeferred {
			if in.CustomerID == "" {
				return decimal.Zero, domain.ErrInvalidInput.WithMessage("un pago a plazo requiere cliente")
			}
			if err := validatePlan(p); err != nil {
				return decimal.Zero, err
			}
		}
		paid = paid.Add(p.Amount)
	}
	if !paid.Equal(total) {
		return decimal.Zero, domain.ErrInvalidInput.
			WithMessage("los pagos (%s) no cuadran con el total (%s)", paid.StringFixed(2), total.StringFixed(2))
	}
	return total, nil
}

func validatePlan(p entity.PaymentEntry) error {
	if len(p.Installments) == 0 {
		return domain.ErrInvalidInstallment.WithMessage("el pago a plazo no tiene cuotas")
	}
	sum := decimal.Zero
	for _, inst := range p.Installments {
		if err := rules.ValidateInstallment(inst.Amount, inst.DueDate); err != nil {
			return err
		}
		sum = sum.Add(inst.Amount)
	}
	if !sum.Equal(p.Amount) {
		return domain.ErrInvalidInstallment.
			WithMessage("las cuotas (%s) no cuadran con el pago a plazo (%s)", sum.StringFixed(2), p.Amount.StringFixed(2))
	}
	return nil
}

func productCodes(items ...[]entity.LineItem) []string {
	var codes []string
	for _, list := range items {
		for _, it := range list {
			codes = append(codes, it.ProductCode)
		}
	}
	return codes
}
