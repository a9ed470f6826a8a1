package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con stock previo negativo o nulo el costo de la entrada reemplaza al vigente.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual.LessThanOrEqual(decimal.Zero) {
		return costoEntrada
	}
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum).Round(4)
}
