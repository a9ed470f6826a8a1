package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPolicy regla por producto que decide si se permite stock negativo.
type StockPolicy string

const (
	StockPolicyBlockNegative StockPolicy = "BLOCK_NEGATIVE" // rechaza salidas que dejen el stock < 0
	StockPolicyAllowNegative StockPolicy = "ALLOW_NEGATIVE" // aplica siempre
	StockPolicyNoTracking    StockPolicy = "NO_TRACKING"    // no controla cantidad
)

// IsValid indica si la política es conocida.
func (p StockPolicy) IsValid() bool {
	switch p {
	case StockPolicyBlockNegative, StockPolicyAllowNegative, StockPolicyNoTracking:
		return true
	}
	return false
}

// Prices foto de precios vigente de un producto.
type Prices struct {
	Purchase  decimal.Decimal `json:"purchase"`
	Cost      decimal.Decimal `json:"cost"`
	Sale      decimal.Decimal `json:"sale"`
	Wholesale decimal.Decimal `json:"wholesale"`
}

// Product producto del inventario, único por código dentro del tenant.
// No se elimina nunca: solo se desactiva.
type Product struct {
	ID             string
	Tenant         Tenant
	Code           string
	Name           string
	OnHandQuantity decimal.Decimal
	UsedQuantity   decimal.Decimal // unidades consumidas por ventas/órdenes vigentes
	StockPolicy    StockPolicy
	Prices         Prices
	PreviousPrices Prices // copia de la foto anterior a la última entrada
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RotatePrices mueve los precios vigentes a la copia "anterior" y aplica los nuevos.
// Los campos nulos de next conservan el valor vigente.
func (p *Product) RotatePrices(next PriceUpdate) {
	p.PreviousPrices = p.Prices
	if next.Purchase != nil {
		p.Prices.Purchase = *next.Purchase
	}
	if next.Cost != nil {
		p.Prices.Cost = *next.Cost
	}
	if next.Sale != nil {
		p.Prices.Sale = *next.Sale
	}
	if next.Wholesale != nil {
		p.Prices.Wholesale = *next.Wholesale
	}
}

// PriceUpdate precios opcionales informados en una entrada de mercancía.
type PriceUpdate struct {
	Purchase  *decimal.Decimal
	Cost      *decimal.Decimal
	Sale      *decimal.Decimal
	Wholesale *decimal.Decimal
}

// IsEmpty indica si no se informó ningún precio.
func (u PriceUpdate) IsEmpty() bool {
	return u.Purchase == nil && u.Cost == nil && u.Sale == nil && u.Wholesale == nil
}
