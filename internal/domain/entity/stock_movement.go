package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Motivos de movimiento de stock.
const (
	StockReasonAdjustment = "ADJUSTMENT" // ajuste manual
	StockReasonReceipt    = "RECEIPT"    // entrada de mercancía
	StockReasonSale       = "SALE"       // salida por documento
	StockReasonRestore    = "RESTORE"    // devolución por cancelación/alteración
)

// StockMovement registro de auditoría de cada delta aplicado al stock de un producto.
type StockMovement struct {
	ID               string
	Tenant           Tenant
	Number           int64
	ProductID        string
	ProductCode      string
	Delta            decimal.Decimal // positivo entrada, negativo salida
	QuantityBefore   decimal.Decimal
	QuantityAfter    decimal.Decimal
	Reason           string
	SourceKind       SourceKind
	SourceDocumentID string
	CreatedAt        time.Time
	CreatedBy        string
}
