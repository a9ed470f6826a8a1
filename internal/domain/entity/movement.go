package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale decimales con que se persisten los importes de dinero.
const MoneyScale = 2

// IsMoney indica si el importe se representa en centavos sin pérdida.
func IsMoney(v decimal.Decimal) bool {
	return v.Equal(v.Round(MoneyScale))
}

// Direction sentido de un movimiento de caja.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Opposite devuelve el sentido contrario.
func (d Direction) Opposite() Direction {
	if d == DirectionIn {
		return DirectionOut
	}
	return DirectionIn
}

// IsValid indica si el sentido es conocido.
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Instrument medio de pago.
type Instrument string

const (
	InstrumentCash         Instrument = "cash"
	InstrumentCardCredit   Instrument = "card_credit"
	InstrumentCardDebit    Instrument = "card_debit"
	InstrumentPix          Instrument = "pix"
	InstrumentBankTransfer Instrument = "bank_transfer"
	InstrumentBoleto       Instrument = "boleto"
	InstrumentDeferred     Instrument = "deferred" // a plazo: genera cuotas por cobrar
)

// IsValid indica si el instrumento es conocido.
func (i Instrument) IsValid() bool {
	switch i {
	case InstrumentCash, InstrumentCardCredit, InstrumentCardDebit, InstrumentPix,
		InstrumentBankTransfer, InstrumentBoleto, InstrumentDeferred:
		return true
	}
	return false
}

// SourceKind origen de un movimiento.
type SourceKind string

const (
	SourceSale                 SourceKind = "sale"
	SourceServiceOrder         SourceKind = "service_order"
	SourcePayableSettlement    SourceKind = "payable_settlement"
	SourceReceivableSettlement SourceKind = "receivable_settlement"
	SourceReversal             SourceKind = "reversal"
	SourceManual               SourceKind = "manual"
)

// Categorías contables usadas por el motor.
const (
	CategorySalesRevenue         = "SALES_REVENUE"
	CategoryServiceRevenue       = "SERVICE_REVENUE"
	CategoryReceivableSettlement = "RECEIVABLE_SETTLEMENT"
	CategoryPayableSettlement    = "PAYABLE_SETTLEMENT"
	CategoryReversal             = "REVERSAL"
)

// Movement asiento de caja ("Movimentação"). Inmutable salvo la anulación en sitio
// de documentos cuya caja sigue abierta; las reversiones crean un asiento nuevo.
type Movement struct {
	ID                 string
	Tenant             Tenant
	Number             int64
	SessionID          string
	Direction          Direction
	Amount             decimal.Decimal
	Instrument         Instrument
	SourceKind         SourceKind
	SourceDocumentID   string
	OriginalSourceKind SourceKind // origen antes de la anulación en sitio
	ReversalOf         string     // movimiento compensado por este asiento
	Annulled           bool       // anulado en sitio: no aporta al saldo
	AccountingCategory string
	Description        string
	CreatedBy          string
	CreatedAt          time.Time
	ReversedAt         *time.Time // solo anulación en sitio
	ReversedBy         string
}

// CashEffect aporte firmado del movimiento al saldo en efectivo de su sesión.
func (m *Movement) CashEffect() decimal.Decimal {
	if m.Instrument != InstrumentCash || m.Annulled {
		return decimal.Zero
	}
	if m.Direction == DirectionOut {
		return m.Amount.Neg()
	}
	return m.Amount
}
