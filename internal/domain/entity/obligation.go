package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationKind cuenta por cobrar (cliente debe a la tienda) o por pagar (tienda debe a proveedor).
type ObligationKind string

const (
	ObligationReceivable ObligationKind = "RECEIVABLE"
	ObligationPayable    ObligationKind = "PAYABLE"
)

// IsValid indica si el tipo es conocido.
func (k ObligationKind) IsValid() bool {
	return k == ObligationReceivable || k == ObligationPayable
}

// Series devuelve la serie de numeración del tipo.
func (k ObligationKind) Series() string {
	if k == ObligationPayable {
		return SeriesPayable
	}
	return SeriesReceivable
}

// ObligationStatus estado derivado del saldo pendiente (salvo CANCELED).
type ObligationStatus string

const (
	ObligationOpen     ObligationStatus = "OPEN"
	ObligationPartial  ObligationStatus = "PARTIAL"
	ObligationSettled  ObligationStatus = "SETTLED"
	ObligationCanceled ObligationStatus = "CANCELED"
)

// Obligation una cuota de dinero adeudado a/por la tienda.
// Invariante: RemainingAmount = TotalAmount − Σ(partes no revertidas de las liquidaciones).
type Obligation struct {
	ID                string
	Tenant            Tenant
	Kind              ObligationKind
	Number            int64
	PartyID           string
	SourceKind        SourceKind
	SourceDocumentID  string
	InstallmentNumber int
	InstallmentCount  int
	Description       string
	TotalAmount       decimal.Decimal
	RemainingAmount   decimal.Decimal
	DueDate           time.Time
	Status            ObligationStatus
	Settlements       []Settlement
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CanceledAt        *time.Time
	CanceledBy        string
	Version           int
}

// Settlement liquidación ("Liquidação") parcial o total aplicada a una obligación.
type Settlement struct {
	ID             string               `json:"id"`
	Amount         decimal.Decimal      `json:"amount"`
	ReversedAmount decimal.Decimal      `json:"reversed_amount"`
	Instrument     Instrument           `json:"instrument"`
	MovementID     string               `json:"movement_id,omitempty"`
	Reversed       bool                 `json:"reversed"`
	SettledAt      time.Time            `json:"settled_at"`
	SettledBy      string               `json:"settled_by"`
	Reversals      []SettlementReversal `json:"reversals,omitempty"`
}

// Unreversed parte de la liquidación que todavía reduce el saldo.
func (s *Settlement) Unreversed() decimal.Decimal {
	return s.Amount.Sub(s.ReversedAmount)
}

// SettlementReversal una reversión (total o parcial) de una liquidación.
type SettlementReversal struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	MovementID string          `json:"movement_id,omitempty"`
	ReversedAt time.Time       `json:"reversed_at"`
	ReversedBy string          `json:"reversed_by"`
}

// Settlement busca una liquidación por id.
func (o *Obligation) Settlement(id string) *Settlement {
	for i := range o.Settlements {
		if o.Settlements[i].ID == id {
			return &o.Settlements[i]
		}
	}
	return nil
}

// HasUnreversedSettlements indica si alguna liquidación sigue reduciendo el saldo.
func (o *Obligation) HasUnreversedSettlements() bool {
	for i := range o.Settlements {
		if o.Settlements[i].Unreversed().IsPositive() {
			return true
		}
	}
	return false
}
