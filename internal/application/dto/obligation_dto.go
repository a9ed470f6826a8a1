package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// DateLayout formato de fechas de vencimiento en los cuerpos JSON.
const DateLayout = "2006-01-02"

// InstallmentRequest una cuota.
type InstallmentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// CreateObligationsRequest body para POST /api/obligations.
type CreateObligationsRequest struct {
	Kind         string               `json:"kind" validate:"required,oneof=RECEIVABLE PAYABLE"`
	PartyID      string               `json:"party_id" validate:"required,max=100"`
	Total        *decimal.Decimal     `json:"total,omitempty"`
	Description  string               `json:"description" validate:"max=300"`
	Installments []InstallmentRequest `json:"installments" validate:"required,min=1,dive"`
}

// SettleRequest body para POST /api/obligations/:id/settle.
type SettleRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Instrument     string          `json:"instrument" validate:"required,oneof=cash card_credit card_debit pix bank_transfer boleto"`
	RegisterNumber int             `json:"register_number" validate:"min=0"`
}

// SettleBatchRequest body para POST /api/obligations/settle-batch.
type SettleBatchRequest struct {
	ObligationIDs  []string        `json:"obligation_ids" validate:"required,min=1,dive,required"`
	Amount         decimal.Decimal `json:"amount"`
	Instrument     string          `json:"instrument" validate:"required,oneof=cash card_credit card_debit pix bank_transfer boleto"`
	RegisterNumber int             `json:"register_number" validate:"min=0"`
}

// ReverseSettlementRequest body para POST /api/obligations/:id/settlements/:settlementID/reverse.
type ReverseSettlementRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	RegisterNumber int             `json:"register_number" validate:"min=0"`
}

// ListObligationsQuery filtros de GET /api/obligations.
type ListObligationsQuery struct {
	Kind    string `query:"kind" validate:"omitempty,oneof=RECEIVABLE PAYABLE"`
	PartyID string `query:"party_id"`
	Status  string `query:"status" validate:"omitempty,oneof=OPEN PARTIAL SETTLED CANCELED"`
	PageRequest
}

// SettlementResponse una liquidación.
type SettlementResponse struct {
	ID             string                      `json:"id"`
	Amount         decimal.Decimal             `json:"amount"`
	ReversedAmount decimal.Decimal             `json:"reversed_amount"`
	Instrument     string                      `json:"instrument"`
	MovementID     string                      `json:"movement_id,omitempty"`
	Reversed       bool                        `json:"reversed"`
	SettledAt      time.Time                   `json:"settled_at"`
	SettledBy      string                      `json:"settled_by"`
	Reversals      []entity.SettlementReversal `json:"reversals,omitempty"`
}

// ObligationResponse salida de una obligación.
type ObligationResponse struct {
	ID                string               `json:"id"`
	Kind              string               `json:"kind"`
	Number            int64                `json:"number"`
	PartyID           string               `json:"party_id"`
	SourceKind        string               `json:"source_kind"`
	SourceDocumentID  string               `json:"source_document_id,omitempty"`
	InstallmentNumber int                  `json:"installment_number"`
	InstallmentCount  int                  `json:"installment_count"`
	Description       string               `json:"description,omitempty"`
	TotalAmount       decimal.Decimal      `json:"total_amount"`
	RemainingAmount   decimal.Decimal      `json:"remaining_amount"`
	DueDate           string               `json:"due_date"`
	Status            string               `json:"status"`
	Settlements       []SettlementResponse `json:"settlements"`
	CanceledAt        *time.Time           `json:"canceled_at,omitempty"`
}

// ToObligationResponse mapea una obligación.
func ToObligationResponse(o *entity.Obligation) ObligationResponse {
	out := ObligationResponse{
		ID:                o.ID,
		Kind:              string(o.Kind),
		Number:            o.Number,
		PartyID:           o.PartyID,
		SourceKind:        string(o.SourceKind),
		SourceDocumentID:  o.SourceDocumentID,
		InstallmentNumber: o.InstallmentNumber,
		InstallmentCount:  o.InstallmentCount,
		Description:       o.Description,
		TotalAmount:       o.TotalAmount,
		RemainingAmount:   o.RemainingAmount,
		DueDate:           o.DueDate.Format(DateLayout),
		Status:            string(o.Status),
		Settlements:       make([]SettlementResponse, 0, len(o.Settlements)),
		CanceledAt:        o.CanceledAt,
	}
	for _, s := range o.Settlements {
		out.Settlements = append(out.Settlements, SettlementResponse{
			ID:             s.ID,
			Amount:         s.Amount,
			ReversedAmount: s.ReversedAmount,
			Instrument:     string(s.Instrument),
			MovementID:     s.MovementID,
			Reversed:       s.Reversed,
			SettledAt:      s.SettledAt,
			SettledBy:      s.SettledBy,
			Reversals:      s.Reversals,
		})
	}
	return out
}

// ToObligationResponses mapea una lista.
func ToObligationResponses(list []*entity.Obligation) []ObligationResponse {
	out := make([]ObligationResponse, 0, len(list))
	for _, o := range list {
		out = append(out, ToObligationResponse(o))
	}
	return out
}
