package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/domain/cashier"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// OpenSessionRequest body para POST /api/cash-sessions.
type OpenSessionRequest struct {
	RegisterNumber int              `json:"register_number" validate:"required,min=1"`
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
}

// SessionResponse salida de una sesión de caja.
type SessionResponse struct {
	ID                 string          `json:"id"`
	RegisterNumber     int             `json:"register_number"`
	SessionCode        int64           `json:"session_code"`
	Status             string          `json:"status"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	RunningCashBalance decimal.Decimal `json:"running_cash_balance"`
	OpenedBy           string          `json:"opened_by"`
	ClosedBy           string          `json:"closed_by,omitempty"`
	OpenedAt           time.Time       `json:"opened_at"`
	ClosedAt           *time.Time      `json:"closed_at,omitempty"`
}

// SessionSummaryResponse totales de la sesión por instrumento.
type SessionSummaryResponse struct {
	SessionID      string                     `json:"session_id"`
	OpeningBalance decimal.Decimal            `json:"opening_balance"`
	CashBalance    decimal.Decimal            `json:"cash_balance"`
	TotalIn        map[string]decimal.Decimal `json:"total_in"`
	TotalOut       map[string]decimal.Decimal `json:"total_out"`
	MovementCount  int                        `json:"movement_count"`
}

// PostMovementRequest body para POST /api/movements (asiento manual).
type PostMovementRequest struct {
	RegisterNumber     int             `json:"register_number" validate:"min=0"`
	Direction          string          `json:"direction" validate:"required,oneof=IN OUT"`
	Amount             decimal.Decimal `json:"amount"`
	Instrument         string          `json:"instrument" validate:"required,oneof=cash card_credit card_debit pix bank_transfer boleto"`
	AccountingCategory string          `json:"accounting_category" validate:"required,max=60"`
	Description        string          `json:"description" validate:"max=300"`
}

// ReverseMovementRequest body opcional para POST /api/movements/:id/reverse.
type ReverseMovementRequest struct {
	RegisterNumber int `json:"register_number" validate:"min=0"`
}

// MovementResponse salida de un asiento de caja.
type MovementResponse struct {
	ID                 string          `json:"id"`
	Number             int64           `json:"number"`
	SessionID          string          `json:"session_id"`
	Direction          string          `json:"direction"`
	Amount             decimal.Decimal `json:"amount"`
	Instrument         string          `json:"instrument"`
	SourceKind         string          `json:"source_kind"`
	SourceDocumentID   string          `json:"source_document_id,omitempty"`
	OriginalSourceKind string          `json:"original_source_kind,omitempty"`
	ReversalOf         string          `json:"reversal_of,omitempty"`
	Annulled           bool            `json:"annulled"`
	AccountingCategory string          `json:"accounting_category"`
	Description        string          `json:"description,omitempty"`
	CreatedBy          string          `json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ToSessionResponse mapea la sesión.
func ToSessionResponse(s *entity.CashSession) SessionResponse {
	return SessionResponse{
		ID:                 s.ID,
		RegisterNumber:     s.RegisterNumber,
		SessionCode:        s.SessionCode,
		Status:             string(s.Status),
		OpeningBalance:     s.OpeningBalance,
		RunningCashBalance: s.RunningCashBalance,
		OpenedBy:           s.OpenedBy,
		ClosedBy:           s.ClosedBy,
		OpenedAt:           s.OpenedAt,
		ClosedAt:           s.ClosedAt,
	}
}

// ToSummaryResponse mapea el resumen de cierre.
func ToSummaryResponse(s *cashier.Summary) SessionSummaryResponse {
	out := SessionSummaryResponse{
		SessionID:      s.SessionID,
		OpeningBalance: s.OpeningBalance,
		CashBalance:    s.CashBalance,
		TotalIn:        make(map[string]decimal.Decimal, len(s.TotalIn)),
		TotalOut:       make(map[string]decimal.Decimal, len(s.TotalOut)),
		MovementCount:  s.MovementCount,
	}
	for k, v := range s.TotalIn {
		out.TotalIn[string(k)] = v
	}
	for k, v := range s.TotalOut {
		out.TotalOut[string(k)] = v
	}
	return out
}

// ToMovementResponse mapea un asiento.
func ToMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:                 m.ID,
		Number:             m.Number,
		SessionID:          m.SessionID,
		Direction:          string(m.Direction),
		Amount:             m.Amount,
		Instrument:         string(m.Instrument),
		SourceKind:         string(m.SourceKind),
		SourceDocumentID:   m.SourceDocumentID,
		OriginalSourceKind: string(m.OriginalSourceKind),
		ReversalOf:         m.ReversalOf,
		Annulled:           m.Annulled,
		AccountingCategory: m.AccountingCategory,
		Description:        m.Description,
		CreatedBy:          m.CreatedBy,
		CreatedAt:          m.CreatedAt,
	}
}

// ToMovementResponses mapea una lista de asientos.
func ToMovementResponses(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out
}
