package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// LineItemRequest línea de documento.
type LineItemRequest struct {
	ProductCode string          `json:"product_code" validate:"required,max=60"`
	Description string          `json:"description" validate:"max=200"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// PaymentRequest parte del pago; "deferred" requiere installments.
type PaymentRequest struct {
	Instrument   string               `json:"instrument" validate:"required,oneof=cash card_credit card_debit pix bank_transfer boleto deferred"`
	Amount       decimal.Decimal      `json:"amount"`
	Installments []InstallmentRequest `json:"installments,omitempty" validate:"omitempty,dive"`
}

// ServiceDetailsRequest datos de la orden de servicio.
type ServiceDetailsRequest struct {
	Equipment    string `json:"equipment" validate:"max=200"`
	Problem      string `json:"problem" validate:"max=1000"`
	TechnicianID string `json:"technician_id" validate:"max=100"`
}

// DocumentRequest body de alta y alteración de ventas y órdenes de servicio.
type DocumentRequest struct {
	RegisterNumber int                    `json:"register_number" validate:"min=0"`
	CustomerID     string                 `json:"customer_id" validate:"max=100"`
	Items          []LineItemRequest      `json:"items" validate:"required,min=1,dive"`
	Payments       []PaymentRequest       `json:"payments" validate:"required,min=1,dive"`
	Notes          string                 `json:"notes" validate:"max=1000"`
	Service        *ServiceDetailsRequest `json:"service,omitempty"`
}

// DocumentResponse salida de una venta u orden de servicio.
type DocumentResponse struct {
	ID             string                 `json:"id"`
	Kind           string                 `json:"kind"`
	Number         int64                  `json:"number"`
	CustomerID     string                 `json:"customer_id,omitempty"`
	SessionID      string                 `json:"session_id"`
	RegisterNumber int                    `json:"register_number"`
	Status         string                 `json:"status"`
	Items          []entity.LineItem      `json:"items"`
	Payments       []entity.PaymentEntry  `json:"payments"`
	Total          decimal.Decimal        `json:"total"`
	Notes          string                 `json:"notes,omitempty"`
	Service        *entity.ServiceDetails `json:"service,omitempty"`
	History        []entity.StatusChange  `json:"history"`
	CreatedBy      string                 `json:"created_by"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ToDocumentResponse mapea un documento.
func ToDocumentResponse(d *entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:             d.ID,
		Kind:           string(d.Kind),
		Number:         d.Number,
		CustomerID:     d.CustomerID,
		SessionID:      d.SessionID,
		RegisterNumber: d.RegisterNumber,
		Status:         string(d.Status),
		Items:          d.Items,
		Payments:       d.Payments,
		Total:          d.Total,
		Notes:          d.Notes,
		Service:        d.Service,
		History:        d.History,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
