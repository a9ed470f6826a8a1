package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// PricesDTO foto de precios.
type PricesDTO struct {
	Purchase  decimal.Decimal `json:"purchase"`
	Cost      decimal.Decimal `json:"cost"`
	Sale      decimal.Decimal `json:"sale"`
	Wholesale decimal.Decimal `json:"wholesale"`
}

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Code            string          `json:"code" validate:"required,min=1,max=60"`
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	StockPolicy     string          `json:"stock_policy" validate:"omitempty,oneof=BLOCK_NEGATIVE ALLOW_NEGATIVE NO_TRACKING"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	Prices          PricesDTO       `json:"prices"`
}

// AdjustStockRequest body para POST /api/products/:code/adjust.
type AdjustStockRequest struct {
	Delta         decimal.Decimal `json:"delta"`
	AllowOverride bool            `json:"allow_override"`
}

// ReceiveStockRequest body para POST /api/products/:code/receive (entrada de mercancía).
type ReceiveStockRequest struct {
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	Purchase   *decimal.Decimal `json:"purchase_price,omitempty"`
	Sale       *decimal.Decimal `json:"sale_price,omitempty"`
	Wholesale  *decimal.Decimal `json:"wholesale_price,omitempty"`
	DocumentID string           `json:"document_id,omitempty" validate:"omitempty,max=100"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string          `json:"id"`
	StoreID        string          `json:"store_id"`
	CompanyID      string          `json:"company_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	OnHandQuantity decimal.Decimal `json:"on_hand_quantity"`
	UsedQuantity   decimal.Decimal `json:"used_quantity"`
	StockPolicy    string          `json:"stock_policy"`
	Prices         PricesDTO       `json:"prices"`
	PreviousPrices PricesDTO       `json:"previous_prices"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StockMovementResponse fila de auditoría de stock.
type StockMovementResponse struct {
	Number           int64           `json:"number"`
	Delta            decimal.Decimal `json:"delta"`
	QuantityBefore   decimal.Decimal `json:"quantity_before"`
	QuantityAfter    decimal.Decimal `json:"quantity_after"`
	Reason           string          `json:"reason"`
	SourceKind       string          `json:"source_kind"`
	SourceDocumentID string          `json:"source_document_id,omitempty"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToProductResponse mapea la entidad a la salida HTTP.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		StoreID:        p.Tenant.StoreID,
		CompanyID:      p.Tenant.CompanyID,
		Code:           p.Code,
		Name:           p.Name,
		OnHandQuantity: p.OnHandQuantity,
		UsedQuantity:   p.UsedQuantity,
		StockPolicy:    string(p.StockPolicy),
		Prices:         PricesDTO(p.Prices),
		PreviousPrices: PricesDTO(p.PreviousPrices),
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ToStockMovementResponses mapea la auditoría de stock.
func ToStockMovementResponses(list []*entity.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, StockMovementResponse{
			Number:           m.Number,
			Delta:            m.Delta,
			QuantityBefore:   m.QuantityBefore,
			QuantityAfter:    m.QuantityAfter,
			Reason:           m.Reason,
			SourceKind:       string(m.SourceKind),
			SourceDocumentID: m.SourceDocumentID,
			CreatedBy:        m.CreatedBy,
			CreatedAt:        m.CreatedAt,
		})
	}
	return out
}
