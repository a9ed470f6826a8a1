package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind venta u orden de servicio.
type DocumentKind string

const (
	DocumentSale         DocumentKind = "SALE"
	DocumentServiceOrder DocumentKind = "SERVICE_ORDER"
)

// Series serie de numeración del documento.
func (k DocumentKind) Series() string {
	if k == DocumentServiceOrder {
		return SeriesServiceOrder
	}
	return SeriesSale
}

// SourceKind origen con el que el documento firma sus movimientos.
func (k DocumentKind) SourceKind() SourceKind {
	if k == DocumentServiceOrder {
		return SourceServiceOrder
	}
	return SourceSale
}

// RevenueCategory categoría contable de los ingresos del documento.
func (k DocumentKind) RevenueCategory() string {
	if k == DocumentServiceOrder {
		return CategoryServiceRevenue
	}
	return CategorySalesRevenue
}

// DocumentStatus estado del documento.
type DocumentStatus string

const (
	// Venta: OPEN → FULFILLED | CANCELED
	DocumentOpen      DocumentStatus = "OPEN"
	DocumentFulfilled DocumentStatus = "FULFILLED"
	// Orden de servicio: PENDING → IN_PROGRESS → INVOICED | CANCELED
	DocumentPending    DocumentStatus = "PENDING"
	DocumentInProgress DocumentStatus = "IN_PROGRESS"
	DocumentInvoiced   DocumentStatus = "INVOICED"
	DocumentCanceled   DocumentStatus = "CANCELED"
)

// LineItem línea del documento.
type LineItem struct {
	ProductCode string          `json:"product_code"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// Total quantity*price − discount.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Sub(l.Discount)
}

// PaymentEntry parte del pago en un instrumento; Deferred genera cuotas.
type PaymentEntry struct {
	Instrument   Instrument        `json:"instrument"`
	Amount       decimal.Decimal   `json:"amount"`
	Installments []InstallmentPlan `json:"installments,omitempty"`
}

// InstallmentPlan cuota pactada en un pago a plazo.
type InstallmentPlan struct {
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// StatusChange entrada del historial de estados (solo se agrega).
type StatusChange struct {
	Previous DocumentStatus `json:"previous"`
	New      DocumentStatus `json:"new"`
	Actor    string         `json:"actor"`
	At       time.Time      `json:"at"`
	Note     string         `json:"note,omitempty"`
}

// ServiceDetails datos propios de una orden de servicio.
type ServiceDetails struct {
	Equipment    string `json:"equipment,omitempty"`
	Problem      string `json:"problem,omitempty"`
	TechnicianID string `json:"technician_id,omitempty"`
}

// Document raíz de agregado de una venta u orden de servicio.
type Document struct {
	ID             string
	Tenant         Tenant
	Kind           DocumentKind
	Number         int64
	CustomerID     string
	SessionID      string // caja en la que se registró
	RegisterNumber int
	Status         DocumentStatus
	Items          []LineItem
	Payments       []PaymentEntry
	Total          decimal.Decimal
	Notes          string
	Service        *ServiceDetails
	History        []StatusChange
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int
}

// ItemsTotal suma de las líneas.
func (d *Document) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(it.Total())
	}
	return total
}

// Transition cambia el estado y registra la entrada en el historial.
func (d *Document) Transition(to DocumentStatus, actor string, at time.Time, note string) {
	d.History = append(d.History, StatusChange{Previous: d.Status, New: to, Actor: actor, At: at, Note: note})
	d.Status = to
	d.UpdatedAt = at
}
