package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

const documentColumns = `id::text, store_id, company_id, number, customer_id, session_id::text, register_number, status,
	items, payments, total, notes, service, history, created_by, created_at, updated_at, version`

// DocumentRepo ventas (tabla sales) u órdenes de servicio (tabla service_orders).
// Líneas, pagos, historial y datos de servicio se guardan como JSONB.
type DocumentRepo struct {
	q     Querier
	kind  entity.DocumentKind
	table string
}

// NewDocumentRepository construye el repositorio para un tipo de documento.
func NewDocumentRepository(q Querier, kind entity.DocumentKind) *DocumentRepo {
	table := "sales"
	if kind == entity.DocumentServiceOrder {
		table = "service_orders"
	}
	return &DocumentRepo{q: q, kind: kind, table: table}
}

// Create inserta el documento.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	query := `
		INSERT INTO ` + r.table + ` (id, store_id, company_id, number, customer_id, session_id, register_number, status,
			items, payments, total, notes, service, history, created_by, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.Tenant.StoreID, d.Tenant.CompanyID, d.Number, nullString(d.CustomerID), d.SessionID, d.RegisterNumber,
		string(d.Status), nonNil(d.Items), nonNil(d.Payments), d.Total, d.Notes, d.Service, nonNil(d.History),
		nullString(d.CreatedBy), d.CreatedAt, d.UpdatedAt, d.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate.WithEntity(d.ID)
		}
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

// Update reescribe el documento e incrementa la versión.
func (r *DocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	query := `
		UPDATE ` + r.table + ` SET customer_id = $4, session_id = $5, register_number = $6, status = $7,
			items = $8, payments = $9, total = $10, notes = $11, service = $12, history = $13,
			updated_at = $14, version = version + 1
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3
		RETURNING version`
	err := r.q.QueryRow(ctx, query,
		d.Tenant.StoreID, d.Tenant.CompanyID, d.ID, nullString(d.CustomerID), d.SessionID, d.RegisterNumber,
		string(d.Status), nonNil(d.Items), nonNil(d.Payments), d.Total, d.Notes, d.Service, nonNil(d.History),
		d.UpdatedAt,
	).Scan(&d.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update document %s: %w", d.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	return nil
}

// GetByID obtiene el documento del tenant.
func (r *DocumentRepo) GetByID(ctx context.Context, tenant entity.Tenant, id string) (*entity.Document, error) {
	return r.one(ctx, `SELECT `+documentColumns+` FROM `+r.table+`
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3`, tenant, id)
}

// GetByIDForUpdate igual que GetByID con bloqueo de fila.
func (r *DocumentRepo) GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.Document, error) {
	return r.one(ctx, `SELECT `+documentColumns+` FROM `+r.table+`
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3 FOR UPDATE`, tenant, id)
}

func (r *DocumentRepo) one(ctx context.Context, query string, tenant entity.Tenant, id string) (*entity.Document, error) {
	var (
		d                     entity.Document
		status                string
		customerID, createdBy *string
	)
	err := r.q.QueryRow(ctx, query, tenant.StoreID, tenant.CompanyID, id).Scan(
		&d.ID, &d.Tenant.StoreID, &d.Tenant.CompanyID, &d.Number, &customerID, &d.SessionID, &d.RegisterNumber, &status,
		&d.Items, &d.Payments, &d.Total, &d.Notes, &d.Service, &d.History, &createdBy, &d.CreatedAt, &d.UpdatedAt,
		&d.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", r.table, err)
	}
	d.Kind = r.kind
	d.Status = entity.DocumentStatus(status)
	d.CustomerID = derefString(customerID)
	d.CreatedBy = derefString(createdBy)
	return &d, nil
}

// nonNil evita serializar null en columnas JSONB NOT NULL.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
