package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

var _ repository.ObligationRepository = (*ObligationRepo)(nil)

const obligationColumns = `id::text, store_id, company_id, kind, number, party_id, source_kind, source_document_id,
	installment_number, installment_count, description, total_amount, remaining_amount, due_date, status,
	settlements, created_by, created_at, updated_at, canceled_at, canceled_by, version`

// ObligationRepo cuentas por cobrar/pagar; las liquidaciones viven en una columna JSONB.
type ObligationRepo struct {
	q Querier
}

// NewObligationRepository construye el repositorio.
func NewObligationRepository(q Querier) *ObligationRepo {
	return &ObligationRepo{q: q}
}

// Create inserta la obligación.
func (r *ObligationRepo) Create(ctx context.Context, o *entity.Obligation) error {
	query := `
		INSERT INTO obligations (id, store_id, company_id, kind, number, party_id, source_kind, source_document_id,
			installment_number, installment_count, description, total_amount, remaining_amount, due_date, status,
			settlements, created_by, created_at, updated_at, canceled_at, canceled_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Tenant.StoreID, o.Tenant.CompanyID, string(o.Kind), o.Number, o.PartyID, string(o.SourceKind),
		nullString(o.SourceDocumentID), o.InstallmentNumber, o.InstallmentCount, o.Description,
		o.TotalAmount, o.RemainingAmount, o.DueDate, string(o.Status), nonNil(o.Settlements),
		nullString(o.CreatedBy), o.CreatedAt, o.UpdatedAt, o.CanceledAt, nullString(o.CanceledBy), o.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate.WithEntity(o.ID)
		}
		return fmt.Errorf("insert obligation: %w", err)
	}
	return nil
}

// Update guarda saldo, estado y liquidaciones; incrementa la versión.
func (r *ObligationRepo) Update(ctx context.Context, o *entity.Obligation) error {
	query := `
		UPDATE obligations SET remaining_amount = $4, status = $5, settlements = $6, updated_at = $7,
			canceled_at = $8, canceled_by = $9, version = version + 1
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3
		RETURNING version`
	err := r.q.QueryRow(ctx, query,
		o.Tenant.StoreID, o.Tenant.CompanyID, o.ID, o.RemainingAmount, string(o.Status),
		nonNil(o.Settlements), o.UpdatedAt, o.CanceledAt, nullString(o.CanceledBy),
	).Scan(&o.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update obligation %s: %w", o.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update obligation: %w", err)
	}
	return nil
}

// GetByID obtiene una obligación del tenant.
func (r *ObligationRepo) GetByID(ctx context.Context, tenant entity.Tenant, id string) (*entity.Obligation, error) {
	return r.first(ctx, `SELECT `+obligationColumns+` FROM obligations
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3`, tenant.StoreID, tenant.CompanyID, id)
}

// GetByIDForUpdate igual que GetByID con bloqueo de fila.
func (r *ObligationRepo) GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.Obligation, error) {
	return r.first(ctx, `SELECT `+obligationColumns+` FROM obligations
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3 FOR UPDATE`, tenant.StoreID, tenant.CompanyID, id)
}

// ListBySource cuotas generadas por un documento, por vencimiento.
func (r *ObligationRepo) ListBySource(ctx context.Context, tenant entity.Tenant, kind entity.SourceKind, documentID string) ([]*entity.Obligation, error) {
	return r.list(ctx, `SELECT `+obligationColumns+` FROM obligations
		WHERE store_id = $1 AND company_id = $2 AND source_kind = $3 AND source_document_id = $4
		ORDER BY due_date, number`, tenant.StoreID, tenant.CompanyID, string(kind), documentID)
}

// List filtra por tipo, contraparte y estado con paginación.
func (r *ObligationRepo) List(ctx context.Context, tenant entity.Tenant, f repository.ObligationFilter) ([]*entity.Obligation, error) {
	where := []string{"store_id = $1", "company_id = $2"}
	args := []any{tenant.StoreID, tenant.CompanyID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.PartyID != "" {
		add("party_id = $%d", f.PartyID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM obligations WHERE %s ORDER BY due_date, number LIMIT $%d OFFSET $%d`,
		obligationColumns, strings.Join(where, " AND "), len(args)-1, len(args))
	return r.list(ctx, query, args...)
}

func (r *ObligationRepo) first(ctx context.Context, query string, args ...any) (*entity.Obligation, error) {
	list, err := r.list(ctx, query, args...)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *ObligationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Obligation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query obligations: %w", err)
	}
	defer rows.Close()

	var out []*entity.Obligation
	for rows.Next() {
		var (
			o                          entity.Obligation
			kind, source, status       string
			doc, createdBy, canceledBy *string
		)
		if err := rows.Scan(
			&o.ID, &o.Tenant.StoreID, &o.Tenant.CompanyID, &kind, &o.Number, &o.PartyID, &source, &doc,
			&o.InstallmentNumber, &o.InstallmentCount, &o.Description, &o.TotalAmount, &o.RemainingAmount,
			&o.DueDate, &status, &o.Settlements, &createdBy, &o.CreatedAt, &o.UpdatedAt, &o.CanceledAt,
			&canceledBy, &o.Version,
		); err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		o.Kind = entity.ObligationKind(kind)
		o.SourceKind = entity.SourceKind(source)
		o.Status = entity.ObligationStatus(status)
		o.SourceDocumentID = derefString(doc)
		o.CreatedBy = derefString(createdBy)
		o.CanceledBy = derefString(canceledBy)
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate obligations: %w", err)
	}
	return out, nil
}
