package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id::text, store_id, company_id, number, session_id::text, direction, amount, instrument,
	source_kind, source_document_id, original_source_kind, reversal_of::text, annulled,
	accounting_category, description, created_by, created_at, reversed_at, reversed_by`

// MovementRepo asientos de caja sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el repositorio.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el asiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (id, store_id, company_id, number, session_id, direction, amount, instrument,
			source_kind, source_document_id, original_source_kind, reversal_of, annulled,
			accounting_category, description, created_by, created_at, reversed_at, reversed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Tenant.StoreID, m.Tenant.CompanyID, m.Number, m.SessionID, string(m.Direction), m.Amount,
		string(m.Instrument), string(m.SourceKind), nullString(m.SourceDocumentID),
		nullString(string(m.OriginalSourceKind)), nullString(m.ReversalOf), m.Annulled,
		m.AccountingCategory, m.Description, nullString(m.CreatedBy), m.CreatedAt, m.ReversedAt, nullString(m.ReversedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate.WithEntity(m.ID)
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// Update reescribe los campos que cambian en una anulación en sitio.
func (r *MovementRepo) Update(ctx context.Context, m *entity.Movement) error {
	query := `
		UPDATE movements SET direction = $4, source_kind = $5, original_source_kind = $6, annulled = $7,
			reversed_at = $8, reversed_by = $9
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3`
	tag, err := r.q.Exec(ctx, query,
		m.Tenant.StoreID, m.Tenant.CompanyID, m.ID, string(m.Direction), string(m.SourceKind),
		nullString(string(m.OriginalSourceKind)), m.Annulled, m.ReversedAt, nullString(m.ReversedBy),
	)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update movement %s: %w", m.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete elimina el asiento (alteración de un documento con caja abierta).
func (r *MovementRepo) Delete(ctx context.Context, tenant entity.Tenant, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM movements WHERE store_id = $1 AND company_id = $2 AND id::text = $3`,
		tenant.StoreID, tenant.CompanyID, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete movement %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetByID obtiene un asiento del tenant.
func (r *MovementRepo) GetByID(ctx context.Context, tenant entity.Tenant, id string) (*entity.Movement, error) {
	list, err := r.list(ctx, `SELECT `+movementColumns+` FROM movements
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3`, tenant.StoreID, tenant.CompanyID, id)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// FindByReversalOf asiento que compensa a originalID.
func (r *MovementRepo) FindByReversalOf(ctx context.Context, tenant entity.Tenant, originalID string) (*entity.Movement, error) {
	list, err := r.list(ctx, `SELECT `+movementColumns+` FROM movements
		WHERE store_id = $1 AND company_id = $2 AND reversal_of::text = $3
		LIMIT 1`, tenant.StoreID, tenant.CompanyID, originalID)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// ListBySession asientos de la sesión en orden de número.
func (r *MovementRepo) ListBySession(ctx context.Context, tenant entity.Tenant, sessionID string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements
		WHERE store_id = $1 AND company_id = $2 AND session_id::text = $3
		ORDER BY number`, tenant.StoreID, tenant.CompanyID, sessionID)
}

// ListBySource asientos firmados por el documento, incluidos los anulados en sitio.
func (r *MovementRepo) ListBySource(ctx context.Context, tenant entity.Tenant, kind entity.SourceKind, documentID string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements
		WHERE store_id = $1 AND company_id = $2 AND source_document_id = $4
			AND (source_kind = $3 OR (annulled AND original_source_kind = $3))
		ORDER BY number`, tenant.StoreID, tenant.CompanyID, string(kind), documentID)
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return out, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m                             entity.Movement
		direction, instrument, source string
		doc, original, reversalOf     *string
		createdBy, reversedBy         *string
	)
	err := row.Scan(
		&m.ID, &m.Tenant.StoreID, &m.Tenant.CompanyID, &m.Number, &m.SessionID, &direction, &m.Amount, &instrument,
		&source, &doc, &original, &reversalOf, &m.Annulled,
		&m.AccountingCategory, &m.Description, &createdBy, &m.CreatedAt, &m.ReversedAt, &reversedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("scan movement: %w", err)
	}
	m.Direction = entity.Direction(direction)
	m.Instrument = entity.Instrument(instrument)
	m.SourceKind = entity.SourceKind(source)
	m.SourceDocumentID = derefString(doc)
	m.OriginalSourceKind = entity.SourceKind(derefString(original))
	m.ReversalOf = derefString(reversalOf)
	m.CreatedBy = derefString(createdBy)
	m.ReversedBy = derefString(reversedBy)
	return &m, nil
}
