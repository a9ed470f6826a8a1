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

var _ repository.CashSessionRepository = (*CashSessionRepo)(nil)

const (
	sessionColumns = `id::text, store_id, company_id, register_number, session_code, status,
	opening_balance, running_cash_balance, opened_by, closed_by, opened_at, closed_at, version`
	openPerRegisterIndex = "cash_sessions_one_open_per_register"
)

// CashSessionRepo sesiones de caja sobre PostgreSQL.
type CashSessionRepo struct {
	q Querier
}

// NewCashSessionRepository construye el repositorio.
func NewCashSessionRepository(q Querier) *CashSessionRepo {
	return &CashSessionRepo{q: q}
}

// Create inserta la sesión. El índice parcial garantiza una sola sesión OPEN por registro.
func (r *CashSessionRepo) Create(ctx context.Context, s *entity.CashSession) error {
	query := `
		INSERT INTO cash_sessions (id, store_id, company_id, register_number, session_code, status,
			opening_balance, running_cash_balance, opened_by, closed_by, opened_at, closed_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Tenant.StoreID, s.Tenant.CompanyID, s.RegisterNumber, s.SessionCode, string(s.Status),
		s.OpeningBalance, s.RunningCashBalance, s.OpenedBy, nullString(s.ClosedBy), s.OpenedAt, s.ClosedAt, s.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == openPerRegisterIndex {
				return domain.ErrSessionAlreadyOpen
			}
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cash session: %w", err)
	}
	return nil
}

// Update guarda estado y saldo; incrementa la versión.
func (r *CashSessionRepo) Update(ctx context.Context, s *entity.CashSession) error {
	query := `
		UPDATE cash_sessions SET status = $3, running_cash_balance = $4, closed_by = $5, closed_at = $6,
			version = version + 1
		WHERE id = $1 AND store_id = $2 AND company_id = $7
		RETURNING version`
	err := r.q.QueryRow(ctx, query,
		s.ID, s.Tenant.StoreID, string(s.Status), s.RunningCashBalance, nullString(s.ClosedBy), s.ClosedAt, s.Tenant.CompanyID,
	).Scan(&s.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update session %s: %w", s.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update cash session: %w", err)
	}
	return nil
}

// GetByID obtiene una sesión del tenant.
func (r *CashSessionRepo) GetByID(ctx context.Context, tenant entity.Tenant, id string) (*entity.CashSession, error) {
	return r.one(ctx, `SELECT `+sessionColumns+` FROM cash_sessions
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3`, tenant.StoreID, tenant.CompanyID, id)
}

// GetByIDForUpdate igual que GetByID con bloqueo de fila.
func (r *CashSessionRepo) GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.CashSession, error) {
	return r.one(ctx, `SELECT `+sessionColumns+` FROM cash_sessions
		WHERE store_id = $1 AND company_id = $2 AND id::text = $3 FOR UPDATE`, tenant.StoreID, tenant.CompanyID, id)
}

// FindOpen sesión abierta del registro.
func (r *CashSessionRepo) FindOpen(ctx context.Context, tenant entity.Tenant, registerNumber int) (*entity.CashSession, error) {
	return r.one(ctx, `SELECT `+sessionColumns+` FROM cash_sessions
		WHERE store_id = $1 AND company_id = $2 AND register_number = $3 AND status = 'OPEN'
		FOR UPDATE`, tenant.StoreID, tenant.CompanyID, registerNumber)
}

// FindLatestOpen sesión abierta más reciente en cualquier registro.
func (r *CashSessionRepo) FindLatestOpen(ctx context.Context, tenant entity.Tenant) (*entity.CashSession, error) {
	return r.one(ctx, `SELECT `+sessionColumns+` FROM cash_sessions
		WHERE store_id = $1 AND company_id = $2 AND status = 'OPEN'
		ORDER BY opened_at DESC, session_code DESC
		LIMIT 1 FOR UPDATE`, tenant.StoreID, tenant.CompanyID)
}

// FindLastClosed última sesión cerrada del registro.
func (r *CashSessionRepo) FindLastClosed(ctx context.Context, tenant entity.Tenant, registerNumber int) (*entity.CashSession, error) {
	return r.one(ctx, `SELECT `+sessionColumns+` FROM cash_sessions
		WHERE store_id = $1 AND company_id = $2 AND register_number = $3 AND status = 'CLOSED'
		ORDER BY closed_at DESC, session_code DESC
		LIMIT 1`, tenant.StoreID, tenant.CompanyID, registerNumber)
}

func (r *CashSessionRepo) one(ctx context.Context, query string, args ...any) (*entity.CashSession, error) {
	var (
		s        entity.CashSession
		status   string
		closedBy *string
	)
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.Tenant.StoreID, &s.Tenant.CompanyID, &s.RegisterNumber, &s.SessionCode, &status,
		&s.OpeningBalance, &s.RunningCashBalance, &s.OpenedBy, &closedBy, &s.OpenedAt, &s.ClosedAt, &s.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cash session: %w", err)
	}
	s.Status = entity.SessionStatus(status)
	s.ClosedBy = derefString(closedBy)
	return &s, nil
}
