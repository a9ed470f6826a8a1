// Package cashier casos de uso de caja: apertura/cierre de sesiones y libro de movimientos.
package cashier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/application/sequence"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	cashrules "github.com/jhoicas/retaguarda-api/internal/domain/cashier"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

// Entry datos de un asiento a registrar.
type Entry struct {
	Direction          entity.Direction
	Amount             decimal.Decimal
	Instrument         entity.Instrument
	SourceKind         entity.SourceKind
	SourceDocumentID   string
	AccountingCategory string
	Description        string
	Actor              string
	ReversalOf         string
	OriginalSourceKind entity.SourceKind
}

// Ledger libro de movimientos compartido por todos los orquestadores (ventas, órdenes,
// liquidaciones, asientos manuales). Todas las operaciones corren en la tx del caller.
type Ledger struct{}

// NewLedger construye el libro de movimientos.
func NewLedger() *Ledger { return &Ledger{} }

// ResolveCurrent sesión OPEN vigente: la del registro si registerNumber > 0, si no la más
// reciente del tenant. Sin sesión abierta → ErrNoOpenSession.
func (l *Ledger) ResolveCurrent(ctx context.Context, tx repository.Tx, tenant entity.Tenant, registerNumber int) (*entity.CashSession, error) {
	var (
		s   *entity.CashSession
		err error
	)
	if registerNumber > 0 {
		s, err = tx.Sessions().FindOpen(ctx, tenant, registerNumber)
	} else {
		s, err = tx.Sessions().FindLatestOpen(ctx, tenant)
	}
	if err != nil {
		return nil, err
	}
	if s == nil {
		if registerNumber > 0 {
			return nil, domain.ErrNoOpenSession.WithEntity(fmt.Sprintf("register:%d", registerNumber))
		}
		return nil, domain.ErrNoOpenSession
	}
	return s, nil
}

// Post registra un asiento en la sesión y, si es en efectivo, actualiza el saldo.
func (l *Ledger) Post(ctx context.Context, tx repository.Tx, session *entity.CashSession, e Entry) (*entity.Movement, error) {
	if session == nil || !session.IsOpen() {
		return nil, domain.ErrNoOpenSession
	}
	if !e.Direction.IsValid() {
		return nil, domain.ErrInvalidInput.WithMessage("sentido inválido: %s", e.Direction)
	}
	if !e.Instrument.IsValid() {
		return nil, domain.ErrInvalidInput.WithMessage("instrumento inválido: %s", e.Instrument)
	}
	if !e.Amount.IsPositive() {
		return nil, domain.ErrInvalidInput.WithMessage("el monto del movimiento debe ser positivo")
	}
	if !entity.IsMoney(e.Amount) {
		return nil, domain.ErrInvalidInput.WithMessage("el monto %s tiene más de dos decimales", e.Amount)
	}
	number, err := sequence.Next(ctx, tx, session.Tenant, entity.SeriesMovement)
	if err != nil {
		return nil, err
	}
	m := &entity.Movement{
		ID:                 uuid.New().String(),
		Tenant:             session.Tenant,
		Number:             number,
		SessionID:          session.ID,
		Direction:          e.Direction,
		Amount:             e.Amount,
		Instrument:         e.Instrument,
		SourceKind:         e.SourceKind,
		SourceDocumentID:   e.SourceDocumentID,
		AccountingCategory: e.AccountingCategory,
		Description:        e.Description,
		ReversalOf:         e.ReversalOf,
		OriginalSourceKind: e.OriginalSourceKind,
		CreatedBy:          e.Actor,
		CreatedAt:          time.Now(),
	}
	if err := tx.Movements().Create(ctx, m); err != nil {
		return nil, err
	}
	if err := l.adjust(ctx, tx, session, m.CashEffect()); err != nil {
		return nil, err
	}
	return m, nil
}

// Reverse crea un asiento compensatorio en la sesión vigente; el original no se toca.
func (l *Ledger) Reverse(ctx context.Context, tx repository.Tx, current *entity.CashSession, original *entity.Movement, actor, note string) (*entity.Movement, error) {
	if original.Annulled {
		return nil, domain.ErrAlreadyReversed.WithEntity(original.ID)
	}
	if original.ReversalOf != "" {
		return nil, domain.ErrInvalidTransition.WithMessage("un asiento de reversión no se revierte").WithEntity(original.ID)
	}
	prior, err := tx.Movements().FindByReversalOf(ctx, original.Tenant, original.ID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return nil, domain.ErrAlreadyReversed.WithEntity(original.ID)
	}
	if note == "" {
		note = fmt.Sprintf("reversión del movimiento %d", original.Number)
	}
	return l.Post(ctx, tx, current, Entry{
		Direction:          original.Direction.Opposite(),
		Amount:             original.Amount,
		Instrument:         original.Instrument,
		SourceKind:         entity.SourceReversal,
		SourceDocumentID:   original.SourceDocumentID,
		AccountingCategory: entity.CategoryReversal,
		Description:        note,
		Actor:              actor,
		ReversalOf:         original.ID,
		OriginalSourceKind: original.SourceKind,
	})
}

// AnnulInPlace convierte el asiento en su reversión dentro de su propia sesión, que debe
// seguir abierta. El saldo pierde el aporte que tenía el asiento.
func (l *Ledger) AnnulInPlace(ctx context.Context, tx repository.Tx, session *entity.CashSession, m *entity.Movement, actor string, at time.Time) error {
	if m.SessionID != session.ID || !session.IsOpen() {
		return domain.ErrCrossSessionModificationForbidden.WithEntity(m.ID)
	}
	if m.Annulled {
		return domain.ErrAlreadyReversed.WithEntity(m.ID)
	}
	effect := m.CashEffect()
	m.OriginalSourceKind = m.SourceKind
	m.SourceKind = entity.SourceReversal
	m.Direction = m.Direction.Opposite()
	m.Annulled = true
	m.ReversedAt = &at
	m.ReversedBy = actor
	if err := tx.Movements().Update(ctx, m); err != nil {
		return err
	}
	return l.adjust(ctx, tx, session, effect.Neg())
}

// DeleteForAlter elimina el asiento de un documento que se está alterando (sesión abierta).
func (l *Ledger) DeleteForAlter(ctx context.Context, tx repository.Tx, session *entity.CashSession, m *entity.Movement) error {
	if m.SessionID != session.ID || !session.IsOpen() {
		return domain.ErrCrossSessionModificationForbidden.WithEntity(m.ID)
	}
	effect := m.CashEffect()
	if err := tx.Movements().Delete(ctx, m.Tenant, m.ID); err != nil {
		return err
	}
	return l.adjust(ctx, tx, session, effect.Neg())
}

func (l *Ledger) adjust(ctx context.Context, tx repository.Tx, session *entity.CashSession, effect decimal.Decimal) error {
	if effect.IsZero() {
		return nil
	}
	if err := cashrules.ApplyCashEffect(session, effect); err != nil {
		return err
	}
	return tx.Sessions().Update(ctx, session)
}
