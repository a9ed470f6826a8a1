package cashier

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/application/sequence"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	cashrules "github.com/jhoicas/retaguarda-api/internal/domain/cashier"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// SessionUseCase ciclo de vida de las sesiones de caja.
type SessionUseCase struct {
	txRunner ports.TxRunner
	locker   ports.Locker
	log      *logger.Logger
}

// NewSessionUseCase construye el caso de uso.
func NewSessionUseCase(txRunner ports.TxRunner, locker ports.Locker, log *logger.Logger) *SessionUseCase {
	return &SessionUseCase{txRunner: txRunner, locker: locker, log: log.Component("cash_session")}
}

// OpenSessionInput apertura de caja.
type OpenSessionInput struct {
	Tenant         entity.Tenant
	RegisterNumber int
	Actor          string
	InitialBalance *decimal.Decimal // solo si el registro nunca tuvo una sesión cerrada
}

// OpenSession abre la caja del registro. Falla con ErrSessionAlreadyOpen si ya hay una abierta.
func (uc *SessionUseCase) OpenSession(ctx context.Context, in OpenSessionInput) (*entity.CashSession, error) {
	if in.Tenant.IsZero() || in.RegisterNumber <= 0 || in.Actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.InitialBalance != nil && in.InitialBalance.IsNegative() {
		return nil, domain.ErrInvalidInput.WithMessage("saldo inicial negativo")
	}
	if in.InitialBalance != nil && !entity.IsMoney(*in.InitialBalance) {
		return nil, domain.ErrInvalidInput.WithMessage("el saldo inicial tiene más de dos decimales")
	}
	release, err := uc.locker.Acquire(ctx, registerKey(in.Tenant, in.RegisterNumber))
	if err != nil {
		return nil, err
	}
	defer release()

	var session *entity.CashSession
	err = uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		open, err := tx.Sessions().FindOpen(ctx, in.Tenant, in.RegisterNumber)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrSessionAlreadyOpen.WithEntity(open.ID)
		}
		last, err := tx.Sessions().FindLastClosed(ctx, in.Tenant, in.RegisterNumber)
		if err != nil {
			return err
		}
		code, err := sequence.Next(ctx, tx, in.Tenant, entity.SeriesCashSession)
		if err != nil {
			return err
		}
		opening := cashrules.OpeningBalance(last, in.InitialBalance)
		session = &entity.CashSession{
			ID:                 uuid.New().String(),
			Tenant:             in.Tenant,
			RegisterNumber:     in.RegisterNumber,
			SessionCode:        code,
			Status:             entity.SessionStatusOpen,
			OpeningBalance:     opening,
			RunningCashBalance: opening,
			OpenedBy:           in.Actor,
			OpenedAt:           time.Now(),
			Version:            1,
		}
		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Int("register", in.RegisterNumber).
		Int64("session_code", session.SessionCode).Str("opening_balance", session.OpeningBalance.StringFixed(2)).
		Msg("caja abierta")
	return session, nil
}

// CloseSession cierra la caja abierta del registro y congela el saldo.
func (uc *SessionUseCase) CloseSession(ctx context.Context, tenant entity.Tenant, registerNumber int, actor string) (*entity.CashSession, error) {
	if tenant.IsZero() || registerNumber <= 0 || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	release, err := uc.locker.Acquire(ctx, registerKey(tenant, registerNumber))
	if err != nil {
		return nil, err
	}
	defer release()

	var session *entity.CashSession
	err = uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		s, err := tx.Sessions().FindOpen(ctx, tenant, registerNumber)
		if err != nil {
			return err
		}
		if s == nil {
			last, err := tx.Sessions().FindLastClosed(ctx, tenant, registerNumber)
			if err != nil {
				return err
			}
			if last == nil {
				return domain.ErrSessionNotFound.WithEntity(strconv.Itoa(registerNumber))
			}
			return domain.ErrSessionAlreadyClosed.WithEntity(last.ID)
		}
		if err := cashrules.Close(s, actor, time.Now()); err != nil {
			return err
		}
		session = s
		return tx.Sessions().Update(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", tenant.String()).Int("register", registerNumber).
		Str("closing_balance", session.RunningCashBalance.StringFixed(2)).Msg("caja cerrada")
	return session, nil
}

// GetSession obtiene una sesión por id.
func (uc *SessionUseCase) GetSession(ctx context.Context, tenant entity.Tenant, id string) (*entity.CashSession, error) {
	var session *entity.CashSession
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		s, err := tx.Sessions().GetByID(ctx, tenant, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrSessionNotFound.WithEntity(id)
		}
		session = s
		return nil
	})
	return session, err
}

// Summary totales por instrumento y sentido de la sesión (reporte de cierre).
func (uc *SessionUseCase) Summary(ctx context.Context, tenant entity.Tenant, id string) (*cashrules.Summary, error) {
	var sum cashrules.Summary
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		s, err := tx.Sessions().GetByID(ctx, tenant, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrSessionNotFound.WithEntity(id)
		}
		movements, err := tx.Movements().ListBySession(ctx, tenant, id)
		if err != nil {
			return err
		}
		sum = cashrules.Summarize(s, movements)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

func registerKey(tenant entity.Tenant, registerNumber int) string {
	return ports.LockKey(tenant, ports.LockCashRegister, strconv.Itoa(registerNumber))
}
