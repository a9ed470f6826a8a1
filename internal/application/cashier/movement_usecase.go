package cashier

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// MovementUseCase asientos manuales y reversiones sobre la caja vigente.
type MovementUseCase struct {
	txRunner ports.TxRunner
	ledger   *Ledger
	log      *logger.Logger
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(txRunner ports.TxRunner, ledger *Ledger, log *logger.Logger) *MovementUseCase {
	return &MovementUseCase{txRunner: txRunner, ledger: ledger, log: log.Component("movement")}
}

// PostMovementInput asiento manual. RegisterNumber 0 = caja abierta más reciente del tenant.
type PostMovementInput struct {
	Tenant             entity.Tenant
	Actor              string
	RegisterNumber     int
	Direction          entity.Direction
	Amount             decimal.Decimal
	Instrument         entity.Instrument
	AccountingCategory string
	Description        string
}

// PostMovement registra un asiento manual en la caja vigente.
func (uc *MovementUseCase) PostMovement(ctx context.Context, in PostMovementInput) (*entity.Movement, error) {
	if in.Tenant.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	if in.Instrument == entity.InstrumentDeferred {
		return nil, domain.ErrInvalidInput.WithMessage("un asiento manual no puede ser a plazo")
	}
	var movement *entity.Movement
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		session, err := uc.ledger.ResolveCurrent(ctx, tx, in.Tenant, in.RegisterNumber)
		if err != nil {
			return err
		}
		movement, err = uc.ledger.Post(ctx, tx, session, Entry{
			Direction:          in.Direction,
			Amount:             in.Amount,
			Instrument:         in.Instrument,
			SourceKind:         entity.SourceManual,
			AccountingCategory: in.AccountingCategory,
			Description:        in.Description,
			Actor:              in.Actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Int64("number", movement.Number).
		Str("direction", string(movement.Direction)).Str("amount", movement.Amount.StringFixed(2)).
		Msg("movimiento manual registrado")
	return movement, nil
}

// ReverseMovement compensa un asiento manual con otro de sentido contrario en la caja vigente,
// aunque la sesión original ya esté cerrada. Los asientos de documentos y liquidaciones se
// revierten cancelando el documento o la liquidación.
func (uc *MovementUseCase) ReverseMovement(ctx context.Context, tenant entity.Tenant, actor, movementID string, registerNumber int) (*entity.Movement, error) {
	var reversal *entity.Movement
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		original, err := tx.Movements().GetByID(ctx, tenant, movementID)
		if err != nil {
			return err
		}
		if original == nil {
			return domain.ErrMovementNotFound.WithEntity(movementID)
		}
		if original.SourceKind != entity.SourceManual {
			return domain.ErrInvalidTransition.
				WithMessage("el movimiento pertenece a %s; revierta el documento de origen", original.SourceKind).
				WithEntity(movementID)
		}
		current, err := uc.ledger.ResolveCurrent(ctx, tx, tenant, registerNumber)
		if err != nil {
			return err
		}
		reversal, err = uc.ledger.Reverse(ctx, tx, current, original, actor, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

// ListMovements asientos de una sesión en orden de número.
func (uc *MovementUseCase) ListMovements(ctx context.Context, tenant entity.Tenant, sessionID string) ([]*entity.Movement, error) {
	var list []*entity.Movement
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		s, err := tx.Sessions().GetByID(ctx, tenant, sessionID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrSessionNotFound.WithEntity(sessionID)
		}
		list, err = tx.Movements().ListBySession(ctx, tenant, sessionID)
		return err
	})
	return list, err
}
