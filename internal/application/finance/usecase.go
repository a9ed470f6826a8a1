// Package finance casos de uso de cuentas por cobrar y por pagar.
package finance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/application/cashier"
	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/application/sequence"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	rules "github.com/jhoicas/retaguarda-api/internal/domain/finance"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// ObligationUseCase alta, liquidación, reversión y cancelación de obligaciones.
type ObligationUseCase struct {
	txRunner ports.TxRunner
	locker   ports.Locker
	ledger   *cashier.Ledger
	log      *logger.Logger
}

// NewObligationUseCase construye el caso de uso.
func NewObligationUseCase(txRunner ports.TxRunner, locker ports.Locker, ledger *cashier.Ledger, log *logger.Logger) *ObligationUseCase {
	return &ObligationUseCase{txRunner: txRunner, locker: locker, ledger: ledger, log: log.Component("obligation")}
}

// InstallmentInput una cuota.
type InstallmentInput struct {
	Amount  decimal.Decimal
	DueDate time.Time
}

// CreateObligationsInput alta de obligaciones en cuotas.
type CreateObligationsInput struct {
	Tenant           entity.Tenant
	Actor            string
	Kind             entity.ObligationKind
	PartyID          string
	Total            *decimal.Decimal // opcional; si llega, debe igualar la suma de las cuotas
	Installments     []InstallmentInput
	Description      string
	SourceKind       entity.SourceKind
	SourceDocumentID string
}

// CreateObligations crea una obligación por cuota, con números consecutivos de la serie del tipo.
func (uc *ObligationUseCase) CreateObligations(ctx context.Context, in CreateObligationsInput) ([]*entity.Obligation, error) {
	if in.SourceKind == "" {
		in.SourceKind = entity.SourceManual
	}
	var created []*entity.Obligation
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		var err error
		created, err = uc.CreateInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Str("kind", string(in.Kind)).
		Str("party", in.PartyID).Int("installments", len(created)).Msg("obligaciones creadas")
	return created, nil
}

// CreateInTx crea las obligaciones usando la tx del caller (ventas/órdenes a plazo).
func (uc *ObligationUseCase) CreateInTx(ctx context.Context, tx repository.Tx, in CreateObligationsInput) ([]*entity.Obligation, error) {
	if in.Tenant.IsZero() || in.PartyID == "" {
		return nil, domain.ErrInvalidInput.WithMessage("tenant y parte son obligatorios")
	}
	if !in.Kind.IsValid() {
		return nil, domain.ErrInvalidInput.WithMessage("tipo de obligación inválido: %s", in.Kind)
	}
	if len(in.Installments) == 0 {
		return nil, domain.ErrInvalidInstallment.WithMessage("se requiere al menos una cuota")
	}
	sum := decimal.Zero
	for _, inst := range in.Installments {
		if err := rules.ValidateInstallment(inst.Amount, inst.DueDate); err != nil {
			return nil, err
		}
		sum = sum.Add(inst.Amount)
	}
	if in.Total != nil && !in.Total.Equal(sum) {
		return nil, domain.ErrInvalidInstallment.
			WithMessage("la suma de las cuotas %s no coincide con el total %s", sum.StringFixed(2), in.Total.StringFixed(2))
	}
	first, err := sequence.NextN(ctx, tx, in.Tenant, in.Kind.Series(), len(in.Installments))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]*entity.Obligation, 0, len(in.Installments))
	for i, inst := range in.Installments {
		o := &entity.Obligation{
			ID:                uuid.New().String(),
			Tenant:            in.Tenant,
			Kind:              in.Kind,
			Number:            first + int64(i),
			PartyID:           in.PartyID,
			SourceKind:        in.SourceKind,
			SourceDocumentID:  in.SourceDocumentID,
			InstallmentNumber: i + 1,
			InstallmentCount:  len(in.Installments),
			Description:       in.Description,
			TotalAmount:       inst.Amount,
			RemainingAmount:   inst.Amount,
			DueDate:           inst.DueDate,
			Status:            entity.ObligationOpen,
			CreatedBy:         in.Actor,
			CreatedAt:         now,
			UpdatedAt:         now,
			Version:           1,
		}
		if err := tx.Obligations().Create(ctx, o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// SettleInput liquidación de una obligación. RegisterNumber 0 = caja abierta más reciente.
type SettleInput struct {
	Tenant         entity.Tenant
	Actor          string
	ObligationID   string
	Amount         decimal.Decimal
	Instrument     entity.Instrument
	RegisterNumber int
}

// SettleObligation aplica una liquidación y registra su movimiento de caja cuando corresponde.
func (uc *ObligationUseCase) SettleObligation(ctx context.Context, in SettleInput) (*entity.Obligation, error) {
	if err := validateSettlementInstrument(in.Instrument); err != nil {
		return nil, err
	}
	var result *entity.Obligation
	err := uc.withObligationLocks(ctx, in.Tenant, []string{in.ObligationID}, func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			session, err := uc.sessionFor(ctx, tx, in.Tenant, in.RegisterNumber, in.Instrument)
			if err != nil {
				return err
			}
			o, err := loadForUpdate(ctx, tx, in.Tenant, in.ObligationID)
			if err != nil {
				return err
			}
			now := time.Now()
			settlementID, err := rules.Settle(o, uuid.New().String(), in.Amount, in.Instrument, in.Actor, now)
			if err != nil {
				return err
			}
			movement, err := uc.postSettlement(ctx, tx, session, o.Kind, in.Instrument, in.Amount, o.ID,
				fmt.Sprintf("liquidación %s #%d", kindLabel(o.Kind), o.Number), in.Actor)
			if err != nil {
				return err
			}
			if movement != nil {
				o.Settlement(settlementID).MovementID = movement.ID
			}
			result = o
			return tx.Obligations().Update(ctx, o)
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Str("obligation", result.ID).
		Str("amount", in.Amount.StringFixed(2)).Str("status", string(result.Status)).Msg("obligación liquidada")
	return result, nil
}

// BatchSettleInput un pago aplicado a varias cuotas de la misma parte.
type BatchSettleInput struct {
	Tenant         entity.Tenant
	Actor          string
	ObligationIDs  []string
	Amount         decimal.Decimal
	Instrument     entity.Instrument
	RegisterNumber int
}

// SettleBatch reparte el pago en orden de vencimiento y registra un solo movimiento.
func (uc *ObligationUseCase) SettleBatch(ctx context.Context, in BatchSettleInput) ([]*entity.Obligation, error) {
	if err := validateSettlementInstrument(in.Instrument); err != nil {
		return nil, err
	}
	ids := uniqueSorted(in.ObligationIDs)
	if len(ids) == 0 {
		return nil, domain.ErrInvalidInput.WithMessage("el lote no tiene obligaciones")
	}
	var result []*entity.Obligation
	err := uc.withObligationLocks(ctx, in.Tenant, ids, func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			session, err := uc.sessionFor(ctx, tx, in.Tenant, in.RegisterNumber, in.Instrument)
			if err != nil {
				return err
			}
			loaded := make([]*entity.Obligation, 0, len(ids))
			for _, id := range ids {
				o, err := loadForUpdate(ctx, tx, in.Tenant, id)
				if err != nil {
					return err
				}
				loaded = append(loaded, o)
			}
			allocations, err := rules.AllocateBatch(loaded, in.Amount)
			if err != nil {
				return err
			}
			first := allocations[0].Obligation
			movement, err := uc.postSettlement(ctx, tx, session, first.Kind, in.Instrument, in.Amount, first.ID,
				fmt.Sprintf("liquidación en lote de %d %s de %s", len(allocations), kindLabel(first.Kind), first.PartyID), in.Actor)
			if err != nil {
				return err
			}
			now := time.Now()
			for _, a := range allocations {
				settlementID, err := rules.Settle(a.Obligation, uuid.New().String(), a.Amount, in.Instrument, in.Actor, now)
				if err != nil {
					return err
				}
				if movement != nil {
					a.Obligation.Settlement(settlementID).MovementID = movement.ID
				}
				if err := tx.Obligations().Update(ctx, a.Obligation); err != nil {
					return err
				}
			}
			result = loaded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Int("obligations", len(result)).
		Str("amount", in.Amount.StringFixed(2)).Msg("liquidación en lote aplicada")
	return result, nil
}

// ReverseSettlementInput reversión total o parcial de una liquidación.
type ReverseSettlementInput struct {
	Tenant         entity.Tenant
	Actor          string
	ObligationID   string
	SettlementID   string
	Amount         decimal.Decimal
	RegisterNumber int
}

// ReverseSettlement devuelve el monto al saldo y compensa en la caja vigente, no en la
// sesión donde se registró la liquidación (que puede estar cerrada). Si la liquidación no
// generó movimiento tampoco lo genera la reversión.
func (uc *ObligationUseCase) ReverseSettlement(ctx context.Context, in ReverseSettlementInput) (*entity.Obligation, error) {
	var result *entity.Obligation
	err := uc.withObligationLocks(ctx, in.Tenant, []string{in.ObligationID}, func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			// La caja se bloquea antes que la obligación, igual que en la liquidación.
			session, noSession := uc.ledger.ResolveCurrent(ctx, tx, in.Tenant, in.RegisterNumber)
			if noSession != nil && !errors.Is(noSession, domain.ErrNoOpenSession) {
				return noSession
			}
			o, err := loadForUpdate(ctx, tx, in.Tenant, in.ObligationID)
			if err != nil {
				return err
			}
			s, err := rules.ReverseSettlement(o, in.SettlementID, uuid.New().String(), in.Amount, in.Actor, time.Now())
			if err != nil {
				return err
			}
			// Una liquidación que nunca se asentó en caja se revierte sin movimiento.
			if s.MovementID == "" {
				result = o
				return tx.Obligations().Update(ctx, o)
			}
			if noSession != nil && s.Instrument == entity.InstrumentCash {
				return noSession
			}
			if session != nil {
				source, _ := rules.MovementSource(o.Kind)
				movement, err := uc.ledger.Post(ctx, tx, session, cashier.Entry{
					Direction:          rules.MovementDirection(o.Kind).Opposite(),
					Amount:             in.Amount,
					Instrument:         s.Instrument,
					SourceKind:         entity.SourceReversal,
					OriginalSourceKind: source,
					SourceDocumentID:   o.ID,
					AccountingCategory: entity.CategoryReversal,
					Description:        fmt.Sprintf("reversión de liquidación %s #%d", kindLabel(o.Kind), o.Number),
					Actor:              in.Actor,
				})
				if err != nil {
					return err
				}
				s.Reversals[len(s.Reversals)-1].MovementID = movement.ID
			}
			result = o
			return tx.Obligations().Update(ctx, o)
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Str("obligation", result.ID).
		Str("settlement", in.SettlementID).Str("amount", in.Amount.StringFixed(2)).Msg("liquidación revertida")
	return result, nil
}

// CancelObligation cancelación manual; una obligación ya liquidada no se cancela.
func (uc *ObligationUseCase) CancelObligation(ctx context.Context, tenant entity.Tenant, actor, id string) (*entity.Obligation, error) {
	var result *entity.Obligation
	err := uc.withObligationLocks(ctx, tenant, []string{id}, func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			o, err := loadForUpdate(ctx, tx, tenant, id)
			if err != nil {
				return err
			}
			if err := rules.Cancel(o, actor, time.Now()); err != nil {
				return err
			}
			result = o
			return tx.Obligations().Update(ctx, o)
		})
	})
	return result, err
}

// CancelBySourceInTx cancela las obligaciones OPEN/PARTIAL ligadas a un documento.
// Con requireUnsettled rechaza el documento si alguna tiene liquidaciones sin revertir (alteración).
func (uc *ObligationUseCase) CancelBySourceInTx(
	ctx context.Context,
	tx repository.Tx,
	tenant entity.Tenant,
	source entity.SourceKind,
	documentID, actor string,
	requireUnsettled bool,
) ([]*entity.Obligation, error) {
	linked, err := tx.Obligations().ListBySource(ctx, tenant, source, documentID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var canceled []*entity.Obligation
	for _, o := range linked {
		if requireUnsettled && o.HasUnreversedSettlements() {
			return nil, domain.ErrInvalidTransition.
				WithMessage("la cuota %d tiene liquidaciones vigentes; revierta antes de alterar", o.Number).
				WithEntity(o.ID)
		}
		if o.Status != entity.ObligationOpen && o.Status != entity.ObligationPartial {
			continue
		}
		if err := rules.Cancel(o, actor, now); err != nil {
			return nil, err
		}
		if err := tx.Obligations().Update(ctx, o); err != nil {
			return nil, err
		}
		canceled = append(canceled, o)
	}
	return canceled, nil
}

// GetObligation obtiene una obligación con sus liquidaciones.
func (uc *ObligationUseCase) GetObligation(ctx context.Context, tenant entity.Tenant, id string) (*entity.Obligation, error) {
	var result *entity.Obligation
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		o, err := tx.Obligations().GetByID(ctx, tenant, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrObligationNotFound.WithEntity(id)
		}
		result = o
		return nil
	})
	return result, err
}

// ListObligations lista por parte/tipo/estado, ordenado por vencimiento.
func (uc *ObligationUseCase) ListObligations(ctx context.Context, tenant entity.Tenant, filter repository.ObligationFilter) ([]*entity.Obligation, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	var list []*entity.Obligation
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		var err error
		list, err = tx.Obligations().List(ctx, tenant, filter)
		return err
	})
	return list, err
}

// postSettlement registra el movimiento de una liquidación; nil cuando no corresponde.
func (uc *ObligationUseCase) postSettlement(
	ctx context.Context,
	tx repository.Tx,
	session *entity.CashSession,
	kind entity.ObligationKind,
	instrument entity.Instrument,
	amount decimal.Decimal,
	obligationID, description, actor string,
) (*entity.Movement, error) {
	if session == nil {
		return nil, nil
	}
	source, category := rules.MovementSource(kind)
	return uc.ledger.Post(ctx, tx, session, cashier.Entry{
		Direction:          rules.MovementDirection(kind),
		Amount:             amount,
		Instrument:         instrument,
		SourceKind:         source,
		SourceDocumentID:   obligationID,
		AccountingCategory: category,
		Description:        description,
		Actor:              actor,
	})
}

// sessionFor el efectivo exige caja abierta; otros instrumentos se registran sin movimiento
// cuando no hay caja.
func (uc *ObligationUseCase) sessionFor(ctx context.Context, tx repository.Tx, tenant entity.Tenant, registerNumber int, instrument entity.Instrument) (*entity.CashSession, error) {
	session, err := uc.ledger.ResolveCurrent(ctx, tx, tenant, registerNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNoOpenSession) && instrument != entity.InstrumentCash {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (uc *ObligationUseCase) withObligationLocks(ctx context.Context, tenant entity.Tenant, ids []string, fn func() error) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ports.LockKey(tenant, ports.LockObligation, id))
	}
	release, err := uc.locker.Acquire(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func loadForUpdate(ctx context.Context, tx repository.Tx, tenant entity.Tenant, id string) (*entity.Obligation, error) {
	o, err := tx.Obligations().GetByIDForUpdate(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrObligationNotFound.WithEntity(id)
	}
	return o, nil
}

func validateSettlementInstrument(i entity.Instrument) error {
	if !i.IsValid() || i == entity.InstrumentDeferred {
		return domain.ErrInvalidInput.WithMessage("instrumento de liquidación inválido: %s", i)
	}
	return nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func kindLabel(k entity.ObligationKind) string {
	if k == entity.ObligationPayable {
		return "cuenta por pagar"
	}
	return "cuenta por cobrar"
}
