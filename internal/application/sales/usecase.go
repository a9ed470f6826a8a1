// Package sales orquesta ventas y órdenes de servicio: cada alta, alteración o cancelación
// mueve stock, caja y cuentas por cobrar en una sola unidad de trabajo.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/application/cashier"
	"github.com/jhoicas/retaguarda-api/internal/application/finance"
	"github.com/jhoicas/retaguarda-api/internal/application/inventory"
	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/application/sequence"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// DocumentInput carga de una venta u orden de servicio (alta y alteración).
type DocumentInput struct {
	Tenant         entity.Tenant
	Actor          string
	RegisterNumber int // 0 = caja abierta más reciente del tenant
	CustomerID     string
	Items          []entity.LineItem
	Payments       []entity.PaymentEntry
	Notes          string
	Service        *entity.ServiceDetails
}

// DocumentUseCase orquestador de documentos.
type DocumentUseCase struct {
	txRunner    ports.TxRunner
	locker      ports.Locker
	stock       *inventory.StockUseCase
	ledger      *cashier.Ledger
	obligations *finance.ObligationUseCase
	log         *logger.Logger
}

// NewDocumentUseCase construye el orquestador.
func NewDocumentUseCase(
	txRunner ports.TxRunner,
	locker ports.Locker,
	stock *inventory.StockUseCase,
	ledger *cashier.Ledger,
	obligations *finance.ObligationUseCase,
	log *logger.Logger,
) *DocumentUseCase {
	return &DocumentUseCase{
		txRunner:    txRunner,
		locker:      locker,
		stock:       stock,
		ledger:      ledger,
		obligations: obligations,
		log:         log.Component("documents"),
	}
}

// CreateSale registra una venta (OPEN).
func (uc *DocumentUseCase) CreateSale(ctx context.Context, in DocumentInput) (*entity.Document, error) {
	return uc.create(ctx, entity.DocumentSale, in)
}

// CreateServiceOrder registra una orden de servicio (PENDING).
func (uc *DocumentUseCase) CreateServiceOrder(ctx context.Context, in DocumentInput) (*entity.Document, error) {
	return uc.create(ctx, entity.DocumentServiceOrder, in)
}

// AlterSale reemplaza líneas y pagos de una venta cuya caja sigue abierta.
func (uc *DocumentUseCase) AlterSale(ctx context.Context, id string, in DocumentInput) (*entity.Document, error) {
	return uc.alter(ctx, entity.DocumentSale, id, in)
}

// AlterServiceOrder reemplaza líneas y pagos de una orden cuya caja sigue abierta.
func (uc *DocumentUseCase) AlterServiceOrder(ctx context.Context, id string, in DocumentInput) (*entity.Document, error) {
	return uc.alter(ctx, entity.DocumentServiceOrder, id, in)
}

// CancelSale cancela una venta: devuelve stock, cancela cuotas y revierte la caja.
func (uc *DocumentUseCase) CancelSale(ctx context.Context, tenant entity.Tenant, actor, id string) (*entity.Document, error) {
	return uc.cancel(ctx, entity.DocumentSale, tenant, actor, id)
}

// CancelServiceOrder cancela una orden de servicio.
func (uc *DocumentUseCase) CancelServiceOrder(ctx context.Context, tenant entity.Tenant, actor, id string) (*entity.Document, error) {
	return uc.cancel(ctx, entity.DocumentServiceOrder, tenant, actor, id)
}

// FulfillSale OPEN → FULFILLED.
func (uc *DocumentUseCase) FulfillSale(ctx context.Context, tenant entity.Tenant, actor, id string) (*entity.Document, error) {
	return uc.transition(ctx, entity.DocumentSale, tenant, actor, id, entity.DocumentFulfilled, entity.DocumentOpen)
}

// StartServiceOrder PENDING → IN_PROGRESS.
func (uc *DocumentUseCase) StartServiceOrder(ctx context.Context, tenant entity.Tenant, actor, id string) (*entity.Document, error) {
	return uc.transition(ctx, entity.DocumentServiceOrder, tenant, actor, id, entity.DocumentInProgress, entity.DocumentPending)
}

// InvoiceServiceOrder IN_PROGRESS → INVOICED.
func (uc *DocumentUseCase) InvoiceServiceOrder(ctx context.Context, tenant entity.Tenant, actor, id string) (*entity.Document, error) {
	return uc.transition(ctx, entity.DocumentServiceOrder, tenant, actor, id, entity.DocumentInvoiced, entity.DocumentInProgress)
}

// GetSale obtiene una venta.
func (uc *DocumentUseCase) GetSale(ctx context.Context, tenant entity.Tenant, id string) (*entity.Document, error) {
	return uc.get(ctx, entity.DocumentSale, tenant, id)
}

// GetServiceOrder obtiene una orden de servicio.
func (uc *DocumentUseCase) GetServiceOrder(ctx context.Context, tenant entity.Tenant, id string) (*entity.Document, error) {
	return uc.get(ctx, entity.DocumentServiceOrder, tenant, id)
}

func (uc *DocumentUseCase) create(ctx context.Context, kind entity.DocumentKind, in DocumentInput) (*entity.Document, error) {
	total, err := validateDocument(in)
	if err != nil {
		return nil, err
	}
	var doc *entity.Document
	err = uc.withLocks(ctx, in.Tenant, "", productCodes(in.Items), func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			session, err := uc.ledger.ResolveCurrent(ctx, tx, in.Tenant, in.RegisterNumber)
			if err != nil {
				return err
			}
			number, err := sequence.Next(ctx, tx, in.Tenant, kind.Series())
			if err != nil {
				return err
			}
			now := time.Now()
			doc = &entity.Document{
				ID:             uuid.New().String(),
				Tenant:         in.Tenant,
				Kind:           kind,
				Number:         number,
				SessionID:      session.ID,
				RegisterNumber: session.RegisterNumber,
				CreatedBy:      in.Actor,
				CreatedAt:      now,
				Version:        1,
			}
			fill(doc, in, total)
			doc.Transition(initialStatus(kind), in.Actor, now, "")
			if err := uc.post(ctx, tx, session, doc, in.Actor); err != nil {
				return err
			}
			return tx.Documents(kind).Create(ctx, doc)
		})
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("tenant", in.Tenant.String()).Str("kind", string(kind)).Msg("documento rechazado")
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Str("kind", string(kind)).Int64("number", doc.Number).
		Str("total", doc.Total.StringFixed(2)).Msg("documento registrado")
	return doc, nil
}

func (uc *DocumentUseCase) alter(ctx context.Context, kind entity.DocumentKind, id string, in DocumentInput) (*entity.Document, error) {
	total, err := validateDocument(in)
	if err != nil {
		return nil, err
	}
	current, err := uc.get(ctx, kind, in.Tenant, id)
	if err != nil {
		return nil, err
	}
	var doc *entity.Document
	err = uc.withLocks(ctx, in.Tenant, id, productCodes(current.Items, in.Items), func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			d, err := loadForUpdate(ctx, tx, kind, in.Tenant, id)
			if err != nil {
				return err
			}
			if err := ensureAlterable(d); err != nil {
				return err
			}
			session, err := tx.Sessions().GetByIDForUpdate(ctx, in.Tenant, d.SessionID)
			if err != nil {
				return err
			}
			if session == nil || !session.IsOpen() {
				return domain.ErrCrossSessionModificationForbidden.WithEntity(d.ID)
			}
			if _, err := uc.obligations.CancelBySourceInTx(ctx, tx, in.Tenant, kind.SourceKind(), d.ID, in.Actor, true); err != nil {
				return err
			}
			if err := uc.restoreStock(ctx, tx, d, in.Actor); err != nil {
				return err
			}
			movements, err := tx.Movements().ListBySource(ctx, in.Tenant, kind.SourceKind(), d.ID)
			if err != nil {
				return err
			}
			for _, m := range movements {
				if err := uc.ledger.DeleteForAlter(ctx, tx, session, m); err != nil {
					return err
				}
			}
			fill(d, in, total)
			d.UpdatedAt = time.Now()
			if err := uc.post(ctx, tx, session, d, in.Actor); err != nil {
				return err
			}
			doc = d
			return tx.Documents(kind).Update(ctx, d)
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Str("kind", string(kind)).Int64("number", doc.Number).Msg("documento alterado")
	return doc, nil
}

func (uc *DocumentUseCase) cancel(ctx context.Context, kind entity.DocumentKind, tenant entity.Tenant, actor, id string) (*entity.Document, error) {
	current, err := uc.get(ctx, kind, tenant, id)
	if err != nil {
		return nil, err
	}
	var doc *entity.Document
	err = uc.withLocks(ctx, tenant, id, productCodes(current.Items), func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			d, err := loadForUpdate(ctx, tx, kind, tenant, id)
			if err != nil {
				return err
			}
			if d.Status == entity.DocumentCanceled {
				return domain.ErrAlreadyCanceled.WithEntity(d.ID)
			}
			if !cancelable(d) {
				return domain.ErrInvalidTransition.
					WithMessage("no se puede cancelar un documento %s", d.Status).WithEntity(d.ID)
			}
			// Orden de bloqueo común a todas las operaciones: cajas, obligaciones, stock y contadores.
			sessions, err := uc.lockSessions(ctx, tx, d)
			if err != nil {
				return err
			}
			if _, err := uc.obligations.CancelBySourceInTx(ctx, tx, tenant, kind.SourceKind(), d.ID, actor, false); err != nil {
				return err
			}
			if err := uc.restoreStock(ctx, tx, d, actor); err != nil {
				return err
			}
			if err := uc.reverseMovements(ctx, tx, d, sessions, actor); err != nil {
				return err
			}
			d.Transition(entity.DocumentCanceled, actor, time.Now(), "cancelación")
			doc = d
			return tx.Documents(kind).Update(ctx, d)
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", tenant.String()).Str("kind", string(kind)).Int64("number", doc.Number).Msg("documento cancelado")
	return doc, nil
}

// documentSessions cajas bloqueadas por una cancelación: la de origen y, si esta ya cerró,
// la caja vigente donde se compensa.
type documentSessions struct {
	origin  *entity.CashSession
	current *entity.CashSession
}

// lockSessions bloquea (FOR UPDATE) la caja del documento y la vigente antes de tocar stock o
// contadores. Sin caja abierta para compensar falla con ErrNoOpenSession.
func (uc *DocumentUseCase) lockSessions(ctx context.Context, tx repository.Tx, d *entity.Document) (documentSessions, error) {
	origin, err := tx.Sessions().GetByIDForUpdate(ctx, d.Tenant, d.SessionID)
	if err != nil {
		return documentSessions{}, err
	}
	if origin == nil {
		return documentSessions{}, domain.ErrSessionNotFound.WithEntity(d.SessionID)
	}
	if origin.IsOpen() {
		return documentSessions{origin: origin, current: origin}, nil
	}
	current, err := uc.currentFor(ctx, tx, d)
	if err != nil {
		return documentSessions{}, err
	}
	return documentSessions{origin: origin, current: current}, nil
}

// reverseMovements anula en sitio los asientos cuya sesión sigue abierta y compensa en la caja
// vigente los de sesiones ya cerradas.
func (uc *DocumentUseCase) reverseMovements(ctx context.Context, tx repository.Tx, d *entity.Document, locked documentSessions, actor string) error {
	movements, err := tx.Movements().ListBySource(ctx, d.Tenant, d.Kind.SourceKind(), d.ID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, m := range movements {
		if m.Annulled {
			continue
		}
		if m.SessionID != locked.origin.ID {
			return domain.ErrCrossSessionModificationForbidden.WithEntity(m.ID)
		}
		if locked.origin.IsOpen() {
			if err := uc.ledger.AnnulInPlace(ctx, tx, locked.origin, m, actor, now); err != nil {
				return err
			}
			continue
		}
		current := locked.current
		note := fmt.Sprintf("cancelación %s #%d", docLabel(d.Kind), d.Number)
		if _, err := uc.ledger.Reverse(ctx, tx, current, m, actor, note); err != nil {
			return err
		}
	}
	return nil
}

// currentFor caja vigente para un documento: la de su registro si está abierta, si no la del tenant.
func (uc *DocumentUseCase) currentFor(ctx context.Context, tx repository.Tx, d *entity.Document) (*entity.CashSession, error) {
	s, err := uc.ledger.ResolveCurrent(ctx, tx, d.Tenant, d.RegisterNumber)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrNoOpenSession) {
		return nil, err
	}
	return uc.ledger.ResolveCurrent(ctx, tx, d.Tenant, 0)
}

// post descuenta stock, registra un asiento por pago y crea las cuotas de los pagos a plazo.
func (uc *DocumentUseCase) post(ctx context.Context, tx repository.Tx, session *entity.CashSession, d *entity.Document, actor string) error {
	for _, it := range d.Items {
		if _, err := uc.stock.ApplyInTx(ctx, tx, d.Tenant, actor, it.ProductCode, it.Quantity.Neg(), d.Kind.SourceKind(), d.ID); err != nil {
			return err
		}
	}
	label := fmt.Sprintf("%s #%d", docLabel(d.Kind), d.Number)
	for _, p := range d.Payments {
		if _, err := uc.ledger.Post(ctx, tx, session, cashier.Entry{
			Direction:          entity.DirectionIn,
			Amount:             p.Amount,
			Instrument:         p.Instrument,
			SourceKind:         d.Kind.SourceKind(),
			SourceDocumentID:   d.ID,
			AccountingCategory: d.Kind.RevenueCategory(),
			Description:        label,
			Actor:              actor,
		}); err != nil {
			return err
		}
		if p.Instrument != entity.InstrumentDeferred {
			continue
		}
		installments := make([]finance.InstallmentInput, 0, len(p.Installments))
		for _, inst := range p.Installments {
			installments = append(installments, finance.InstallmentInput{Amount: inst.Amount, DueDate: inst.DueDate})
		}
		total := p.Amount
		if _, err := uc.obligations.CreateInTx(ctx, tx, finance.CreateObligationsInput{
			Tenant:           d.Tenant,
			Actor:            actor,
			Kind:             entity.ObligationReceivable,
			PartyID:          d.CustomerID,
			Total:            &total,
			Installments:     installments,
			Description:      label,
			SourceKind:       d.Kind.SourceKind(),
			SourceDocumentID: d.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (uc *DocumentUseCase) restoreStock(ctx context.Context, tx repository.Tx, d *entity.Document, actor string) error {
	for _, it := range d.Items {
		if _, err := uc.stock.ApplyInTx(ctx, tx, d.Tenant, actor, it.ProductCode, it.Quantity, d.Kind.SourceKind(), d.ID); err != nil {
			return err
		}
	}
	return nil
}

func (uc *DocumentUseCase) transition(
	ctx context.Context,
	kind entity.DocumentKind,
	tenant entity.Tenant,
	actor, id string,
	to entity.DocumentStatus,
	from entity.DocumentStatus,
) (*entity.Document, error) {
	release, err := uc.locker.Acquire(ctx, ports.LockKey(tenant, ports.LockDocument, id))
	if err != nil {
		return nil, err
	}
	defer release()
	var doc *entity.Document
	err = uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		d, err := loadForUpdate(ctx, tx, kind, tenant, id)
		if err != nil {
			return err
		}
		if d.Status != from {
			return domain.ErrInvalidTransition.
				WithMessage("transición %s → %s no permitida", d.Status, to).WithEntity(d.ID)
		}
		d.Transition(to, actor, time.Now(), "")
		doc = d
		return tx.Documents(kind).Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (uc *DocumentUseCase) get(ctx context.Context, kind entity.DocumentKind, tenant entity.Tenant, id string) (*entity.Document, error) {
	var doc *entity.Document
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		d, err := tx.Documents(kind).GetByID(ctx, tenant, id)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrDocumentNotFound.WithEntity(id)
		}
		doc = d
		return nil
	})
	return doc, err
}

// withLocks toma el bloqueo del documento (si hay id) y el de cada producto involucrado.
func (uc *DocumentUseCase) withLocks(ctx context.Context, tenant entity.Tenant, documentID string, codes []string, fn func() error) error {
	keys := inventory.ProductLockKeys(tenant, codes)
	if documentID != "" {
		keys = append(keys, ports.LockKey(tenant, ports.LockDocument, documentID))
	}
	release, err := uc.locker.Acquire(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func loadForUpdate(ctx context.Context, tx repository.Tx, kind entity.DocumentKind, tenant entity.Tenant, id string) (*entity.Document, error) {
	d, err := tx.Documents(kind).GetByIDForUpdate(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrDocumentNotFound.WithEntity(id)
	}
	return d, nil
}

func fill(d *entity.Document, in DocumentInput, total decimal.Decimal) {
	d.CustomerID = in.CustomerID
	d.Items = in.Items
	d.Payments = in.Payments
	d.Notes = in.Notes
	if d.Kind == entity.DocumentServiceOrder {
		d.Service = in.Service
	}
	d.Total = total
}

func initialStatus(kind entity.DocumentKind) entity.DocumentStatus {
	if kind == entity.DocumentServiceOrder {
		return entity.DocumentPending
	}
	return entity.DocumentOpen
}

func ensureAlterable(d *entity.Document) error {
	if d.Status == entity.DocumentCanceled {
		return domain.ErrAlreadyCanceled.WithEntity(d.ID)
	}
	if !cancelable(d) {
		return domain.ErrInvalidTransition.WithMessage("no se puede alterar un documento %s", d.Status).WithEntity(d.ID)
	}
	return nil
}

// cancelable venta OPEN; orden PENDING o IN_PROGRESS.
func cancelable(d *entity.Document) bool {
	if d.Kind == entity.DocumentServiceOrder {
		return d.Status == entity.DocumentPending || d.Status == entity.DocumentInProgress
	}
	return d.Status == entity.DocumentOpen
}

func docLabel(kind entity.DocumentKind) string {
	if kind == entity.DocumentServiceOrder {
		return "orden de servicio"
	}
	return "venta"
}
