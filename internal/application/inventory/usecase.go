package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/application/sequence"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/inventory"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// StockUseCase motor de stock (StockLedger): aplica deltas firmados según la política del producto,
// de forma transaccional, con bloqueo por producto y registro de auditoría.
type StockUseCase struct {
	txRunner ports.TxRunner
	locker   ports.Locker
	log      *logger.Logger
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(txRunner ports.TxRunner, locker ports.Locker, log *logger.Logger) *StockUseCase {
	return &StockUseCase{txRunner: txRunner, locker: locker, log: log.Component("stock")}
}

// CreateProductInput alta de producto.
type CreateProductInput struct {
	Tenant          entity.Tenant
	Code            string
	Name            string
	StockPolicy     entity.StockPolicy
	InitialQuantity decimal.Decimal
	Prices          entity.Prices
}

// CreateProduct crea un producto activo. El código es único dentro del tenant.
func (uc *StockUseCase) CreateProduct(ctx context.Context, in CreateProductInput) (*entity.Product, error) {
	if in.Tenant.IsZero() || in.Code == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.StockPolicy == "" {
		in.StockPolicy = entity.StockPolicyBlockNegative
	}
	if !in.StockPolicy.IsValid() {
		return nil, domain.ErrInvalidInput.WithMessage("política de stock desconocida: %s", in.StockPolicy)
	}
	if in.InitialQuantity.IsNegative() && in.StockPolicy == entity.StockPolicyBlockNegative {
		return nil, domain.ErrInsufficientStock.WithEntity(in.Code)
	}
	now := time.Now()
	product := &entity.Product{
		ID:             uuid.New().String(),
		Tenant:         in.Tenant,
		Code:           in.Code,
		Name:           in.Name,
		OnHandQuantity: in.InitialQuantity,
		UsedQuantity:   decimal.Zero,
		StockPolicy:    in.StockPolicy,
		Prices:         in.Prices,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		existing, err := tx.Products().GetByCode(ctx, in.Tenant, in.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate.WithEntity(in.Code)
		}
		return tx.Products().Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct obtiene un producto por código.
func (uc *StockUseCase) GetProduct(ctx context.Context, tenant entity.Tenant, code string) (*entity.Product, error) {
	var product *entity.Product
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		p, err := tx.Products().GetByCode(ctx, tenant, code)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrProductNotFound.WithEntity(code)
		}
		product = p
		return nil
	})
	return product, err
}

// DeactivateProduct desactiva el producto; nunca se elimina.
func (uc *StockUseCase) DeactivateProduct(ctx context.Context, tenant entity.Tenant, code string) (*entity.Product, error) {
	var product *entity.Product
	err := uc.withProductLocks(ctx, tenant, []string{code}, func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			p, err := tx.Products().GetByCodeForUpdate(ctx, tenant, code)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrProductNotFound.WithEntity(code)
			}
			p.Active = false
			p.UpdatedAt = time.Now()
			product = p
			return tx.Products().Update(ctx, p)
		})
	})
	return product, err
}

// AdjustStockInput ajuste manual de stock (delta firmado).
type AdjustStockInput struct {
	Tenant        entity.Tenant
	Actor         string
	ProductCode   string
	Delta         decimal.Decimal
	AllowOverride bool // permite negativo en BLOCK_NEGATIVE
}

// AdjustStock aplica un delta manual. Un rechazo por stock deja la cantidad intacta.
func (uc *StockUseCase) AdjustStock(ctx context.Context, in AdjustStockInput) (*entity.Product, error) {
	if in.Tenant.IsZero() || in.ProductCode == "" || in.Delta.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	var product *entity.Product
	err := uc.withProductLocks(ctx, in.Tenant, []string{in.ProductCode}, func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			p, err := uc.apply(ctx, tx, applyArgs{
				tenant:   in.Tenant,
				actor:    in.Actor,
				code:     in.ProductCode,
				delta:    in.Delta,
				override: in.AllowOverride,
				reason:   entity.StockReasonAdjustment,
				source:   entity.SourceManual,
			})
			product = p
			return err
		})
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("tenant", in.Tenant.String()).Str("product", in.ProductCode).Msg("ajuste de stock rechazado")
		return nil, err
	}
	return product, nil
}

// ReceiveStockInput entrada de mercancía con precios opcionales.
type ReceiveStockInput struct {
	Tenant      entity.Tenant
	Actor       string
	ProductCode string
	Quantity    decimal.Decimal
	UnitCost    *decimal.Decimal // recalcula costo promedio ponderado
	Prices      entity.PriceUpdate
	DocumentID  string // nota de entrada (opcional)
}

// ReceiveStock suma la cantidad recibida; si llegan precios, los vigentes pasan a la copia "anterior"
// antes de sobrescribirse.
func (uc *StockUseCase) ReceiveStock(ctx context.Context, in ReceiveStockInput) (*entity.Product, error) {
	if in.Tenant.IsZero() || in.ProductCode == "" || !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidInput.WithMessage("costo unitario negativo")
	}
	var product *entity.Product
	err := uc.withProductLocks(ctx, in.Tenant, []string{in.ProductCode}, func() error {
		return uc.txRunner.Run(ctx, func(tx repository.Tx) error {
			p, err := tx.Products().GetByCodeForUpdate(ctx, in.Tenant, in.ProductCode)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrProductNotFound.WithEntity(in.ProductCode)
			}
			prices := in.Prices
			if in.UnitCost != nil {
				cost := inventory.CostCalculator(p.OnHandQuantity, p.Prices.Cost, in.Quantity, *in.UnitCost)
				prices.Cost = &cost
				if prices.Purchase == nil {
					prices.Purchase = in.UnitCost
				}
			}
			if !prices.IsEmpty() {
				p.RotatePrices(prices)
			}
			if err := uc.applyLoaded(ctx, tx, p, applyArgs{
				tenant: in.Tenant,
				actor:  in.Actor,
				code:   in.ProductCode,
				delta:  in.Quantity,
				reason: entity.StockReasonReceipt,
				source: entity.SourceManual,
				docID:  in.DocumentID,
			}); err != nil {
				return err
			}
			product = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant", in.Tenant.String()).Str("product", in.ProductCode).
		Str("quantity", in.Quantity.String()).Msg("entrada de mercancía registrada")
	return product, nil
}

// ApplyInTx aplica un delta usando la tx del caller (ventas, órdenes de servicio).
// Implementa el StockLedger compartido por los orquestadores; la política usada es siempre
// la vigente del producto. Si retorna error el caller debe abortar su unidad de trabajo.
func (uc *StockUseCase) ApplyInTx(
	ctx context.Context,
	tx repository.Tx,
	tenant entity.Tenant,
	actor, productCode string,
	delta decimal.Decimal,
	source entity.SourceKind,
	documentID string,
) (*entity.Product, error) {
	reason := entity.StockReasonSale
	if delta.IsPositive() {
		reason = entity.StockReasonRestore
	}
	return uc.apply(ctx, tx, applyArgs{
		tenant:   tenant,
		actor:    actor,
		code:     productCode,
		delta:    delta,
		reason:   reason,
		source:   source,
		docID:    documentID,
		document: true,
	})
}

// ProductLockKeys llaves de bloqueo para un conjunto de códigos (sin duplicados).
func ProductLockKeys(tenant entity.Tenant, codes []string) []string {
	seen := make(map[string]bool, len(codes))
	keys := make([]string, 0, len(codes))
	for _, c := range codes {
		if seen[c] {
			continue
		}
		seen[c] = true
		keys = append(keys, ports.LockKey(tenant, ports.LockProduct, c))
	}
	return keys
}

type applyArgs struct {
	tenant   entity.Tenant
	actor    string
	code     string
	delta    decimal.Decimal
	override bool
	reason   string
	source   entity.SourceKind
	docID    string
	document bool // mantiene UsedQuantity
}

func (uc *StockUseCase) apply(ctx context.Context, tx repository.Tx, a applyArgs) (*entity.Product, error) {
	// Bloquea la fila del producto (SELECT FOR UPDATE) para evitar condiciones de carrera
	p, err := tx.Products().GetByCodeForUpdate(ctx, a.tenant, a.code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound.WithEntity(a.code)
	}
	if !p.Active && a.delta.IsNegative() {
		return nil, domain.ErrProductInactive.WithEntity(a.code)
	}
	if err := uc.applyLoaded(ctx, tx, p, a); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *StockUseCase) applyLoaded(ctx context.Context, tx repository.Tx, p *entity.Product, a applyArgs) error {
	before := p.OnHandQuantity
	res, err := inventory.ApplyToProduct(p, a.delta, a.override)
	if err != nil {
		return err
	}
	now := time.Now()
	if res.Applied && a.document {
		p.UsedQuantity = p.UsedQuantity.Sub(a.delta)
		if p.UsedQuantity.IsNegative() {
			p.UsedQuantity = decimal.Zero
		}
	}
	p.UpdatedAt = now
	if err := tx.Products().Update(ctx, p); err != nil {
		return err
	}
	if !res.Applied {
		return nil
	}
	number, err := sequence.Next(ctx, tx, a.tenant, entity.SeriesStockMovement)
	if err != nil {
		return err
	}
	mov := &entity.StockMovement{
		ID:               uuid.New().String(),
		Tenant:           a.tenant,
		Number:           number,
		ProductID:        p.ID,
		ProductCode:      p.Code,
		Delta:            a.delta,
		QuantityBefore:   before,
		QuantityAfter:    res.After,
		Reason:           a.reason,
		SourceKind:       a.source,
		SourceDocumentID: a.docID,
		CreatedAt:        now,
		CreatedBy:        a.actor,
	}
	if err := tx.StockMovements().Create(ctx, mov); err != nil {
		return fmt.Errorf("registrar movimiento de stock: %w", err)
	}
	return nil
}

// ListStockMovements auditoría de un producto, más recientes primero.
func (uc *StockUseCase) ListStockMovements(ctx context.Context, tenant entity.Tenant, code string, limit, offset int) ([]*entity.StockMovement, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*entity.StockMovement
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		var err error
		list, err = tx.StockMovements().ListByProduct(ctx, tenant, code, limit, offset)
		return err
	})
	return list, err
}

func (uc *StockUseCase) withProductLocks(ctx context.Context, tenant entity.Tenant, codes []string, fn func() error) error {
	release, err := uc.locker.Acquire(ctx, ProductLockKeys(tenant, codes)...)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
