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

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id::text, store_id, company_id, code, name, on_hand_quantity, used_quantity, stock_policy,
	purchase_price, cost_price, sale_price, wholesale_price,
	prev_purchase_price, prev_cost_price, prev_sale_price, prev_wholesale_price,
	active, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, store_id, company_id, code, name, on_hand_quantity, used_quantity, stock_policy,
			purchase_price, cost_price, sale_price, wholesale_price,
			prev_purchase_price, prev_cost_price, prev_sale_price, prev_wholesale_price,
			active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Tenant.StoreID, p.Tenant.CompanyID, p.Code, p.Name, p.OnHandQuantity, p.UsedQuantity, string(p.StockPolicy),
		p.Prices.Purchase, p.Prices.Cost, p.Prices.Sale, p.Prices.Wholesale,
		p.PreviousPrices.Purchase, p.PreviousPrices.Cost, p.PreviousPrices.Sale, p.PreviousPrices.Wholesale,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate.WithEntity(p.Code)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByCode obtiene un producto por código dentro del tenant.
func (r *ProductRepo) GetByCode(ctx context.Context, tenant entity.Tenant, code string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE store_id = $1 AND company_id = $2 AND code = $3`,
		tenant, code)
}

// GetByCodeForUpdate igual que GetByCode, con SELECT ... FOR UPDATE.
func (r *ProductRepo) GetByCodeForUpdate(ctx context.Context, tenant entity.Tenant, code string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE store_id = $1 AND company_id = $2 AND code = $3 FOR UPDATE`,
		tenant, code)
}

func (r *ProductRepo) get(ctx context.Context, query string, tenant entity.Tenant, code string) (*entity.Product, error) {
	var (
		p      entity.Product
		policy string
	)
	err := r.q.QueryRow(ctx, query, tenant.StoreID, tenant.CompanyID, code).Scan(
		&p.ID, &p.Tenant.StoreID, &p.Tenant.CompanyID, &p.Code, &p.Name, &p.OnHandQuantity, &p.UsedQuantity, &policy,
		&p.Prices.Purchase, &p.Prices.Cost, &p.Prices.Sale, &p.Prices.Wholesale,
		&p.PreviousPrices.Purchase, &p.PreviousPrices.Cost, &p.PreviousPrices.Sale, &p.PreviousPrices.Wholesale,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.StockPolicy = entity.StockPolicy(policy)
	return &p, nil
}

// Update actualiza cantidades, precios y estado del producto.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $4, on_hand_quantity = $5, used_quantity = $6, stock_policy = $7,
			purchase_price = $8, cost_price = $9, sale_price = $10, wholesale_price = $11,
			prev_purchase_price = $12, prev_cost_price = $13, prev_sale_price = $14, prev_wholesale_price = $15,
			active = $16, updated_at = $17
		WHERE store_id = $1 AND company_id = $2 AND code = $3`
	tag, err := r.q.Exec(ctx, query,
		p.Tenant.StoreID, p.Tenant.CompanyID, p.Code, p.Name, p.OnHandQuantity, p.UsedQuantity, string(p.StockPolicy),
		p.Prices.Purchase, p.Prices.Cost, p.Prices.Sale, p.Prices.Wholesale,
		p.PreviousPrices.Purchase, p.PreviousPrices.Cost, p.PreviousPrices.Sale, p.PreviousPrices.Wholesale,
		p.Active, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update product %s: %w", p.Code, domain.ErrNotFound)
	}
	return nil
}

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo auditoría de deltas de stock.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el repositorio.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el registro de auditoría.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, store_id, company_id, number, product_id, product_code, delta,
			quantity_before, quantity_after, reason, source_kind, source_document_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Tenant.StoreID, m.Tenant.CompanyID, m.Number, m.ProductID, m.ProductCode, m.Delta,
		m.QuantityBefore, m.QuantityAfter, m.Reason, string(m.SourceKind), nullString(m.SourceDocumentID),
		nullString(m.CreatedBy), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListByProduct historial del producto, más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, tenant entity.Tenant, code string, limit, offset int) ([]*entity.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id::text, store_id, company_id, number, product_id::text, product_code, delta,
			quantity_before, quantity_after, reason, source_kind, source_document_id, created_by, created_at
		FROM stock_movements
		WHERE store_id = $1 AND company_id = $2 AND product_code = $3
		ORDER BY number DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, tenant.StoreID, tenant.CompanyID, code, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockMovement
	for rows.Next() {
		var (
			m              entity.StockMovement
			source         string
			doc, createdBy *string
		)
		if err := rows.Scan(&m.ID, &m.Tenant.StoreID, &m.Tenant.CompanyID, &m.Number, &m.ProductID, &m.ProductCode,
			&m.Delta, &m.QuantityBefore, &m.QuantityAfter, &m.Reason, &source, &doc, &createdBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.SourceKind = entity.SourceKind(source)
		m.SourceDocumentID = derefString(doc)
		m.CreatedBy = derefString(createdBy)
		out = append(out, &m)
	}
	return out, rows.Err()
}
