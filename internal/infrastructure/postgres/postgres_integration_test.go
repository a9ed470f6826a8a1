package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/retaguarda-api/internal/application/cashier"
	"github.com/jhoicas/retaguarda-api/internal/application/finance"
	"github.com/jhoicas/retaguarda-api/internal/application/inventory"
	"github.com/jhoicas/retaguarda-api/internal/application/sales"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/lock"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/retaguarda-api/pkg/config"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

var tenant = entity.Tenant{StoreID: "S1", CompanyID: "C1"}

// startPostgres levanta un contenedor, aplica migraciones y devuelve el runner.
// Solo corre con INTEGRATION_TESTS=1 (requiere Docker).
func startPostgres(t *testing.T) *postgres.TxRunner {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("INTEGRATION_TESTS=1 para correr contra PostgreSQL real")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("retaguarda"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn))

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 5})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return postgres.NewTxRunner(pool)
}

func TestPostgres_SaleLifecycle(t *testing.T) {
	runner := startPostgres(t)
	ctx := context.Background()
	log := logger.Nop()
	locker := lock.NewLocal()

	stock := inventory.NewStockUseCase(runner, locker, log)
	sessions := cashier.NewSessionUseCase(runner, locker, log)
	ledger := cashier.NewLedger()
	obligations := finance.NewObligationUseCase(runner, locker, ledger, log)
	documents := sales.NewDocumentUseCase(runner, locker, stock, ledger, obligations, log)

	_, err := stock.CreateProduct(ctx, inventory.CreateProductInput{
		Tenant: tenant, Code: "P1", Name: "Cable", InitialQuantity: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	initial := decimal.NewFromInt(100)
	session, err := sessions.OpenSession(ctx, cashier.OpenSessionInput{
		Tenant: tenant, RegisterNumber: 1, Actor: "u1", InitialBalance: &initial,
	})
	require.NoError(t, err)

	_, err = sessions.OpenSession(ctx, cashier.OpenSessionInput{Tenant: tenant, RegisterNumber: 1, Actor: "u1"})
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyOpen)

	sale, err := documents.CreateSale(ctx, sales.DocumentInput{
		Tenant: tenant, Actor: "u1", RegisterNumber: 1, CustomerID: "CUST",
		Items: []entity.LineItem{{ProductCode: "P1", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)}},
		Payments: []entity.PaymentEntry{
			{Instrument: entity.InstrumentCash, Amount: decimal.NewFromInt(40)},
			{Instrument: entity.InstrumentDeferred, Amount: decimal.NewFromInt(60), Installments: []entity.InstallmentPlan{
				{DueDate: time.Now().AddDate(0, 1, 0), Amount: decimal.NewFromInt(30)},
				{DueDate: time.Now().AddDate(0, 2, 0), Amount: decimal.NewFromInt(30)},
			}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentOpen, sale.Status)

	var (
		product      *entity.Product
		current      *entity.CashSession
		receivables  []*entity.Obligation
		saleMovement []*entity.Movement
	)
	require.NoError(t, runner.Run(ctx, func(tx repository.Tx) error {
		var err error
		if product, err = tx.Products().GetByCode(ctx, tenant, "P1"); err != nil {
			return err
		}
		if current, err = tx.Sessions().GetByID(ctx, tenant, session.ID); err != nil {
			return err
		}
		if receivables, err = tx.Obligations().ListBySource(ctx, tenant, entity.SourceSale, sale.ID); err != nil {
			return err
		}
		saleMovement, err = tx.Movements().ListBySource(ctx, tenant, entity.SourceSale, sale.ID)
		return err
	}))
	assert.True(t, product.OnHandQuantity.Equal(decimal.NewFromInt(8)))
	assert.True(t, current.RunningCashBalance.Equal(decimal.NewFromInt(140)))
	require.Len(t, receivables, 2)
	assert.Equal(t, 1, receivables[0].InstallmentNumber)
	assert.Len(t, saleMovement, 1)

	got, err := documents.GetSale(ctx, tenant, sale.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Len(t, got.History, 1)

	canceled, err := documents.CancelSale(ctx, tenant, "u1", sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentCanceled, canceled.Status)

	summary, err := sessions.Summary(ctx, tenant, session.ID)
	require.NoError(t, err)
	assert.True(t, summary.CashBalance.Equal(initial))
}

// Ventas y cancelaciones simultáneas sobre la misma caja con productos distintos: todas toman
// la caja antes que los contadores, así que ninguna queda abortada por deadlock.
func TestPostgres_CancelConcurrenteConVentas(t *testing.T) {
	runner := startPostgres(t)
	ctx := context.Background()
	log := logger.Nop()
	locker := lock.NewLocal()

	stock := inventory.NewStockUseCase(runner, locker, log)
	sessions := cashier.NewSessionUseCase(runner, locker, log)
	ledger := cashier.NewLedger()
	obligations := finance.NewObligationUseCase(runner, locker, ledger, log)
	documents := sales.NewDocumentUseCase(runner, locker, stock, ledger, obligations, log)

	for _, code := range []string{"A", "B"} {
		_, err := stock.CreateProduct(ctx, inventory.CreateProductInput{
			Tenant: tenant, Code: code, Name: code, InitialQuantity: decimal.NewFromInt(100),
		})
		require.NoError(t, err)
	}
	session, err := sessions.OpenSession(ctx, cashier.OpenSessionInput{Tenant: tenant, RegisterNumber: 1, Actor: "u1"})
	require.NoError(t, err)

	saleOf := func(code string) sales.DocumentInput {
		return sales.DocumentInput{
			Tenant: tenant, Actor: "u1", RegisterNumber: 1,
			Items:    []entity.LineItem{{ProductCode: code, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
			Payments: []entity.PaymentEntry{{Instrument: entity.InstrumentCash, Amount: decimal.NewFromInt(10)}},
		}
	}
	const n = 8
	toCancel := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sale, err := documents.CreateSale(ctx, saleOf("A"))
		require.NoError(t, err)
		toCancel = append(toCancel, sale.ID)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			_, err := documents.CancelSale(ctx, tenant, "u1", id)
			record(err)
		}(toCancel[i])
		go func() {
			defer wg.Done()
			_, err := documents.CreateSale(ctx, saleOf("B"))
			record(err)
		}()
	}
	wg.Wait()
	assert.Empty(t, errs)

	summary, err := sessions.Summary(ctx, tenant, session.ID)
	require.NoError(t, err)
	assert.True(t, summary.CashBalance.Equal(decimal.NewFromInt(10*n)), "solo quedan las ventas de B")
}

func TestPostgres_SequencesAreGapFreePerTenant(t *testing.T) {
	runner := startPostgres(t)
	ctx := context.Background()
	other := entity.Tenant{StoreID: "S2", CompanyID: "C1"}

	var a, b, c int64
	require.NoError(t, runner.Run(ctx, func(tx repository.Tx) error {
		var err error
		if a, err = tx.Sequences().Increment(ctx, tenant, entity.SeriesSale, 1); err != nil {
			return err
		}
		if b, err = tx.Sequences().Increment(ctx, tenant, entity.SeriesSale, 3); err != nil {
			return err
		}
		c, err = tx.Sequences().Increment(ctx, other, entity.SeriesSale, 1)
		return err
	}))
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(4), b)
	assert.Equal(t, int64(1), c)

	// una unidad de trabajo fallida no consume números
	_ = runner.Run(ctx, func(tx repository.Tx) error {
		if _, err := tx.Sequences().Increment(ctx, tenant, entity.SeriesSale, 1); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.NoError(t, runner.Run(ctx, func(tx repository.Tx) error {
		var err error
		a, err = tx.Sequences().Increment(ctx, tenant, entity.SeriesSale, 1)
		return err
	}))
	assert.Equal(t, int64(5), a)
}
