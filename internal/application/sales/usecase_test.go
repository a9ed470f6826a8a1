package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retaguarda-api/internal/application/cashier"
	"github.com/jhoicas/retaguarda-api/internal/application/finance"
	"github.com/jhoicas/retaguarda-api/internal/application/inventory"
	"github.com/jhoicas/retaguarda-api/internal/application/sales"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/lock"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/memory"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

var tenant = entity.Tenant{StoreID: "store-1", CompanyID: "company-1"}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type harness struct {
	stock       *inventory.StockUseCase
	sessions    *cashier.SessionUseCase
	movements   *cashier.MovementUseCase
	obligations *finance.ObligationUseCase
	docs        *sales.DocumentUseCase
}

func newHarness() *harness {
	store := memory.New()
	locker := lock.NewLocal()
	log := logger.Nop()
	ledger := cashier.NewLedger()
	stock := inventory.NewStockUseCase(store, locker, log)
	obligations := finance.NewObligationUseCase(store, locker, ledger, log)
	return &harness{
		stock:       stock,
		sessions:    cashier.NewSessionUseCase(store, locker, log),
		movements:   cashier.NewMovementUseCase(store, ledger, log),
		obligations: obligations,
		docs:        sales.NewDocumentUseCase(store, locker, stock, ledger, obligations, log),
	}
}

func (h *harness) open(t *testing.T, register int) *entity.CashSession {
	t.Helper()
	zero := decimal.Zero
	s, err := h.sessions.OpenSession(context.Background(), openInput(register, &zero))
	require.NoError(t, err)
	return s
}

func openInput(register int, initial *decimal.Decimal) cashier.OpenSessionInput {
	return cashier.OpenSessionInput{Tenant: tenant, RegisterNumber: register, Actor: "u1", InitialBalance: initial}
}

func (h *harness) product(t *testing.T, code, qty string) {
	t.Helper()
	_, err := h.stock.CreateProduct(context.Background(), inventory.CreateProductInput{
		Tenant:          tenant,
		Code:            code,
		Name:            "Producto " + code,
		StockPolicy:     entity.StockPolicyBlockNegative,
		InitialQuantity: d(qty),
	})
	require.NoError(t, err)
}

func (h *harness) onHand(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	p, err := h.stock.GetProduct(context.Background(), tenant, code)
	require.NoError(t, err)
	return p.OnHandQuantity
}

func (h *harness) balance(t *testing.T, sessionID string) decimal.Decimal {
	t.Helper()
	s, err := h.sessions.GetSession(context.Background(), tenant, sessionID)
	require.NoError(t, err)
	return s.RunningCashBalance
}

func (h *harness) sessionMovements(t *testing.T, sessionID string) []*entity.Movement {
	t.Helper()
	list, err := h.movements.ListMovements(context.Background(), tenant, sessionID)
	require.NoError(t, err)
	return list
}

func cashSale(code, qty, price string) sales.DocumentInput {
	q, p := d(qty), d(price)
	return sales.DocumentInput{
		Tenant:         tenant,
		Actor:          "u1",
		RegisterNumber: 1,
		Items:          []entity.LineItem{{ProductCode: code, Quantity: q, UnitPrice: p}},
		Payments:       []entity.PaymentEntry{{Instrument: entity.InstrumentCash, Amount: q.Mul(p)}},
	}
}

func deferredSale(code string) sales.DocumentInput {
	due := time.Now().AddDate(0, 1, 0)
	return sales.DocumentInput{
		Tenant:         tenant,
		Actor:          "u1",
		RegisterNumber: 1,
		CustomerID:     "cli-1",
		Items:          []entity.LineItem{{ProductCode: code, Quantity: d("2"), UnitPrice: d("50")}},
		Payments: []entity.PaymentEntry{{
			Instrument: entity.InstrumentDeferred,
			Amount:     d("100"),
			Installments: []entity.InstallmentPlan{
				{DueDate: due, Amount: d("50")},
				{DueDate: due.AddDate(0, 1, 0), Amount: d("50")},
			},
		}},
	}
}

func assertCode(t *testing.T, err error, want *domain.Error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, want), "se esperaba %s, se obtuvo %v", want.Code, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Venta en efectivo: alta y cancelación en la misma caja
// ──────────────────────────────────────────────────────────────────────────────

func TestSale_AltaYCancelacion_MismaCaja(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	session := h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "2", "50"))
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentOpen, sale.Status)
	assert.Equal(t, int64(1), sale.Number)
	assert.True(t, sale.Total.Equal(d("100")))
	assert.True(t, h.onHand(t, "P").Equal(d("8")))

	movements := h.sessionMovements(t, session.ID)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.DirectionIn, movements[0].Direction)
	assert.Equal(t, entity.InstrumentCash, movements[0].Instrument)
	assert.True(t, movements[0].Amount.Equal(d("100")))
	assert.True(t, h.balance(t, session.ID).Equal(d("100")))

	canceled, err := h.docs.CancelSale(ctx, tenant, "u1", sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentCanceled, canceled.Status)
	require.Len(t, canceled.History, 2)
	assert.Equal(t, entity.DocumentOpen, canceled.History[1].Previous)
	assert.Equal(t, entity.DocumentCanceled, canceled.History[1].New)

	assert.True(t, h.onHand(t, "P").Equal(d("10")))
	movements = h.sessionMovements(t, session.ID)
	require.Len(t, movements, 1, "con la caja abierta el asiento se anula en sitio")
	assert.Equal(t, entity.DirectionOut, movements[0].Direction)
	assert.True(t, movements[0].Amount.Equal(d("100")))
	assert.True(t, movements[0].Annulled)
	assert.Equal(t, entity.SourceSale, movements[0].OriginalSourceKind)
	assert.True(t, h.balance(t, session.ID).IsZero())

	_, err = h.docs.CancelSale(ctx, tenant, "u1", sale.ID)
	assertCode(t, err, domain.ErrAlreadyCanceled)
}

func TestSale_CancelacionTrasCierre_CompensaEnCajaVigente(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	first := h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "2", "50"))
	require.NoError(t, err)
	_, err = h.sessions.CloseSession(ctx, tenant, 1, "u1")
	require.NoError(t, err)

	second, err := h.sessions.OpenSession(ctx, openInput(1, nil))
	require.NoError(t, err)
	assert.True(t, second.OpeningBalance.Equal(d("100")), "la apertura hereda el saldo del cierre")

	_, err = h.docs.CancelSale(ctx, tenant, "u1", sale.ID)
	require.NoError(t, err)

	old := h.sessionMovements(t, first.ID)
	require.Len(t, old, 1)
	assert.False(t, old[0].Annulled, "la historia de una caja cerrada no se edita")
	assert.Equal(t, entity.DirectionIn, old[0].Direction)
	assert.True(t, h.balance(t, first.ID).Equal(d("100")))

	current := h.sessionMovements(t, second.ID)
	require.Len(t, current, 1)
	assert.Equal(t, entity.DirectionOut, current[0].Direction)
	assert.Equal(t, entity.SourceReversal, current[0].SourceKind)
	assert.Equal(t, old[0].ID, current[0].ReversalOf)
	assert.True(t, current[0].Amount.Equal(d("100")))
	assert.True(t, h.balance(t, second.ID).IsZero())
	assert.True(t, h.onHand(t, "P").Equal(d("10")))
}

func TestSale_CancelacionTrasCierre_SinCajaAbierta(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "1", "10"))
	require.NoError(t, err)
	_, err = h.sessions.CloseSession(ctx, tenant, 1, "u1")
	require.NoError(t, err)

	_, err = h.docs.CancelSale(ctx, tenant, "u1", sale.ID)
	assertCode(t, err, domain.ErrNoOpenSession)
	assert.True(t, h.onHand(t, "P").Equal(d("9")), "el rechazo no devuelve stock")

	got, err := h.docs.GetSale(ctx, tenant, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentOpen, got.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad
// ──────────────────────────────────────────────────────────────────────────────

func TestSale_StockInsuficiente_DescartaTodo(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	session := h.open(t, 1)
	h.product(t, "A", "5")
	h.product(t, "B", "1")

	in := sales.DocumentInput{
		Tenant:         tenant,
		Actor:          "u1",
		RegisterNumber: 1,
		Items: []entity.LineItem{
			{ProductCode: "A", Quantity: d("2"), UnitPrice: d("10")},
			{ProductCode: "B", Quantity: d("3"), UnitPrice: d("10")},
		},
		Payments: []entity.PaymentEntry{{Instrument: entity.InstrumentCash, Amount: d("50")}},
	}
	_, err := h.docs.CreateSale(ctx, in)
	assertCode(t, err, domain.ErrInsufficientStock)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "B", de.EntityID)

	assert.True(t, h.onHand(t, "A").Equal(d("5")), "la línea A no debe quedar descontada")
	assert.True(t, h.onHand(t, "B").Equal(d("1")))
	assert.Empty(t, h.sessionMovements(t, session.ID))
	assert.True(t, h.balance(t, session.ID).IsZero())

	sale, err := h.docs.CreateSale(ctx, cashSale("A", "1", "10"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), sale.Number, "el intento fallido no consume numeración")
}

func TestSale_SinCajaAbierta(t *testing.T) {
	h := newHarness()
	h.product(t, "P", "10")

	_, err := h.docs.CreateSale(context.Background(), cashSale("P", "1", "10"))
	assertCode(t, err, domain.ErrNoOpenSession)
	assert.True(t, h.onHand(t, "P").Equal(d("10")))
}

func TestSale_Validacion(t *testing.T) {
	h := newHarness()
	h.open(t, 1)
	h.product(t, "P", "10")

	cases := map[string]func(in *sales.DocumentInput){
		"sin líneas":         func(in *sales.DocumentInput) { in.Items = nil },
		"cantidad cero":      func(in *sales.DocumentInput) { in.Items[0].Quantity = decimal.Zero },
		"pagos no cuadran":   func(in *sales.DocumentInput) { in.Payments[0].Amount = d("1") },
		"instrumento raro":   func(in *sales.DocumentInput) { in.Payments[0].Instrument = "cheque" },
		"sin actor":          func(in *sales.DocumentInput) { in.Actor = "" },
		"descuento excesivo": func(in *sales.DocumentInput) { in.Items[0].Discount = d("1000") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := cashSale("P", "1", "10")
			mutate(&in)
			_, err := h.docs.CreateSale(context.Background(), in)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
	assert.True(t, h.onHand(t, "P").Equal(d("10")))
}

func TestSale_MontosConFraccionDeCentavo(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	session := h.open(t, 1)
	h.product(t, "P", "10")

	_, err := h.docs.CreateSale(ctx, cashSale("P", "1", "0.004"))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	in := deferredSale("P")
	in.Payments[0].Installments[0].Amount = d("49.995")
	in.Payments[0].Installments[1].Amount = d("50.005")
	_, err = h.docs.CreateSale(ctx, in)
	assertCode(t, err, domain.ErrInvalidInstallment)

	assert.True(t, h.onHand(t, "P").Equal(d("10")), "nada se descuenta")
	assert.Empty(t, h.sessionMovements(t, session.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Alteración
// ──────────────────────────────────────────────────────────────────────────────

func TestSale_Alteracion_ReemplazaLineasYPagos(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	session := h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "2", "50"))
	require.NoError(t, err)

	altered, err := h.docs.AlterSale(ctx, sale.ID, cashSale("P", "3", "50"))
	require.NoError(t, err)
	assert.Equal(t, sale.Number, altered.Number)
	assert.True(t, altered.Total.Equal(d("150")))
	assert.True(t, h.onHand(t, "P").Equal(d("7")))

	movements := h.sessionMovements(t, session.ID)
	require.Len(t, movements, 1, "los asientos anteriores se eliminan")
	assert.True(t, movements[0].Amount.Equal(d("150")))
	assert.True(t, h.balance(t, session.ID).Equal(d("150")))
}

func TestSale_Alteracion_StockInsuficienteNoCambiaNada(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	session := h.open(t, 1)
	h.product(t, "P", "3")

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "2", "50"))
	require.NoError(t, err)

	_, err = h.docs.AlterSale(ctx, sale.ID, cashSale("P", "4", "50"))
	assertCode(t, err, domain.ErrInsufficientStock)
	assert.True(t, h.onHand(t, "P").Equal(d("1")))
	assert.True(t, h.balance(t, session.ID).Equal(d("100")))

	got, err := h.docs.GetSale(ctx, tenant, sale.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(d("100")))
}

func TestSale_Alteracion_CajaCerrada(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "2", "50"))
	require.NoError(t, err)
	_, err = h.sessions.CloseSession(ctx, tenant, 1, "u1")
	require.NoError(t, err)
	h.open(t, 1)

	_, err = h.docs.AlterSale(ctx, sale.ID, cashSale("P", "1", "50"))
	assertCode(t, err, domain.ErrCrossSessionModificationForbidden)
	assert.True(t, h.onHand(t, "P").Equal(d("8")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Pagos a plazo
// ──────────────────────────────────────────────────────────────────────────────

func TestSale_PagoAPlazo_CreaYCancelaCuotas(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	session := h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, deferredSale("P"))
	require.NoError(t, err)
	assert.True(t, h.balance(t, session.ID).IsZero(), "el pago a plazo no mueve efectivo")

	list, err := h.obligations.ListObligations(ctx, tenant, repository.ObligationFilter{PartyID: "cli-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for i, o := range list {
		assert.Equal(t, entity.ObligationReceivable, o.Kind)
		assert.Equal(t, entity.ObligationOpen, o.Status)
		assert.Equal(t, sale.ID, o.SourceDocumentID)
		assert.Equal(t, i+1, o.InstallmentNumber)
		assert.Equal(t, 2, o.InstallmentCount)
	}

	_, err = h.docs.CancelSale(ctx, tenant, "u1", sale.ID)
	require.NoError(t, err)

	list, err = h.obligations.ListObligations(ctx, tenant, repository.ObligationFilter{PartyID: "cli-1"})
	require.NoError(t, err)
	for _, o := range list {
		assert.Equal(t, entity.ObligationCanceled, o.Status)
	}
}

func TestSale_PagoAPlazo_CuotaLiquidadaImpideAlterar(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, deferredSale("P"))
	require.NoError(t, err)
	list, err := h.obligations.ListObligations(ctx, tenant, repository.ObligationFilter{PartyID: "cli-1"})
	require.NoError(t, err)
	_, err = h.obligations.SettleObligation(ctx, finance.SettleInput{
		Tenant: tenant, Actor: "u1", ObligationID: list[0].ID, Amount: d("50"), Instrument: entity.InstrumentPix,
	})
	require.NoError(t, err)

	_, err = h.docs.AlterSale(ctx, sale.ID, deferredSale("P"))
	assertCode(t, err, domain.ErrInvalidTransition)
	assert.True(t, h.onHand(t, "P").Equal(d("8")))
}

func TestSale_PagoAPlazo_SinCliente(t *testing.T) {
	h := newHarness()
	h.open(t, 1)
	h.product(t, "P", "10")

	in := deferredSale("P")
	in.CustomerID = ""
	_, err := h.docs.CreateSale(context.Background(), in)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes de servicio
// ──────────────────────────────────────────────────────────────────────────────

func TestServiceOrder_Transiciones(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.open(t, 1)
	h.product(t, "P", "10")

	in := cashSale("P", "1", "80")
	in.Service = &entity.ServiceDetails{Equipment: "Notebook", Problem: "no enciende", TechnicianID: "tec-1"}
	order, err := h.docs.CreateServiceOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentPending, order.Status)
	assert.Equal(t, int64(1), order.Number)
	require.NotNil(t, order.Service)
	assert.Equal(t, "Notebook", order.Service.Equipment)

	_, err = h.docs.InvoiceServiceOrder(ctx, tenant, "u1", order.ID)
	assertCode(t, err, domain.ErrInvalidTransition)

	_, err = h.docs.StartServiceOrder(ctx, tenant, "u1", order.ID)
	require.NoError(t, err)
	invoiced, err := h.docs.InvoiceServiceOrder(ctx, tenant, "u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentInvoiced, invoiced.Status)
	assert.Len(t, invoiced.History, 3)

	_, err = h.docs.CancelServiceOrder(ctx, tenant, "u1", order.ID)
	assertCode(t, err, domain.ErrInvalidTransition)

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "1", "10"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), sale.Number, "ventas y órdenes tienen series propias")
}

func TestServiceOrder_CancelacionEnCurso(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	session := h.open(t, 1)
	h.product(t, "P", "10")

	order, err := h.docs.CreateServiceOrder(ctx, cashSale("P", "2", "30"))
	require.NoError(t, err)
	_, err = h.docs.StartServiceOrder(ctx, tenant, "u1", order.ID)
	require.NoError(t, err)

	canceled, err := h.docs.CancelServiceOrder(ctx, tenant, "u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentCanceled, canceled.Status)
	assert.True(t, h.onHand(t, "P").Equal(d("10")))
	assert.True(t, h.balance(t, session.ID).IsZero())
}

func TestFulfillSale(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "1", "10"))
	require.NoError(t, err)
	done, err := h.docs.FulfillSale(ctx, tenant, "u1", sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentFulfilled, done.Status)

	_, err = h.docs.CancelSale(ctx, tenant, "u1", sale.ID)
	assertCode(t, err, domain.ErrInvalidTransition)
	_, err = h.docs.FulfillSale(ctx, tenant, "u1", sale.ID)
	assertCode(t, err, domain.ErrInvalidTransition)
}

func TestDocuments_AisladosPorTenant(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.open(t, 1)
	h.product(t, "P", "10")

	sale, err := h.docs.CreateSale(ctx, cashSale("P", "1", "10"))
	require.NoError(t, err)

	other := entity.Tenant{StoreID: "store-2", CompanyID: "company-1"}
	_, err = h.docs.GetSale(ctx, other, sale.ID)
	assertCode(t, err, domain.ErrDocumentNotFound)
	_, err = h.docs.CancelSale(ctx, other, "u1", sale.ID)
	assertCode(t, err, domain.ErrDocumentNotFound)
	_, err = h.docs.GetServiceOrder(ctx, tenant, sale.ID)
	assertCode(t, err, domain.ErrDocumentNotFound)
}
