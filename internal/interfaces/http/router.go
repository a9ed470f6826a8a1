package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retaguarda-api/internal/application/cashier"
	"github.com/jhoicas/retaguarda-api/internal/application/finance"
	"github.com/jhoicas/retaguarda-api/internal/application/inventory"
	"github.com/jhoicas/retaguarda-api/internal/application/sales"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock       *inventory.StockUseCase
	Sessions    *cashier.SessionUseCase
	Movements   *cashier.MovementUseCase
	Reports     *cashier.ReportUseCase
	Obligations *finance.ObligationUseCase
	Documents   *sales.DocumentUseCase
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Todo bajo /api requiere Bearer Token con tienda y empresa
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	cash := NewCashHandler(deps.Sessions, deps.Movements, deps.Reports, deps.Log)
	sessions := api.Group("/cash-sessions")
	sessions.Post("/", cash.Open)
	sessions.Post("/:register/close", cash.Close)
	sessions.Get("/:id", cash.Get)
	sessions.Get("/:id/summary", cash.Summary)
	sessions.Get("/:id/movements", cash.ListMovements)
	sessions.Get("/:id/report.pdf", cash.Report)

	movements := api.Group("/movements")
	movements.Post("/", cash.PostMovement)
	movements.Post("/:id/reverse", cash.ReverseMovement)

	productHandler := NewProductHandler(deps.Stock, deps.Log)
	products := api.Group("/products")
	products.Post("/", productHandler.Create)
	products.Get("/:code", productHandler.Get)
	products.Get("/:code/movements", productHandler.Movements)
	products.Post("/:code/adjust", productHandler.Adjust)
	products.Post("/:code/receive", productHandler.Receive)
	products.Delete("/:code", RequireRole(RoleAdmin), productHandler.Deactivate)

	obligationHandler := NewObligationHandler(deps.Obligations, deps.Log)
	obligations := api.Group("/obligations")
	obligations.Post("/", obligationHandler.Create)
	obligations.Get("/", obligationHandler.List)
	obligations.Post("/settle-batch", obligationHandler.SettleBatch)
	obligations.Get("/:id", obligationHandler.Get)
	obligations.Post("/:id/settle", obligationHandler.Settle)
	obligations.Post("/:id/settlements/:settlementID/reverse", obligationHandler.ReverseSettlement)
	obligations.Post("/:id/cancel", obligationHandler.Cancel)

	documents := NewDocumentHandler(deps.Documents, deps.Log)
	salesGroup := api.Group("/sales")
	salesGroup.Post("/", documents.CreateSale)
	salesGroup.Get("/:id", documents.GetSale)
	salesGroup.Put("/:id", documents.AlterSale)
	salesGroup.Post("/:id/cancel", documents.CancelSale)
	salesGroup.Post("/:id/fulfill", documents.FulfillSale)

	orders := api.Group("/service-orders")
	orders.Post("/", documents.CreateServiceOrder)
	orders.Get("/:id", documents.GetServiceOrder)
	orders.Put("/:id", documents.AlterServiceOrder)
	orders.Post("/:id/cancel", documents.CancelServiceOrder)
	orders.Post("/:id/start", documents.StartServiceOrder)
	orders.Post("/:id/invoice", documents.InvoiceServiceOrder)
}
