package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retaguarda-api/internal/application/dto"
	"github.com/jhoicas/retaguarda-api/internal/application/inventory"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// ProductHandler productos y stock (protegido).
type ProductHandler struct {
	uc  *inventory.StockUseCase
	log *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *inventory.StockUseCase, log *logger.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	p, err := h.uc.CreateProduct(c.UserContext(), inventory.CreateProductInput{
		Tenant:          GetTenant(c),
		Code:            in.Code,
		Name:            in.Name,
		StockPolicy:     entity.StockPolicy(in.StockPolicy),
		InitialQuantity: in.InitialQuantity,
		Prices:          entity.Prices(in.Prices),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToProductResponse(p))
}

// Get godoc
// @Summary      Obtener producto por código
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código del producto"
// @Success      200   {object}  dto.ProductResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{code} [get]
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.uc.GetProduct(c.UserContext(), GetTenant(c), c.Params("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// Adjust godoc
// @Summary      Ajuste manual de stock (delta firmado)
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        code  path  string                  true  "Código del producto"
// @Param        body  body  dto.AdjustStockRequest  true  "Delta"
// @Success      200   {object}  dto.ProductResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{code}/adjust [post]
func (h *ProductHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	p, err := h.uc.AdjustStock(c.UserContext(), inventory.AdjustStockInput{
		Tenant:        GetTenant(c),
		Actor:         GetUserID(c),
		ProductCode:   c.Params("code"),
		Delta:         in.Delta,
		AllowOverride: in.AllowOverride,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// Receive godoc
// @Summary      Entrada de mercancía
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        code  path  string                   true  "Código del producto"
// @Param        body  body  dto.ReceiveStockRequest  true  "Cantidad y precios"
// @Success      200   {object}  dto.ProductResponse
// @Router       /api/products/{code}/receive [post]
func (h *ProductHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	p, err := h.uc.ReceiveStock(c.UserContext(), inventory.ReceiveStockInput{
		Tenant:      GetTenant(c),
		Actor:       GetUserID(c),
		ProductCode: c.Params("code"),
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		Prices: entity.PriceUpdate{
			Purchase:  in.Purchase,
			Sale:      in.Sale,
			Wholesale: in.Wholesale,
		},
		DocumentID: in.DocumentID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// Deactivate godoc
// @Summary      Desactivar producto (nunca se elimina)
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código del producto"
// @Success      200   {object}  dto.ProductResponse
// @Router       /api/products/{code} [delete]
func (h *ProductHandler) Deactivate(c *fiber.Ctx) error {
	p, err := h.uc.DeactivateProduct(c.UserContext(), GetTenant(c), c.Params("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// Movements godoc
// @Summary      Auditoría de stock del producto
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        code    path   string  true   "Código del producto"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {array}  dto.StockMovementResponse
// @Router       /api/products/{code}/movements [get]
func (h *ProductHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := parseQuery(c, &page); err != nil {
		return writeError(c, h.log, err)
	}
	page.DefaultPage()
	list, err := h.uc.ListStockMovements(c.UserContext(), GetTenant(c), c.Params("code"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToStockMovementResponses(list))
}
