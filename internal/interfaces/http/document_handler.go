package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retaguarda-api/internal/application/dto"
	"github.com/jhoicas/retaguarda-api/internal/application/sales"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// DocumentHandler ventas y órdenes de servicio (protegido). Las dos comparten cuerpo y
// forma de respuesta; cambian las transiciones disponibles.
type DocumentHandler struct {
	uc  *sales.DocumentUseCase
	log *logger.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *sales.DocumentUseCase, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

type (
	createFn     func(ctx context.Context, in sales.DocumentInput) (*entity.Document, error)
	alterFn      func(ctx context.Context, id string, in sales.DocumentInput) (*entity.Document, error)
	getFn        func(ctx context.Context, tenant entity.Tenant, id string) (*entity.Document, error)
	transitionFn func(ctx context.Context, tenant entity.Tenant, actor, id string) (*entity.Document, error)
)

// CreateSale godoc
// @Summary      Registrar venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DocumentRequest  true  "Líneas y pagos"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *DocumentHandler) CreateSale(c *fiber.Ctx) error { return h.create(c, h.uc.CreateSale) }

// GetSale godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/sales/{id} [get]
func (h *DocumentHandler) GetSale(c *fiber.Ctx) error { return h.get(c, h.uc.GetSale) }

// AlterSale godoc
// @Summary      Alterar venta (solo con la caja de origen abierta)
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la venta"
// @Param        body  body  dto.DocumentRequest  true  "Nueva carga"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [put]
func (h *DocumentHandler) AlterSale(c *fiber.Ctx) error { return h.alter(c, h.uc.AlterSale) }

// CancelSale godoc
// @Summary      Cancelar venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *DocumentHandler) CancelSale(c *fiber.Ctx) error { return h.transition(c, h.uc.CancelSale) }

// FulfillSale godoc
// @Summary      Marcar venta como entregada
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/sales/{id}/fulfill [post]
func (h *DocumentHandler) FulfillSale(c *fiber.Ctx) error { return h.transition(c, h.uc.FulfillSale) }

// CreateServiceOrder godoc
// @Summary      Registrar orden de servicio
// @Tags         service-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DocumentRequest  true  "Líneas, pagos y datos del servicio"
// @Success      201   {object}  dto.DocumentResponse
// @Router       /api/service-orders [post]
func (h *DocumentHandler) CreateServiceOrder(c *fiber.Ctx) error {
	return h.create(c, h.uc.CreateServiceOrder)
}

// GetServiceOrder godoc
// @Summary      Obtener orden de servicio
// @Tags         service-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/service-orders/{id} [get]
func (h *DocumentHandler) GetServiceOrder(c *fiber.Ctx) error { return h.get(c, h.uc.GetServiceOrder) }

// AlterServiceOrder godoc
// @Summary      Alterar orden de servicio
// @Tags         service-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la orden"
// @Param        body  body  dto.DocumentRequest  true  "Nueva carga"
// @Success      200   {object}  dto.DocumentResponse
// @Router       /api/service-orders/{id} [put]
func (h *DocumentHandler) AlterServiceOrder(c *fiber.Ctx) error {
	return h.alter(c, h.uc.AlterServiceOrder)
}

// CancelServiceOrder godoc
// @Summary      Cancelar orden de servicio
// @Tags         service-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/service-orders/{id}/cancel [post]
func (h *DocumentHandler) CancelServiceOrder(c *fiber.Ctx) error {
	return h.transition(c, h.uc.CancelServiceOrder)
}

// StartServiceOrder godoc
// @Summary      Iniciar orden de servicio
// @Tags         service-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/service-orders/{id}/start [post]
func (h *DocumentHandler) StartServiceOrder(c *fiber.Ctx) error {
	return h.transition(c, h.uc.StartServiceOrder)
}

// InvoiceServiceOrder godoc
// @Summary      Facturar orden de servicio
// @Tags         service-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/service-orders/{id}/invoice [post]
func (h *DocumentHandler) InvoiceServiceOrder(c *fiber.Ctx) error {
	return h.transition(c, h.uc.InvoiceServiceOrder)
}

func (h *DocumentHandler) create(c *fiber.Ctx, fn createFn) error {
	in, err := h.input(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := fn(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) alter(c *fiber.Ctx, fn alterFn) error {
	in, err := h.input(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := fn(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) get(c *fiber.Ctx, fn getFn) error {
	doc, err := fn(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) transition(c *fiber.Ctx, fn transitionFn) error {
	doc, err := fn(c.UserContext(), GetTenant(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

// input traduce el cuerpo a la carga del orquestador.
func (h *DocumentHandler) input(c *fiber.Ctx) (sales.DocumentInput, error) {
	var req dto.DocumentRequest
	if err := parseBody(c, &req); err != nil {
		return sales.DocumentInput{}, err
	}
	in := sales.DocumentInput{
		Tenant:         GetTenant(c),
		Actor:          GetUserID(c),
		RegisterNumber: req.RegisterNumber,
		CustomerID:     req.CustomerID,
		Items:          make([]entity.LineItem, 0, len(req.Items)),
		Payments:       make([]entity.PaymentEntry, 0, len(req.Payments)),
		Notes:          req.Notes,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, entity.LineItem(it))
	}
	for _, p := range req.Payments {
		entry := entity.PaymentEntry{Instrument: entity.Instrument(p.Instrument), Amount: p.Amount}
		for _, inst := range p.Installments {
			due, err := time.Parse(dto.DateLayout, inst.DueDate)
			if err != nil {
				return sales.DocumentInput{}, domain.ErrInvalidInstallment.WithMessage("fecha de vencimiento inválida: %s", inst.DueDate)
			}
			entry.Installments = append(entry.Installments, entity.InstallmentPlan{DueDate: due, Amount: inst.Amount})
		}
		in.Payments = append(in.Payments, entry)
	}
	if req.Service != nil {
		svc := entity.ServiceDetails(*req.Service)
		in.Service = &svc
	}
	return in, nil
}
