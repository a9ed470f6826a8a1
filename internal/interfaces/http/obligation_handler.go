package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retaguarda-api/internal/application/dto"
	"github.com/jhoicas/retaguarda-api/internal/application/finance"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// ObligationHandler cuentas por cobrar y por pagar (protegido).
type ObligationHandler struct {
	uc  *finance.ObligationUseCase
	log *logger.Logger
}

// NewObligationHandler construye el handler.
func NewObligationHandler(uc *finance.ObligationUseCase, log *logger.Logger) *ObligationHandler {
	return &ObligationHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear obligaciones en cuotas
// @Tags         obligations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateObligationsRequest  true  "Cuotas"
// @Success      201   {array}  dto.ObligationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/obligations [post]
func (h *ObligationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateObligationsRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	installments, err := toInstallments(in.Installments)
	if err != nil {
		return writeError(c, h.log, err)
	}
	list, err := h.uc.CreateObligations(c.UserContext(), finance.CreateObligationsInput{
		Tenant:       GetTenant(c),
		Actor:        GetUserID(c),
		Kind:         entity.ObligationKind(in.Kind),
		PartyID:      in.PartyID,
		Total:        in.Total,
		Installments: installments,
		Description:  in.Description,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToObligationResponses(list))
}

// Get godoc
// @Summary      Obtener obligación
// @Tags         obligations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la obligación"
// @Success      200  {object}  dto.ObligationResponse
// @Router       /api/obligations/{id} [get]
func (h *ObligationHandler) Get(c *fiber.Ctx) error {
	o, err := h.uc.GetObligation(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToObligationResponse(o))
}

// List godoc
// @Summary      Listar obligaciones
// @Tags         obligations
// @Security     Bearer
// @Produce      json
// @Param        kind      query  string  false  "RECEIVABLE o PAYABLE"
// @Param        party_id  query  string  false  "Contraparte"
// @Param        status    query  string  false  "OPEN, PARTIAL, SETTLED, CANCELED"
// @Success      200       {array}  dto.ObligationResponse
// @Router       /api/obligations [get]
func (h *ObligationHandler) List(c *fiber.Ctx) error {
	var q dto.ListObligationsQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, h.log, err)
	}
	q.DefaultPage()
	list, err := h.uc.ListObligations(c.UserContext(), GetTenant(c), repository.ObligationFilter{
		Kind:    entity.ObligationKind(q.Kind),
		PartyID: q.PartyID,
		Status:  entity.ObligationStatus(q.Status),
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToObligationResponses(list))
}

// Settle godoc
// @Summary      Liquidar (total o parcial) una obligación
// @Tags         obligations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la obligación"
// @Param        body  body  dto.SettleRequest  true  "Monto e instrumento"
// @Success      200   {object}  dto.ObligationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/obligations/{id}/settle [post]
func (h *ObligationHandler) Settle(c *fiber.Ctx) error {
	var in dto.SettleRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	o, err := h.uc.SettleObligation(c.UserContext(), finance.SettleInput{
		Tenant:         GetTenant(c),
		Actor:          GetUserID(c),
		ObligationID:   c.Params("id"),
		Amount:         in.Amount,
		Instrument:     entity.Instrument(in.Instrument),
		RegisterNumber: in.RegisterNumber,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToObligationResponse(o))
}

// SettleBatch godoc
// @Summary      Liquidar varias obligaciones de una misma parte con un solo pago
// @Tags         obligations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SettleBatchRequest  true  "Obligaciones, monto e instrumento"
// @Success      200   {array}  dto.ObligationResponse
// @Router       /api/obligations/settle-batch [post]
func (h *ObligationHandler) SettleBatch(c *fiber.Ctx) error {
	var in dto.SettleBatchRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	list, err := h.uc.SettleBatch(c.UserContext(), finance.BatchSettleInput{
		Tenant:         GetTenant(c),
		Actor:          GetUserID(c),
		ObligationIDs:  in.ObligationIDs,
		Amount:         in.Amount,
		Instrument:     entity.Instrument(in.Instrument),
		RegisterNumber: in.RegisterNumber,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToObligationResponses(list))
}

// ReverseSettlement godoc
// @Summary      Revertir (total o parcial) una liquidación
// @Tags         obligations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id            path  string                        true  "ID de la obligación"
// @Param        settlementID  path  string                        true  "ID de la liquidación"
// @Param        body          body  dto.ReverseSettlementRequest  true  "Monto"
// @Success      200           {object}  dto.ObligationResponse
// @Router       /api/obligations/{id}/settlements/{settlementID}/reverse [post]
func (h *ObligationHandler) ReverseSettlement(c *fiber.Ctx) error {
	var in dto.ReverseSettlementRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	o, err := h.uc.ReverseSettlement(c.UserContext(), finance.ReverseSettlementInput{
		Tenant:         GetTenant(c),
		Actor:          GetUserID(c),
		ObligationID:   c.Params("id"),
		SettlementID:   c.Params("settlementID"),
		Amount:         in.Amount,
		RegisterNumber: in.RegisterNumber,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToObligationResponse(o))
}

// Cancel godoc
// @Summary      Cancelar una obligación
// @Tags         obligations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la obligación"
// @Success      200  {object}  dto.ObligationResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/obligations/{id}/cancel [post]
func (h *ObligationHandler) Cancel(c *fiber.Ctx) error {
	o, err := h.uc.CancelObligation(c.UserContext(), GetTenant(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToObligationResponse(o))
}

func toInstallments(in []dto.InstallmentRequest) ([]finance.InstallmentInput, error) {
	out := make([]finance.InstallmentInput, 0, len(in))
	for _, it := range in {
		due, err := time.Parse(dto.DateLayout, it.DueDate)
		if err != nil {
			return nil, domain.ErrInvalidInstallment.WithMessage("fecha de vencimiento inválida: %s", it.DueDate)
		}
		out = append(out, finance.InstallmentInput{Amount: it.Amount, DueDate: due})
	}
	return out, nil
}
