package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retaguarda-api/internal/application/cashier"
	"github.com/jhoicas/retaguarda-api/internal/application/dto"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// CashHandler sesiones de caja y asientos manuales (protegido).
type CashHandler struct {
	sessions  *cashier.SessionUseCase
	movements *cashier.MovementUseCase
	reports   *cashier.ReportUseCase
	log       *logger.Logger
}

// NewCashHandler construye el handler.
func NewCashHandler(sessions *cashier.SessionUseCase, movements *cashier.MovementUseCase, reports *cashier.ReportUseCase, log *logger.Logger) *CashHandler {
	return &CashHandler{sessions: sessions, movements: movements, reports: reports, log: log}
}

// Open godoc
// @Summary      Abrir caja
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenSessionRequest  true  "Registro y saldo inicial"
// @Success      201   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cash-sessions [post]
func (h *CashHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenSessionRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	s, err := h.sessions.OpenSession(c.UserContext(), cashier.OpenSessionInput{
		Tenant:         GetTenant(c),
		RegisterNumber: in.RegisterNumber,
		Actor:          GetUserID(c),
		InitialBalance: in.InitialBalance,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToSessionResponse(s))
}

// Close godoc
// @Summary      Cerrar la caja abierta del registro
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        register  path  int  true  "Número de registro"
// @Success      200  {object}  dto.SessionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/cash-sessions/{register}/close [post]
func (h *CashHandler) Close(c *fiber.Ctx) error {
	register, err := strconv.Atoi(c.Params("register"))
	if err != nil || register <= 0 {
		return writeError(c, h.log, domain.ErrInvalidInput.WithMessage("número de registro inválido"))
	}
	s, err := h.sessions.CloseSession(c.UserContext(), GetTenant(c), register, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToSessionResponse(s))
}

// Get godoc
// @Summary      Obtener sesión de caja
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Router       /api/cash-sessions/{id} [get]
func (h *CashHandler) Get(c *fiber.Ctx) error {
	s, err := h.sessions.GetSession(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToSessionResponse(s))
}

// Summary godoc
// @Summary      Totales de la sesión por instrumento
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionSummaryResponse
// @Router       /api/cash-sessions/{id}/summary [get]
func (h *CashHandler) Summary(c *fiber.Ctx) error {
	sum, err := h.sessions.Summary(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToSummaryResponse(sum))
}

// Report godoc
// @Summary      Reporte de cierre de caja en PDF
// @Tags         cash
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cash-sessions/{id}/report.pdf [get]
func (h *CashHandler) Report(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.reports.ClosingReport(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// ListMovements godoc
// @Summary      Asientos de la sesión
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/cash-sessions/{id}/movements [get]
func (h *CashHandler) ListMovements(c *fiber.Ctx) error {
	list, err := h.movements.ListMovements(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToMovementResponses(list))
}

// PostMovement godoc
// @Summary      Asiento manual de caja
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostMovementRequest  true  "Asiento"
// @Success      201   {object}  dto.MovementResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *CashHandler) PostMovement(c *fiber.Ctx) error {
	var in dto.PostMovementRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	m, err := h.movements.PostMovement(c.UserContext(), cashier.PostMovementInput{
		Tenant:             GetTenant(c),
		Actor:              GetUserID(c),
		RegisterNumber:     in.RegisterNumber,
		Direction:          entity.Direction(in.Direction),
		Amount:             in.Amount,
		Instrument:         entity.Instrument(in.Instrument),
		AccountingCategory: in.AccountingCategory,
		Description:        in.Description,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(m))
}

// ReverseMovement godoc
// @Summary      Revertir un asiento manual en la caja vigente
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "ID del asiento"
// @Param        body  body  dto.ReverseMovementRequest  false  "Registro de la caja vigente"
// @Success      201   {object}  dto.MovementResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/movements/{id}/reverse [post]
func (h *CashHandler) ReverseMovement(c *fiber.Ctx) error {
	var in dto.ReverseMovementRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &in); err != nil {
			return writeError(c, h.log, err)
		}
	}
	m, err := h.movements.ReverseMovement(c.UserContext(), GetTenant(c), GetUserID(c), c.Params("id"), in.RegisterNumber)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(m))
}
