package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retaguarda-api/internal/application/dto"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

// statusFor traduce la clase del error de dominio a un código HTTP.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict, domain.KindInsufficientStock:
		return fiber.StatusConflict
	case domain.KindStateTransition:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError responde con {code, message, entity_id}. Los errores ajenos al dominio se
// registran y salen como INTERNAL sin exponer el detalle.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var re *requestError
	if errors.As(err, &re) {
		return c.Status(fiber.StatusBadRequest).JSON(re.response())
	}
	if de, ok := domain.AsError(err); ok {
		if de.Kind == domain.KindInternal {
			log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		}
		return c.Status(statusFor(de.Kind)).JSON(dto.ErrorResponse{
			Code:     de.Code,
			Message:  de.Message,
			EntityID: de.EntityID,
		})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error de almacenamiento")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// ErrorHandler handler global de Fiber (panics recuperados, rutas inexistentes, etc.).
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, log, err)
	}
}
