package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retaguarda-api/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores nombran el campo como aparece en el JSON (o el query param).
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// requestError cuerpo o query inválido; sale como 400 con el detalle por campo.
type requestError struct {
	code    string
	message string
	details []dto.ValidationDetail
}

func (e *requestError) Error() string { return e.code + ": " + e.message }

func (e *requestError) response() dto.ErrorResponse {
	return dto.ErrorResponse{Code: e.code, Message: e.message, Details: e.details}
}

// parseBody decodifica el JSON del cuerpo y valida los tags `validate`.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &requestError{code: "INVALID_BODY", message: "cuerpo inválido"}
	}
	return check(out)
}

// parseQuery decodifica y valida los query params.
func parseQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return &requestError{code: "INVALID_QUERY", message: "parámetros inválidos"}
	}
	return check(out)
}

func check(out any) error {
	err := validate.Struct(out)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &requestError{code: "VALIDATION", message: err.Error()}
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ValidationDetail{Field: fieldPath(fe), Message: describe(fe)})
	}
	return &requestError{code: "VALIDATION", message: "datos inválidos", details: details}
}

// fieldPath ruta del campo sin el nombre del struct raíz (items[0].product_code).
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "min":
		return "mínimo " + fe.Param()
	case "max":
		return "máximo " + fe.Param()
	case "datetime":
		return "formato de fecha esperado " + fe.Param()
	default:
		return fmt.Sprintf("no cumple %s", fe.Tag())
	}
}
