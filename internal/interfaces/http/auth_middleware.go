package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retaguarda-api/internal/application/dto"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/pkg/jwt"
)

// Locals keys para la identidad del llamador en Fiber.
const (
	LocalUserID    = "user_id"
	LocalStoreID   = "store_id"
	LocalCompanyID = "company_id"
	LocalRole      = "role"
)

// RoleAdmin rol con permiso para operaciones de catálogo (desactivar productos).
const RoleAdmin = "admin"

// AuthMiddleware valida el Bearer Token JWT y carga usuario, tienda, empresa y rol en c.Locals.
// Un token sin tienda o empresa no delimita ningún tenant y se rechaza.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		id, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if id.UserID == "" || id.StoreID == "" || id.CompanyID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TENANT", Message: "el token no trae usuario, tienda o empresa"})
		}
		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalStoreID, id.StoreID)
		c.Locals(LocalCompanyID, id.CompanyID)
		c.Locals(LocalRole, id.Role)
		return c.Next()
	}
}

// RequireRole permite el paso solo si el rol del token está entre los indicados.
// Debe ir después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no trae rol"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetStoreID devuelve la tienda del token.
func GetStoreID(c *fiber.Ctx) string { return localString(c, LocalStoreID) }

// GetCompanyID devuelve la empresa del token.
func GetCompanyID(c *fiber.Ctx) string { return localString(c, LocalCompanyID) }

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetTenant tenant (tienda, empresa) del llamador.
func GetTenant(c *fiber.Ctx) entity.Tenant {
	return entity.Tenant{StoreID: GetStoreID(c), CompanyID: GetCompanyID(c)}
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
