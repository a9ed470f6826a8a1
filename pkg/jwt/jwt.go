package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity identidad del llamador ya autenticada: actor y tenant (tienda + empresa).
type Identity struct {
	UserID    string
	StoreID   string
	CompanyID string
	Role      string
}

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	StoreID   string `json:"store_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

// Generate genera un token JWT firmado con la identidad indicada.
func Generate(secret string, id Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:    id.UserID,
		StoreID:   id.StoreID,
		CompanyID: id.CompanyID,
		Role:      id.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve la identidad.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	return Identity{
		UserID:    claims.UserID,
		StoreID:   claims.StoreID,
		CompanyID: claims.CompanyID,
		Role:      claims.Role,
	}, nil
}
