package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/utils"
)

const identityKey = "identity"

// AuthMiddleware создаёт middleware для проверки JWT
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperr.Unauthorized(apperr.KeyUnauthorized)
		}

		tokenString, ok := BearerToken(authHeader)
		if !ok {
			return apperr.Unauthorized(apperr.KeyInvalidToken)
		}

		identity, err := jwtService.ExtractIdentity(tokenString)
		if err != nil {
			return apperr.Unauthorized(apperr.KeyInvalidToken)
		}

		// Добавляем пользователя в контекст
		c.Locals(identityKey, identity)
		c.Locals("userID", identity.UserID.String())

		return c.Next()
	}
}

// BearerToken извлекает токен из заголовка "Bearer <token>"
func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// CurrentUser возвращает пользователя, установленного AuthMiddleware
func CurrentUser(c fiber.Ctx) (models.Identity, error) {
	identity, ok := c.Locals(identityKey).(models.Identity)
	if !ok {
		return models.Identity{}, apperr.Unauthorized(apperr.KeyUnauthorized)
	}
	return identity, nil
}
