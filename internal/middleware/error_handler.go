package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/i18n"
)

// StatusOf сопоставляет категорию ошибки с HTTP статусом
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindBadRequest:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler обрабатывает ошибки Fiber и ошибки сервиса, отдавая локализованный JSON
func ErrorHandler(tr *i18n.Translator, log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		lang := c.Get(fiber.HeaderAcceptLanguage)

		// Ошибки самого Fiber (404 маршрута, 405 и т.п.)
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			})
		}

		appErr, ok := apperr.As(err)
		if !ok || appErr.Kind == apperr.KindInternal {
			log.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).WithError(err).Error("Ошибка обработки запроса")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": tr.T(lang, apperr.KeyInternal),
				"code":  apperr.KeyInternal,
			})
		}

		return c.Status(StatusOf(appErr.Kind)).JSON(fiber.Map{
			"error": tr.T(lang, appErr.Key),
			"code":  appErr.Key,
		})
	}
}
