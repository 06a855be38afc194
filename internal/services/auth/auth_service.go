package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/middleware"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/store"
	"github.com/DevPardx/raiz-backend-sub000/internal/utils"
)

// Срок действия initData Telegram
const initDataExpiration = 24 * time.Hour

// LoginResult – ответ на успешный вход
type LoginResult struct {
	Token string              `json:"token"`
	User  *models.UserSummary `json:"user"`
}

// AuthService – структура для обработки авторизации
type AuthService struct {
	botToken   string
	accounts   store.UserAccounts
	users      store.UserDirectory
	jwtService *utils.JWTService
	log        logrus.FieldLogger
}

// NewAuthService – конструктор AuthService
func NewAuthService(botToken string, accounts store.UserAccounts, users store.UserDirectory, jwtService *utils.JWTService, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		botToken:   botToken,
		accounts:   accounts,
		users:      users,
		jwtService: jwtService,
		log:        log,
	}
}

// LoginWithTelegram проверяет initData, создаёт пользователя при первом входе и выдаёт JWT
func (s *AuthService) LoginWithTelegram(ctx context.Context, rawInitData string) (*LoginResult, error) {
	if s.botToken == "" {
		return nil, apperr.Unauthorized(apperr.KeyInvalidTelegramData)
	}

	// Проверяем initData
	if err := initdata.Validate(rawInitData, s.botToken, initDataExpiration); err != nil {
		s.log.WithError(err).Debug("Некорректные данные Telegram")
		return nil, apperr.Unauthorized(apperr.KeyInvalidTelegramData)
	}

	// Парсим данные
	data, err := initdata.Parse(rawInitData)
	if err != nil || data.User.ID == 0 {
		return nil, apperr.BadRequest(apperr.KeyInvalidTelegramData)
	}

	userID, err := s.accounts.UpsertTelegramUser(ctx, models.TelegramUser{
		TelegramID:   data.User.ID,
		Username:     data.User.Username,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		PhotoURL:     data.User.PhotoURL,
		IsPremium:    data.User.IsPremium,
		LanguageCode: data.User.LanguageCode,
	})
	if err != nil {
		return nil, apperr.Wrap(err, "upsert telegram user")
	}

	// Генерируем JWT
	token, err := s.jwtService.GenerateToken(userID, utils.RoleUser)
	if err != nil {
		return nil, apperr.Wrap(err, "generate token")
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "telegram_id": data.User.ID}).Info("Вход через Telegram")

	return &LoginResult{
		Token: token,
		User: &models.UserSummary{
			ID:        userID,
			Username:  data.User.Username,
			FirstName: data.User.FirstName,
			LastName:  data.User.LastName,
			AvatarURL: data.User.PhotoURL,
		},
	}, nil
}

// TelegramAuthHandler проверяет initData, создает JWT и возвращает его
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil || payload.InitData == "" {
		return apperr.BadRequest(apperr.KeyInvalidRequest)
	}

	result, err := s.LoginWithTelegram(c.Context(), payload.InitData)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// MeHandler возвращает профиль текущего пользователя
func (s *AuthService) MeHandler(c fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	user, err := s.users.GetUserSummary(c.Context(), identity.UserID)
	if err != nil {
		return apperr.Wrap(err, "get user summary")
	}
	if user == nil {
		user = &models.UserSummary{ID: identity.UserID}
	}
	return c.JSON(user)
}
