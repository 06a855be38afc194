package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/DevPardx/raiz-backend-sub000/internal/config"
)

// ErrNotConfigured возвращается, если ключи Cloudinary не заданы
var ErrNotConfigured = errors.New("cloudinary is not configured")

// CloudinaryService предоставляет методы для работы с Cloudinary
type CloudinaryService struct {
	cfg          config.CloudinaryConfig
	cld          *cloudinary.Cloudinary
	uploadFolder string
	log          logrus.FieldLogger
}

// NewCloudinaryService создает новый экземпляр CloudinaryService.
// Без ключей сервис создаётся, но загрузка возвращает ErrNotConfigured.
func NewCloudinaryService(cfg config.CloudinaryConfig, log logrus.FieldLogger) (*CloudinaryService, error) {
	s := &CloudinaryService{
		cfg:          cfg,
		uploadFolder: cfg.ChatFolder,
		log:          log,
	}
	if !cfg.Enabled() {
		return s, nil
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	s.cld = cld
	return s, nil
}

// UploadImage загружает изображение (URL или data URI) в папку folder и возвращает его HTTPS ссылку
func (s *CloudinaryService) UploadImage(ctx context.Context, data, folder string) (string, error) {
	if s.cld == nil {
		return "", ErrNotConfigured
	}
	if folder == "" {
		folder = s.uploadFolder
	}

	resp, err := s.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки изображения: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary: пустая ссылка на изображение")
	}

	s.log.WithFields(logrus.Fields{
		"public_id": resp.PublicID,
		"folder":    folder,
	}).Debug("Изображение загружено в Cloudinary")
	return resp.SecureURL, nil
}

// GenerateSignature создаёт подпись параметров загрузки для Cloudinary
func (s *CloudinaryService) GenerateSignature(params url.Values) (string, error) {
	return api.SignParameters(params, s.cfg.APISecret)
}

// GenerateUploadParams отдаёт клиенту параметры для прямой подписанной загрузки вложений чата
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	if !s.cfg.Enabled() {
		return fiber.NewError(fiber.StatusServiceUnavailable, ErrNotConfigured.Error())
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Параметры для подписи
	params := url.Values{}
	params.Set("timestamp", timestamp)
	params.Set("folder", s.uploadFolder)
	// Пресет участвует в подписи, клиент обязан передать его без изменений
	if s.cfg.UploadPreset != "" {
		params.Set("upload_preset", s.cfg.UploadPreset)
	}

	signature, err := s.GenerateSignature(params)
	if err != nil {
		return fmt.Errorf("ошибка подписи параметров загрузки: %w", err)
	}

	response := fiber.Map{
		"timestamp":  timestamp,
		"signature":  signature,
		"folder":     s.uploadFolder,
		"api_key":    s.cfg.APIKey,
		"cloud_name": s.cfg.CloudName,
	}
	if s.cfg.UploadPreset != "" {
		response["upload_preset"] = s.cfg.UploadPreset
	}
	return c.JSON(response)
}
