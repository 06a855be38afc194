package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/DevPardx/raiz-backend-sub000/internal/cache"
	"github.com/DevPardx/raiz-backend-sub000/internal/config"
	"github.com/DevPardx/raiz-backend-sub000/internal/db"
	"github.com/DevPardx/raiz-backend-sub000/internal/i18n"
	"github.com/DevPardx/raiz-backend-sub000/internal/logger"
	"github.com/DevPardx/raiz-backend-sub000/internal/middleware"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/auth"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/cloudinary"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/conversation"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/message"
	"github.com/DevPardx/raiz-backend-sub000/internal/store"
	"github.com/DevPardx/raiz-backend-sub000/internal/store/memory"
	"github.com/DevPardx/raiz-backend-sub000/internal/store/postgres"
	"github.com/DevPardx/raiz-backend-sub000/internal/utils"
	"github.com/DevPardx/raiz-backend-sub000/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

// stores – набор хранилищ, выбранный переменной STORAGE
type stores struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	properties    store.PropertyLookup
	users         store.UserDirectory
	accounts      store.UserAccounts
	close         func()
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatalf("❌ Ошибка при инициализации хранилища: %v", err)
	}
	defer st.close()

	properties := withPropertyCache(ctx, cfg, st.properties, log)

	// Создаём сервисы
	translator := i18n.New(cfg.DefaultLanguage)
	validate := validator.New()
	jwtService := utils.NewJWTService(cfg.JWTSecret)

	cloudinaryService, err := cloudinary.NewCloudinaryService(cfg.CloudinaryConfig, log)
	if err != nil {
		log.Fatalf("❌ Ошибка при инициализации Cloudinary: %v", err)
	}
	var images message.ImageUploader
	if cfg.CloudinaryConfig.Enabled() {
		images = cloudinaryService
	} else {
		log.Warn("Cloudinary не настроен, изображения сохраняются по исходной ссылке")
	}

	wsManager := websocket.NewManager(log)
	conversationService := conversation.NewConversationService(st.conversations, st.messages, properties, st.users, wsManager, log)
	messageService := message.NewMessageService(conversationService, st.messages, st.users, images, wsManager, log).
		UseImageFolder(cfg.CloudinaryConfig.ChatFolder)
	authService := auth.NewAuthService(cfg.TelegramBotToken, st.accounts, st.users, jwtService, log)
	gateway := websocket.NewGateway(wsManager, conversationService, messageService, translator, log)

	go message.NewReconciler(conversationService, cfg.ReconcileEvery, log).Run(ctx)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Raiz Messaging API",
		ErrorHandler: middleware.ErrorHandler(translator, log),
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Регистрируем маршруты
	authMiddleware := middleware.AuthMiddleware(jwtService)
	api := app.Group("/api")
	authService.SetupRoutes(api)
	cloudinaryService.SetupRoutes(api, authMiddleware)

	conversations := api.Group("/conversations", authMiddleware)
	conversation.NewHandler(conversationService, translator, validate).SetupRoutes(conversations)
	message.NewHandler(messageService, validate).SetupRoutes(conversations)

	wsServer := &http.Server{
		Addr:              ":" + cfg.WSPort,
		Handler:           websocket.NewRouter(gateway, jwtService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("✅ WebSocket сервер запущен на порту %s", cfg.WSPort)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Ошибка WebSocket сервера: %v", err)
		}
	}()

	go func() {
		log.Infof("✅ API запущен на порту %s", cfg.HTTPPort)
		if err := app.Listen(":"+cfg.HTTPPort, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Fatalf("❌ Ошибка HTTP сервера: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	wsManager.Shutdown()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("WebSocket сервер остановлен с ошибкой")
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP сервер остановлен с ошибкой")
	}

	log.Info("Сервер остановлен")
}

// openStores подключает PostgreSQL или создаёт хранилище в памяти
func openStores(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*stores, error) {
	if cfg.Storage == "memory" {
		log.Warn("Используется хранилище в памяти, данные не сохраняются между запусками")
		st := memory.New()
		return &stores{
			conversations: st,
			messages:      st,
			properties:    st,
			users:         st,
			accounts:      st,
			close:         func() {},
		}, nil
	}

	// Инициализируем базу данных
	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	schemaCtx, cancel := db.GetContext(ctx)
	defer cancel()
	if err := db.InitializeSchema(schemaCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	directory := postgres.NewDirectoryStore(pool)
	return &stores{
		conversations: postgres.NewConversationStore(pool, log),
		messages:      postgres.NewMessageStore(pool),
		properties:    directory,
		users:         directory,
		accounts:      directory,
		close:         pool.Close,
	}, nil
}

// withPropertyCache оборачивает источник объектов кэшем Redis, если он настроен и доступен
func withPropertyCache(ctx context.Context, cfg *config.Config, next store.PropertyLookup, log *logrus.Logger) store.PropertyLookup {
	if cfg.RedisURL == "" {
		return next
	}

	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Redis недоступен, кэш объектов отключён")
		return next
	}

	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	log.Info("✅ Кэш объектов в Redis включён")
	return cache.NewPropertyCache(client, next, cfg.PropertyCacheTTL, log)
}
