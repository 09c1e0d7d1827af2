package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arcline/studio-backend/internal/config"
	"github.com/arcline/studio-backend/internal/db"
	"github.com/arcline/studio-backend/internal/document"
	httpHandlers "github.com/arcline/studio-backend/internal/http/handlers"
	httpRouter "github.com/arcline/studio-backend/internal/http/router"
	"github.com/arcline/studio-backend/internal/logger"
	"github.com/arcline/studio-backend/internal/mailer"
	"github.com/arcline/studio-backend/internal/repository"
	"github.com/arcline/studio-backend/internal/service"
	"github.com/arcline/studio-backend/internal/storage"
	"github.com/arcline/studio-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	documentStorage, err := storage.NewDocumentStorage(cfg.DocumentStoragePath)
	if err != nil {
		log.Fatalf("main: не удалось подготовить хранилище документов: %v", err)
	}

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	generator := document.NewGenerator()
	cache := service.NewCacheService()

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	changeOrderRepo := repository.NewChangeOrderRepository(dbConn)
	directoryRepo := repository.NewDirectoryRepository(dbConn)
	companyRepo := repository.NewCompanyRepository(dbConn)

	// Движок изменений к договору.
	changeOrderService := service.NewChangeOrderService(
		changeOrderRepo,
		directoryRepo,
		companyRepo,
		userRepo,
		smtpMailer,
		documentStorage,
		generator,
		cache,
	)

	// Вебсокеты: события жизненного цикла уходят подписчикам проекта.
	hub := ws.NewHub(ctx)
	go hub.Run()
	changeOrderService.SetEventPublisher(hub)

	// HTTP хэндлеры.
	changeOrderHandler := httpHandlers.NewChangeOrderHandler(changeOrderService, userRepo)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, changeOrderHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
