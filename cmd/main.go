package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/arena-tournaments/brackets"
	"github.com/Dosada05/arena-tournaments/config"
	"github.com/Dosada05/arena-tournaments/db"
	"github.com/Dosada05/arena-tournaments/handlers"
	"github.com/Dosada05/arena-tournaments/repositories"
	api "github.com/Dosada05/arena-tournaments/routes"
	"github.com/Dosada05/arena-tournaments/services"
	"github.com/Dosada05/arena-tournaments/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Контекст фоновых задач: хаб, монитор таймаутов, планировщик
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(bgCtx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)
	templateRepo := repositories.NewPostgresTemplateRepository(dbConn)

	// Архив результатов (опционален: без настроенного R2 просто выключен)
	var archive storage.ArchiveUploader
	if cfg.R2AccountID != "" {
		archive, err = storage.NewCloudflareR2Archive(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize result archive", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("result archive initialized")
	} else {
		logger.Info("result archive disabled, R2 is not configured")
	}

	// Рейтинги: загрузка при старте, сохранение при остановке
	ratingService := services.NewRatingService(ratingRepo, nil, cfg.EloKFactor, cfg.DefaultRating, logger)
	if err := ratingService.Load(bgCtx); err != nil {
		logger.Error("failed to load ratings", slog.Any("error", err))
		os.Exit(1)
	}

	// Реестр турниров и шлюз готовности. Внешние коллабораторы (допуск,
	// перемещение, движок боёв, экономика) подключаются здесь; без
	// реализации остаются no-op заглушки.
	deps := &services.Deps{
		Ratings: ratingService,
		Events:  wsHub,
		Logger:  logger,
	}
	if archive != nil {
		deps.Archive = archive
	}
	registry := services.NewRegistry(deps)
	readyService := services.NewReadyService(registry)
	deps.Ready = readyService
	logger.Info("tournament registry initialized")

	// Монитор таймаутов
	monitor := services.NewTimeoutMonitor(registry, cfg.MatchTimeout, cfg.MonitorInterval)
	go monitor.Run(bgCtx)

	// Планировщик: отложенные старты и регулярные турниры
	scheduler := services.NewScheduler(registry, templateRepo)
	if err := scheduler.Load(bgCtx); err != nil {
		logger.Error("failed to load tournament templates", slog.Any("error", err))
		os.Exit(1)
	}
	go scheduler.Run(bgCtx, cfg.SchedulerInterval)

	battleAdapter := services.NewBattleOutcomeAdapter(registry)

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(cfg.AdminPasswordHash, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(registry, readyService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	templateHandler := handlers.NewTemplateHandler(scheduler)
	battleHandler := handlers.NewBattleHandler(battleAdapter)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, registry, logger)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		ratingHandler,
		templateHandler,
		battleHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		cancelBackground()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		}

		// Финальный снимок рейтингов
		saveCtx, cancelSave := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelSave()
		if err := ratingService.SaveAll(saveCtx); err != nil {
			logger.Error("failed to save ratings on shutdown", slog.Any("error", err))
		} else {
			logger.Info("ratings saved")
		}
	}
	logger.Info("application exited")
}
