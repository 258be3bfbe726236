// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_4_scan_read/internal/config"
	"go_4_scan_read/internal/handlers"
	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/repository"
	"go_4_scan_read/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"gorm.io/gorm"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// ローカル(デバイス)ストアは常に必要
	localDB, err := repository.NewLocalDB(config.Cfg.Database.LocalPath, logger)
	if err != nil {
		slog.Error("Error initializing local store", slog.Any("error", err))
		os.Exit(1)
	}
	localStore := repository.NewLocalStore(localDB)

	// リモートストアはURLが設定されている場合のみ。なければローカルのみで動く
	var remoteDB *gorm.DB
	if config.Cfg.Database.URL != "" {
		remoteDB, err = repository.NewRemoteDB(config.Cfg.Database.URL, logger)
		if err != nil {
			// リモートに繋がらなくても起動は続ける(可用性優先)
			slog.Error("Error initializing remote store, continuing with local store only", slog.Any("error", err))
			remoteDB = nil
		}
	} else {
		slog.Warn("Remote store URL not configured, running with local store only")
	}
	defer func() {
		if remoteDB == nil {
			return
		}
		if sqlDB, err := remoteDB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("Error closing remote store connection", slog.Any("error", err))
			}
		}
	}()

	// Dependency Injection
	store := repository.NewGateway(localStore, remoteDB)
	learnerRepo := repository.NewGormLearnerRepository()

	mailer := service.NewMailer(&config.Cfg)
	analyzer := service.NewAnalyzer(&config.Cfg)
	synthesizer := service.NewSynthesizer(&config.Cfg)

	authService := service.NewAuthService(remoteDB, learnerRepo, localStore, mailer, &config.Cfg)
	vocabService := service.NewVocabService(store)
	bookService := service.NewBookService(store)
	ingestionService := service.NewIngestionService(store, localStore, analyzer, &config.Cfg)
	readingService := service.NewReadingService(store, synthesizer, logger)
	trainingService := service.NewTrainingService(store)
	settingsService := service.NewSettingsService(localStore)

	authHandler := handlers.NewAuthHandler(authService, logger)
	vocabHandler := handlers.NewVocabHandler(vocabService, logger)
	bookHandler := handlers.NewBookHandler(bookService, logger)
	scanHandler := handlers.NewScanHandler(ingestionService, logger)
	readingHandler := handlers.NewReadingHandler(readingService, logger)
	trainingHandler := handlers.NewTrainingHandler(trainingService, logger)
	settingsHandler := handlers.NewSettingsHandler(settingsService, logger)

	// Setup Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(90 * time.Second)) // ページ解析は時間がかかる

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// 認証はオプトイン: トークンがあればリモートストア、なければローカルストア
		r.Use(middleware.OptionalAuthMiddleware(&config.Cfg))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.GetSession)
		})

		r.Route("/vocabulary", func(r chi.Router) {
			r.Get("/", vocabHandler.ListVocabulary)
			r.Post("/import", vocabHandler.Import)
			r.Post("/delete", vocabHandler.DeleteWords)
			r.Put("/{word_id}/mastery", vocabHandler.UpdateMastery)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", bookHandler.ListBooks)
			r.Post("/", bookHandler.CreateBook)
			r.Delete("/{book_id}", bookHandler.DeleteBook)
			r.Get("/{book_id}/pages", bookHandler.ListPages)
			r.Get("/{book_id}/pages/{page_id}", bookHandler.GetPage)
		})

		r.Route("/scans", func(r chi.Router) {
			r.Post("/", scanHandler.Scan)
			r.Post("/commit", scanHandler.Commit)
			r.Get("/history", scanHandler.History)
		})

		r.Route("/reading/sessions", func(r chi.Router) {
			r.Post("/", readingHandler.Start)
			r.Get("/{session_id}", readingHandler.GetState)
			r.Post("/{session_id}/advance", readingHandler.Advance)
			r.Post("/{session_id}/back", readingHandler.Back)
			r.Post("/{session_id}/skip", readingHandler.Skip)
		})
		r.Post("/reading/speak", readingHandler.Speak)

		r.Route("/training/sessions", func(r chi.Router) {
			r.Post("/", trainingHandler.Start)
			r.Get("/{session_id}", trainingHandler.GetState)
			r.Post("/{session_id}/reveal", trainingHandler.Reveal)
			r.Post("/{session_id}/rate", trainingHandler.Rate)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/theme", settingsHandler.GetTheme)
			r.Put("/theme", settingsHandler.PutTheme)
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		// ローカルストアの疎通だけ確認する。リモートは落ちていても動作継続する設計
		sqlDB, err := localDB.DB()
		if err != nil {
			slog.ErrorContext(r.Context(), "Health check failed: could not get DB object", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		if err := sqlDB.PingContext(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Health check failed: could not ping local store", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second, // 画像アップロードを考慮
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
