package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"defi-copilot/cmd"
	"defi-copilot/internal/api"
	"defi-copilot/internal/chat"
	"defi-copilot/internal/database"
	"defi-copilot/internal/llm"
)

type APIConfig struct {
	DatabaseURL      string `env:"DATABASE_URL" envDefault:"data/copilot.db"`
	APIPort          string `env:"API_PORT" envDefault:"3001"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiModel      string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	DeepSeekModel    string `env:"DEEPSEEK_MODEL" envDefault:"deepseek/deepseek-r1-zero:free"`
	DefaultModel     string `env:"DEFAULT_MODEL" envDefault:"gemini"`
	AllowedOrigins   string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

func main() {
	log.Println("Starting DeFi Copilot API server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	// A missing database is not fatal: the conversation service degrades to
	// the in-memory fallback store until the next restart.
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		slog.Warn("could not open primary store, serving from fallback store", "database_url", cfg.DatabaseURL, "error", err)
		db = nil
	}

	providers := llm.NewRegistry(cfg.DefaultModel,
		llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel),
		llm.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.DeepSeekModel),
	)

	service := chat.NewConversationService(chat.NewGormStore(db), chat.NewMemoryStore(), providers)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	chatHandler := api.NewChatService(service, providers, db)
	r.Route("/api", func(r chi.Router) {
		chatHandler.AddRoutes(r)
	})

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
