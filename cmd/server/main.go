package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	webAdapter "treasury-bot/internal/adapters/web"
	"treasury-bot/internal/ai"
	"treasury-bot/internal/app"
	"treasury-bot/internal/core"
	"treasury-bot/internal/db"
	"treasury-bot/internal/whatsapp"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set")
	}
	interpreter := ai.NewInterpreter(apiKey)
	if fallbackURL := os.Getenv("AI_FALLBACK_BASE_URL"); fallbackURL != "" {
		interpreter = interpreter.WithFallback(
			fallbackURL,
			os.Getenv("AI_FALLBACK_API_KEY"),
			os.Getenv("AI_FALLBACK_MODEL"),
		)
	}

	sender := whatsapp.NewClient(
		mustEnv("EVOLUTION_API_URL"),
		envOr("EVOLUTION_INSTANCE", "instancia_principal"),
		mustEnv("EVOLUTION_API_KEY"),
	)

	directory := core.NewDirectory(pool)
	menus := core.NewMenuBuilder(pool)
	executor := core.NewExecutor(pool)

	svc := app.NewChatService(pool, directory, menus, interpreter, executor, sender)

	handler := webAdapter.NewHandler(svc, webAdapter.Config{
		JWTSecret:       mustEnv("JWT_SECRET"),
		AdminPassword:   mustEnv("ADMIN_PASSWORD"),
		CronSecret:      mustEnv("CRON_SECRET"),
		SenderPerMinute: envInt("SENDER_RATE_PER_MINUTE", 10),
	})

	port := envOr("SERVER_PORT", "8080")
	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s environment variable not set", key)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}
