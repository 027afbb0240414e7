package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	userpostgres "github.com/Apurer/aims-commerce/internal/domains/users/adapters/persistence/postgres"
	usersapp "github.com/Apurer/aims-commerce/internal/domains/users/application"
	platformpostgres "github.com/Apurer/aims-commerce/internal/platform/postgres"
)

func main() {
	_ = godotenv.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectOptional(ctx, logger, os.Getenv("POSTGRES_DSN"))
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge sessions")
	}

	users := usersapp.NewService(userpostgres.NewRepository(db), userpostgres.NewRoleRepository(db), userpostgres.NewSessionStore(db))
	purged, err := users.PurgeExpiredSessions(ctx)
	if err != nil {
		log.Fatalf("failed to purge sessions: %v", err)
	}
	logger.Info("session purge completed", slog.Int64("purged", purged))
}
