package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"carrental/internal/database"
	"carrental/internal/modules/session"
	"carrental/internal/pkg/clock"
	"carrental/internal/repository"
)

// Validate already deletes expired sessions lazily; this job reclaims
// rows nobody validated again. Run it from cron.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	svc := session.NewService(repository.NewSessionRepository(db), nil, clock.System(), 0, 0)
	removed, err := svc.SweepExpired(context.Background())
	if err != nil {
		log.Fatalf("session sweep failed: %v", err)
	}

	log.Printf("session cleanup completed: removed=%d", removed)
}
