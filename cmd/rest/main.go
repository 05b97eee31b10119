package main

import (
	"context"
	"log"

	"ai-tutor-be/internal/bootstrap"
	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/server"
	"ai-tutor-be/internal/tracer"
	"ai-tutor-be/pkg/database"

	"github.com/robfig/cron/v3"
)

func main() {
	// 0. Initialize tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load configuration
	cfg := config.Load()

	// 2. Initialize database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap dependencies (container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start background services
	go func() {
		log.Println("Background: starting document indexer...")
		if err := container.IndexerService.Consume(context.Background()); err != nil {
			log.Printf("Background indexer error: %v", err)
		}
	}()

	// Retention sweep: purge sessions idle past the cutoff and token rows
	// whose expiry has passed
	c := cron.New()
	if _, err := c.AddFunc(cfg.Cleanup.Schedule, func() {
		purged, err := container.SessionService.CleanupOldSessions(context.Background(), cfg.Cleanup.MaxAgeDays)
		if err != nil {
			log.Printf("Cleanup sweep failed: %v", err)
			return
		}
		if purged > 0 {
			log.Printf("Cleanup sweep purged %d sessions", purged)
		}
		if _, err := container.AuthService.PurgeExpiredTokens(context.Background()); err != nil {
			log.Printf("Token purge failed: %v", err)
		}
	}); err != nil {
		log.Printf("Invalid cleanup schedule %q: %v", cfg.Cleanup.Schedule, err)
	} else {
		c.Start()
		defer c.Stop()
	}

	// 5. Initialize and run server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
