package main

import (
	"context"
	"log"
	"time"

	"katiba-reader-be/internal/bootstrap"
	"katiba-reader-be/internal/config"
	"katiba-reader-be/internal/server"
	"katiba-reader-be/internal/tracer"
	"katiba-reader-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Warm the document tree before accepting traffic
	if _, err := container.ContentStore.Get(context.Background()); err != nil {
		log.Panicf("Unable to load constitution data: %v", err)
	}

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting View Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// Optional staleness poll: Get reloads only when the file changed.
	if interval := cfg.Constitution.ReloadInterval; interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				if _, err := container.ContentStore.Get(context.Background()); err != nil {
					log.Printf("Background Reload Error: %v", err)
				}
			}
		}()
	}

	// 6. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
