package main

import (
	"fmt"
	"log"
	"os"

	"marketplace-backend/internal/app"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/handlers"
	"marketplace-backend/internal/router"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// The startup gate: the process refuses to serve with an incomplete
	// attestation or ledger configuration.
	if err := config.AppConfig.Validate(); err != nil {
		log.Fatalf("❌ Configuration validation failed: %v", err)
	}

	if err := db.InitDB(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	container, err := app.InitializeContainer()
	if err != nil {
		log.Fatalf("❌ Failed to initialize services: %v", err)
	}
	defer container.Cleanup()

	h := &router.Handlers{
		Risk: handlers.NewRiskHandler(container.RiskScorer),
		Listing: handlers.NewListingHandler(
			container.AttestationService,
			container.ListingService,
			container.RiskScorer,
			container.Signer,
			container.ListingRepo,
			container.Publisher,
			container.AttestationTimeout(),
		),
		AdminAuth: handlers.NewAdminAuthHandler(),
	}

	r := router.SetupRouter(h)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Server.Host, config.AppConfig.Server.Port)
	log.Printf("🚀 Marketplace gateway listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("❌ Server exited: %v", err)
	}
}
