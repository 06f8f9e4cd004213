package app

import (
	"fmt"
	"log"
	"sync"
	"time"

	"marketplace-backend/internal/clients"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/events"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/services"

	"github.com/ethereum/go-ethereum/ethclient"
	"gorm.io/gorm"
)

// ServiceContainer wires the gateway's components in dependency order.
type ServiceContainer struct {
	// Database
	DB *gorm.DB

	// Repositories
	ListingRepo repository.ListingRepository

	// Clients
	KrnlClient *clients.KrnlClient
	EthClient  *ethclient.Client
	NATSClient *clients.NATSClient

	// Core Services
	RiskScorer         *services.RiskScorer
	AttestationService *services.AttestationService
	ListingService     *services.ListingService
	Signer             services.Signer

	// Events
	Publisher *events.Publisher
}

// Global service container instance
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container once. Config must already have
// passed validation.
func InitializeContainer() (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		log.Println("🚀 Initializing Service Container...")

		container := &ServiceContainer{
			DB: db.DB,
		}

		if err := container.initRepositories(); err != nil {
			initErr = fmt.Errorf("failed to initialize repositories: %w", err)
			return
		}

		if err := container.initCoreServices(); err != nil {
			initErr = fmt.Errorf("failed to initialize core services: %w", err)
			return
		}

		// Event publication is optional; a missing broker never blocks startup.
		if err := container.initEventServices(); err != nil {
			log.Printf("⚠️ Event services initialization skipped or failed: %v", err)
		}

		Container = container
		log.Println("✅ Service Container initialized successfully")
	})

	return Container, initErr
}

func (c *ServiceContainer) initRepositories() error {
	if c.DB == nil {
		log.Println("📦 No database configured, listing records disabled")
		return nil
	}

	log.Println("📦 Initializing Repositories...")
	c.ListingRepo = repository.NewListingRepository(c.DB)
	return nil
}

func (c *ServiceContainer) initCoreServices() error {
	log.Println("⚙️ Initializing Core Services...")

	cfg := config.AppConfig

	c.RiskScorer = services.NewRiskScorer()

	c.KrnlClient = clients.NewKrnlClient(cfg.KRNL)
	c.AttestationService = services.NewAttestationService(c.KrnlClient, cfg.KRNL)

	ethClient, err := dialFirstHealthy(cfg.Blockchain.RPCEndpoints)
	if err != nil {
		return err
	}
	c.EthClient = ethClient

	signer, err := services.NewPrivateKeySigner(cfg.Blockchain.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}
	c.Signer = signer
	log.Printf("🔑 Signer address: %s", signer.Address().Hex())

	listingService, err := services.NewListingService(ethClient, cfg.Blockchain)
	if err != nil {
		return fmt.Errorf("failed to create listing service: %w", err)
	}
	c.ListingService = listingService

	return nil
}

func (c *ServiceContainer) initEventServices() error {
	cfg := config.AppConfig
	if cfg.NATS.URL == "" {
		log.Println("NATS not configured, skipping event publisher initialization")
		c.Publisher = events.NewPublisher(nil)
		return nil
	}

	natsClient, err := clients.NewNATSClient(cfg.NATS.URL)
	if err != nil {
		c.Publisher = events.NewPublisher(nil)
		return fmt.Errorf("failed to create NATS client: %w", err)
	}

	c.NATSClient = natsClient
	c.Publisher = events.NewPublisher(natsClient)
	log.Println("✅ NATS event publisher initialized")
	return nil
}

// dialFirstHealthy tries each RPC endpoint in order and returns the first
// that answers a dial.
func dialFirstHealthy(endpoints []string) (*ethclient.Client, error) {
	var lastErr error
	for _, endpoint := range endpoints {
		client, err := ethclient.Dial(endpoint)
		if err != nil {
			lastErr = err
			log.Printf("⚠️ Failed to dial RPC endpoint %s: %v", endpoint, err)
			continue
		}
		log.Printf("✅ Connected to ledger RPC: %s", endpoint)
		return client, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no RPC endpoints configured")
	}
	return nil, fmt.Errorf("failed to connect to any RPC endpoint: %w", lastErr)
}

// AttestationTimeout returns the configured bound on one authority call.
func (c *ServiceContainer) AttestationTimeout() time.Duration {
	if config.AppConfig != nil && config.AppConfig.KRNL.Timeout > 0 {
		return time.Duration(config.AppConfig.KRNL.Timeout) * time.Second
	}
	return 60 * time.Second
}

// Cleanup releases client connections on shutdown.
func (c *ServiceContainer) Cleanup() {
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
	if c.EthClient != nil {
		c.EthClient.Close()
	}
	log.Println("🧹 Service Container cleaned up")
}
