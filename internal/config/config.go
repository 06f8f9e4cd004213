package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	NATS       NATSConfig       `yaml:"nats"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
	KRNL       KRNLConfig       `yaml:"krnl"`
	CORS       CORSConfig       `yaml:"cors"`
	Admin      AdminConfig      `yaml:"admin"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration. DSN empty means the service runs
// without the submission audit trail.
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NATSConfig NATS message server configuration. URL empty disables event
// publication.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"`
}

// BlockchainConfig ledger connection configuration
type BlockchainConfig struct {
	ChainID             int64    `yaml:"chainId"`
	RPCEndpoints        []string `yaml:"rpcEndpoints"`
	MarketplaceContract string   `yaml:"marketplaceContract"`
	PrivateKey          string   `yaml:"privateKey"` // hex, without 0x prefix
	GasLimit            uint64   `yaml:"gasLimit"`
	GasPrice            string   `yaml:"gasPrice"` // wei; empty means suggest from node
}

// KRNLConfig execution authority configuration
type KRNLConfig struct {
	RPCURL      string `yaml:"rpcUrl"`
	EntryID     string `yaml:"entryId"`
	AccessToken string `yaml:"accessToken"`
	KernelID    string `yaml:"kernelId"`
	Timeout     int    `yaml:"timeout"` // seconds; bounds the attestation call
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"`
}

var AppConfig *Config

// LoadConfig loads the configuration file and applies environment variable
// overrides (env > yaml > default).
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("🔧 Using local configuration file: config.local.yaml")
		}
	}

	var config Config
	data, err := os.ReadFile(configPath)
	if err != nil {
		// No config file is acceptable as long as the environment carries the
		// required values; Validate decides.
		log.Printf("⚠️ Config file %s not readable (%v), relying on environment variables", configPath, err)
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Printf("✅ Loaded configuration from: %s", configPath)
	}

	overrideFromEnv(&config)
	applyDefaults(&config)

	AppConfig = &config
	return nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.KRNL.KernelID == "" {
		config.KRNL.KernelID = "1672"
	}
	if config.KRNL.Timeout <= 0 {
		config.KRNL.Timeout = 60
	}
	if config.Blockchain.GasLimit == 0 {
		config.Blockchain.GasLimit = 800000
	}
}

func overrideFromEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}

	// KRNL execution authority
	if rpcURL := os.Getenv("KRNL_RPC_URL"); rpcURL != "" {
		config.KRNL.RPCURL = rpcURL
	}
	if entryID := os.Getenv("KRNL_ENTRY_ID"); entryID != "" {
		config.KRNL.EntryID = entryID
	}
	if accessToken := os.Getenv("KRNL_ACCESS_TOKEN"); accessToken != "" {
		config.KRNL.AccessToken = accessToken
	}
	if kernelID := os.Getenv("KRNL_KERNEL_ID"); kernelID != "" {
		config.KRNL.KernelID = kernelID
	}
	if timeout := os.Getenv("KRNL_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.KRNL.Timeout = t
		}
	}

	// Ledger
	if contract := os.Getenv("MARKETPLACE_CONTRACT"); contract != "" {
		config.Blockchain.MarketplaceContract = contract
	}
	if endpoints := os.Getenv("CHAIN_RPC_ENDPOINTS"); endpoints != "" {
		config.Blockchain.RPCEndpoints = strings.Split(endpoints, ",")
	}
	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			config.Blockchain.ChainID = id
		}
	}
	if privateKey := os.Getenv("PRIVATE_KEY"); privateKey != "" {
		config.Blockchain.PrivateKey = privateKey
	}
	if gasLimit := os.Getenv("GAS_LIMIT"); gasLimit != "" {
		if limit, err := strconv.ParseUint(gasLimit, 10, 64); err == nil {
			config.Blockchain.GasLimit = limit
		}
	}
	if gasPrice := os.Getenv("GAS_PRICE"); gasPrice != "" {
		config.Blockchain.GasPrice = gasPrice
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		origins := strings.Split(corsOrigins, ",")
		config.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				config.CORS.AllowedOrigins = append(config.CORS.AllowedOrigins, trimmed)
			}
		}
	}
}

// Validate is the startup gate: a missing credential is an operational error,
// not a per-call condition, so the process must refuse to serve traffic
// rather than fail request by request. Checked once, never per call.
func (c *Config) Validate() error {
	var missing []string

	if strings.TrimSpace(c.Blockchain.MarketplaceContract) == "" {
		missing = append(missing, "blockchain.marketplaceContract (MARKETPLACE_CONTRACT)")
	}
	if strings.TrimSpace(c.KRNL.EntryID) == "" {
		missing = append(missing, "krnl.entryId (KRNL_ENTRY_ID)")
	}
	if strings.TrimSpace(c.KRNL.AccessToken) == "" {
		missing = append(missing, "krnl.accessToken (KRNL_ACCESS_TOKEN)")
	}
	if strings.TrimSpace(c.KRNL.RPCURL) == "" {
		missing = append(missing, "krnl.rpcUrl (KRNL_RPC_URL)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("required configuration missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
