package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from configs/config.yaml, merges an
// environment-specific overlay (config.<env>.yaml) and environment
// variables, and falls back to defaults for everything else.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	applyDefaults(v, env)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
// The product rates and approval probability mirror the original wizard.
func Default() *Config {
	return &Config{
		App:     AppConfig{Name: "mortgage-app", Environment: "development"},
		Server:  ServerConfig{Address: ":8080", ShutdownTimeout: 10 * time.Second},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Products: ProductsConfig{
			Rates: map[string]float64{
				"green_loan": 3.8,
				"term_loan":  4.2,
			},
			DefaultLoanRate: 5.5,
		},
		Decision: DecisionConfig{
			Mode:                "heuristic",
			ApprovalProbability: 0.70,
			Timeout:             10 * time.Second,
		},
		Collaborators: CollaboratorsConfig{
			ExtractionTimeout: 15 * time.Second,
			SignatureTimeout:  30 * time.Second,
			ExtractionDelay:   2 * time.Second,
			SignatureDelay:    3 * time.Second,
		},
		Notifications: NotificationConfig{Provider: "simulated"},
	}
}

func applyDefaults(v *viper.Viper, env string) {
	def := Default()
	v.SetDefault("app.name", def.App.Name)
	v.SetDefault("app.environment", env)
	v.SetDefault("server.address", def.Server.Address)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("products.rates", def.Products.Rates)
	v.SetDefault("products.default_loan_rate", def.Products.DefaultLoanRate)
	v.SetDefault("decision.mode", def.Decision.Mode)
	v.SetDefault("decision.approval_probability", def.Decision.ApprovalProbability)
	v.SetDefault("decision.timeout", def.Decision.Timeout)
	v.SetDefault("collaborators.extraction_timeout", def.Collaborators.ExtractionTimeout)
	v.SetDefault("collaborators.signature_timeout", def.Collaborators.SignatureTimeout)
	v.SetDefault("collaborators.extraction_delay", def.Collaborators.ExtractionDelay)
	v.SetDefault("collaborators.signature_delay", def.Collaborators.SignatureDelay)
	v.SetDefault("notifications.provider", def.Notifications.Provider)
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
