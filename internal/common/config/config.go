package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Products      ProductsConfig      `mapstructure:"products"`
	Decision      DecisionConfig      `mapstructure:"decision"`
	Collaborators CollaboratorsConfig `mapstructure:"collaborators"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProductsConfig carries the per-product annual loan rates. The rates are
// presentation-era constants with no stated business justification, so they
// stay configurable rather than hard-wired.
type ProductsConfig struct {
	Rates           map[string]float64 `mapstructure:"rates"`
	DefaultLoanRate float64            `mapstructure:"default_loan_rate"`
}

// DecisionConfig selects and parametrizes the approval policy.
type DecisionConfig struct {
	// Mode is "heuristic" (probability policy) or "service" (external
	// decision collaborator).
	Mode                string        `mapstructure:"mode"`
	ApprovalProbability float64       `mapstructure:"approval_probability"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

// CollaboratorsConfig bounds every awaited external call so a request that
// never resolves cannot wedge the workflow.
type CollaboratorsConfig struct {
	ExtractionTimeout time.Duration `mapstructure:"extraction_timeout"`
	SignatureTimeout  time.Duration `mapstructure:"signature_timeout"`

	// Delays used by the simulated collaborators.
	ExtractionDelay time.Duration `mapstructure:"extraction_delay"`
	SignatureDelay  time.Duration `mapstructure:"signature_delay"`
}

// NotificationConfig configures the signature-request email channel.
type NotificationConfig struct {
	// Provider is "simulated" or "ses".
	Provider      string `mapstructure:"provider"`
	AWSRegion     string `mapstructure:"aws_region"`
	SenderAddress string `mapstructure:"sender_address"`
}

func validateConfig(cfg *Config) error {
	if cfg.Decision.ApprovalProbability < 0 || cfg.Decision.ApprovalProbability > 1 {
		return fmt.Errorf("decision.approval_probability must be in [0,1], got %v", cfg.Decision.ApprovalProbability)
	}
	if cfg.Products.DefaultLoanRate <= 0 {
		return fmt.Errorf("products.default_loan_rate must be positive, got %v", cfg.Products.DefaultLoanRate)
	}
	for id, rate := range cfg.Products.Rates {
		if rate <= 0 {
			return fmt.Errorf("products.rates.%s must be positive, got %v", id, rate)
		}
	}
	switch cfg.Notifications.Provider {
	case "", "simulated":
	case "ses":
		if cfg.Notifications.SenderAddress == "" {
			return fmt.Errorf("notifications.sender_address is required for provider ses")
		}
	default:
		return fmt.Errorf("unknown notifications.provider %q", cfg.Notifications.Provider)
	}
	return nil
}
