// cmd/wizard-server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/collaborators"
	"github.com/pehel/mortgage-app/internal/collaborators/sesmail"
	"github.com/pehel/mortgage-app/internal/collaborators/simulated"
	"github.com/pehel/mortgage-app/internal/common/config"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/common/observability"
	"github.com/pehel/mortgage-app/internal/decision"
	"github.com/pehel/mortgage-app/internal/httpapi"
	"github.com/pehel/mortgage-app/internal/intent"
	"github.com/pehel/mortgage-app/internal/loan"
	"github.com/pehel/mortgage-app/internal/workflow"
	"github.com/pehel/mortgage-app/pkg/registry"
)

func main() {
	zapLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting wizard server",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Collaborators ---
	var mailer collaborators.EmailSender
	if cfg.Notifications.Provider == "ses" {
		mailer, err = sesmail.New(ctx, cfg.Notifications.AWSRegion, cfg.Notifications.SenderAddress, log)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		zapLog.Info("SES email channel initialized", zap.String("region", cfg.Notifications.AWSRegion))
	}

	extraction, err := simulated.NewExtractionService(cfg.Collaborators.ExtractionDelay, log)
	if err != nil {
		zapLog.Fatal("extraction service failed", zap.Error(err))
	}
	signatures := simulated.NewSignatureService(cfg.Collaborators.SignatureDelay, mailer, log)

	var policy decision.Policy
	switch cfg.Decision.Mode {
	case "service":
		// No external decision service is wired in this deployment; the
		// mode exists so one can be dropped in without touching the core.
		zapLog.Fatal("decision mode 'service' requires an external decision service")
	default:
		policy = decision.NewHeuristicPolicy(cfg.Decision.ApprovalProbability, nil, log)
	}

	// --- Wizard dependencies ---
	cat := catalog.New()
	deps := workflow.DepsFromConfig(workflow.Deps{
		Catalog:    cat,
		Classifier: intent.NewClassifier(cat, log),
		Calculator: loan.NewCalculator(cfg.Products),
		Policy:     policy,
		Extraction: extraction,
		Signatures: signatures,
		Logger:     log,
		Obs:        obs,
	}, cfg)

	server := httpapi.NewServer(deps, log)
	if reg, err := registry.LoadRegistry("configs/steps.json"); err != nil {
		zapLog.Warn("step registry unavailable", zap.Error(err))
	} else {
		server.WithStepRegistry(reg)
	}
	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: server.Handler(),
	}

	go func() {
		zapLog.Info("http server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	zapLog.Info("wizard server stopped")
}
