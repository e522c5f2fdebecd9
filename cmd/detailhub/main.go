package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"detailhub/internal/config"
	"detailhub/internal/events"
	"detailhub/internal/http/handlers"
	"detailhub/internal/jobs"
	applog "detailhub/internal/log"
	"detailhub/internal/notify"
	"detailhub/internal/repos"
	"detailhub/internal/telemetry"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if cfg.DBDriver == "mysql" && cfg.DBMaxOpen > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpen)
	}
	if err := repos.SeedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPass); err != nil {
		log.Fatal(err)
	}

	shutdownTracing := telemetry.Setup(ctx, "detailhub", cfg.OTLPEndpoint, cfg.OTLPInsecure)
	var pre []fiber.Handler
	if cfg.OTLPEndpoint != "" {
		pre = append(pre, adaptor.HTTPMiddleware(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "detailhub")
		}))
	}

	bus := events.New()
	deps := handlers.NewDeps(db, cfg, bus)
	app := handlers.NewApp(deps, pre...)

	var digest *jobs.LowStockDigest
	if cfg.LowStockCron != "" {
		provider := notify.New(cfg.Notify.Provider, cfg.Notify.WebhookURL, cfg.Notify.WebhookToken)
		digest = jobs.NewLowStockDigest(deps.Inventory, provider, cfg.Notify.Recipient)
		if err := digest.Start(cfg.LowStockCron); err != nil {
			log.Fatal(err)
		}
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("[server] listen: %v", err)
			stop()
		}
	}()
	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port, "driver": cfg.DBDriver})

	<-ctx.Done()
	applog.Info(nil, "server.stop", nil)
	if digest != nil {
		digest.Stop()
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(sctx); err != nil {
		log.Printf("[telemetry] shutdown: %v", err)
	}
}
