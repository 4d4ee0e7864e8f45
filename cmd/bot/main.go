package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/ai"
	"github.com/littleseedlimited/caseview-bot/internal/extract"
	"github.com/littleseedlimited/caseview-bot/internal/flow"
	"github.com/littleseedlimited/caseview-bot/internal/handler"
	"github.com/littleseedlimited/caseview-bot/internal/linkfetch"
	"github.com/littleseedlimited/caseview-bot/internal/middleware"
	"github.com/littleseedlimited/caseview-bot/internal/payment"
	"github.com/littleseedlimited/caseview-bot/internal/repository"
	"github.com/littleseedlimited/caseview-bot/internal/research"
	"github.com/littleseedlimited/caseview-bot/internal/service"
	"github.com/littleseedlimited/caseview-bot/internal/session"
	"github.com/littleseedlimited/caseview-bot/pkg/cache"
	"github.com/littleseedlimited/caseview-bot/pkg/config"
	"github.com/littleseedlimited/caseview-bot/pkg/database"
	"github.com/littleseedlimited/caseview-bot/pkg/export"
	"github.com/littleseedlimited/caseview-bot/pkg/logger"
	reqidmiddleware "github.com/littleseedlimited/caseview-bot/pkg/middleware/requestid"
	"github.com/littleseedlimited/caseview-bot/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	accountRepo := repository.NewAccountRepository(db)
	caseRepo := repository.NewCaseRepository(db)

	aiClient := ai.New(cfg.AI, logr)
	var asker ai.Asker = aiClient
	if rdb, rerr := cache.NewRedis(cfg.Redis); rerr != nil {
		logr.Sugar().Warnw("redis unavailable, answers will not be memoized", "error", rerr)
	} else {
		defer rdb.Close()
		asker = ai.NewCachedAsker(aiClient, rdb, cfg.AI.CacheTTL, logr)
	}

	extractor := extract.New(cfg.Extraction, logr)
	researcher := research.New(cfg.Research, logr)
	payments := payment.New(cfg.Payment)
	links := linkfetch.New(cfg.Bot.MaxFactsLength)

	metrics := service.NewMetricsService()
	quota := service.NewQuotaService(accountRepo, logr)
	assembly := service.NewAssemblyService(caseRepo, extractor, aiClient, researcher, quota, logr)
	cases := service.NewCaseService(caseRepo, asker, aiClient, logr)
	teams := service.NewTeamService(accountRepo, logr)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	deliverer := handler.NewHTTPDeliverer(cfg.Bot, logr)
	exports := service.NewExportService(cases, map[export.Format]export.Renderer{
		export.FormatPDF:  export.NewPDFExporter(),
		export.FormatWord: export.NewWordExporter(),
	}, store, signer, deliverer, cfg.Exports, logr)
	exports.Start(ctx)
	defer exports.Stop()

	go expiredExportCleanup(ctx, store, cfg.Exports, logr)

	engine := flow.NewEngine(flow.EngineDeps{
		Accounts:  accountRepo,
		Assembly:  assembly,
		Cases:     cases,
		Extractor: extractor,
		Exports:   exports,
		Teams:     teams,
		Payments:  payments,
		Links:     links,
		Sessions:  session.NewMemoryStore(),
		Staging:   session.NewStagingArea(),
		Metrics:   metrics,
		Logger:    logr,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))

	webhook := handler.NewWebhookHandler(engine, logr)
	download := handler.NewExportHandler(exports)
	observe := handler.NewMetricsHandler(metrics)

	r.POST("/webhook", middleware.WebhookAuth(cfg.Bot.WebhookToken), webhook.Receive)
	r.GET("/exports/:token", download.Download)
	r.GET("/metrics", observe.Prometheus)
	r.GET("/health", observe.Health)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}

// expiredExportCleanup removes rendered documents whose signed links have
// expired.
func expiredExportCleanup(ctx context.Context, store *storage.LocalStorage, cfg config.ExportsConfig, logr *zap.Logger) {
	if cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(cfg.SignedURLTTL)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("expired exports removed", "count", len(removed))
			}
		}
	}
}
