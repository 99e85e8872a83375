package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/backup"
	"github.com/BruksfildServices01/clinic-pos/internal/config"
	dbpkg "github.com/BruksfildServices01/clinic-pos/internal/db"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/infra/payment"
	"github.com/BruksfildServices01/clinic-pos/internal/logger"
	"github.com/BruksfildServices01/clinic-pos/internal/media"
	"github.com/BruksfildServices01/clinic-pos/internal/routes"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
	"github.com/BruksfildServices01/clinic-pos/internal/usecase/pos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.Debug)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if !timezone.SetDefault(cfg.Timezone) {
		log.WithField("timezone", cfg.Timezone).Warn("unknown timezone, using UTC")
	}

	db := dbpkg.NewDB(cfg, log)

	dispatcher := audit.NewDispatcher(audit.New(db), log)
	defer dispatcher.Close()

	// ------------------------------
	// Flash messages
	// ------------------------------
	var flashStore flash.Store = flash.NewCookieStore(!cfg.Debug)
	if cfg.RedisURL != "" {
		client, err := flash.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("invalid REDIS_URL")
		}
		defer client.Close()
		flashStore = flash.NewRedisStore(client, !cfg.Debug, log)
	}

	// ------------------------------
	// Backups
	// ------------------------------
	opts := backup.Options{
		Dir:        cfg.BackupDir,
		Prefix:     cfg.BackupPrefix,
		MediaRoot:  cfg.MediaRoot,
		StaticDirs: cfg.StaticDirs,
		Audit:      dispatcher,
		Log:        log,
	}
	if cfg.IsSQLite() {
		opts.SQLitePath = cfg.SQLitePath()
	}
	if cfg.BackupS3Bucket != "" {
		opts.Uploader = backup.NewS3Uploader(backup.S3Config{
			Bucket:    cfg.BackupS3Bucket,
			Region:    cfg.BackupS3Region,
			Endpoint:  cfg.BackupS3Endpoint,
			AccessKey: cfg.AWSAccessKeyID,
			SecretKey: cfg.AWSSecretKey,
		})
	}

	// ------------------------------
	// Payments
	// ------------------------------
	var gateway pos.PaymentGateway
	if cfg.MercadoPagoToken != "" {
		mp, err := payment.NewMercadoPago(cfg.MercadoPagoToken, cfg.PaymentCurrency, cfg.MercadoPagoNotifyURL)
		if err != nil {
			log.WithError(err).Fatal("failed to configure Mercado Pago")
		}
		gateway = mp
	}

	r := routes.NewRouter(routes.Deps{
		DB:      db,
		Config:  cfg,
		Log:     log,
		Audit:   dispatcher,
		Flash:   flashStore,
		Backups: backup.New(db, opts),
		Media:   media.NewStore(cfg.MediaRoot),
		Gateway: gateway,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", cfg.Addr()).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
