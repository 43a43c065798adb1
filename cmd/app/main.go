package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resellerdash/cmd/fx/audit_fx"
	"resellerdash/cmd/fx/config_fx"
	"resellerdash/cmd/fx/controllers_fx"
	"resellerdash/cmd/fx/db_fx"
	"resellerdash/cmd/fx/logger_fx"
	"resellerdash/cmd/fx/metrics_fx"
	"resellerdash/cmd/fx/scheduler_fx"
	"resellerdash/cmd/fx/settlement_fx"
	"resellerdash/internal/api/controllers"
	"resellerdash/internal/config"
	dbm "resellerdash/internal/models/db_models"
	"resellerdash/pkg/middleware"
)

func main() {
	app := fx.New(
		config_fx.Module,
		logger_fx.Module,
		db_fx.Module,
		metrics_fx.Module,
		audit_fx.Module,
		settlement_fx.Module,
		scheduler_fx.Module,
		controllers_fx.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	registry *prometheus.Registry,
	settlementController *controllers.SettlementController) *gin.Engine {

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(log))

	r.GET("/healthz", healthHandler(db))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	RegisterRoutes(r, cfg, settlementController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	cfg *config.Config,
	settlementController *controllers.SettlementController) {

	master := string(dbm.RoleMaster)
	distributor := string(dbm.RoleDistributor)
	auth := middleware.JWTAuthMiddleware([]byte(cfg.JWTSecret))

	settlements := r.Group("/api/settlements")
	settlements.POST("/confirm",
		middleware.CronSecretMiddleware(cfg.CronSecretHash, cfg.IsProduction()),
		settlementController.ConfirmSettlements)

	settlements.GET("", auth, middleware.RoleMiddleware(master, distributor), settlementController.ListSettlements)
	settlements.GET("/preview", auth, middleware.RoleMiddleware(master), settlementController.PreviewSettlement)
	settlements.GET("/:id", auth, middleware.RoleMiddleware(master, distributor), settlementController.GetSettlement)
	settlements.POST("/:id/pay", auth, middleware.RoleMiddleware(master), settlementController.MarkSettlementPaid)
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
