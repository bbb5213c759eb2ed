package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/authartic/certify/internal/app/api/handlers"
	mw "github.com/authartic/certify/internal/app/api/middleware"
	certsvc "github.com/authartic/certify/internal/app/service/certificate"
	subsvc "github.com/authartic/certify/internal/app/service/subscription"
	cfgpkg "github.com/authartic/certify/pkg/config"
	"github.com/authartic/certify/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, cfg *cfgpkg.Config, cert *certsvc.Service, sub *subsvc.Service) {
	// Prometheus metrics on every route; exposition happens on its own listener
	if cfg != nil && cfg.MetricsAddr != "" {
		r.Use(metrics.HandlerFunc(nil))
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.Errorw("metrics listener stopped", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log, no auth
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	handlers.RegisterPublicSubscriptionRoutes(pub.Group("/api/v1"), sub)

	// Protected group using auth middleware
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AuthMiddleware(cfg.Auth.JWTSecret))

	handlers.RegisterCertificateRoutes(apiV1, cert)
	handlers.RegisterCertificateInfoRoutes(apiV1, cert)
	handlers.RegisterSubscriptionRoutes(apiV1, sub)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
