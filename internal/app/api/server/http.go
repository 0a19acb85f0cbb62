package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/docs"
	"github.com/barberpro/mpmock/internal/app/api/handlers"
	mw "github.com/barberpro/mpmock/internal/app/api/middleware"
	"github.com/barberpro/mpmock/internal/app/service/payment"
	"github.com/barberpro/mpmock/internal/app/service/scenario"
	"github.com/barberpro/mpmock/internal/app/service/webhook"
	"github.com/barberpro/mpmock/pkg/apierr"
	cfgpkg "github.com/barberpro/mpmock/pkg/config"
	"github.com/barberpro/mpmock/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	// Every error response carries a JSON body, including panics and
	// unknown routes.
	r.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		e := apierr.Internal("internal server error")
		c.AbortWithStatusJSON(e.HTTPStatus(), e)
	}))
	r.NoRoute(func(c *gin.Context) {
		e := apierr.NotFound("not_found", "resource not found")
		c.JSON(e.HTTPStatus(), e)
	})
	// Request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, cfg *cfgpkg.Config, mgr payment.Manager, res *scenario.Resolver, d *webhook.Dispatcher) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Provider-shaped payment API, the surface BarberPro points its
	// MercadoPago base URL at
	v1 := r.Group("/v1")
	v1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterPaymentRoutes(v1, mgr, log)

	// Mock-control surface: webhook management and scenario dashboard
	api := r.Group("/api")
	api.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterWebhookRoutes(api.Group("/webhooks"), cfg, mgr, d)
	handlers.RegisterDashboardRoutes(api.Group("/dashboard"), res, mgr, d)
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
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
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
