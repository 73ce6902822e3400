package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-entitlements/app/controller"
	"github.com/vibast-solutions/ms-go-entitlements/app/gate"
	"github.com/vibast-solutions/ms-go-entitlements/app/plan"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/token"
	"github.com/vibast-solutions/ms-go-entitlements/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the entitlements service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	codec := token.NewCodec(cfg.Entitlements.SigningSecret)
	catalog := plan.NewCatalog(cfg.Entitlements.CampaignCutoff)

	entitlementRepo := repository.NewEntitlementRepository(db)
	codeRepo := repository.NewActivationCodeRepository(db)

	codeService := service.NewActivationCodeService(codeRepo, cfg.Entitlements)
	entitlementService := service.NewEntitlementService(entitlementRepo, codeService, catalog, codec, cfg.Entitlements)
	issuer := service.NewCodeIssuer(codeRepo, cfg.Entitlements)
	grantService := service.NewPaymentGrantService(issuer)
	entitlementController := controller.NewEntitlementController(entitlementService, codeService, grantService, cfg.Entitlements)
	edgeGate := gate.New(codec, cfg.Entitlements.TokenCookieName)

	e := setupHTTPServer(entitlementController, edgeGate)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(entitlementController *controller.EntitlementController, edgeGate *gate.Gate) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string {
			return fmt.Sprintf("rest-%s", uuid.New().String())
		},
	}))

	e.GET("/health", entitlementController.Health)

	entitlement := e.Group("/entitlement")
	entitlement.GET("", entitlementController.GetEntitlement)
	entitlement.POST("/activate", entitlementController.ActivateCode)

	codes := e.Group("/codes")
	codes.POST("/:code/deactivate", entitlementController.DeactivateCode)

	webhooks := e.Group("/webhooks")
	webhooks.POST("/payment-confirmed", entitlementController.PaymentConfirmedWebhook)

	// Routes mounted here are admitted on the signed cookie alone.
	protected := e.Group("/protected", edgeGate.RequireToken())
	protected.GET("/ping", entitlementController.Health)

	return e
}
