package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/airledger/api"
	"github.com/Domenick1991/airledger/config"
	ledgerapi "github.com/Domenick1991/airledger/internal/api/ledger_service_api"
	"github.com/Domenick1991/airledger/internal/service/booking"
	"github.com/Domenick1991/airledger/internal/service/customers"
	"github.com/Domenick1991/airledger/internal/service/flights"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
)

const (
	openAPIPath     = "/openapi/ledger.json"
	shutdownTimeout = 5 * time.Second
)

type Services struct {
	Flights   flights.FlightUseCase
	Customers customers.CustomerUseCase
	Bookings  booking.BookingUseCase
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
}

// Run starts the gRPC and HTTP servers and blocks until ctx is cancelled
// or one of them fails.
func Run(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, svc Services, checks map[string]HealthCheck) error {
	s := newServers(cfg, log, svc, checks)

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.WithFields(logrus.Fields{"http": cfg.HTTP.Address, "grpc": cfg.GRPC.Address}).Info("servers started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("servers stopped")
		return nil
	}
}

func newServers(cfg *config.Config, log logrus.FieldLogger, svc Services, checks map[string]HealthCheck) *Servers {
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(ledgerapi.UnaryLogger(log)))
	ledgerapi.RegisterLedgerServiceServer(grpcSrv, ledgerapi.NewServer(svc.Bookings, svc.Flights))

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           NewRouter(cfg.HTTP, log, svc, checks),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires the REST API, the health check and the API docs.
func NewRouter(cfg config.HTTPConfig, log logrus.FieldLogger, svc Services, checks map[string]HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(log))

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", api.RequestIDHeader},
			ExposeHeaders: []string{api.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	v1 := router.Group("/api/v1")
	api.NewFlightHandler(svc.Flights, log).Register(v1.Group("/flights"))
	api.NewCustomerHandler(svc.Customers, log).Register(v1.Group("/customers"))
	bookings := api.NewBookingHandler(svc.Bookings, log)
	bookings.Register(v1.Group("/bookings"))
	bookings.RegisterAudit(v1)

	router.GET("/health", health(checks))

	if cfg.SwaggerDir != "" {
		router.StaticFile(openAPIPath, filepath.Join(cfg.SwaggerDir, "ledger.json"))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(openAPIPath))))
	}
	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		report := make(map[string]string, len(checks))
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				report[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}

		statusText := "ok"
		if code != http.StatusOK {
			statusText = "degraded"
		}
		c.JSON(code, gin.H{"status": statusText, "checks": report})
	}
}
