package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dharmasatrya/aircargo/internal/auth"
	"github.com/dharmasatrya/aircargo/internal/backend"
	"github.com/dharmasatrya/aircargo/internal/booking"
	"github.com/dharmasatrya/aircargo/internal/cache"
	"github.com/dharmasatrya/aircargo/internal/config"
	"github.com/dharmasatrya/aircargo/internal/handler"
	"github.com/dharmasatrya/aircargo/internal/metrics"
	"github.com/dharmasatrya/aircargo/internal/pricing"
	"github.com/dharmasatrya/aircargo/internal/ratelimit"
	"github.com/dharmasatrya/aircargo/internal/search"
	"github.com/dharmasatrya/aircargo/internal/telemetry"
)

type stores struct {
	routes  cache.Cache
	pending cache.PendingStore
	guard   booking.Guard
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tp, err := telemetry.Setup(context.Background(), telemetry.Config{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	rateLimiter := ratelimit.NewEndpointLimiterWithDefaults()
	rateLimiter.SetEndpointLimit(ratelimit.EndpointRoutes, 20, 40)
	rateLimiter.SetEndpointLimit(ratelimit.EndpointBookings, 5, 10)
	rateLimiter.SetEndpointLimit(ratelimit.EndpointTracking, 10, 20)

	client, err := backend.NewClient(backend.Config{
		BaseURL:     cfg.CargoAPIURL,
		Timeout:     cfg.BackendTimeout,
		RateLimiter: rateLimiter,
	})
	if err != nil {
		log.Fatalf("Failed to create cargo API client: %v", err)
	}

	st := initializeStores(cfg)
	defer st.routes.Close()

	m := metrics.New()

	searchService := search.NewService(client, st.routes, search.Config{
		Timeout:    cfg.BackendTimeout,
		MaxRetries: cfg.BackendMaxRetries,
		RetryDelays: []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
		},
	}, m)
	bookingService := booking.NewService(booking.NewAssembler(nil), client, st.guard)

	searchHandler := handler.NewSearchHandler(searchService)
	pricingHandler := handler.NewPricingHandler(pricing.NewCalculator(cfg.TaxRate), cfg.Currency)
	bookingHandler := handler.NewBookingHandler(bookingService, client, st.pending, m)
	trackingHandler := handler.NewTrackingHandler(client)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestID())
	e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "gateway")
	}))

	requireAuth := auth.JWT(cfg.JWTSecret)

	api := e.Group("/api/v1")
	api.POST("/routes/search", searchHandler.Search)
	api.POST("/pricing/quote", pricingHandler.Quote)
	api.GET("/bookings/:refId", trackingHandler.Get)

	bookings := api.Group("/bookings", requireAuth)
	bookings.POST("", bookingHandler.Create)
	bookings.PUT("/pending", bookingHandler.SavePending)
	bookings.GET("/pending", bookingHandler.GetPending)
	bookings.DELETE("/pending", bookingHandler.DeletePending)
	bookings.POST("/:refId/cancel", bookingHandler.Cancel)

	e.GET("/health", handler.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	go func() {
		log.Printf("Starting air cargo gateway on port %s (cargo API: %s)", cfg.Port, cfg.CargoAPIURL)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}
	log.Println("Server exiting")
}

func initializeStores(cfg *config.Config) stores {
	if !cfg.CacheEnabled {
		log.Println("Cache disabled, using in-process stores")
		return stores{
			routes:  cache.NewNoOpCache(),
			pending: cache.NewMemoryPendingStore(cfg.PendingTTL),
			guard:   cache.NewMemoryGuard(cache.DefaultGuardTTL),
		}
	}

	client, err := cache.NewRedisClient(cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Printf("Redis enabled (host: %s:%s, TTL: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisTTL)

	return stores{
		routes:  cache.NewRedisCache(client, cfg.RedisTTL),
		pending: cache.NewRedisPendingStore(client, cfg.PendingTTL),
		guard:   cache.NewRedisGuard(client, cache.DefaultGuardTTL),
	}
}
