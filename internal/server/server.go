package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/notification"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Deps are the external collaborators the server is assembled from
type Deps struct {
	DB       database.Service
	Redis    *redis.Client
	Payments payment.Provider
	Notifier notification.Sender
	Registry *prometheus.Registry
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.Recoverer(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.NewServerMetrics(deps.Registry).Middleware)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the storefront API"})
	})
	router.Method(http.MethodGet, "/metrics", custommiddleware.MetricsHandler(deps.Registry))

	db := deps.DB.DB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userCarts := repository.NewUserCartRepository(db)
	guestCarts := repository.NewGuestCartRepository(deps.Redis, cfg.Cart.GuestTTL)
	txManager := repository.NewTxManager(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, otpRepo, refreshTokenRepo, deps.Notifier, service.AuthConfig{
		JWTSecret:     cfg.JWT.Secret,
		AccessExpiry:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	}, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)
	brandService := service.NewBrandService(brandRepo, logger)
	productService := service.NewProductService(productRepo, categoryRepo, brandRepo, logger)
	cartService := service.NewCartService(userCarts, guestCarts, productRepo, logger)
	checkoutService := service.NewCheckoutService(cartService, orderRepo, userRepo, deps.Payments, deps.Notifier, cfg.Server.FrontendURL, logger)
	orderService := service.NewOrderService(orderRepo, txManager, logger)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(authService, cartService, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	brandHandler := transport.NewBrandHandler(brandService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(checkoutService, orderService, logger)
	healthHandler := transport.NewHealthHandler(map[string]transport.Pinger{
		"database": transport.PingFunc(func(ctx context.Context) error {
			if health := deps.DB.Health(ctx); health["status"] != "up" {
				return errors.New(health["error"])
			}
			return nil
		}),
		"redis": transport.PingFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}),
	}, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	identityMiddleware := custommiddleware.OptionalIdentity(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	router.Route("/api/v1", func(r chi.Router) {
		if !cfg.Server.IsDevelopment() {
			// identity first so the limiter can key signed-in callers by user
			r.Use(custommiddleware.ResolveIdentity(cfg.JWT.Secret))
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "rate_limit",
			}, logger))
		}

		orderHandler.RegisterRoutes(r, identityMiddleware, authMiddleware, adminMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.BodyLimit(transport.RequestBodyLimit))

			healthHandler.RegisterRoutes(r)
			authHandler.RegisterRoutes(r, authMiddleware)
			categoryHandler.RegisterRoutes(r, authMiddleware, adminMiddleware)
			brandHandler.RegisterRoutes(r, authMiddleware, adminMiddleware)
			productHandler.RegisterRoutes(r, authMiddleware, adminMiddleware)
			cartHandler.RegisterRoutes(r, identityMiddleware)
		})
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "storefront-api"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	var errs []error
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
			errs = append(errs, err)
		}
	}

	s.logger.Sync()
	return errors.Join(errs...)
}
