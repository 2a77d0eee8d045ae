package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/eatwhat/eatwhat-api/docs"
	"github.com/eatwhat/eatwhat-api/internal/api/handler"
	"github.com/eatwhat/eatwhat-api/internal/api/middleware"
	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// Options holds the HTTP-facing settings.
type Options struct {
	APIPrefix      string
	JWTSecret      string
	AllowOrigins   []string
	RateLimitRPS   float64
	RateLimitBurst int
	// Metrics registers the echoprometheus collectors on the default
	// registry; enable it once per process.
	Metrics bool
}

// Deps are the services the handlers call into.
type Deps struct {
	Users       ports.UserService
	Importer    ports.UserImporter
	Sessions    ports.SessionService
	Restaurants ports.RestaurantService
	// Auth is only used when Options.JWTSecret is set.
	Auth        ports.AuthService
	ReadRecords handler.RecordReader
	// Health maps a dependency name to its readiness check.
	Health map[string]handler.Pinger
	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options, deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimit("1M"))
	if opts.Metrics {
		e.Use(echoprometheus.NewMiddleware("eatwhat"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	restaurantHandler := handler.NewRestaurantHandler(deps.Restaurants)
	userHandler := handler.NewUserHandler(deps.Users, deps.Importer, deps.ReadRecords)
	healthHandler := handler.NewHealthHandler(deps.Health)

	limit := rateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	// --- API routes ---
	api := e.Group(opts.APIPrefix)
	if opts.JWTSecret != "" {
		api.Use(middleware.Identify(opts.JWTSecret))
	}

	sessions := api.Group("/sessions")
	sessions.POST("", sessionHandler.Create, limit)
	sessions.GET("/:code", sessionHandler.Get)
	sessions.PUT("/:code/lock", sessionHandler.Lock, limit)

	sessions.POST("/:code/restaurants", restaurantHandler.Submit, limit)
	sessions.GET("/:code/restaurants", restaurantHandler.List)
	sessions.GET("/:code/restaurants/random", restaurantHandler.Random, limit)
	sessions.GET("/:code/restaurants/count", restaurantHandler.Count)
	sessions.GET("/:code/restaurants/can-request-random/:username", restaurantHandler.CanRequestRandom)
	sessions.DELETE("/:code/restaurants/:id", restaurantHandler.Delete, limit)

	users := api.Group("/users")
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create, limit)
	users.GET("/validate/:username", userHandler.Validate)
	users.GET("/exists/:username", userHandler.Exists)

	// --- Token-only routes ---
	if opts.JWTSecret != "" && deps.Auth != nil {
		authHandler := handler.NewAuthHandler(deps.Auth)
		api.POST("/auth/token", authHandler.Token, limit)
		users.POST("/import", userHandler.Import,
			middleware.Auth(opts.JWTSecret),
			middleware.RBAC(domain.RoleSessionInitiator),
			limit,
		)
	}

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness
	e.GET("/health/ready", healthHandler.Readiness) // readiness
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// rateLimiter throttles write routes per client IP.
func rateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rps),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
