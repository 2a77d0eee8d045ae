// Package app wires configuration, storage, messaging and the HTTP API into
// the runnable eatwhat commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/eatwhat/eatwhat-api/docs"
	"github.com/eatwhat/eatwhat-api/internal/api"
	"github.com/eatwhat/eatwhat-api/internal/api/handler"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
	"github.com/eatwhat/eatwhat-api/internal/core/service"
	redisstore "github.com/eatwhat/eatwhat-api/internal/infrastructure/db/redis"
	"github.com/eatwhat/eatwhat-api/internal/infrastructure/importer"
	"github.com/eatwhat/eatwhat-api/internal/infrastructure/messaging"
	"github.com/eatwhat/eatwhat-api/internal/infrastructure/queue"
	"github.com/eatwhat/eatwhat-api/internal/infrastructure/telemetry"
	"github.com/eatwhat/eatwhat-api/internal/pkg/config"
	"github.com/eatwhat/eatwhat-api/internal/pkg/metrics"
	"github.com/eatwhat/eatwhat-api/pkg/logger"
)

const (
	serviceName     = "eatwhat-api"
	shutdownTimeout = 15 * time.Second
)

var errNoImportFile = errors.New("no CSV file given: pass --file or set USERS_CSV")

// Run executes the command selected by args. Logs go to w.
func Run(ctx context.Context, w io.Writer, args []string) error {
	cmd, rest := ParseCommand(args)
	flags, err := parseFlags(cmd, rest, w)
	if err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Output:  w,
		Service: serviceName,
	})

	switch cmd {
	case CommandMigrate:
		return runMigrate(ctx, cfg, log)
	case CommandImportUsers:
		return runImportUsers(ctx, cfg, flags.File, w, log)
	default:
		return runServe(ctx, cfg, log)
	}
}

func applyFlags(cfg *config.Config, f Flags) {
	if f.Port != "" {
		cfg.Port = f.Port
	}
	if f.Store != "" {
		cfg.StoreDriver = f.Store
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
}

func runMigrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	return st.close(ctx)
}

func runImportUsers(ctx context.Context, cfg *config.Config, file string, w io.Writer, log zerolog.Logger) error {
	if file == "" {
		file = cfg.UsersCSV
	}
	if file == "" {
		return errNoImportFile
	}

	records, err := importer.ReadUsersFile(file)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close(context.WithoutCancel(ctx))

	res, err := service.NewUserImportService(st.users, logger.Component("importer")).Import(ctx, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "read=%d imported=%d skipped=%d\n", res.Read, res.Imported, res.Skipped)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, serviceName, telemetry.Config{
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
	}, logger.Component("telemetry"))

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	health := map[string]handler.Pinger{st.name: st.pinger}

	// --- Optional Redis pick guard ---
	var guard service.PickGuard
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			_ = st.close(ctx)
			return err
		}
		defer client.Close()
		guard = redisstore.NewPickGuard(client, cfg.Session.PickGuardTTL)
		health["redis"] = redisstore.Pinger{Client: client}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis pick guard enabled")
	}

	// --- Optional event publishing ---
	var (
		publisher  ports.EventPublisher
		dispatcher *queue.Dispatcher
		amqpConn   *messaging.Connection
	)
	if cfg.AMQP.URL != "" {
		amqpConn, err = messaging.NewConnection(cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Component("messaging"))
		if err != nil {
			_ = st.close(ctx)
			return err
		}
		dispatcher = queue.NewDispatcher(cfg.AMQP.Workers, messaging.NewPublisher(amqpConn), logger.Component("dispatcher"))
		dispatcher.Start(ctx)
		publisher = dispatcher
		health["rabbitmq"] = amqpConn
	}

	// --- Services ---
	users := service.NewUserService(st.users, logger.Component("users"))
	userImporter := service.NewUserImportService(st.users, logger.Component("importer"))
	sessions := service.NewSessionService(st.sessions, st.users, service.SessionOptions{
		MaxCodeAttempts: cfg.Session.CodeMaxAttempts,
		Publisher:       publisher,
	}, logger.Component("sessions"))
	restaurants := service.NewRestaurantService(st.sessions, st.restaurants, service.RestaurantOptions{
		RequireFirstSubmitter: cfg.Session.RequireFirstSubmitter,
		Guard:                 guard,
		Publisher:             publisher,
	}, logger.Component("restaurants"))

	var auth ports.AuthService
	if cfg.JWTSecret != "" {
		auth = service.NewAuthService(st.users, cfg.JWTSecret, cfg.TokenTTL)
	}

	if cfg.UsersCSV != "" {
		importOnStartup(ctx, userImporter, cfg.UsersCSV, log)
	}

	// --- HTTP ---
	docs.SwaggerInfo.BasePath = cfg.APIPrefix
	router := api.NewRouter(api.Options{
		APIPrefix:      cfg.APIPrefix,
		JWTSecret:      cfg.JWTSecret,
		AllowOrigins:   cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        true,
	}, api.Deps{
		Users:       users,
		Importer:    userImporter,
		Sessions:    sessions,
		Restaurants: restaurants,
		Auth:        auth,
		ReadRecords: importer.ReadUsers,
		Health:      health,
		Logger:      logger.Component("http"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("store", st.name).Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if dispatcher != nil {
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("event dispatcher did not drain")
		}
	}
	if amqpConn != nil {
		_ = amqpConn.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown")
	}
	if err := st.close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("store close")
	}

	log.Info().Msg("server stopped")
	return serveErr
}

// importOnStartup seeds the user directory. A bad file is logged and the
// server keeps starting.
func importOnStartup(ctx context.Context, imp ports.UserImporter, path string, log zerolog.Logger) {
	records, err := importer.ReadUsersFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("startup user import failed")
		return
	}
	res, err := imp.Import(ctx, records)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("startup user import failed")
		return
	}
	metrics.UsersImportedTotal.WithLabelValues("imported").Add(float64(res.Imported))
	metrics.UsersImportedTotal.WithLabelValues("skipped").Add(float64(res.Skipped))
	log.Info().Str("file", path).Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("startup user import finished")
}
