package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-redis/redis_rate/v10"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/config"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/dto"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/endpoints"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/service"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/transport"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/logger"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/qpx"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/ratelimit"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/trip"
	"github.com/redis/go-redis/v9"
)

// @title           QPX Trip Search API
// @version         0.0.1
// @description     qpx-trip-search
// @host      localhost:8080
// @BasePath  /
// @license.name Rizal Alfarizi
// @license.url https://github.com/ijalalfrz
func main() {

	cfg := config.MustInitConfig(".env")
	logger.InitStructuredLogger(cfg.LogLevel)

	slog.Debug("config loaded successfully", slog.Any("config", cfg))
	runApp(cfg)
}

func runApp(cfg config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.InfoContext(ctx, "starting...", slog.String("log_level", string(cfg.LogLevel)))

	var waitGroup sync.WaitGroup
	// Starts the server in a go routine
	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()
		startHTTPServer(ctx, cancel, cfg)
	}()

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigChannel:
		cancel()
		slog.InfoContext(ctx, "received OS signal. Exiting...", slog.String("signal", sig.String()))
	case <-ctx.Done():
		slog.ErrorContext(ctx, "failed to start HTTP server")
	}

	waitGroup.Wait()
	slog.InfoContext(ctx, "All service closed...")
}

func startHTTPServer(ctx context.Context, cancel context.CancelFunc, cfg config.Config) {
	endpts, err := makeEndpoints(ctx, &cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build endpoints", slog.String("error", err.Error()))
		cancel()
		return
	}

	router := transport.MakeHTTPRouter(&cfg, endpts)
	server := &http.Server{
		Handler:      router,
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		WriteTimeout: cfg.HTTP.Timeout,
		ReadTimeout:  cfg.HTTP.Timeout,
	}

	slog.Info("running HTTP server...", slog.Int("port", cfg.HTTP.Port))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "failed to start HTTP server", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown HTTP server", slog.String("error", err.Error()))
	}

	slog.InfoContext(ctx, "HTTP server shutdown gracefully")
}

func makeEndpoints(ctx context.Context, cfg *config.Config) (endpoints.Endpoints, error) {
	// init redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		ReadTimeout:  cfg.Redis.Timeout,
		WriteTimeout: cfg.Redis.Timeout,
	})

	// init validator
	if err := dto.InitValidator(); err != nil {
		return endpoints.Endpoints{}, fmt.Errorf("failed to init validator: %w", err)
	}

	client, err := initQPXClient(cfg, redisClient)
	if err != nil {
		return endpoints.Endpoints{}, err
	}

	slog.InfoContext(ctx, "qpx client ready",
		slog.Int("max_retries", cfg.QPX.MaxRetries),
		slog.String("rate_limit_backend", string(cfg.QPX.RateLimitBackend)))

	// init service endpoint
	return endpoints.Endpoints{
		SearchEndpoint: makeSearchEndpoint(client, redisClient, cfg),
	}, nil
}

func initQPXClient(cfg *config.Config, redisClient *redis.Client) (*qpx.Client, error) {
	qpxCfg := qpx.Config{
		BaseURL:    cfg.QPX.APIURL,
		Timeout:    cfg.QPX.Timeout,
		MaxRetries: cfg.QPX.MaxRetries,
	}

	switch cfg.QPX.RateLimitBackend {
	case config.RateLimitRedis:
		qpxCfg.Limiter = ratelimit.NewRedisLimiter(redis_rate.NewLimiter(redisClient), "qpx", cfg.QPX.RateLimitRPS)
	case config.RateLimitLocal:
		qpxCfg.Limiter = ratelimit.NewLocalLimiter(float64(cfg.QPX.RateLimitRPS), cfg.QPX.RateLimitRPS)
	}

	if cfg.QPX.KeyFile != "" {
		client, err := qpx.FromCredentialsFile(qpxCfg, cfg.QPX.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to init qpx client: %w", err)
		}

		return client, nil
	}

	return qpx.FromKey(qpxCfg, cfg.QPX.APIKey), nil
}

func makeSearchEndpoint(client *qpx.Client,
	redisClient *redis.Client, cfg *config.Config) endpoints.SearchEndpoint {

	// cache
	tripCache := trip.NewTripCache(redisClient)

	// service
	searchService := service.NewSearchService(client, tripCache,
		cfg.Trip.CacheExpiration, cfg.Trip.LockTimeout)

	// endpoint
	return endpoints.MakeSearchEndpoint(searchService)
}
