// Package server construye el handler del servicio con todas sus
// dependencias y lo sirve.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/ai/gemini"
	"github.com/manasv777/investiq-hacknc/internal/analytics"
	"github.com/manasv777/investiq-hacknc/internal/cache"
	"github.com/manasv777/investiq-hacknc/internal/config"
	"github.com/manasv777/investiq-hacknc/internal/http/controllers"
	mw "github.com/manasv777/investiq-hacknc/internal/http/middlewares"
	"github.com/manasv777/investiq-hacknc/internal/http/router"
	aisvc "github.com/manasv777/investiq-hacknc/internal/http/services/ai"
	healthsvc "github.com/manasv777/investiq-hacknc/internal/http/services/health"
	onbsvc "github.com/manasv777/investiq-hacknc/internal/http/services/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/kyc"
	"github.com/manasv777/investiq-hacknc/internal/metrics"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/rate"
	"github.com/manasv777/investiq-hacknc/internal/store"
	"github.com/manasv777/investiq-hacknc/internal/voice"
)

// Build arma store, cache, limiter, clientes de proveedores, services,
// controllers y router. Los adapters de store deben estar registrados
// (import en blanco de store/memory y store/pg). cleanup cierra lo abierto.
func Build(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	log := logger.L().With(logger.Component("wiring"))

	repo, err := store.Open(ctx, store.Config{
		Driver:    cfg.Storage.Driver,
		DSN:       cfg.Storage.DSN,
		MaxConns:  cfg.Storage.MaxConns,
		SecretKey: cfg.Security.SecretBoxKey,
		Seed:      cfg.Storage.Seed,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("store: %w", err)
	}
	closers := []func() error{repo.Close}
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	// Redis se comparte entre cache y rate limiter.
	var (
		kv      cache.Client
		limiter rate.Limiter
	)
	switch cfg.Cache.Kind {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		kv = cache.NewRedisFromClient(rdb, cfg.Cache.Redis.Prefix)
		closers = append(closers, kv.Close)
		if cfg.Rate.Enabled {
			limiter = rate.NewRedisLimiter(rdb, cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.MaxRequests, cfg.RateWindow())
		}
	default:
		kv = cache.NewMemory(cfg.Cache.Redis.Prefix)
		if cfg.Rate.Enabled {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow())
		}
	}

	if err := metrics.Register(nil); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}

	gem := gemini.New(gemini.Config{
		APIKey:          cfg.AI.GeminiAPIKey,
		Model:           cfg.AI.Model,
		BaseURL:         cfg.AI.BaseURL,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Temperature:     cfg.AI.Temperature,
		Timeout:         cfg.AI.Timeout,
	})
	if gem.DemoMode() {
		log.Warn("GEMINI_API_KEY not set, assistant runs in demo mode")
	}
	tts := voice.New(voice.Config{
		APIKey:  cfg.Voice.ElevenLabsAPIKey,
		VoiceID: cfg.Voice.VoiceID,
		BaseURL: cfg.Voice.BaseURL,
		Timeout: cfg.Voice.Timeout,
	})
	veriff := kyc.New(kyc.Config{
		APIKey:      cfg.KYC.VeriffAPIKey,
		BaseURL:     cfg.KYC.BaseURL,
		CallbackURL: cfg.KYC.CallbackURL,
	})

	ctrls := controllers.New(controllers.Deps{
		AI: aisvc.NewService(aisvc.Deps{
			Completer:  gem,
			Classifier: gem,
			Retry: ai.RetryPolicy{
				MaxAttempts: cfg.AI.MaxAttempts,
				BaseDelay:   cfg.AI.BaseDelay,
				MaxJitter:   cfg.AI.MaxJitter,
			},
			Model:   gem.Model(),
			Metrics: metrics.Onboarding{},
			Cache:   kv,
		}),
		Onboarding: onbsvc.NewService(onbsvc.Deps{Repo: repo}),
		Health: healthsvc.NewService(healthsvc.Deps{
			StoreCheck: repo.Ping,
			CacheCheck: kv.Ping,
			Providers: map[string]bool{
				"gemini":     !gem.DemoMode(),
				"elevenlabs": tts.Configured(),
				"veriff":     veriff.Configured(),
			},
		}),
		Analytics: analytics.New(repo),
		Speaker:   tts,
		KYC:       veriff,
	})

	handler := router.New(router.Deps{
		Controllers:    ctrls,
		Metrics:        promhttp.Handler(),
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
		RateLimiter:    limiter,
		Bearer:         mw.BearerConfig{Secret: []byte(cfg.Security.JWTSecret), Issuer: cfg.Security.JWTIssuer},
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	log.Info("handler built",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Any("rate_limit", limiter != nil),
	)
	return handler, cleanup, nil
}

// Run sirve handler en addr hasta que ctx termine y después apaga con
// gracia, dando shutdownTimeout a los requests en vuelo.
func Run(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
