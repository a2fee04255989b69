package main

import (
	"context"
	"fmt"
	"io"

	"github.com/manasv777/investiq-hacknc/internal/ai"
	"github.com/manasv777/investiq-hacknc/internal/assistant"
	"github.com/manasv777/investiq-hacknc/internal/cache"
	"github.com/manasv777/investiq-hacknc/internal/client"
	"github.com/manasv777/investiq-hacknc/internal/config"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/session"
	"github.com/manasv777/investiq-hacknc/internal/wizard"
)

// app agrupa lo que comparten los subcomandos de una invocación.
type app struct {
	cfg    *config.Config
	out    io.Writer
	asJSON bool

	api    *client.Client
	cache  cache.Client // nil con state_backend=file
	store  *session.Store
	wizard *wizard.Controller
	bridge *assistant.Bridge
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	a := &app{
		cfg: cfg,
		out: out,
		api: client.New(client.Config{
			BaseURL: cfg.Client.APIBaseURL,
			Timeout: cfg.Client.Timeout,
			Token:   cfg.Client.Token,
		}),
	}

	var p session.Persister
	switch cfg.Client.StateBackend {
	case "cache":
		c, err := cache.New(cache.Config{
			Driver:   cfg.Cache.Kind,
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("state backend: %w", err)
		}
		a.cache = c
		p = session.NewCachePersister(c)
	default:
		p = session.NewFilePersister(cfg.Client.StatePath)
	}

	a.store = session.New(p, session.WithLogger(logger.L()))
	if err := a.store.Load(ctx); err != nil {
		a.close()
		return nil, err
	}
	// Una identidad configurada manda; si se quitó, la sesión que había
	// abierto también se descarta. La de `init --user` se respeta.
	if _, err := a.store.SyncConfigIdentity(ctx, cfg.Client.UserID); err != nil {
		a.close()
		return nil, err
	}

	a.wizard = wizard.New(wizard.Deps{
		Store:    a.store,
		Events:   a.api,
		Sessions: a.api,
	})
	a.bridge = assistant.New(assistant.Deps{
		Store:     a.store,
		Completer: a.api,
		// el servicio ya reintenta contra el proveedor; acá un solo intento
		// para no multiplicar las llamadas por turno
		Retry:   ai.RetryPolicy{MaxAttempts: 1},
		Events:  a.api,
		Timeout: cfg.Client.Timeout,
	})
	return a, nil
}

func (a *app) close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
