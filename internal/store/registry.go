package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter abre un Repository. Cada backend se registra en su init().
type Adapter interface {
	Name() string
	Connect(ctx context.Context, cfg Config) (Repository, error)
}

// Config para conectar a un backend.
type Config struct {
	// Driver: "memory" o "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`

	MaxConns int `yaml:"max_conns"`

	// SecretKey sella fecha de nacimiento y SSN en reposo (ver secretbox).
	// Vacío = sin sellado.
	SecretKey string `yaml:"-"`
	// Seed carga los datos de demo (solo memory).
	Seed bool `yaml:"seed"`
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar en init().
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open conecta usando el adapter de cfg.Driver.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	a, ok := GetAdapter(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("store: adapter %q not registered (have %v)", cfg.Driver, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
