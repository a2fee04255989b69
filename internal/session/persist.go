package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/cache"
)

// DefaultKey es la key fija bajo la cual se guarda el estado del wizard.
const DefaultKey = "investiq-session"

// ErrNoState indica que no hay estado persistido todavía.
var ErrNoState = errors.New("session: no persisted state")

// Persister guarda y recupera el blob serializado del estado.
type Persister interface {
	// Load retorna ErrNoState si nunca se guardó nada.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FilePersister guarda el estado en un archivo local con escritura atómica.
type FilePersister struct {
	Path string
	Perm fs.FileMode // default 0600: el blob contiene DOB y SSN
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path, Perm: 0o600}
}

func (p *FilePersister) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", p.Path, err)
	}
	if len(b) == 0 {
		return nil, ErrNoState
	}
	return b, nil
}

func (p *FilePersister) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	perm := p.Perm
	if perm == 0 {
		perm = 0o600
	}
	return writeFileAtomic(p.Path, data, perm)
}

// writeFileAtomic escribe a un temporal en el mismo directorio y renombra.
// Si el rename falla (Windows con destino abierto) reintenta con remove+rename;
// si eso también falla el archivo viejo queda intacto.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".investiq-*")
	if err != nil {
		return fmt.Errorf("session: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("session: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("session: fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close temp: %w", err)
	}
	_ = os.Chmod(tmpPath, perm)

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("session: rename: %v (after remove: %v)", err, err2)
		}
	}
	return nil
}

// CachePersister guarda el estado en un cache.Client (memory o redis).
type CachePersister struct {
	Client cache.Client
	Key    string
	TTL    time.Duration // 0 = sin expiración
}

func NewCachePersister(c cache.Client) *CachePersister {
	return &CachePersister{Client: c, Key: DefaultKey}
}

func (p *CachePersister) key() string {
	if p.Key == "" {
		return DefaultKey
	}
	return p.Key
}

func (p *CachePersister) Load(ctx context.Context) ([]byte, error) {
	v, err := p.Client.Get(ctx, p.key())
	if cache.IsNotFound(err) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("session: cache load: %w", err)
	}
	if v == "" {
		return nil, ErrNoState
	}
	return []byte(v), nil
}

func (p *CachePersister) Save(ctx context.Context, data []byte) error {
	if err := p.Client.Set(ctx, p.key(), string(data), p.TTL); err != nil {
		return fmt.Errorf("session: cache save: %w", err)
	}
	return nil
}
