// Command migrate aplica las migraciones embebidas de Postgres sin levantar
// el servicio (el adapter pg también las aplica al conectar).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/manasv777/investiq-hacknc/internal/config"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/store/pg"
	migrations "github.com/manasv777/investiq-hacknc/migrations/postgres"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "path a config YAML")
		dsn        = flag.String("dsn", "", "DSN de Postgres (pisa storage.dsn)")
		list       = flag.Bool("list", false, "solo listar las migraciones embebidas")
	)
	flag.Parse()

	config.LoadDotEnv()
	logger.Init(logger.Config{Env: "dev", Level: "info", Service: "investiq-migrate"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if *list {
		migs, err := pg.ParseMigrations(migrations.FS, migrations.Dir)
		if err != nil {
			log.Fatal("parse migrations", logger.Err(err))
		}
		for _, m := range migs {
			fmt.Printf("%04d %s\n", m.Version, m.Name)
		}
		return
	}

	target := *dsn
	if target == "" {
		// sin DSN explícito se usa la config; se fuerza postgres para que valide el DSN
		if os.Getenv("STORAGE_DRIVER") == "" {
			_ = os.Setenv("STORAGE_DRIVER", "postgres")
		}
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("config load", logger.Err(err))
		}
		target = cfg.Storage.DSN
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, target)
	if err != nil {
		log.Fatal("pgxpool", logger.Err(err))
	}
	defer pool.Close()

	res, err := pg.Migrate(ctx, pool, migrations.FS, migrations.Dir)
	if err != nil {
		log.Fatal("migrate", logger.Err(err))
	}
	log.Info("migrations done",
		logger.Any("applied", res.Applied),
		logger.Any("skipped", res.Skipped),
		logger.DurationMs(res.Duration.Milliseconds()),
	)
}
