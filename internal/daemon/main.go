// Package daemon assembles the running service: database, mailer, rate
// limit backends and the web layer.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	storagemysql "github.com/gofiber/storage/mysql/v2"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack/internal/config"
	"github.com/ecotrack/ecotrack/internal/db/dsn"
	"github.com/ecotrack/ecotrack/internal/db/models"
	"github.com/ecotrack/ecotrack/internal/mailer"
	"github.com/ecotrack/ecotrack/internal/ratelimit"
	"github.com/ecotrack/ecotrack/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	cfg        *config.Config
}

// Start runs the web service until a shutdown signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db := openDB(cfg)

	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	mail := mailer.New(cfg.SMTP)
	loginHits, resetHits := limiterStores(cfg)

	return &Daemon{
		webService: web.New(cfg, db, mail, loginHits, resetHits),
		cfg:        cfg,
	}
}

// openDB opens the gorm handle for the configured engine.
func openDB(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "mysql":
		dialector = gormmysql.Open(dsn.Create(cfg))
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		log.Fatal().Str("engine", cfg.DB.GormEngine).Msg("unsupported database engine")
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	return db
}

// limiterStores picks the rate limit backends. The default is per-process
// memory; a shared mysql-backed store keeps the window counts honest when
// multiple instances sit behind one load balancer.
func limiterStores(cfg *config.Config) (loginHits, resetHits ratelimit.Store) {
	if cfg.RateLimit.Shared.Enabled {
		storage := storagemysql.New(storagemysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         cfg.RateLimit.Shared.Table,
		})

		shared := ratelimit.NewStorageStore(storage)

		return shared, shared
	}

	return ratelimit.NewMemoryStore(), ratelimit.NewMemoryStore()
}
