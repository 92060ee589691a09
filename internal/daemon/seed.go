package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack/internal/config"
	"github.com/ecotrack/ecotrack/internal/db/models"
)

// seed creates a demo account on an empty dev database so the login screen
// is usable right after first start. Production databases are left alone.
func seed(cfg *config.Config, db *gorm.DB) {
	if !cfg.DevMode {
		return
	}

	var count int64

	db.Model(&models.User{}).Count(&count)

	if count == 0 {
		db.Create(
			&models.User{
				Username:     "demo",
				Email:        "demo@ecotrack.local",
				PasswordHash: models.HashPassword("changeme"),
			},
		)

		log.Info().Msg("seeded dev user demo@ecotrack.local (password: changeme)")
	}
}
