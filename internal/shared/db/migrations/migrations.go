package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

var log = logger.GetLogger()

// RunMigrations applies every pending migration to the database at dbURL.
func RunMigrations(dbURL string) error {
	src, err := iofs.New(sqlFiles, "sql")
	if err != nil {
		return fmt.Errorf("migrations: load embedded sql: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn("RunMigrations: close failed", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	version, dirty, verr := m.Version()
	if verr == nil {
		log.Info("RunMigrations: schema up to date", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
