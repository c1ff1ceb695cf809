package repositories

import (
	"context"
	"fmt"
	"gatekeeper/errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Driver string

const (
	DriverBadger   Driver = "badger"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open builds the repository for the given driver. For badger, location is the
// database directory; for sqlite and postgres it is the DSN. The returned func
// releases the underlying handle.
func Open(ctx context.Context, driver Driver, location string, log *slog.Logger) (Repository, func() error, error) {
	switch driver {
	case DriverBadger:
		db, err := badger.Open(badger.DefaultOptions(location).WithLogger(nil))
		if err != nil {
			return nil, nil, errors.Persistence("open badger", err)
		}
		log.Info("Badger store opened", "path", location)
		return NewBadgerRepository(db, log), db.Close, nil
	case DriverSQLite, DriverPostgres:
		var dialector gorm.Dialector
		if driver == DriverSQLite {
			dialector = sqlite.Open(location)
		} else {
			dialector = postgres.Open(location)
		}
		db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return nil, nil, errors.Persistence(fmt.Sprintf("open %s", driver), err)
		}
		repository := NewSQLRepository(db, log)
		if err = repository.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, errors.Persistence(fmt.Sprintf("open %s", driver), err)
		}
		log.Info("SQL store opened", "driver", driver)
		return repository, sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", errors.ErrUnknownStorageDriver, driver)
	}
}
