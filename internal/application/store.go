package application

import (
	"context"
	"fmt"

	"thirdcoast.systems/vodload/internal/config"
	"thirdcoast.systems/vodload/internal/db"
)

// OpenStore opens the metadata store selected by DATABASE_DRIVER.
func OpenStore(ctx context.Context, conf config.Config) (db.Store, error) {
	switch conf.DatabaseDriver {
	case config.DriverSQLite:
		store, err := db.OpenSQLite(ctx, conf.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres, "":
		pool, err := OpenDBPoolWithRetry(ctx, conf)
		if err != nil {
			return nil, err
		}
		dbc, err := db.NewDatabaseConnection(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return dbc, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.DatabaseDriver)
	}
}
