package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Store is the metadata store the ingest pipeline records videos in.
type Store interface {
	VideoExists(ctx context.Context, id string) (bool, error)
	InsertVideo(ctx context.Context, arg *InsertVideoParams) error
	FindVideo(ctx context.Context, id string) (*Video, error)
	Migrate(ctx context.Context) error
	Close()
}

type DatabaseConnection struct {
	*pgxpool.Pool
}

var _ Store = (*DatabaseConnection)(nil)

const DBRetryCount = 15

// NewDatabaseConnection creates a new database connection
func NewDatabaseConnection(ctx context.Context, pool *pgxpool.Pool) (*DatabaseConnection, error) {
	for i := range DBRetryCount {
		err := pool.Ping(ctx)
		if err == nil {
			return &DatabaseConnection{pool}, nil
		}

		// Golden ratio backoff
		fib := 1.61803398875
		sleep := time.Duration((float64(i) * fib)) * time.Second
		slog.Warn("could not ping the database", "error", err, "retry_in", sleep)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}

	return nil, fmt.Errorf("could not connect to database after %d retries", DBRetryCount)
}

// Close closes the database connection
func (db *DatabaseConnection) Close() {
	db.Pool.Close()
}

func (db *DatabaseConnection) Queries(ctx context.Context) *Queries {
	return New(db)
}

func (db *DatabaseConnection) VideoExists(ctx context.Context, id string) (bool, error) {
	return db.Queries(ctx).VideoExists(ctx, id)
}

func (db *DatabaseConnection) InsertVideo(ctx context.Context, arg *InsertVideoParams) error {
	return db.Queries(ctx).InsertVideo(ctx, arg)
}

func (db *DatabaseConnection) FindVideo(ctx context.Context, id string) (*Video, error) {
	return db.Queries(ctx).FindVideo(ctx, id)
}

//go:embed sql/migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "sql/migrations"

// Migrate runs the goose migrations
func (db *DatabaseConnection) Migrate(ctx context.Context) error {
	stdDb := stdlib.OpenDBFromPool(db.Pool)
	defer stdDb.Close()

	return migrate(ctx, stdDb, "postgres")
}

// migrate applies the embedded migrations. GOOSE_UP_TO and GOOSE_DOWN_TO
// select a target version; the default is the latest.
func migrate(ctx context.Context, stdDb *sql.DB, dialect string) error {
	goose.SetBaseFS(embedMigrations)

	err := goose.SetDialect(dialect)
	if err != nil {
		return err
	}

	currentVersion, err := goose.GetDBVersionContext(ctx, stdDb)
	if err != nil {
		return err
	}

	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		slog.Debug("embedded migration", "source", m.Source, "version", m.Version, "applied", m.Version <= currentVersion)
	}

	var targetVersion int64
	if down, ok := os.LookupEnv("GOOSE_DOWN_TO"); ok {
		targetVersion, err = strconv.ParseInt(down, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse GOOSE_DOWN_TO version: %w", err)
		}
		err = goose.DownToContext(ctx, stdDb, migrationsDir, targetVersion)
	} else {
		// Handle up migrations
		if up, ok := os.LookupEnv("GOOSE_UP_TO"); ok {
			targetVersion, err = strconv.ParseInt(up, 10, 64)
			if err != nil {
				return fmt.Errorf("failed to parse GOOSE_UP_TO version: %w", err)
			}
		} else {
			// Default: migrate to latest version
			targetVersion = goose.MaxVersion
		}
		err = goose.UpToContext(ctx, stdDb, migrationsDir, targetVersion)
	}

	if err != nil {
		return err
	}

	version, err := goose.GetDBVersionContext(ctx, stdDb)
	if err != nil {
		return err
	}
	slog.Info("database schema up to date", "dialect", dialect, "version", version)

	return nil
}
