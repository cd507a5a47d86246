// Package database selects and opens the Record Store configured for the app.
package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/storage/database/inmem"
	mongodb "github.com/trezcool/barangay/storage/database/mongo"
)

// Store is a core.Store that can prepare its indexes.
type Store interface {
	core.Store
	EnsureIndexes(ctx context.Context) error
}

var (
	_ Store = (*mongodb.DB)(nil)
	_ Store = (*inmem.DB)(nil)
)

// maxAttempts bounds how many times Open retries a database that is still starting.
var maxAttempts = 10

// Open connects to the engine named in conf.Database.Engine.
func Open(ctx context.Context, conf *core.Config) (Store, error) {
	switch conf.Database.Engine {
	case "memory":
		return inmem.Open(), nil
	case "mongo", "mongodb", "":
		return openMongo(ctx, conf)
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

// openMongo waits for the database to be ready. Waits 100ms longer between each attempt.
func openMongo(ctx context.Context, conf *core.Config) (*mongodb.DB, error) {
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		var db *mongodb.DB
		if db, err = mongodb.Open(ctx, conf); err == nil {
			return db, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "opening mongodb")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return nil, errors.Wrap(err, "DB connect timeout")
}

// Prepare opens the configured store and ensures its indexes.
func Prepare(ctx context.Context, conf *core.Config) (Store, error) {
	db, err := Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = db.EnsureIndexes(ctx); err != nil {
		_ = db.Close(context.Background())
		return nil, errors.Wrap(err, "ensuring indexes")
	}
	return db, nil
}
