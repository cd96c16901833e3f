package app

import (
	"context"

	"github.com/adanyl0v/go-tasks/internal/config"
	"github.com/adanyl0v/go-tasks/internal/storage"
	"github.com/adanyl0v/go-tasks/internal/storage/memory"
	"github.com/adanyl0v/go-tasks/internal/storage/postgres"
)

var globalTaskStore storage.TaskStore

// MustInitTaskStore selects the task store by STORAGE_DRIVER. The postgres
// driver connects, then creates the schema if it is missing.
func MustInitTaskStore() {
	cfg := config.Global()

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		MustConnectPostgres()

		store := postgres.New(globalPostgresPool)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Postgres.PingTimeout)
		defer cancel()

		err := store.EnsureSchema(ctx)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to ensure postgres schema")
			panic(err)
		}
		globalTaskStore = store
	default:
		globalTaskStore = memory.New()
	}

	globalLogger.Info().
		Str("driver", cfg.Storage.Driver).
		Msg("initialized task store")
}

func CloseTaskStore() {
	if globalPostgresPool != nil {
		DisconnectPostgres()
	}
}
