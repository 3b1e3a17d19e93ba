package persistence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sessionkit/cookie-session/internal/config"
)

// Backend names the datastore selected by the connection URI.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongodb"
)

// BackendFor picks the backend from the URI scheme. Key/value DSNs without a
// scheme are treated as Postgres.
func BackendFor(uri string) (Backend, error) {
	idx := strings.Index(uri, "://")
	if idx < 0 {
		return BackendPostgres, nil
	}
	switch strings.ToLower(uri[:idx]) {
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	default:
		return "", fmt.Errorf("unsupported datastore scheme %q", uri[:idx])
	}
}

// Datastore holds whichever backend DATABASE_URI selected.
type Datastore struct {
	Backend  Backend
	Postgres *Postgres
	Mongo    *Mongo
}

// Open connects to the configured datastore.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Datastore, error) {
	backend, err := BackendFor(cfg.URI)
	if err != nil {
		return nil, err
	}

	ds := &Datastore{Backend: backend}
	switch backend {
	case BackendMongo:
		ds.Mongo, err = NewMongo(ctx, cfg, logger)
	default:
		ds.Postgres, err = NewPostgres(ctx, cfg, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", backend, err)
	}
	return ds, nil
}

// Ping checks the active backend.
func (d *Datastore) Ping(ctx context.Context) error {
	if d.Mongo != nil {
		return d.Mongo.Ping(ctx)
	}
	return d.Postgres.Ping(ctx)
}

// Close releases the active backend.
func (d *Datastore) Close(ctx context.Context) {
	if d == nil {
		return
	}
	d.Postgres.Close()
	d.Mongo.Close(ctx)
}
