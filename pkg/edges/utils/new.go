package edgesutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/edges"
	"github.com/papercomputeco/adjacent/pkg/edges/inmemory"
	"github.com/papercomputeco/adjacent/pkg/edges/postgres"
	"github.com/papercomputeco/adjacent/pkg/edges/sqlite"
)

type NewEdgeStoreOpts struct {
	ProviderType string

	// DBPath is the SQLite database path for the sqlite provider.
	DBPath string

	// DSN is the connection string for the postgres provider.
	DSN string

	Logger *zap.Logger
}

func NewEdgeStore(ctx context.Context, o *NewEdgeStoreOpts) (edges.Store, error) {
	switch o.ProviderType {
	case "sqlite":
		return sqlite.NewStore(o.DBPath, o.Logger)
	case "postgres":
		return postgres.NewStore(ctx, o.DSN, o.Logger)
	case "inmemory":
		return inmemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported edge store provider: %s", o.ProviderType)
	}
}
