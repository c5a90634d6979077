package catalogutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/catalog/inmemory"
	qdrantstore "github.com/papercomputeco/adjacent/pkg/catalog/qdrant"
	"github.com/papercomputeco/adjacent/pkg/catalog/sqlitevec"
)

type NewCatalogStoreOpts struct {
	ProviderType string

	// DBPath is the SQLite database path for the sqlitevec provider.
	DBPath string

	// Host, Port, APIKey, UseTLS and Collection configure the qdrant provider.
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string

	// Dimensions is the embedding dimensionality, required by the vector
	// providers.
	Dimensions uint

	Logger *zap.Logger
}

func NewCatalogStore(ctx context.Context, o *NewCatalogStoreOpts) (catalog.Store, error) {
	switch o.ProviderType {
	case "sqlitevec":
		return sqlitevec.NewStore(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "qdrant":
		return qdrantstore.NewStore(ctx, qdrantstore.Config{
			Host:       o.Host,
			Port:       o.Port,
			APIKey:     o.APIKey,
			UseTLS:     o.UseTLS,
			Collection: o.Collection,
			Dimensions: uint64(o.Dimensions),
		}, o.Logger)
	case "inmemory":
		return inmemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported catalog store provider: %s", o.ProviderType)
	}
}
