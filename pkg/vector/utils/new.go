package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/memories/pkg/vector"
	"github.com/papercomputeco/memories/pkg/vector/chroma"
	"github.com/papercomputeco/memories/pkg/vector/inmemory"
	"github.com/papercomputeco/memories/pkg/vector/pgvector"
	"github.com/papercomputeco/memories/pkg/vector/qdrant"
	"github.com/papercomputeco/memories/pkg/vector/sqlitevec"
)

// Supported vector store providers.
const (
	ProviderInMemory = "inmemory"
	ProviderSQLite   = "sqlite"
	ProviderChroma   = "chroma"
	ProviderQdrant   = "qdrant"
	ProviderPgvector = "pgvector"
)

type NewVectorDriverOpts struct {
	ProviderType string
	Target       string
	Collection   string
	Dimensions   uint

	// Fallback switches to the in-memory driver when the configured
	// provider cannot be initialized.
	Fallback bool

	Logger *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	driver, err := newProviderDriver(ctx, o)
	if err == nil {
		return driver, nil
	}

	if !o.Fallback || o.ProviderType == ProviderInMemory {
		return nil, err
	}

	o.Logger.Warn("vector store unavailable, falling back to in-memory store",
		"provider", o.ProviderType,
		"target", o.Target,
		"error", err,
	)

	return inmemory.NewDriver(inmemory.Config{Dimensions: o.Dimensions}, o.Logger), nil
}

func newProviderDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderInMemory:
		return inmemory.NewDriver(inmemory.Config{Dimensions: o.Dimensions}, o.Logger), nil
	case ProviderSQLite, "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DatasetPath: o.Target,
			Dimensions:  o.Dimensions,
		}, o.Logger)
	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.Collection,
		}, o.Logger)
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:         o.Target,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	case ProviderPgvector:
		return pgvector.NewDriver(ctx, pgvector.Config{
			ConnString: o.Target,
			TableName:  o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
