// Package sink stores one result record per successfully routed prompt.
// Append is the only mutation; records are never rewritten or deleted.
// The backend is swappable (NDJSON files, SQLite, Postgres) without the
// runner knowing which one it is writing to.
package sink

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/routerlab/routerbench/internal/config"
	"github.com/routerlab/routerbench/internal/model"
)

// Sink is the durable, append-only result store.
type Sink interface {
	// Has reports whether a record for (profile, promptID) exists. The
	// runner uses it to resume interrupted runs without reprocessing.
	Has(ctx context.Context, profile string, promptID int) (bool, error)
	// Append durably writes one record. A failed append is fatal to the
	// run; results must never be silently lost.
	Append(ctx context.Context, rec model.ResultRecord) error
	// Count returns the number of records stored for the profile. The
	// runner's stopping rule is count-based, not iteration-based.
	Count(ctx context.Context, profile string) (int, error)
	// Records returns all records for a profile in insertion order.
	Records(ctx context.Context, profile string) ([]model.ResultRecord, error)
	// Profiles lists every profile with at least one record.
	Profiles(ctx context.Context) ([]string, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the sink selected by config.
func Open(ctx context.Context, cfg config.SinkConfig) (Sink, error) {
	switch cfg.Driver {
	case "jsonl", "":
		return NewJSONL(cfg.Dir), nil
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("sink: unknown driver %q", cfg.Driver)
	}
}
