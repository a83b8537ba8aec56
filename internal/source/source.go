// Package source loads the benchmark prompt set. The dataset is fetched
// from the Hugging Face datasets-server once and cached as NDJSON; every
// later load reads the cache only, so all profile runs iterate an
// identical, stably ordered prompt sequence.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/routerlab/routerbench/internal/model"
)

// ErrUnavailable means neither a usable cache file nor network access
// could produce the prompt set. Fatal: the run aborts before any
// routing call is made.
var ErrUnavailable = eris.New("source: prompt dataset unavailable")

// Source yields the ordered prompt set.
type Source interface {
	// Load returns prompts in dataset order. limit <= 0 means all.
	Load(ctx context.Context, limit int) ([]model.PromptRecord, error)
}
