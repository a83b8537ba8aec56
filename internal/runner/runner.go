// Package runner drives the batch pipeline: read cached prompts in
// dataset order, skip the ones already recorded, route the rest one at
// a time, and stop once the sink holds the target number of results.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/routerlab/routerbench/internal/model"
	"github.com/routerlab/routerbench/internal/routing"
	"github.com/routerlab/routerbench/internal/sink"
	"github.com/routerlab/routerbench/internal/source"
)

// Router issues one routing call per prompt.
type Router interface {
	Profile() string
	Route(ctx context.Context, rec model.PromptRecord) (*model.RoutedResponse, error)
}

// Options configures a Runner.
type Options struct {
	// Target is the success count at which the run completes.
	Target int
	// Limit caps how many prompts are loaded from the source. Zero
	// loads the whole dataset.
	Limit int
	// RPS throttles routing calls. Zero means unthrottled; processing
	// is strictly sequential either way, one outstanding call at a time.
	RPS float64
}

// Runner executes one batch run over one profile.
type Runner struct {
	src     source.Source
	router  Router
	sink    sink.Sink
	opts    Options
	limiter *rate.Limiter
}

// New creates a Runner. The profile is fixed for the Runner's lifetime;
// comparing profiles means separate invocations with separate sinks.
func New(src source.Source, router Router, sk sink.Sink, opts Options) *Runner {
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	return &Runner{src: src, router: router, sink: sk, opts: opts, limiter: limiter}
}

// Run processes prompts until the sink reaches the target count
// (Completed) or the source runs dry (Aborted). Per-prompt routing
// failures are logged and skipped, never retried; every other failure
// halts the run. The stopping rule is count-based because failures are
// skipped without substitution: the runner keeps drawing new prompts
// until enough succeed.
func (r *Runner) Run(ctx context.Context) (*model.RunSummary, error) {
	profile := r.router.Profile()
	start := time.Now()

	summary := &model.RunSummary{
		ID:      uuid.New().String(),
		Profile: profile,
		Target:  r.opts.Target,
	}

	count, err := r.sink.Count(ctx, profile)
	if err != nil {
		return nil, err
	}
	if count >= r.opts.Target {
		zap.L().Info("target already reached, nothing to do",
			zap.String("profile", profile),
			zap.Int("count", count),
			zap.Int("target", r.opts.Target),
		)
		summary.Status = model.RunStatusCompleted
		summary.Resumed = count
		summary.Duration = time.Since(start)
		return summary, nil
	}

	prompts, err := r.src.Load(ctx, r.opts.Limit)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("profile", profile), zap.String("run_id", summary.ID))
	log.Info("starting batch",
		zap.Int("prompts", len(prompts)),
		zap.Int("existing", count),
		zap.Int("target", r.opts.Target),
	)

	for _, rec := range prompts {
		if count >= r.opts.Target {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "runner: interrupted")
		}

		exists, err := r.sink.Has(ctx, profile, rec.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			summary.Resumed++
			continue
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "runner: rate limiter wait")
			}
		}

		log.Debug("processing prompt",
			zap.Int("prompt_id", rec.ID),
			zap.String("preview", rec.Preview(80)),
		)

		routed, err := r.router.Route(ctx, rec)
		if err != nil {
			var callErr *routing.CallError
			if errors.As(err, &callErr) {
				summary.Skipped++
				log.Warn("routing call failed, skipping prompt",
					zap.Int("prompt_id", callErr.PromptID),
					zap.NamedError("cause", callErr.Cause),
				)
				continue
			}
			return nil, err
		}

		if err := r.sink.Append(ctx, model.ResultRecord{
			PromptID:  rec.ID,
			Profile:   profile,
			Model:     routed.Model,
			Response:  routed.Text,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			return nil, err
		}

		summary.Succeeded++
		count++
		log.Info("recorded output",
			zap.Int("prompt_id", rec.ID),
			zap.String("model", routed.Model),
			zap.Int("count", count),
		)
	}

	if count >= r.opts.Target {
		summary.Status = model.RunStatusCompleted
	} else {
		summary.Status = model.RunStatusAborted
	}
	summary.Duration = time.Since(start)

	log.Info("batch finished",
		zap.String("status", string(summary.Status)),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("resumed", summary.Resumed),
		zap.Int("count", count),
		zap.Duration("duration", summary.Duration),
	)

	return summary, nil
}
