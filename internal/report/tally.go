// Package report aggregates result records into per-model tallies, the
// post-hoc step that answers which underlying model served each prompt
// under each routing profile.
package report

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/routerlab/routerbench/internal/model"
	"github.com/routerlab/routerbench/internal/sink"
)

// Tally counts records per underlying model for each profile. Profiles
// are read concurrently; the sink itself is only read, never written.
// An empty profiles list means every profile present in the sink.
func Tally(ctx context.Context, sk sink.Sink, profiles []string) ([]model.ProfileTally, error) {
	if len(profiles) == 0 {
		var err error
		profiles, err = sk.Profiles(ctx)
		if err != nil {
			return nil, err
		}
	}

	tallies := make([]model.ProfileTally, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	for i, profile := range profiles {
		g.Go(func() error {
			records, err := sk.Records(gctx, profile)
			if err != nil {
				return err
			}
			t := model.ProfileTally{Profile: profile, Models: make(model.ModelTally)}
			for _, rec := range records {
				t.Models[rec.Model]++
				t.Total++
			}
			tallies[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tallies, nil
}

// ModelCount pairs a model identifier with its share of a tally.
type ModelCount struct {
	Model string `json:"model"`
	Count int    `json:"count"`
}

// SortedModels returns a tally's models ordered by descending count,
// ties broken by name for stable output.
func SortedModels(t model.ModelTally) []ModelCount {
	counts := make([]ModelCount, 0, len(t))
	for m, n := range t {
		counts = append(counts, ModelCount{Model: m, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Model < counts[j].Model
	})
	return counts
}

// DisplayName renders a profile name as a heading, underscores to
// spaces and title-cased. A fresh Caser per call; they are not safe
// for concurrent use.
func DisplayName(profile string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(profile, "_", " "))
}
