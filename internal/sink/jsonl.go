package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/routerlab/routerbench/internal/model"
)

// JSONLSink writes one NDJSON file per profile, results_<Profile>.jsonl,
// matching the layout downstream tooling already reads. Each append is
// flushed and synced before returning so a crash loses at most the
// in-flight record.
type JSONLSink struct {
	dir string

	mu       sync.Mutex
	files    map[string]*os.File
	seen     map[string]map[int]struct{}
	inserted map[string][]model.ResultRecord
}

// NewJSONL creates a JSONL sink rooted at dir.
func NewJSONL(dir string) *JSONLSink {
	if dir == "" {
		dir = "."
	}
	return &JSONLSink{
		dir:      dir,
		files:    make(map[string]*os.File),
		seen:     make(map[string]map[int]struct{}),
		inserted: make(map[string][]model.ResultRecord),
	}
}

// Migrate ensures the results directory exists.
func (s *JSONLSink) Migrate(ctx context.Context) error {
	return eris.Wrap(os.MkdirAll(s.dir, 0o755), "jsonl: mkdir")
}

func (s *JSONLSink) path(profile string) string {
	return filepath.Join(s.dir, "results_"+profile+".jsonl")
}

// load reads the profile's file once and builds the id index used by
// Has and Count. Later appends update the index in memory.
func (s *JSONLSink) load(profile string) (map[int]struct{}, error) {
	if idx, ok := s.seen[profile]; ok {
		return idx, nil
	}

	idx := make(map[int]struct{})
	f, err := os.Open(s.path(profile))
	if err != nil {
		if os.IsNotExist(err) {
			s.seen[profile] = idx
			return idx, nil
		}
		return nil, eris.Wrapf(err, "jsonl: open %s", s.path(profile))
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec model.ResultRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, eris.Wrapf(err, "jsonl: corrupt record in %s", s.path(profile))
		}
		idx[rec.PromptID] = struct{}{}
		s.inserted[profile] = append(s.inserted[profile], rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "jsonl: scan results")
	}

	s.seen[profile] = idx
	return idx, nil
}

func (s *JSONLSink) Has(ctx context.Context, profile string, promptID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.load(profile)
	if err != nil {
		return false, err
	}
	_, ok := idx[promptID]
	return ok, nil
}

func (s *JSONLSink) Append(ctx context.Context, rec model.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.load(rec.Profile)
	if err != nil {
		return err
	}

	f, ok := s.files[rec.Profile]
	if !ok {
		f, err = os.OpenFile(s.path(rec.Profile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return eris.Wrapf(err, "jsonl: open for append %s", s.path(rec.Profile))
		}
		s.files[rec.Profile] = f
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "jsonl: marshal record")
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return eris.Wrapf(err, "jsonl: append record %d", rec.PromptID)
	}
	if err := f.Sync(); err != nil {
		return eris.Wrap(err, "jsonl: sync")
	}

	idx[rec.PromptID] = struct{}{}
	s.inserted[rec.Profile] = append(s.inserted[rec.Profile], rec)
	return nil
}

func (s *JSONLSink) Count(ctx context.Context, profile string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.load(profile)
	if err != nil {
		return 0, err
	}
	return len(idx), nil
}

func (s *JSONLSink) Records(ctx context.Context, profile string) ([]model.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(profile); err != nil {
		return nil, err
	}
	out := make([]model.ResultRecord, len(s.inserted[profile]))
	copy(out, s.inserted[profile])
	return out, nil
}

func (s *JSONLSink) Profiles(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "jsonl: read dir %s", s.dir)
	}

	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "results_") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "results_"), ".jsonl"))
	}
	sort.Strings(profiles)
	return profiles, nil
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = eris.Wrap(err, "jsonl: close")
		}
	}
	s.files = make(map[string]*os.File)
	return firstErr
}
