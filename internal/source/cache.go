package source

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/routerlab/routerbench/internal/model"
)

// readCache loads prompts from the NDJSON cache file. Any unreadable or
// malformed line invalidates the whole cache so it gets rebuilt from the
// network rather than silently shifting prompt ordinals.
func readCache(path string) ([]model.PromptRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open cache %s", path)
	}
	defer f.Close()

	var records []model.PromptRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, eris.Wrapf(err, "source: corrupt cache line %d", len(records))
		}
		records = append(records, model.PromptRecord{ID: len(records), Text: row.Prompt})
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "source: scan cache")
	}
	return records, nil
}

// writeCache persists prompts as NDJSON via a temp file and rename, so a
// crash mid-write never leaves a truncated cache behind.
func writeCache(path string, records []model.PromptRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "source: create cache dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".prompts_cache-*")
	if err != nil {
		return eris.Wrap(err, "source: create temp cache")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(struct {
			Prompt string `json:"prompt"`
		}{Prompt: rec.Text}); err != nil {
			tmp.Close()
			return eris.Wrap(err, "source: encode cache line")
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "source: flush cache")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "source: close temp cache")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "source: rename cache into place %s", path)
	}
	return nil
}
