package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routerlab/routerbench/internal/model"
)

func TestJSONL_FileLayout(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONL(dir)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.Append(ctx, record("Balanced", 0, "gpt-4.1-nano")))

	path := filepath.Join(dir, "results_Balanced.jsonl")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec model.ResultRecord
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec))
	assert.Equal(t, 0, rec.PromptID)
	assert.Equal(t, "Balanced", rec.Profile)
	assert.Equal(t, "gpt-4.1-nano", rec.Model)

	// NDJSON field names downstream tooling depends on.
	assert.Contains(t, string(data), `"promptId"`)
	assert.Contains(t, string(data), `"profile"`)
	assert.Contains(t, string(data), `"model"`)
	assert.Contains(t, string(data), `"response"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestJSONL_ReopenSeesExistingRecords(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := NewJSONL(dir)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Append(ctx, record("Cost", 3, "gpt-4.1-nano")))
	require.NoError(t, s.Append(ctx, record("Cost", 9, "gpt-4.1-mini")))
	require.NoError(t, s.Close())

	// A fresh sink over the same directory resumes from the file.
	s2 := NewJSONL(dir)
	defer s2.Close()

	ok, err := s2.Has(ctx, "Cost", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s2.Has(ctx, "Cost", 4)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s2.Count(ctx, "Cost")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := s2.Records(ctx, "Cost")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].PromptID)
	assert.Equal(t, 9, records[1].PromptID)
}

func TestJSONL_AppendAfterReopenExtendsFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := NewJSONL(dir)
	require.NoError(t, s.Append(ctx, record("Balanced", 0, "m")))
	require.NoError(t, s.Close())

	s2 := NewJSONL(dir)
	defer s2.Close()
	require.NoError(t, s2.Append(ctx, record("Balanced", 1, "m")))

	data, err := os.ReadFile(filepath.Join(dir, "results_Balanced.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}

func TestJSONL_CorruptRecordSurfaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results_Balanced.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o644))

	s := NewJSONL(dir)
	defer s.Close()

	_, err := s.Count(context.Background(), "Balanced")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt record")
}

func TestJSONL_ProfilesIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results_Balanced.jsonl"), nil, 0o644))

	s := NewJSONL(dir)
	defer s.Close()

	profiles, err := s.Profiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Balanced"}, profiles)
}
