package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routerlab/routerbench/internal/model"
)

// newRowsServer serves a fake datasets-server /rows endpoint with the
// given prompts, counting requests.
func newRowsServer(t *testing.T, prompts []string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/rows", r.URL.Path)

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		length, _ := strconv.Atoi(r.URL.Query().Get("length"))

		type rowWrapper struct {
			RowIdx int            `json:"row_idx"`
			Row    map[string]any `json:"row"`
		}
		var rows []rowWrapper
		for i := offset; i < offset+length && i < len(prompts); i++ {
			rows = append(rows, rowWrapper{RowIdx: i, Row: map[string]any{"prompt": prompts[i]}})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rows":           rows,
			"num_rows_total": len(prompts),
		})
	}))
}

func testPrompts(n int) []string {
	prompts := make([]string, n)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("prompt number %d", i)
	}
	return prompts
}

func newTestSource(t *testing.T, baseURL string) *HFSource {
	t.Helper()
	return New(Options{
		Dataset:   "test/prompts",
		CachePath: filepath.Join(t.TempDir(), "prompts_cache.jsonl"),
		PageSize:  10,
		BaseURL:   baseURL,
		RPS:       1000,
	})
}

func TestLoadFetchesAndCaches(t *testing.T) {
	var calls atomic.Int64
	srv := newRowsServer(t, testPrompts(25), &calls)
	defer srv.Close()

	src := newTestSource(t, srv.URL)

	records, err := src.Load(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 25)
	assert.Equal(t, 0, records[0].ID)
	assert.Equal(t, "prompt number 0", records[0].Text)
	assert.Equal(t, 24, records[24].ID)
	// 25 prompts at page size 10 is three pages.
	assert.Equal(t, int64(3), calls.Load())

	_, err = os.Stat(src.opts.CachePath)
	require.NoError(t, err)
}

func TestLoadCacheHitSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	srv := newRowsServer(t, testPrompts(12), &calls)
	defer srv.Close()

	src := newTestSource(t, srv.URL)

	first, err := src.Load(context.Background(), 0)
	require.NoError(t, err)
	fetched := calls.Load()

	second, err := src.Load(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, fetched, calls.Load(), "cache hit must not touch the network")
}

func TestLoadLimit(t *testing.T) {
	var calls atomic.Int64
	srv := newRowsServer(t, testPrompts(30), &calls)
	defer srv.Close()

	src := newTestSource(t, srv.URL)

	records, err := src.Load(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, ids(records))
}

func TestLoadCorruptCacheRebuilds(t *testing.T) {
	var calls atomic.Int64
	srv := newRowsServer(t, testPrompts(8), &calls)
	defer srv.Close()

	src := newTestSource(t, srv.URL)
	require.NoError(t, os.WriteFile(src.opts.CachePath, []byte("{\"prompt\":\"ok\"}\nnot json at all\n"), 0o644))

	records, err := src.Load(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Positive(t, calls.Load(), "corrupt cache must trigger a refetch")

	// The rebuilt cache now serves alone.
	calls.Store(0)
	again, err := src.Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, records, again)
	assert.Zero(t, calls.Load())
}

func TestLoadUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	srv.Close() // no cache, no network

	src := newTestSource(t, srv.URL)

	_, err := src.Load(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestLoadEmptyDataset(t *testing.T) {
	var calls atomic.Int64
	srv := newRowsServer(t, nil, &calls)
	defer srv.Close()

	src := newTestSource(t, srv.URL)

	_, err := src.Load(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func ids(records []model.PromptRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
