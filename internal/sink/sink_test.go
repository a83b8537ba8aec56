package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routerlab/routerbench/internal/config"
	"github.com/routerlab/routerbench/internal/model"
)

func newTestJSONL(t *testing.T) Sink {
	t.Helper()
	s := NewJSONL(t.TempDir())
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestSQLite(t *testing.T) Sink {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func record(profile string, id int, mdl string) model.ResultRecord {
	return model.ResultRecord{
		PromptID:  id,
		Profile:   profile,
		Model:     mdl,
		Response:  "response text",
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
}

// sinkTestSuite verifies behavior every driver must share.
func sinkTestSuite(t *testing.T, newSink func(t *testing.T) Sink) {
	t.Run("AppendHasCount", func(t *testing.T) {
		s := newSink(t)
		ctx := context.Background()

		ok, err := s.Has(ctx, "Balanced", 0)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Append(ctx, record("Balanced", 0, "gpt-4.1-nano")))
		require.NoError(t, s.Append(ctx, record("Balanced", 1, "gpt-4.1-mini")))

		ok, err = s.Has(ctx, "Balanced", 0)
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := s.Count(ctx, "Balanced")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("ProfilesIsolated", func(t *testing.T) {
		s := newSink(t)
		ctx := context.Background()

		require.NoError(t, s.Append(ctx, record("Balanced", 0, "gpt-4.1-nano")))
		require.NoError(t, s.Append(ctx, record("Cost", 0, "gpt-4.1-nano")))
		require.NoError(t, s.Append(ctx, record("Cost", 1, "gpt-4.1-nano")))

		n, err := s.Count(ctx, "Balanced")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		ok, err := s.Has(ctx, "Balanced", 1)
		require.NoError(t, err)
		assert.False(t, ok, "records must not leak across profiles")

		profiles, err := s.Profiles(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Balanced", "Cost"}, profiles)
	})

	t.Run("RecordsInOrder", func(t *testing.T) {
		s := newSink(t)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			require.NoError(t, s.Append(ctx, record("Quality", i, "gpt-5")))
		}

		records, err := s.Records(ctx, "Quality")
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i, rec := range records {
			assert.Equal(t, i, rec.PromptID)
			assert.Equal(t, "Quality", rec.Profile)
			assert.Equal(t, "gpt-5", rec.Model)
		}
	})

	t.Run("EmptyProfile", func(t *testing.T) {
		s := newSink(t)
		ctx := context.Background()

		n, err := s.Count(ctx, "Nothing")
		require.NoError(t, err)
		assert.Zero(t, n)

		records, err := s.Records(ctx, "Nothing")
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestJSONLSink(t *testing.T)  { sinkTestSuite(t, newTestJSONL) }
func TestSQLiteSink(t *testing.T) { sinkTestSuite(t, newTestSQLite) }

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.SinkConfig{Driver: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpenDefaultsToJSONL(t *testing.T) {
	s, err := Open(context.Background(), config.SinkConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*JSONLSink)
	assert.True(t, ok)
}
