package vecmem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerOutput(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := NewStore(WithLogger(logger))
	c, err := GetOrCreateCollection[int, doc](store, "docs")
	require.NoError(t, err)
	_, err = c.Upsert(ctx, doc{ID: 1, Vector: []float32{1, 0}})
	require.NoError(t, err)
	_, err = c.Search([]float32{1, 0}).Execute(ctx)
	require.NoError(t, err)
	store.DeleteCollection("docs")

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 4)

	assert.Equal(t, "collection created", entries[0]["msg"])
	assert.Equal(t, "upsert completed", entries[1]["msg"])
	assert.Equal(t, "docs", entries[1]["collection"])
	assert.Equal(t, float64(2), entries[1]["dimension"])
	assert.Equal(t, "search completed", entries[2]["msg"])
	assert.Equal(t, float64(1), entries[2]["results"])
	assert.Equal(t, "collection deleted", entries[3]["msg"])
}

func TestLoggerErrors(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.LogSearch(ctx, 5, 0, errors.New("boom"))
	logger.LogBatchUpsert(ctx, 10, 4, errors.New("cancelled"))
	logger.LogFindClosest(ctx, 3, 1, 1, nil)

	out := buf.String()
	assert.Contains(t, out, "search failed")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "applied=4")
	assert.Contains(t, out, "find closest completed")
}

func TestNoopLogger(t *testing.T) {
	logger := NoopLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
