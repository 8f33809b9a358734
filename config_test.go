package vecmem

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecmem/metadata"
)

const sampleConfig = `
[log]
level = "debug"
format = "json"

[collection]
dimension = 2
indexed_fields = ["category"]

[find]
min_score = 0.6
embed_concurrency = 4
embed_rate = 100.0
embed_burst = 2
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Collection.Dimension)
	assert.Equal(t, []string{"category"}, cfg.Collection.IndexedFields)
	require.NotNil(t, cfg.Find.MinScore)
	assert.InDelta(t, 0.6, *cfg.Find.MinScore, 1e-6)
	assert.Equal(t, 4, cfg.Find.EmbedConcurrency)
	assert.Equal(t, 100.0, cfg.Find.EmbedRate)
	assert.Equal(t, 2, cfg.Find.EmbedBurst)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"BadLevel", "[log]\nlevel = \"loud\"", "log: invalid level"},
		{"BadFormat", "[log]\nformat = \"xml\"", "log: invalid format"},
		{"NegativeDimension", "[collection]\ndimension = -1", "collection: dimension"},
		{"BlankField", "[collection]\nindexed_fields = [\" \"]", "collection: indexed field"},
		{"MinScoreRange", "[find]\nmin_score = 1.5", "find: min_score"},
		{"NegativeRate", "[find]\nembed_rate = -1.0", "find: embed_rate"},
		{"Syntax", "[find\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("Empty", func(t *testing.T) {
		cfg, err := ParseConfig(nil)
		require.NoError(t, err)
		assert.Empty(t, cfg.Options())
		assert.Empty(t, cfg.FindOptions())
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecmem.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Collection.Dimension)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestConfigOptions(t *testing.T) {
	ctx := context.Background()
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	store := NewStore(cfg.Options()...)
	assert.True(t, store.opts.logger.Enabled(ctx, slog.LevelDebug))

	c, err := GetOrCreateCollection[int, doc](store, "docs")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Dimension())

	_, err = c.Upsert(ctx, doc{ID: 1, Vector: []float32{1}})
	require.ErrorAs(t, err, new(*ErrDimensionMismatch))

	_, err = c.UpsertMany(ctx, []doc{
		{ID: 1, Vector: []float32{1, 0}, Category: "tech"},
		{ID: 2, Vector: []float32{0, 1}, Category: "news"},
	})
	require.NoError(t, err)
	results, err := c.Search([]float32{1, 1}).Where(metadata.Eq("category", "news")).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Key)

	// Collections without the indexed field are still created.
	_, err = GetOrCreateCollection[string, stringKeyDoc](store, "plain")
	require.NoError(t, err)

	o := applyFindOptions(cfg.FindOptions())
	assert.True(t, o.hasMinScore)
	assert.Equal(t, 4, o.embedConcurrency)
	assert.Equal(t, 2, o.embedBurst)

	matches, err := FindClosest(ctx, []float32{1, 0},
		[]string{"a", "b", "c"}, [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}}, 10, cfg.FindOptions()...)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
