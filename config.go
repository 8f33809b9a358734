package vecmem

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds file-based settings for a Store and for FindClosest.
//
// Example vecmem.toml:
//
//	[log]
//	level = "debug"
//	format = "json"
//
//	[collection]
//	strict_dimensions = true
//	dimension = 384
//	indexed_fields = ["category"]
//
//	[find]
//	min_score = 0.6
//	embed_concurrency = 4
//	embed_rate = 10.0
//	embed_burst = 2
type Config struct {
	Log        LogConfig        `toml:"log"`
	Collection CollectionConfig `toml:"collection"`
	Find       FindConfig       `toml:"find"`
}

// LogConfig selects the logger. An empty level disables logging.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// CollectionConfig holds defaults applied to every collection of a Store.
// A collection indexes only the indexed_fields its record type has.
type CollectionConfig struct {
	StrictDimensions bool     `toml:"strict_dimensions"`
	Dimension        int      `toml:"dimension"`
	IndexedFields    []string `toml:"indexed_fields"`
}

// FindConfig holds defaults for FindClosest and FindClosestFunc.
type FindConfig struct {
	MinScore         *float32 `toml:"min_score"`
	EmbedConcurrency int      `toml:"embed_concurrency"`
	EmbedRate        float64  `toml:"embed_rate"`
	EmbedBurst       int      `toml:"embed_burst"`
}

// Validate checks log configuration
func (c *LogConfig) Validate() error {
	if c.Level != "" {
		if _, err := parseLevel(c.Level); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid format: %s, must be text or json", c.Format)
	}
	return nil
}

// Validate checks collection configuration
func (c *CollectionConfig) Validate() error {
	if c.Dimension < 0 {
		return fmt.Errorf("dimension must be >= 0")
	}
	for _, f := range c.IndexedFields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("indexed field names must not be blank")
		}
	}
	return nil
}

// Validate checks find configuration
func (c *FindConfig) Validate() error {
	if c.MinScore != nil && (*c.MinScore < -1 || *c.MinScore > 1) {
		return fmt.Errorf("min_score must be between -1 and 1")
	}
	if c.EmbedConcurrency < 0 {
		return fmt.Errorf("embed_concurrency must be >= 0")
	}
	if c.EmbedRate < 0 {
		return fmt.Errorf("embed_rate must be >= 0")
	}
	if c.EmbedBurst < 0 {
		return fmt.Errorf("embed_burst must be >= 0")
	}
	return nil
}

// Validate checks all configuration fields
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if err := c.Collection.Validate(); err != nil {
		return fmt.Errorf("collection: %w", err)
	}

	if err := c.Find.Validate(); err != nil {
		return fmt.Errorf("find: %w", err)
	}

	return nil
}

// Options converts the configuration to Store options.
func (c *Config) Options() []Option {
	var opts []Option

	if c.Log.Level != "" {
		level, _ := parseLevel(c.Log.Level)
		if strings.EqualFold(c.Log.Format, "json") {
			opts = append(opts, WithLogger(NewJSONLogger(level)))
		} else {
			opts = append(opts, WithLogger(NewTextLogger(level)))
		}
	}

	var defaults []CollectionOption
	switch {
	case c.Collection.Dimension > 0:
		defaults = append(defaults, WithDimension(c.Collection.Dimension))
	case c.Collection.StrictDimensions:
		defaults = append(defaults, WithStrictDimensions())
	}
	if len(c.Collection.IndexedFields) > 0 {
		defaults = append(defaults, WithIndexedFields(c.Collection.IndexedFields...))
	}
	if len(defaults) > 0 {
		opts = append(opts, WithCollectionDefaults(defaults...))
	}

	return opts
}

// FindOptions converts the configuration to FindClosest options.
func (c *Config) FindOptions() []FindOption {
	var opts []FindOption

	if c.Find.MinScore != nil {
		opts = append(opts, WithMinScore(*c.Find.MinScore))
	}
	if c.Find.EmbedConcurrency > 0 {
		opts = append(opts, WithEmbedConcurrency(c.Find.EmbedConcurrency))
	}
	if c.Find.EmbedRate > 0 {
		opts = append(opts, WithEmbedRateLimit(c.Find.EmbedRate, c.Find.EmbedBurst))
	}

	return opts
}

// ParseConfig decodes and validates a TOML configuration.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads and parses the configuration file
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid level: %s", s)
	}
	return level, nil
}
