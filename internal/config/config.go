// Package config loads archmap settings from archmap.{yml,yaml,toml,json}
// in a repository root, with ARCHMAP_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/archmap/internal/analysis"
	"github.com/dusk-indust/archmap/internal/cluster"
	"github.com/dusk-indust/archmap/internal/graph"
	"github.com/dusk-indust/archmap/internal/source"
)

// FileName is the config file base name; viper picks the extension.
const FileName = "archmap"

// Config is the complete archmap configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Walk     WalkConfig     `mapstructure:"walk" yaml:"walk"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	MCP      MCPConfig      `mapstructure:"mcp" yaml:"mcp"`
}

// AnalysisConfig holds the analysis parameters.
type AnalysisConfig struct {
	K             int                 `mapstructure:"k" yaml:"k"`
	HotSpots      graph.HotSpotPolicy `mapstructure:"hot_spots" yaml:"hot_spots"`
	MaxFileBytes  int64               `mapstructure:"max_file_bytes" yaml:"max_file_bytes"`
	MaxCycleDepth int                 `mapstructure:"max_cycle_depth" yaml:"max_cycle_depth"`
	MaxCycles     int                 `mapstructure:"max_cycles" yaml:"max_cycles"`
	TopK          int                 `mapstructure:"top_k" yaml:"top_k"`
	Method        string              `mapstructure:"method" yaml:"method"`
	Seed          uint64              `mapstructure:"seed" yaml:"seed"`
	MaxIterations int                 `mapstructure:"max_iterations" yaml:"max_iterations"`
	// Workers of 0 means one per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// WalkConfig selects which files of the repository are analyzed.
type WalkConfig struct {
	ExcludeDirs    []string `mapstructure:"exclude_dirs" yaml:"exclude_dirs"`
	IgnorePatterns []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns"`
	IncludeHidden  bool     `mapstructure:"include_hidden" yaml:"include_hidden"`
	IncludeUnknown bool     `mapstructure:"include_unknown" yaml:"include_unknown"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	// Dir is relative to the repository root.
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Compress bool   `mapstructure:"compress" yaml:"compress"`
	Persist  bool   `mapstructure:"persist" yaml:"persist"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	CacheSize int    `mapstructure:"cache_size" yaml:"cache_size"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	a := analysis.DefaultOptions()
	return &Config{
		Analysis: AnalysisConfig{
			K:             a.K,
			HotSpots:      a.HotSpots,
			MaxFileBytes:  a.MaxFileBytes,
			MaxCycleDepth: a.MaxCycleDepth,
			MaxCycles:     a.MaxCycles,
			TopK:          a.TopK,
			Method:        string(a.Clustering.Method),
			Seed:          a.Clustering.Seed,
			MaxIterations: a.Clustering.MaxIterations,
		},
		Walk: WalkConfig{
			ExcludeDirs:    []string{},
			IgnorePatterns: []string{},
		},
		Output: OutputConfig{
			Dir:     ".archmap",
			Persist: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		MCP: MCPConfig{
			Addr:      "localhost:8090",
			CacheSize: 16,
		},
	}
}

// setDefaults registers every default so environment overrides apply to
// keys absent from the file.
func setDefaults(v *viper.Viper) {
	d := Default()
	defaults := map[string]any{
		"analysis.k":                    d.Analysis.K,
		"analysis.hot_spots.mode":       string(d.Analysis.HotSpots.Mode),
		"analysis.hot_spots.percentile": d.Analysis.HotSpots.Percentile,
		"analysis.hot_spots.threshold":  d.Analysis.HotSpots.Threshold,
		"analysis.max_file_bytes":       d.Analysis.MaxFileBytes,
		"analysis.max_cycle_depth":      d.Analysis.MaxCycleDepth,
		"analysis.max_cycles":           d.Analysis.MaxCycles,
		"analysis.top_k":                d.Analysis.TopK,
		"analysis.method":               d.Analysis.Method,
		"analysis.seed":                 d.Analysis.Seed,
		"analysis.max_iterations":       d.Analysis.MaxIterations,
		"analysis.workers":              d.Analysis.Workers,
		"walk.exclude_dirs":             d.Walk.ExcludeDirs,
		"walk.ignore_patterns":          d.Walk.IgnorePatterns,
		"walk.include_hidden":           d.Walk.IncludeHidden,
		"walk.include_unknown":          d.Walk.IncludeUnknown,
		"output.dir":                    d.Output.Dir,
		"output.compress":               d.Output.Compress,
		"output.persist":                d.Output.Persist,
		"logging.level":                 d.Logging.Level,
		"logging.format":                d.Logging.Format,
		"logging.output":                d.Logging.Output,
		"mcp.addr":                      d.MCP.Addr,
		"mcp.cache_size":                d.MCP.CacheSize,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads the config file from dir, if any, applies ARCHMAP_*
// environment overrides (ARCHMAP_ANALYSIS_K, ...) and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.AddConfigPath(dir)
	v.SetEnvPrefix("ARCHMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the analysis parameters and the output settings.
func (c *Config) Validate() error {
	if err := c.AnalysisOptions().Validate(); err != nil {
		return fmt.Errorf("config: analysis: %w", err)
	}
	if c.MCP.CacheSize < 1 {
		return fmt.Errorf("config: mcp cache size must be positive, got %d", c.MCP.CacheSize)
	}
	if filepath.IsAbs(c.Output.Dir) || c.Output.Dir == "" {
		return fmt.Errorf("config: output dir must be relative to the repository, got %q", c.Output.Dir)
	}
	return nil
}

// AnalysisOptions converts the analysis section into pipeline options.
func (c *Config) AnalysisOptions() analysis.Options {
	a := c.Analysis
	workers := a.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return analysis.Options{
		K:             a.K,
		HotSpots:      a.HotSpots,
		MaxFileBytes:  a.MaxFileBytes,
		MaxCycleDepth: a.MaxCycleDepth,
		MaxCycles:     a.MaxCycles,
		TopK:          a.TopK,
		Clustering: cluster.Options{
			Method:        cluster.Method(a.Method),
			Seed:          a.Seed,
			MaxIterations: a.MaxIterations,
		},
		Workers: workers,
	}
}

// WalkOptions converts the walk section into source walk options.
func (c *Config) WalkOptions() source.WalkOptions {
	return source.WalkOptions{
		ExcludeDirs:    append(append([]string(nil), c.Walk.ExcludeDirs...), c.Output.Dir),
		IgnorePatterns: c.Walk.IgnorePatterns,
		IncludeHidden:  c.Walk.IncludeHidden,
		IncludeUnknown: c.Walk.IncludeUnknown,
	}
}

// WriteDefault writes the default configuration to dir/archmap.yml and
// returns its path. An existing file is left alone and reported as an error.
func WriteDefault(dir string) (string, error) {
	p := filepath.Join(dir, FileName+".yml")
	if _, err := os.Stat(p); err == nil {
		return "", fmt.Errorf("config file already exists: %s", p)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return p, nil
}
