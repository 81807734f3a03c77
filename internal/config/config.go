// Package config loads ksema settings from a config file and KSEMA_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Config is the merged ksema configuration.
type Config struct {
	LogLevel       string   `json:"log_level" mapstructure:"log_level"`
	Database       string   `json:"database" mapstructure:"database"`
	StdlibIndex    string   `json:"stdlib_index" mapstructure:"stdlib_index"`
	ClasspathIndex []string `json:"classpath_index" mapstructure:"classpath_index"`
	RulesDir       string   `json:"rules_dir" mapstructure:"rules_dir"`
	Parallel       bool     `json:"parallel" mapstructure:"parallel"`
	// Exclude lists directory names skipped when walking a source tree.
	Exclude []string `json:"exclude" mapstructure:"exclude"`
	Format  string   `json:"format" mapstructure:"format"`

	// File is the config file that was read, empty when none was found.
	File string `json:"-" mapstructure:"-"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

var validLevels = []string{"debug", "info", "warn", "error"}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Database: ":memory:",
		Parallel: true,
		Exclude:  []string{"build", "out", "vendor", "node_modules"},
		Format:   FormatText,
	}
}

// Load reads path when non-empty, otherwise looks for ksema.yaml or
// .ksema.yaml (any extension viper understands) in the working directory.
// A missing file is not an error; a named file that cannot be read is.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ksema")
	}

	file, err := read(v)
	if err != nil {
		return nil, err
	}
	if file == "" && path == "" {
		v.SetConfigName(".ksema")
		if file, err = read(v); err != nil {
			return nil, err
		}
	}

	// Defaults live in viper; decoding over a pre-filled struct would merge
	// slices element-wise.
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = file
	cfg.ClasspathIndex = splitList(cfg.ClasspathIndex)
	cfg.Exclude = splitList(cfg.Exclude)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("database", def.Database)
	v.SetDefault("stdlib_index", def.StdlibIndex)
	v.SetDefault("classpath_index", def.ClasspathIndex)
	v.SetDefault("rules_dir", def.RulesDir)
	v.SetDefault("parallel", def.Parallel)
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("format", def.Format)

	v.SetEnvPrefix("ksema")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// read loads the configured file and returns its path, or "" when no file
// matched the search.
func read(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("config: read: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// splitList expands comma-separated entries, which is how list values
// arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate rejects unknown log levels and output formats.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("config: invalid log_level %q (want one of %s)", c.LogLevel, strings.Join(validLevels, ", "))
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("config: invalid format %q (want json or text)", c.Format)
	}
	return nil
}

// IsExcluded reports whether a directory with the given base name is skipped.
func (c *Config) IsExcluded(name string) bool {
	return slices.Contains(c.Exclude, name)
}
