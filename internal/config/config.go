// Package config loads project settings for generate_driver from
// .drivergen.yaml, DRIVERGEN_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/omnisketch/drivergen/internal/generator"
)

const (
	// FileName is the settings file looked up in the working directory.
	FileName = ".drivergen.yaml"
	// EnvPrefix prefixes environment overrides, e.g. DRIVERGEN_DRIVER_DIR.
	EnvPrefix = "DRIVERGEN"
)

// Config is the effective project settings.
type Config struct {
	Root          string `mapstructure:"root" yaml:"root"`
	TestDir       string `mapstructure:"test_dir" yaml:"test_dir"`
	SketchDir     string `mapstructure:"sketch_dir" yaml:"sketch_dir"`
	DriverDir     string `mapstructure:"driver_dir" yaml:"driver_dir"`
	IncludeDir    string `mapstructure:"include_dir" yaml:"include_dir"`
	ConfigPrefix  string `mapstructure:"config_prefix" yaml:"config_prefix"`
	Namespace     string `mapstructure:"namespace" yaml:"namespace"`
	CopyrightYear int    `mapstructure:"copyright_year" yaml:"copyright_year"`
	// Template is a custom driver template file or .zip pack. Empty selects
	// the built-in template.
	Template string `mapstructure:"template" yaml:"template,omitempty"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	l := generator.DefaultLayout()
	return &Config{
		Root:          l.Root,
		TestDir:       l.TestDir,
		SketchDir:     l.SketchDir,
		DriverDir:     l.DriverDir,
		IncludeDir:    "sketch_test",
		ConfigPrefix:  l.ConfigPrefix,
		Namespace:     "OmniSketch",
		CopyrightYear: 2022,
	}
}

// Layout is the directory contract described by c.
func (c *Config) Layout() generator.Layout {
	return generator.Layout{
		Root:         c.Root,
		TestDir:      c.TestDir,
		SketchDir:    c.SketchDir,
		DriverDir:    c.DriverDir,
		ConfigPrefix: c.ConfigPrefix,
	}
}

// Style is the render settings described by c.
func (c *Config) Style() generator.Style {
	return generator.Style{
		Namespace:     c.Namespace,
		CopyrightYear: c.CopyrightYear,
		IncludeDir:    c.IncludeDir,
	}
}

// Validate rejects settings that cannot describe a layout.
func (c *Config) Validate() error {
	var errs []error
	for key, v := range map[string]string{
		"test_dir":   c.TestDir,
		"sketch_dir": c.SketchDir,
		"driver_dir": c.DriverDir,
		"namespace":  c.Namespace,
	} {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", key))
		}
	}
	if c.CopyrightYear <= 0 {
		errs = append(errs, fmt.Errorf("copyright_year must be positive, got %d", c.CopyrightYear))
	}
	return errors.Join(errs...)
}

// Loader reads settings for one working directory.
type Loader struct {
	workDir string
	path    string
	viper   *viper.Viper
}

// NewLoader creates a loader for workDir. A non-empty path names the
// settings file explicitly; otherwise FileName in workDir is used if present.
func NewLoader(workDir, path string) *Loader {
	return &Loader{
		workDir: workDir,
		path:    path,
		viper:   viper.New(),
	}
}

// BindFlags makes flags override the settings file. Only flags that were
// set on the command line take effect.
func (l *Loader) BindFlags(flags *pflag.FlagSet, keys ...string) error {
	for _, key := range keys {
		f := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if f == nil {
			return fmt.Errorf("no flag for setting %q", key)
		}
		if err := l.viper.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// ConfigPath returns the settings file the loader reads.
func (l *Loader) ConfigPath() string {
	if l.path != "" {
		return l.path
	}
	return filepath.Join(l.workDir, FileName)
}

// Load merges defaults, the settings file (when present), environment and
// bound flags.
func (l *Loader) Load() (*Config, error) {
	defaults := DefaultConfig()
	l.viper.SetDefault("root", defaults.Root)
	l.viper.SetDefault("test_dir", defaults.TestDir)
	l.viper.SetDefault("sketch_dir", defaults.SketchDir)
	l.viper.SetDefault("driver_dir", defaults.DriverDir)
	l.viper.SetDefault("include_dir", defaults.IncludeDir)
	l.viper.SetDefault("config_prefix", defaults.ConfigPrefix)
	l.viper.SetDefault("namespace", defaults.Namespace)
	l.viper.SetDefault("copyright_year", defaults.CopyrightYear)
	l.viper.SetDefault("template", defaults.Template)

	l.viper.SetEnvPrefix(EnvPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()

	path := l.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		l.viper.SetConfigFile(path)
		l.viper.SetConfigType("yaml")
		if err := l.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if l.path != "" {
		return nil, &NotFoundError{Path: path}
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &cfg, nil
}

// Used reports the settings file that Load read, or "" when none was.
func (l *Loader) Used() string {
	return l.viper.ConfigFileUsed()
}

// NotFoundError is returned when an explicitly named settings file is missing.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("settings file not found: %s", e.Path)
}

// Marshal renders c as YAML.
func Marshal(c *Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// Write stores c at path. An existing file is only replaced when force is set.
func Write(path string, c *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	b, err := Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
