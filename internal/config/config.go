// =============================================================================
// IFRS Report - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults (applyDefaults)
//   2. The YAML configuration file (config.yaml by default, optional)
//   3. Environment variables prefixed with IFRS_ (e.g. IFRS_SERVER_ADDRESS)
//   4. Command-line flags, applied by the cmd package
//
// The report constants (target line items, threshold, sheet name) are NOT
// part of this configuration. They live in converter.Settings.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultConfigFile    = "config.yaml"
	DefaultEncoding      = "utf-8"
	DefaultOutputDir     = "."
	DefaultOutputFile    = "empresas_grandes_ifrs.xlsx"
	DefaultPreview       = PreviewTable
	DefaultStyle         = "auto"
	DefaultAddress       = ":8080"
	DefaultMaxUploadSize = "32MiB"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "IFRS"
)

// Malformed row policies.
const (
	MalformedReject = "reject"
	MalformedSkip   = "skip"
)

// Preview formats for the report command.
const (
	PreviewTable    = "table"
	PreviewMarkdown = "markdown"
	PreviewJSON     = "json"
	PreviewYAML     = "yaml"
	PreviewNone     = "none"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	Input   InputSettings  `mapstructure:"input" yaml:"input"`
	Output  OutputSettings `mapstructure:"output" yaml:"output"`
	Server  ServerSettings `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// InputSettings contains settings for reading the IFRS extract.
type InputSettings struct {
	// Encoding is the single fixed text encoding of the uploaded file.
	// Any WHATWG label is accepted ("utf-8", "windows-1252", "latin1", ...).
	// Default: "utf-8"
	Encoding string `mapstructure:"encoding" yaml:"encoding"`

	// MalformedRows decides what happens to a line that does not have exactly
	// nine fields.
	//   - "reject": the whole file is rejected (default)
	//   - "skip"  : the line is dropped and reported in the run statistics
	MalformedRows string `mapstructure:"malformed_rows" yaml:"malformed_rows"`
}

// OutputSettings controls what the report command produces.
type OutputSettings struct {
	// Dir is the directory where the workbook is written.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// FileName is the workbook file name. Supports the {date}, {timestamp}
	// and {uuid} placeholders.
	FileName string `mapstructure:"file_name" yaml:"file_name"`

	// Preview is the console preview format: table, markdown, json, yaml, none.
	Preview string `mapstructure:"preview" yaml:"preview"`

	// Style is the glamour style used by the table preview
	// ("auto", "dark", "light", "notty", ...).
	Style string `mapstructure:"style" yaml:"style"`
}

// ServerSettings holds runtime parameters for the HTTP server.
type ServerSettings struct {
	Address string `mapstructure:"address" yaml:"address"`

	// MaxUploadSize is a human readable byte size. Binary units ("32MiB")
	// and decimal units ("500KB" = 500000 bytes) are both accepted.
	MaxUploadSize string `mapstructure:"max_upload_size" yaml:"max_upload_size"`

	uploadSizeBytes int64
}

// LoggingConfig holds logging configuration options.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"`           // console, json
	OutputFile string `mapstructure:"output_file" yaml:"output_file"` // optional file output
}

// UploadSizeBytes returns the configured upload size in bytes.
func (s *ServerSettings) UploadSizeBytes() int64 {
	return s.uploadSizeBytes
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	// The default size always parses.
	_ = cfg.normalize()
	return cfg
}

// Load loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is not
//     an error; defaults and environment overrides still apply.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read or parsed.
func Load(configPath string) (*Config, error) {
	return LoadWithViper(viper.New(), configPath)
}

// LoadWithViper loads the configuration using the given viper instance.
// The cmd package uses this to bind command-line flags before loading.
func LoadWithViper(v *viper.Viper, configPath string) (*Config, error) {
	setViperDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			if !isNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// YAML returns the configuration serialized as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// setViperDefaults registers every key so that environment overrides are
// picked up by Unmarshal even when no config file sets them.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("input.encoding", DefaultEncoding)
	v.SetDefault("input.malformed_rows", MalformedReject)
	v.SetDefault("output.dir", DefaultOutputDir)
	v.SetDefault("output.file_name", DefaultOutputFile)
	v.SetDefault("output.preview", DefaultPreview)
	v.SetDefault("output.style", DefaultStyle)
	v.SetDefault("server.address", DefaultAddress)
	v.SetDefault("server.max_upload_size", DefaultMaxUploadSize)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("logging.output_file", "")
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.Input.Encoding == "" {
		cfg.Input.Encoding = DefaultEncoding
	}
	if cfg.Input.MalformedRows == "" {
		cfg.Input.MalformedRows = MalformedReject
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	if cfg.Output.FileName == "" {
		cfg.Output.FileName = DefaultOutputFile
	}
	if cfg.Output.Preview == "" {
		cfg.Output.Preview = DefaultPreview
	}
	if cfg.Output.Style == "" {
		cfg.Output.Style = DefaultStyle
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.MaxUploadSize == "" {
		cfg.Server.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// normalize lower-cases enumerated settings and parses the upload size.
func (c *Config) normalize() error {
	c.Input.Encoding = strings.ToLower(strings.TrimSpace(c.Input.Encoding))
	c.Input.MalformedRows = strings.ToLower(strings.TrimSpace(c.Input.MalformedRows))
	c.Output.Preview = strings.ToLower(strings.TrimSpace(c.Output.Preview))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	size, err := bytes.Parse(strings.TrimSpace(c.Server.MaxUploadSize))
	if err != nil {
		return fmt.Errorf("invalid server.max_upload_size %q: %w", c.Server.MaxUploadSize, err)
	}
	if size <= 0 {
		return fmt.Errorf("server.max_upload_size must be positive, got %q", c.Server.MaxUploadSize)
	}
	c.Server.uploadSizeBytes = size
	return nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}
