package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mcncl/jsonedit/internal/errors"
	"gopkg.in/yaml.v3"
)

// Defaults used by NewConfig.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultDBPath      = "jsonedit.db"
	DefaultStorageKey  = "json-editor-content"
	DefaultName        = "default"
	DefaultIndent      = 2
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultMaxImportMB = 10
)

// Config represents the complete configuration for jsonedit
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Editor  EditorConfig  `yaml:"editor"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig controls the HTTP server
type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required,hostname_port"`
	MaxImportMB int    `yaml:"max_import_mb" validate:"gte=1,lte=512"`
}

// StorageConfig controls where the raw text is persisted
type StorageConfig struct {
	// Path is the SQLite database file, or ":memory:".
	Path string `yaml:"path" validate:"required"`
	Key  string `yaml:"key" validate:"required"`
}

// EditorConfig controls the documents served
type EditorConfig struct {
	Indent int `yaml:"indent" validate:"gte=0,lte=8"`
	// DefaultDocument is the text of a document that was never stored. Empty
	// uses the built-in sample.
	DefaultDocument string `yaml:"default_document"`
	DefaultName     string `yaml:"default_name" validate:"required,max=64"`
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        DefaultAddr,
			MaxImportMB: DefaultMaxImportMB,
		},
		Storage: StorageConfig{
			Path: DefaultDBPath,
			Key:  DefaultStorageKey,
		},
		Editor: EditorConfig{
			Indent:      DefaultIndent,
			DefaultName: DefaultName,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

var validate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewConfigError("invalid configuration", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, e := range verrs {
		problems = append(problems, fmt.Sprintf("%s fails %q (got %v)", yamlPath(e.Namespace()), e.Tag(), e.Value()))
	}
	return errors.NewConfigError(strings.Join(problems, "; "), errors.ErrInvalidValue)
}

// yamlPath turns "Config.log.level" into "log.level".
func yamlPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonedit.yml", ".jsonedit.yaml", "jsonedit.yml", "jsonedit.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Overrides are values given on the command line. Empty strings and false
// leave the file or default value in place.
type Overrides struct {
	Addr    string
	DBPath  string
	Indent  *int
	Debug   bool
	LogJSON bool
}

// LoadConfigWithCLI loads the config file at configPath (if any) and applies
// overrides on top. Precedence is CLI, then file, then defaults.
func LoadConfigWithCLI(configPath string, overrides Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if overrides.Addr != "" {
		cfg.Server.Addr = overrides.Addr
	}
	if overrides.DBPath != "" {
		cfg.Storage.Path = overrides.DBPath
	}
	if overrides.Indent != nil {
		cfg.Editor.Indent = *overrides.Indent
	}
	if overrides.Debug {
		cfg.Log.Level = "debug"
	}
	if overrides.LogJSON {
		cfg.Log.Format = "json"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MaxImportBytes returns the upload limit in bytes.
func (c *Config) MaxImportBytes() int64 {
	return int64(c.Server.MaxImportMB) << 20
}
