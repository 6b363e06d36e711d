package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "SHEETDROP"

	DefaultEndpoint   = "http://localhost:5000/upload"
	DefaultFieldName  = "files"
	DefaultOutputName = "output.xlsx"
	DefaultOutputDir  = "."
	DefaultLogFile    = "sheetdrop.log"
	DefaultLogLevel   = "info"
)

// Config holds everything the front-end needs to reach the conversion
// endpoint and save its results.
type Config struct {
	Endpoint   string `mapstructure:"endpoint"`
	FieldName  string `mapstructure:"field"`
	OutputName string `mapstructure:"output_name"`
	OutputDir  string `mapstructure:"output_dir"`
	LogFile    string `mapstructure:"log_file"`
	LogLevel   string `mapstructure:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint:   DefaultEndpoint,
		FieldName:  DefaultFieldName,
		OutputName: DefaultOutputName,
		OutputDir:  DefaultOutputDir,
		LogFile:    DefaultLogFile,
		LogLevel:   DefaultLogLevel,
	}
}

// BindFlags registers the config flags on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	d := DefaultConfig()

	fs.String("endpoint", d.Endpoint, "conversion endpoint URL")
	fs.String("output-dir", d.OutputDir, "directory the spreadsheet is saved into")
	fs.String("log-file", d.LogFile, "diagnostics log file (empty disables logging)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")

	for key, flag := range map[string]string{
		"endpoint":   "endpoint",
		"output_dir": "output-dir",
		"log_file":   "log-file",
		"log_level":  "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads an optional .env file, the config file (explicit path or
// sheetdrop.yaml in the working directory or ~/.config/sheetdrop) and
// SHEETDROP_* environment variables, in increasing precedence.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	d := DefaultConfig()
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("field", d.FieldName)
	v.SetDefault("output_name", d.OutputName)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("sheetdrop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "sheetdrop"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http(s) URL, got %q", c.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host: %q", c.Endpoint)
	}

	if c.FieldName == "" {
		return errors.New("field name cannot be empty")
	}
	if c.OutputName == "" || filepath.Base(c.OutputName) != c.OutputName {
		return fmt.Errorf("output name must be a plain file name, got %q", c.OutputName)
	}
	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}
