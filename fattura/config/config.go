// Package config loads the tool configuration from an optional TOML
// file with environment-variable overrides.
package config

import (
	"os"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// InboxDir is watched for incoming *.xml transmission files.
	InboxDir string `toml:"inbox_dir"`
	// OutputDir receives the rendered PDF documents.
	OutputDir string `toml:"output_dir"`
	// DatabasePath locates the SQLite invoice database.
	DatabasePath string `toml:"database_path"`
	// QREnabled embeds the verification QR code in rendered documents.
	QREnabled bool `toml:"qr_enabled"`
	// LogLevel is a logrus level name.
	LogLevel string `toml:"log_level"`
}

func Default() Config {
	return Config{
		InboxDir:     "inbox",
		OutputDir:    "pdf",
		DatabasePath: "invoices.db",
		LogLevel:     "info",
	}
}

// Load reads the TOML file at path when it exists, then applies the
// FATTURA_* environment overrides. A missing file is not an error, a
// malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults + environment only
		case err != nil:
			return cfg, errors.Wrap(err, "read config file")
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrap(err, "parse config file")
			}
		}
	}

	overrideString("FATTURA_INBOX_DIR", &cfg.InboxDir)
	overrideString("FATTURA_OUTPUT_DIR", &cfg.OutputDir)
	overrideString("FATTURA_DATABASE_PATH", &cfg.DatabasePath)
	overrideBool("FATTURA_QR_ENABLED", &cfg.QREnabled)
	overrideString("FATTURA_LOG_LEVEL", &cfg.LogLevel)

	return cfg, nil
}

func overrideString(envName string, dst *string) {
	if v, ok := os.LookupEnv(envName); ok {
		*dst = v
	}
}

func overrideBool(envName string, dst *bool) {
	v, ok := os.LookupEnv(envName)
	if !ok {
		return
	}
	bv, err := strconv.ParseBool(v)
	if err == nil {
		*dst = bv
	}
}
