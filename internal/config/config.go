// Package config loads application settings and the external rule files
// (tag mappings, sensitive words) that drive classification and redaction.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Paths    PathsConfig
	Month    string // YYYYMM being processed
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// PathsConfig holds the on-disk layout for source files and rule files.
type PathsConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	ConfigDir  string `mapstructure:"config_dir"`
	PromptDir  string `mapstructure:"prompt_dir"`
	DropboxDir string `mapstructure:"dropbox_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env overrides use the
// MONEYCOUNT_ prefix (e.g. MONEYCOUNT_MONTH=202506).
func Load() (Config, error) {
	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "moneycount", "moneycount.db"))
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.config_dir", "config")
	v.SetDefault("paths.prompt_dir", "prompts")
	v.SetDefault("paths.dropbox_dir", filepath.Join(home, "moneycount-drop"))
	v.SetDefault("month", time.Now().Format("200601"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MONEYCOUNT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "moneycount"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MONEYCOUNT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := ValidateMonth(c.Month); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ValidateMonth checks a six-digit YYYYMM month key.
func ValidateMonth(month string) error {
	if len(month) != 6 {
		return fmt.Errorf("month %q: want YYYYMM", month)
	}
	if _, err := time.Parse("200601", month); err != nil {
		return fmt.Errorf("month %q: %w", month, err)
	}
	return nil
}
