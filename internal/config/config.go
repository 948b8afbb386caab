// Package config loads pgquery configuration from defaults, an optional
// pgquery.yaml, .env files and PGQUERY_ environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const maxWalkDepth = 25

// AppFs is the filesystem used to probe for .env files.
var AppFs = afero.NewOsFs()

// Config represents the pgquery configuration from pgquery.yaml.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Compile  CompileConfig  `mapstructure:"compile"`
	DDL      DDLConfig      `mapstructure:"ddl"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CompileConfig holds compiler options.
type CompileConfig struct {
	Prefix            string `mapstructure:"prefix"`
	NativeIfNotExists bool   `mapstructure:"native_if_not_exists"`
}

// DDLConfig holds migration settings.
type DDLConfig struct {
	Dir     string `mapstructure:"dir"`
	Workers int    `mapstructure:"workers"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// env > config file > defaults. .env and .env.local in the working
// directory are loaded into the environment first.
//
// Returns the loaded config and the path to the config file (empty if none
// found).
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("getting cwd: %w", err)
	}
	return load(explicitConfigPath, cwd)
}

func load(explicitConfigPath, dir string) (*Config, string, error) {
	if err := loadDotEnv(dir); err != nil {
		return nil, "", err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PGQUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath, dir)
	if err != nil {
		return nil, "", err
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("compile.prefix", "")
	v.SetDefault("compile.native_if_not_exists", false)

	v.SetDefault("ddl.dir", "migrations")
	v.SetDefault("ddl.workers", 4)
}

// loadDotEnv loads .env then .env.local from dir. Variables already set in
// the process environment win over .env; .env.local overrides both.
func loadDotEnv(dir string) error {
	env := filepath.Join(dir, ".env")
	if _, err := AppFs.Stat(env); err == nil {
		if err := godotenv.Load(env); err != nil {
			return fmt.Errorf("loading %s: %w", env, err)
		}
	}
	local := filepath.Join(dir, ".env.local")
	if _, err := AppFs.Stat(local); err == nil {
		if err := godotenv.Overload(local); err != nil {
			return fmt.Errorf("loading %s: %w", local, err)
		}
	}
	return nil
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from dir looking for pgquery.yaml or pgquery.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath, dir string) (string, error) {
	if explicitPath != "" {
		if _, err := AppFs.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"pgquery.yaml", "pgquery.yml"} {
			path := filepath.Join(dir, name)
			if _, err := AppFs.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := AppFs.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database
	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// NewLogger builds the slog logger described by c.Log, writing to w.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.Log.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
}
