package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Log      LogConfig
	Export   ExportConfig
	Watcher  WatcherConfig
	CORS     CORSConfig
}

// CORSConfig lists the origins the editor UI may be served from. Empty means
// any origin, the default for a local desktop shell.
type CORSConfig struct {
	AllowedOrigins []string
}

// DatabaseConfig controls how SQLite files are opened. Path is only the
// initial file; the db service replaces the datasource whenever the user
// opens another file.
type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
	Bootstrap   bool
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig configures catalogue exports.
type ExportConfig struct {
	OutputDir string
}

// WatcherConfig controls reloading when the open file changes on disk.
type WatcherConfig struct {
	Enabled  bool
	Debounce time.Duration
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Path:        v.GetString("DB_PATH"),
		BusyTimeout: parseDuration(v.GetString("DB_BUSY_TIMEOUT"), 5*time.Second),
		Bootstrap:   v.GetBool("DB_BOOTSTRAP_SCHEMA"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Export = ExportConfig{
		OutputDir: v.GetString("EXPORT_OUTPUT_DIR"),
	}

	cfg.Watcher = WatcherConfig{
		Enabled:  v.GetBool("ENABLE_FILE_WATCHER"),
		Debounce: parseDuration(v.GetString("FILE_WATCHER_DEBOUNCE"), 500*time.Millisecond),
	}

	if origins := v.GetString("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_PATH", "")
	v.SetDefault("DB_BUSY_TIMEOUT", "5s")
	v.SetDefault("DB_BOOTSTRAP_SCHEMA", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXPORT_OUTPUT_DIR", "./exports")

	v.SetDefault("ENABLE_FILE_WATCHER", true)
	v.SetDefault("FILE_WATCHER_DEBOUNCE", "500ms")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
