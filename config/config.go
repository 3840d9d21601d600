// Package config はアプリケーション設定を管理します。
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Security SecurityConfig `mapstructure:"security"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Chart    ChartConfig    `mapstructure:"chart"`
}

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// リクエストボディの上限（バイト）
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// StoreConfig はデータ保存先の設定です。
type StoreConfig struct {
	// csv または sqlite
	Backend string `mapstructure:"backend"`
	// データディレクトリのパス
	DataDir string `mapstructure:"data_dir"`
	// SQLiteバックエンド使用時のファイル名（DataDirからの相対パス）
	SQLiteFile string `mapstructure:"sqlite_file"`
}

// SQLitePath はSQLiteデータベースファイルのパスを返します。
func (c StoreConfig) SQLitePath() string {
	if filepath.IsAbs(c.SQLiteFile) {
		return c.SQLiteFile
	}
	return filepath.Join(c.DataDir, c.SQLiteFile)
}

// AuthConfig はAPI認証の設定です。APIKeyが空の場合は認証を行いません。
type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// SecurityConfig はCORSとレート制限の設定です。
type SecurityConfig struct {
	CORSAllowedOrigins string `mapstructure:"cors_allowed_origins"`
	// 更新系リクエストの1秒あたりの上限。0で無効
	RateLimitRequests float64 `mapstructure:"rate_limit_requests"`
	RateLimitBurst    int     `mapstructure:"rate_limit_burst"`
}

// LoggerConfig はログ出力の設定です。
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig はPrometheusメトリクスの設定です。
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ChartConfig はSVG描画の既定値です。
type ChartConfig struct {
	Theme string `mapstructure:"theme"`
	Title string `mapstructure:"title"`
}

// Address はサーバーの待ち受けアドレスを返します。
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load は .env、設定ファイル（指定時）、環境変数から設定を読み込みます。
func Load(configFile string) (*Config, error) {
	// .envファイルが存在すれば読み込む（エラーは無視）
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GANTT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3003)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 50<<20)

	v.SetDefault("store.backend", "csv")
	v.SetDefault("store.data_dir", filepath.Join(".", "data"))
	v.SetDefault("store.sqlite_file", "gantt.db")

	v.SetDefault("auth.api_key", "")

	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 0)
	v.SetDefault("security.rate_limit_burst", 20)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("chart.theme", "light")
	v.SetDefault("chart.title", "")
}

// bindEnvVars は短い別名の環境変数を登録します。
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "GANTT_SERVER_PORT", "GANTT_PORT")
	v.BindEnv("store.data_dir", "GANTT_STORE_DATA_DIR", "GANTT_DATA_DIR")
	v.BindEnv("auth.api_key", "GANTT_AUTH_API_KEY", "GANTT_API_KEY")
	v.BindEnv("logger.level", "GANTT_LOGGER_LEVEL", "LOG_LEVEL")
	v.BindEnv("logger.format", "GANTT_LOGGER_FORMAT", "LOG_FORMAT")
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	switch cfg.Store.Backend {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("store backend must be csv or sqlite, got %q", cfg.Store.Backend)
	}

	if cfg.Store.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}

	switch cfg.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger format must be json or console, got %q", cfg.Logger.Format)
	}

	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}

	if cfg.Security.RateLimitRequests < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	return nil
}
