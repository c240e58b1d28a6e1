// Package config はブログサービスの設定を読み込む。
//
// 優先順位は低い順に、既定値、YAML設定ファイル（--config）、
// .envファイル（--env-file）、環境変数、コマンドラインフラグ。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/logger"
	"github.com/nao1215/blog/pkg/password"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// FlagConfig はYAML設定ファイルを指定するフラグ名。
	FlagConfig = "config"
	// FlagEnvFile は.envファイルを指定するフラグ名。
	FlagEnvFile = "env-file"

	defaultPort            = "5000"
	defaultLogLevel        = "info"
	defaultShutdownTimeout = 10 * time.Second
	defaultEnvFile         = ".env"
)

// Config はサービス全体の設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `mapstructure:"port"`
	// JWTSecret はトークンの署名鍵。空の場合トークンを発行できない。
	JWTSecret string `mapstructure:"jwt_secret"`
	// DatabaseDSN はSQLiteの接続文字列。
	DatabaseDSN string `mapstructure:"database_dsn"`
	// CORSOrigins は許可するオリジン。"*" はすべて許可。
	CORSOrigins []string `mapstructure:"cors_origins"`
	// PasswordScheme は新規登録時のパスワードハッシュ方式。
	PasswordScheme string `mapstructure:"password_scheme"`
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// Log はロガーの設定。
	Log logger.Config `mapstructure:",squash"`
}

// RegisterFlags は設定に関するコマンドラインフラグを登録する。
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "YAML設定ファイルのパス")
	fs.String(FlagEnvFile, "", ".envファイルのパス（未指定時はカレントディレクトリの.envを読む）")
	fs.String("port", defaultPort, "HTTPサーバーのリッスンポート")
	fs.String("database-dsn", store.DefaultDSN, "SQLiteの接続文字列")
	fs.String("log-level", defaultLogLevel, "ログレベル")
	fs.String("log-format", logger.FormatJSON, "ログ形式（json, console）")
}

// Load はフラグ・環境変数・ファイルから設定を読み込む。
// fs は RegisterFlags で登録・Parse済みである必要がある。
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile, _ := fs.GetString(FlagConfig)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", configFile, err)
		}
	}

	envFile, _ := fs.GetString(FlagEnvFile)
	if err := mergeEnvFile(v, envFile); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"port":         "port",
		"database_dsn": "database-dsn",
		"log_level":    "log-level",
		"log_format":   "log-format",
	} {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("フラグ %s のバインドに失敗: %w", flag, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("設定の展開に失敗: %w", err)
	}
	cfg.CORSOrigins = normalizeOrigins(cfg.CORSOrigins)

	return &cfg, nil
}

// Validate は設定値を検証する。
func (c *Config) Validate() error {
	var errs []error

	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("port が不正です: %q", c.Port))
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		errs = append(errs, errors.New("database_dsn は必須です"))
	}
	if _, err := password.NewHasher(password.Scheme(c.PasswordScheme)); err != nil {
		errs = append(errs, fmt.Errorf("password_scheme が不正です: %w", err))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout は正の値を指定してください: %s", c.ShutdownTimeout))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Addr はHTTPサーバーのリッスンアドレスを返す。
func (c *Config) Addr() string {
	return ":" + c.Port
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("database_dsn", store.DefaultDSN)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("password_scheme", string(password.SchemeLegacy))
	v.SetDefault("shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("log_format", logger.FormatJSON)
}

// mergeEnvFile は.envファイルの内容を設定ファイルより優先、環境変数より劣後で取り込む。
// プロセスの環境変数は書き換えない。
func mergeEnvFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf(".envファイル %s の読み込みに失敗: %w", path, err)
	}

	m := make(map[string]any, len(values))
	for k, val := range values {
		m[strings.ToLower(k)] = val
	}
	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf(".envファイル %s の取り込みに失敗: %w", path, err)
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
