// Package logger はzerologベースの構造化ロガーを生成する。
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// FormatJSON は1行1JSONの出力形式。
	FormatJSON = "json"
	// FormatConsole は人間向けの色付き出力形式。
	FormatConsole = "console"
)

// Config はロガーの設定。
type Config struct {
	// Level はログレベル（trace, debug, info, warn, error）。
	Level string `mapstructure:"log_level"`
	// Format は出力形式（json, console）。
	Format string `mapstructure:"log_format"`
}

// Validate は設定値を検証する。
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil || c.Level == "" {
		return fmt.Errorf("log_level が不正です: %q", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case FormatJSON, FormatConsole:
		return nil
	default:
		return fmt.Errorf("log_format は %s または %s を指定してください: %q", FormatJSON, FormatConsole, c.Format)
	}
}

// New はサービス名を付与したロガーを標準出力向けに生成する。
func New(cfg Config, service string) zerolog.Logger {
	return NewWithWriter(cfg, service, os.Stdout)
}

// NewWithWriter は出力先を指定してロガーを生成する。
func NewWithWriter(cfg Config, service string, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
