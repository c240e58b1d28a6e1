// ブログサービスのエントリポイント。
// 利用者の登録・ログインと、投稿およびコメントのCRUDを提供する。
// --promote を指定した場合はサーバーを起動せず、利用者に開発者権限を付与して終了する。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/blog/internal/blog"
	"github.com/nao1215/blog/internal/config"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "blog: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("blog", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	promote := fs.String("promote", "", "指定したメールアドレスの利用者に開発者権限を付与して終了する")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("設定が不正です: %w", err)
	}

	log := logger.New(cfg.Log, "blog")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseDSN, log)
	if err != nil {
		return fmt.Errorf("データベースの初期化に失敗: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("データベースのクローズに失敗しました")
		}
	}()

	if *promote != "" {
		user, err := st.SetDeveloper(ctx, *promote, true)
		if err != nil {
			return fmt.Errorf("%s への開発者権限の付与に失敗: %w", *promote, err)
		}
		log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("開発者権限を付与しました")
		return nil
	}

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET が未設定のため、トークンを発行できません")
	}

	server, err := blog.NewServer(cfg, st, log)
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗: %w", err)
	}
	return server.Run(ctx)
}
