// Package app はアプリケーションの起動と各コンポーネントの組み立てを担う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/workbench/internal/assistant"
	"github.com/hitoshi/workbench/internal/config"
	"github.com/hitoshi/workbench/internal/database"
	"github.com/hitoshi/workbench/internal/handler"
	"github.com/hitoshi/workbench/internal/logger"
	"github.com/hitoshi/workbench/internal/metrics"
	"github.com/hitoshi/workbench/internal/middleware"
	"github.com/hitoshi/workbench/internal/realtime"
	"github.com/hitoshi/workbench/internal/repository"
	"github.com/hitoshi/workbench/internal/security"
)

// shutdownTimeout はグレースフルシャットダウンの待機時間。
const shutdownTimeout = 30 * time.Second

// Init はロガーと設定を初期化する。
// wはログ出力先（通常はos.Stderr）。
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	return cfg, nil
}

// Run はコマンドライン引数に応じてアプリケーションを実行する。
// serveモードではシグナル受信までブロックする。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheckは設定の必須環境変数を要求しない。
	// distrolessコンテナのHEALTHCHECKから直接呼ばれるため軽量に保つ。
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return err
	}

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーを起動し、SIGINT/SIGTERMでグレースフルに停止する。
func runServe(cfg *config.Config) error {
	stores, closeStores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	guard := security.NewURLGuard()
	sanitizer := security.NewTextSanitizer()

	// ストリーミング応答は数分に及ぶためクライアント側タイムアウトは設定しない。
	// 切断はリクエストコンテキスト経由で伝搬する。
	streamer := assistant.NewClient(
		&http.Client{},
		slog.Default(),
		cfg.AnthropicAPIKey,
		cfg.AnthropicModel,
		cfg.AnthropicMaxTokens,
	)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		ChatRate:        rate.Limit(float64(cfg.RateLimitChat) / 60.0),
		ChatBurst:       cfg.RateLimitChat,
		CleanupInterval: 5 * time.Minute,
	})
	defer rl.Stop()

	channel := realtime.NewChannel(slog.Default())

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rl,
		Collector:         collector,
		Stores:            stores,
		Assistant:         streamer,
		URLGuard:          guard,
		Sanitizer:         sanitizer,
		CheckClient:       guard.NewSafeClient(cfg.DeployCheckTimeout),
		MetricsHandler:    metrics.Handler(reg),
		RealtimeHandler:   channel.Handler(),
	})

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
		// SSEストリームはレスポンス完了まで数分かかるためWriteTimeoutは設定しない。
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("APIサーバーを起動",
			slog.String("addr", server.Addr),
			slog.Bool("use_postgres", cfg.UsePostgres),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	case sig := <-sigCh:
		slog.Info("シグナルを受信、シャットダウンを開始", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("グレースフルシャットダウンに失敗: %w", err)
	}

	slog.Info("シャットダウン完了")
	return nil
}

// buildStores は設定に応じたストレージバックエンドを構築する。
// PostgreSQLが選択されていて接続できない場合はエラーを返す。
// インメモリへのサイレントフォールバックは行わない。
func buildStores(cfg *config.Config) (*repository.Stores, func(), error) {
	if !cfg.UsePostgres {
		slog.Info("ストレージバックエンド: インメモリ（プロセス終了でデータ消失）")
		return repository.NewMemoryStores(), func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("データベース接続の初期化に失敗: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	slog.Info("ストレージバックエンド: PostgreSQL",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	return repository.NewPostgresStores(db), func() { db.Close() }, nil
}

// runMigrate はデータベースマイグレーションを適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("マイグレーションにはDATABASE_URLの設定が必要")
	}

	slog.Info("マイグレーションを開始",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("マイグレーションの適用に失敗: %w", err)
	}

	slog.Info("マイグレーション完了")
	return nil
}

// runHealthcheck はローカルのヘルスエンドポイントを叩いて結果を終了コードに変換する。
func runHealthcheck(port string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get("http://localhost:" + port + "/api/health")
	if err != nil {
		return fmt.Errorf("ヘルスチェックに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ヘルスチェックが異常ステータスを返却: %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL は接続文字列のパスワード部分をマスクする。ログ出力用。
func maskDatabaseURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "(parse error)"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "*****")
		}
	}
	return u.String()
}
