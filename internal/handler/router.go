package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/workbench/internal/metrics"
	"github.com/hitoshi/workbench/internal/middleware"
	"github.com/hitoshi/workbench/internal/repository"
	"github.com/hitoshi/workbench/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Collector         metrics.MetricsCollector

	// ストレージ
	Stores *repository.Stores

	// アシスタント
	Assistant AssistantStreamer

	// デプロイ検証
	URLGuard    security.URLGuardService
	Sanitizer   security.TextSanitizerService
	CheckClient *http.Client

	// 公開用ハンドラー
	MetricsHandler  http.Handler
	RealtimeHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → RateLimit(General)
//
// /metrics と /ws はレート制限の外に配置する。
// /api/claude-stream にはストリーム専用レート制限を追加適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))

	userHandler := NewUserHandler(deps.Stores.Users)
	projectHandler := NewProjectHandler(deps.Stores.Projects, deps.Sanitizer, deps.Collector)
	fileHandler := NewFileHandler(deps.Stores.Files, deps.Collector)
	deploymentHandler := NewDeploymentHandler(
		deps.Stores.Deployments,
		deps.Stores.Projects,
		deps.URLGuard,
		deps.Sanitizer,
		deps.CheckClient,
		deps.Collector,
	)
	configHandler := NewConfigHandler(deps.Stores.Configs, deps.Collector)
	chatHandler := NewChatHandler(deps.Assistant, deps.Logger, deps.Collector)

	// --- レート制限外のルート ---

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	if deps.RealtimeHandler != nil {
		r.Handle("/ws", deps.RealtimeHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/health", HealthCheck)

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Post("/", userHandler.CreateUser)
			r.Get("/{id}", userHandler.GetUser)
		})

		// プロジェクト管理
		r.Route("/api/projects", func(r chi.Router) {
			r.Post("/", projectHandler.CreateProject)
			r.Get("/user/{userId}", projectHandler.ListProjectsByUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.GetProject)

				// ファイル管理
				r.Get("/files", fileHandler.ListFiles)
				r.Post("/files", fileHandler.UpsertFile)

				// デプロイ記録
				r.Get("/deployments", deploymentHandler.ListDeployments)
				r.Post("/deploy", deploymentHandler.Deploy)

				// ビルド設定
				r.Get("/config", configHandler.GetConfig)
				r.Post("/config", configHandler.UpsertConfig)
			})
		})

		// デプロイ到達確認
		r.Post("/api/deployments/{deploymentId}/check", deploymentHandler.CheckDeployment)

		// アシスタントストリーム（ストリーム専用レート制限を追加）
		r.With(deps.RateLimiter.ChatMiddleware()).Post("/api/claude-stream", chatHandler.StreamChat)
	})

	return r
}

// HealthCheck はサービスの稼働状態を返す。
// GET /api/health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
