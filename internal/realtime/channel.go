// Package realtime はエディタ向けのWebSocketチャネルを提供する。
// 現時点では接続と切断のログのみを行い、メッセージの配信は行わない。
package realtime

import (
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"
)

// Channel はWebSocket接続の受け付けと接続数の管理を行う。
type Channel struct {
	logger *slog.Logger

	mu    sync.Mutex
	conns int
}

// NewChannel はChannelを生成する。
func NewChannel(logger *slog.Logger) *Channel {
	return &Channel{
		logger: logger,
	}
}

// Handler はWebSocketハンドシェイクを処理するhttp.Handlerを返す。
// 接続後はクライアントからの入力を読み捨て、切断を検知したらログを残して終了する。
func (c *Channel) Handler() http.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		remote := ws.Request().RemoteAddr

		c.mu.Lock()
		c.conns++
		count := c.conns
		c.mu.Unlock()

		c.logger.Info("realtime client connected",
			slog.String("remote", remote),
			slog.Int("connections", count),
		)

		// 切断までクライアントからの入力を読み捨てる
		_, err := io.Copy(io.Discard, ws)

		c.mu.Lock()
		c.conns--
		count = c.conns
		c.mu.Unlock()

		attrs := []any{
			slog.String("remote", remote),
			slog.Int("connections", count),
		}
		if err != nil && err != io.EOF {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		c.logger.Info("realtime client disconnected", attrs...)
	})
}

// ConnectionCount は現在の接続数を返す。テストおよびメトリクス用。
func (c *Channel) ConnectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns
}
