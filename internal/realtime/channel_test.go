package realtime

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// 接続と切断がログに記録され、接続数が増減することを検証
func TestChannel_LogsConnectAndDisconnect(t *testing.T) {
	var buf bytes.Buffer
	ch := NewChannel(newTestLogger(&buf))

	server := httptest.NewServer(ch.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := websocket.Dial(wsURL, "", "http://localhost/")
	if err != nil {
		t.Fatalf("websocket.Dial() error = %v", err)
	}

	// 接続が確立されるまで待つ
	deadline := time.Now().Add(2 * time.Second)
	for ch.ConnectionCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("ConnectionCount() = %d, want 1", ch.ConnectionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	// 切断が反映されるまで待つ
	deadline = time.Now().Add(2 * time.Second)
	for ch.ConnectionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("切断後の ConnectionCount() = %d, want 0", ch.ConnectionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	logs := buf.String()
	if !strings.Contains(logs, "realtime client connected") {
		t.Error("接続ログが記録されていない")
	}
	if !strings.Contains(logs, "realtime client disconnected") {
		t.Error("切断ログが記録されていない")
	}
}

// 初期状態の接続数は0であることを検証
func TestChannel_InitialConnectionCount(t *testing.T) {
	var buf bytes.Buffer
	ch := NewChannel(newTestLogger(&buf))

	if got := ch.ConnectionCount(); got != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", got)
	}
}
