package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Anthropic API形式のSSEレスポンスを組み立てるヘルパー
func writeSSEEvent(w http.ResponseWriter, eventType string, data string) {
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func TestNewClient_ReturnsNonNil(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	c := NewClient(http.DefaultClient, logger, "test-key", "claude-3-5-sonnet-20241022", 4000)
	if c == nil {
		t.Fatal("NewClient は nil を返してはならない")
	}
}

// モードごとのシステムプロンプト選択を検証
func TestSystemPrompt_ByMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want string
	}{
		{"chatモード", ModeChat, "development mentor"},
		{"codeモード", ModeCode, "coding assistant"},
		{"debugモード", ModeDebug, "debugging specialist"},
		{"未知のモードはchat扱い", Mode("unknown"), "development mentor"},
		{"空のモードはchat扱い", Mode(""), "development mentor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SystemPrompt(tt.mode)
			if !strings.Contains(got, tt.want) {
				t.Errorf("SystemPrompt(%q) に %q が含まれていない", tt.mode, tt.want)
			}
		})
	}
}

// 正常系: テキスト断片が到着順にemitされ、message_stopでnilを返すことを検証
func TestStreamCompletion_RelaysTextDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("HTTPメソッド = %s, want POST", r.Method)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("X-Api-Key = %s, want test-key", r.Header.Get("X-Api-Key"))
		}
		if r.Header.Get("Anthropic-Version") != "2023-06-01" {
			t.Errorf("Anthropic-Version = %s, want 2023-06-01", r.Header.Get("Anthropic-Version"))
		}

		var reqBody map[string]any
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("リクエストボディのデコードに失敗: %v", err)
		}
		if reqBody["stream"] != true {
			t.Error("stream = false, want true")
		}
		if reqBody["model"] != "claude-3-5-sonnet-20241022" {
			t.Errorf("model = %v, want claude-3-5-sonnet-20241022", reqBody["model"])
		}

		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEEvent(w, "message_start", `{"type":"message_start"}`)
		writeSSEEvent(w, "content_block_start", `{"type":"content_block_start"}`)
		writeSSEEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hello"}}`)
		writeSSEEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":" world"}}`)
		writeSSEEvent(w, "content_block_stop", `{"type":"content_block_stop"}`)
		writeSSEEvent(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "test-key", "claude-3-5-sonnet-20241022", 4000)
	c.endpoint = server.URL

	var got []string
	err := c.StreamCompletion(context.Background(), "hi", ModeChat, func(text string) error {
		got = append(got, text)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v, want nil", err)
	}

	want := []string{"Hello", " world"}
	if len(got) != len(want) {
		t.Fatalf("emit回数 = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// pingイベントやtext_delta以外のdeltaはemitされないことを検証
func TestStreamCompletion_IgnoresNonTextEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEEvent(w, "ping", `{"type":"ping"}`)
		writeSSEEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"{}"}}`)
		writeSSEEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"only this"}}`)
		writeSSEEvent(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "k", "m", 100)
	c.endpoint = server.URL

	var got []string
	err := c.StreamCompletion(context.Background(), "hi", ModeCode, func(text string) error {
		got = append(got, text)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamCompletion() error = %v, want nil", err)
	}
	if len(got) != 1 || got[0] != "only this" {
		t.Errorf("got = %v, want [only this]", got)
	}
}

// ストリーム中のerrorイベントがエラーとして返ることを検証
func TestStreamCompletion_StreamErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"partial"}}`)
		writeSSEEvent(w, "error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "k", "m", 100)
	c.endpoint = server.URL

	var got []string
	err := c.StreamCompletion(context.Background(), "hi", ModeChat, func(text string) error {
		got = append(got, text)
		return nil
	})
	if err == nil {
		t.Fatal("StreamCompletion() error = nil, want stream error")
	}
	if !strings.Contains(err.Error(), "overloaded_error") {
		t.Errorf("err = %v, want overloaded_error を含む", err)
	}
	// エラー前に届いた断片は中継済み
	if len(got) != 1 || got[0] != "partial" {
		t.Errorf("got = %v, want [partial]", got)
	}
}

// 非200レスポンスのエラーボディがエラーメッセージに反映されることを検証
func TestStreamCompletion_APIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "bad-key", "m", 100)
	c.endpoint = server.URL

	err := c.StreamCompletion(context.Background(), "hi", ModeChat, func(string) error { return nil })
	if err == nil {
		t.Fatal("StreamCompletion() error = nil, want authentication error")
	}
	if !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("err = %v, want authentication_error を含む", err)
	}
}

// emitのエラーでErrEmitAbortedが返り、中継が打ち切られることを検証
func TestStreamCompletion_EmitAbort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"a"}}`)
		writeSSEEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"b"}}`)
		writeSSEEvent(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "k", "m", 100)
	c.endpoint = server.URL

	calls := 0
	err := c.StreamCompletion(context.Background(), "hi", ModeChat, func(string) error {
		calls++
		return errors.New("client gone")
	})
	if !errors.Is(err, ErrEmitAborted) {
		t.Fatalf("StreamCompletion() error = %v, want ErrEmitAborted", err)
	}
	if calls != 1 {
		t.Errorf("emit呼び出し回数 = %d, want 1（打ち切り後は呼ばれない）", calls)
	}
}

// ctxキャンセルでアップストリーム呼び出しが中断されることを検証
func TestStreamCompletion_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "k", "m", 100)
	c.endpoint = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.StreamCompletion(ctx, "hi", ModeChat, func(string) error { return nil })
	if err == nil {
		t.Fatal("StreamCompletion() error = nil, want context error")
	}
}

// 終了イベントなしでストリームが閉じた場合はエラーを返すことを検証
func TestStreamCompletion_TruncatedStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"cut"}}`)
		// message_stopなしで切断
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "k", "m", 100)
	c.endpoint = server.URL

	err := c.StreamCompletion(context.Background(), "hi", ModeChat, func(string) error { return nil })
	if err == nil {
		t.Fatal("StreamCompletion() error = nil, want truncation error")
	}
}
