// Package assistant はAnthropic Messages APIとの連携機能を提供する。
// ストリーミング補完の呼び出しとトークン単位の中継を含む。
package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// defaultEndpoint はAnthropic Messages APIのエンドポイント。
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	// apiVersion はAnthropic APIのバージョンヘッダー値。
	apiVersion = "2023-06-01"
)

// ErrEmitAborted はトークンの送出先が切断されたことを示す。
// アップストリームのエラーではないため、呼び出し元は通常エラーフレームを送らない。
var ErrEmitAborted = errors.New("assistant: emit aborted")

// Client はAnthropic Messages APIのストリーミングクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	maxTokens  int
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey, model string, maxTokens int) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxTokens,
		endpoint:   defaultEndpoint,
	}
}

// messagesRequest はMessages APIへのリクエストボディ。
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
	Stream    bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamEvent はストリーミングレスポンスの1イベント。
// typeフィールドで判別し、必要なフィールドのみデコードする。
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// apiErrorResponse は非ストリーミングのエラーレスポンスボディ。
type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// StreamCompletion はメッセージをAnthropicへ送信し、生成されたテキストの断片を
// 到着順にemitへ渡す。ストリームが正常終了した場合はnilを返す。
// ctxのキャンセルでアップストリーム接続を切断する。
// emitがエラーを返した場合は中継を打ち切り、ErrEmitAbortedを返す。
func (c *Client) StreamCompletion(ctx context.Context, userMessage string, mode Mode, emit func(text string) error) error {
	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    SystemPrompt(mode),
		Messages: []message{
			{Role: "user", Content: userMessage},
		},
		Stream: true,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Anthropic APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("model", c.model),
		)
		return fmt.Errorf("Anthropic APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.readErrorResponse(resp)
	}

	return c.relayStream(resp.Body, emit)
}

// readErrorResponse は非200レスポンスのエラーボディをデコードしてエラーに変換する。
func (c *Client) readErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("Anthropic APIがステータス %d を返しました", resp.StatusCode)
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		c.logger.Error("Anthropic APIがエラーを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("error_type", apiErr.Error.Type),
			slog.String("error_message", apiErr.Error.Message),
		)
		return fmt.Errorf("Anthropic APIエラー (%s): %s", apiErr.Error.Type, apiErr.Error.Message)
	}

	c.logger.Error("Anthropic APIがエラーステータスを返しました",
		slog.Int("http_status", resp.StatusCode),
	)
	return fmt.Errorf("Anthropic APIがステータス %d を返しました", resp.StatusCode)
}

// relayStream はSSE形式のレスポンスボディを読み取り、テキスト断片をemitへ渡す。
// message_stopイベントで正常終了、errorイベントはエラーとして返す。
func (c *Client) relayStream(body io.Reader, emit func(text string) error) error {
	scanner := bufio.NewScanner(body)
	// 長い断片に備えてバッファを拡張する
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		// eventブロックのdata行のみ処理する
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			c.logger.Warn("ストリームイベントのパースに失敗しました",
				slog.String("error", err.Error()),
			)
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			if err := emit(event.Delta.Text); err != nil {
				return fmt.Errorf("%w: %v", ErrEmitAborted, err)
			}
		case "message_stop":
			return nil
		case "error":
			c.logger.Error("Anthropic APIがストリーム中にエラーを返しました",
				slog.String("error_type", event.Error.Type),
				slog.String("error_message", event.Error.Message),
			)
			return fmt.Errorf("ストリームエラー (%s): %s", event.Error.Type, event.Error.Message)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ストリームの読み取りに失敗しました: %w", err)
	}

	// message_stopが届く前にストリームが閉じられた
	return errors.New("ストリームが終了イベントなしで切断されました")
}
