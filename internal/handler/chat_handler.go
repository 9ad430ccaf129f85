package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/workbench/internal/assistant"
	"github.com/hitoshi/workbench/internal/metrics"
	"github.com/hitoshi/workbench/internal/model"
)

// AssistantStreamer はチャットハンドラーが必要とするストリーミング補完のインターフェース。
type AssistantStreamer interface {
	// StreamCompletion はメッセージを送信し、テキスト断片を到着順にemitへ渡す。
	// 正常終了でnil、送出先切断でassistant.ErrEmitAbortedを返す。
	StreamCompletion(ctx context.Context, userMessage string, mode assistant.Mode, emit func(text string) error) error
}

// ChatHandler はアシスタントとのストリーミングチャットのHTTPハンドラー。
// アップストリームのトークンをSSEフレームとしてそのまま中継する。
type ChatHandler struct {
	streamer  AssistantStreamer
	logger    *slog.Logger
	collector metrics.MetricsCollector
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(streamer AssistantStreamer, logger *slog.Logger, collector metrics.MetricsCollector) *ChatHandler {
	return &ChatHandler{
		streamer:  streamer,
		logger:    logger,
		collector: collector,
	}
}

// chatRequest はストリーミングチャットのリクエストボディ。
type chatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// contentFrame はトークン1つ分のSSEフレームボディ。
type contentFrame struct {
	Content string `json:"content"`
}

// doneFrame はストリーム正常終了のSSEフレームボディ。
type doneFrame struct {
	Done bool `json:"done"`
}

// errorFrame はストリーム異常終了のSSEフレームボディ。
type errorFrame struct {
	Error string `json:"error"`
}

// StreamChat はメッセージをアシスタントへ中継し、応答トークンをSSEで送出する。
// ストリームは必ず1つの終端フレーム（{"done":true}または{"error":...}）で終わり、
// 終端フレーム以降は何も書き込まない。クライアント切断時はリクエストコンテキスト
// 経由でアップストリーム接続を切断し、終端フレームは送らない。
// POST /api/claude-stream
func (h *ChatHandler) StreamChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディのJSONが不正です。",
			Category: "validation",
			Action:   "リクエストボディの形式を確認してください。",
		})
		return
	}

	// 空メッセージはストリームを開かず400で拒否する
	if req.Message == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyMessageError())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("response writer does not support flushing")
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "STREAMING_UNSUPPORTED",
			Message:  "ストリーミング応答を利用できません。",
			Category: "system",
			Action:   "サーバー構成を確認してください。",
		})
		return
	}

	// SSEヘッダー
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if h.collector != nil {
		h.collector.RecordStreamStarted()
	}

	tokens := 0
	err := h.streamer.StreamCompletion(r.Context(), req.Message, assistant.Mode(req.Mode), func(text string) error {
		if err := writeSSEFrame(w, contentFrame{Content: text}); err != nil {
			return err
		}
		flusher.Flush()
		tokens++
		return nil
	})

	if h.collector != nil {
		h.collector.RecordStreamTokens(tokens)
	}

	switch {
	case err == nil:
		// 正常終了: doneフレームを唯一の終端として送出する
		if err := writeSSEFrame(w, doneFrame{Done: true}); err == nil {
			flusher.Flush()
		}

	case errors.Is(err, assistant.ErrEmitAborted) || r.Context().Err() != nil:
		// クライアント切断: 書き込み先が存在しないため終端フレームは送らない
		if h.collector != nil {
			h.collector.RecordStreamClientAbort()
		}
		h.logger.Info("stream aborted by client",
			slog.Int("tokens_relayed", tokens),
		)

	default:
		// アップストリーム異常: errorフレームを唯一の終端として送出する
		if h.collector != nil {
			h.collector.RecordStreamError()
		}
		h.logger.Error("assistant stream failed",
			slog.String("error", err.Error()),
			slog.Int("tokens_relayed", tokens),
		)
		if err := writeSSEFrame(w, errorFrame{Error: "Stream error occurred"}); err == nil {
			flusher.Flush()
		}
	}
}

// writeSSEFrame は1つのSSEフレーム（data: <JSON>\n\n）を書き込む。
func writeSSEFrame(w http.ResponseWriter, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
