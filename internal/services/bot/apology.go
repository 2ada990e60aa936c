package bot

import (
	"context"
	"errors"

	"github.com/ternarybob/kotae/internal/services/llm"
	"github.com/ternarybob/kotae/internal/services/rag"
)

// User-facing apologies. Raw error text never reaches the chat.
const (
	apologyNotReady   = "ナレッジベースを準備中です。しばらくしてからもう一度お試しください。"
	apologyRetrieval  = "資料の検索中にエラーが発生しました。時間をおいてもう一度お試しください。"
	apologyGeneration = "回答の生成に失敗しました。もう一度お試しください。"
	apologyBusy       = "現在混み合っています。少し時間をおいてからもう一度お試しください。"
	apologyTimeout    = "回答の生成に時間がかかりすぎました。質問を短くしてもう一度お試しください。"
	apologyGeneric    = "申し訳ありません。エラーが発生しました。"
)

// ApologyFor maps an answering error to the message shown to the user
func ApologyFor(err error) string {
	var retrievalErr *rag.RetrievalError
	var generationErr *rag.GenerationError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, rag.ErrNotInitialized):
		return apologyNotReady
	case errors.Is(err, context.DeadlineExceeded):
		return apologyTimeout
	case errors.As(err, &retrievalErr):
		return apologyRetrieval
	case errors.As(err, &generationErr):
		if llm.IsRateLimitError(generationErr.Err) {
			return apologyBusy
		}
		return apologyGeneration
	default:
		return apologyGeneric
	}
}
