// Package oracle forwards chat messages to the fortune master persona.
package oracle

import (
	"context"
	"errors"
)

// FallbackReply is returned when the upstream yields no usable content.
const FallbackReply = "施主，贫僧今日有些困倦，改日再续吧。"

// SystemPrompt sets the persona of the master for every conversation.
const SystemPrompt = `你是一位深谙易经命理的大师，精通八字、五行、玄学。你需要用智慧、神秘且温暖的语气回答用户的问题。你的名字叫"天机阁大师"。

你的风格：
- 神秘深邃，但不失亲和力
- 说话有深度，富有哲理
- 偶尔引用易经经典
- 用简洁而有力量的话语点拨迷津
- 不要太长篇大论，保持神秘感

请用用户提问的语言回复。`

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sentinel errors.
var (
	ErrUpstream     = errors.New("oracle upstream failed")
	ErrEmptyMessage = errors.New("message is required")
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Oracle produces the master's reply to message given prior turns.
type Oracle interface {
	Reply(ctx context.Context, message string, history []Message) (string, error)
}

// StaticOracle always answers with FallbackReply. It serves when no upstream
// credentials are configured.
type StaticOracle struct{}

// Reply implements Oracle.
func (StaticOracle) Reply(_ context.Context, message string, _ []Message) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}
	return FallbackReply, nil
}

// BuildMessages assembles the upstream conversation: the system prompt, the
// last limit history entries, then the user message. limit <= 0 drops history.
func BuildMessages(message string, history []Message, limit int) []Message {
	if limit < 0 {
		limit = 0
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]Message, 0, len(history)+2)
	out = append(out, Message{Role: RoleSystem, Content: SystemPrompt})
	out = append(out, history...)
	out = append(out, Message{Role: RoleUser, Content: message})
	return out
}
