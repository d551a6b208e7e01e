package dto

import (
	"storygpt-api/internal/application/chat"
	"storygpt-api/internal/domain/story"
)

// ChatRequest 一轮对话的请求体。story/entities/history 由客户端带入,
// 服务端不保留轮与轮之间的状态。
type ChatRequest struct {
	UserMessage string          `json:"user_message" binding:"required"`
	Story       *story.Story    `json:"story"`
	Entities    []story.Entity  `json:"entities"`
	History     []story.Message `json:"history"`
}

// ChatResponse 一轮对话的结果,变更后的文档整体带回
type ChatResponse struct {
	ExecutedTools      []chat.ToolResult `json:"executed_tools"`
	AssistantNarration string            `json:"assistant_narration,omitempty"`
	Story              *story.Story      `json:"story"`
	Entities           []story.Entity    `json:"entities"`
	History            []story.Message   `json:"history"`
	ImageData          string            `json:"image_data,omitempty"`
}

// Document 组装请求中的文档,缺省部分补默认值
func (r *ChatRequest) Document() *story.Document {
	doc := &story.Document{
		Story:    r.Story,
		Entities: r.Entities,
	}
	doc.EnsureDefaults()
	return doc
}
