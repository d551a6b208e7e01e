package dto

import (
	"storygpt-api/internal/domain/story"
)

// SaveStoryRequest 整体保存一个用户的故事文档
type SaveStoryRequest struct {
	Story    *story.Story   `json:"story" binding:"required"`
	Entities []story.Entity `json:"entities"`
}

// StoryResponse 读取/保存后的文档视图
type StoryResponse struct {
	Story    *story.Story   `json:"story"`
	Entities []story.Entity `json:"entities"`
}
