// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"storygpt-api/internal/domain/story"
)

// StoryRecord 每个用户一份故事文档,整体以 JSONB 存储
type StoryRecord struct {
	UserID    string `gorm:"primaryKey;column:user_id"`
	Document  []byte `gorm:"column:document;type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StoryRecord) TableName() string {
	return "user_stories"
}

type StoryRepository struct {
	client *Client
}

func NewStoryRepository(client *Client) *StoryRepository {
	return &StoryRepository{client: client}
}

// AutoMigrate 建表,服务启动时调用一次
func (r *StoryRepository) AutoMigrate() error {
	return r.client.db.AutoMigrate(&StoryRecord{})
}

// Get 读取用户的故事文档,不存在时返回 (nil, nil)
func (r *StoryRepository) Get(ctx context.Context, userID string) (*story.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.Get")
	defer span.End()

	db := r.client.db.WithContext(ctx)

	var rec StoryRecord
	if err := db.First(&rec, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get story document: %w", err)
	}

	var doc story.Document
	if err := json.Unmarshal(rec.Document, &doc); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode story document: %w", err)
	}
	doc.EnsureDefaults()
	return &doc, nil
}

// Save 写入用户的故事文档,存在则整体覆盖
func (r *StoryRepository) Save(ctx context.Context, userID string, doc *story.Document) error {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.Save")
	defer span.End()

	raw, err := json.Marshal(doc)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode story document: %w", err)
	}

	db := r.client.db.WithContext(ctx)

	var rec StoryRecord
	err = db.First(&rec, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		if err := db.Create(&StoryRecord{UserID: userID, Document: raw}).Error; err != nil {
			// 并发创建命中唯一约束时改走更新
			if updErr := db.Model(&StoryRecord{}).Where("user_id = ?", userID).
				Update("document", raw).Error; updErr == nil {
				return nil
			}
			span.RecordError(err)
			return fmt.Errorf("failed to create story document: %w", err)
		}
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to get story document: %w", err)
	}

	if err := db.Model(&rec).Update("document", raw).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update story document: %w", err)
	}
	return nil
}

// Delete 删除用户的故事文档,不存在不算错误
func (r *StoryRepository) Delete(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.Delete")
	defer span.End()

	if err := r.client.db.WithContext(ctx).
		Delete(&StoryRecord{}, "user_id = ?", userID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete story document: %w", err)
	}
	return nil
}
