package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storygpt-api/internal/domain/story"
)

const storyCacheTTL = 10 * time.Minute

// StoryCache 按用户缓存故事文档,挡掉热点用户的重复读库
type StoryCache struct {
	cache *Cache
}

// NewStoryCache 创建故事文档缓存
func NewStoryCache(cache *Cache) *StoryCache {
	return &StoryCache{cache: cache}
}

func storyKey(userID string) string {
	return fmt.Sprintf("story:doc:%s", userID)
}

// GetOrLoad 读取缓存中的文档,未命中时用 loader 回源并回填
func (c *StoryCache) GetOrLoad(ctx context.Context, userID string, loader func(ctx context.Context) (*story.Document, error)) (*story.Document, error) {
	key := storyKey(userID)
	raw, err := c.cache.GetOrLoad(ctx, key, storyCacheTTL, func() (interface{}, error) {
		return loader(ctx)
	})
	if err != nil {
		return nil, err
	}

	var doc story.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		// 缓存内容失效,清掉后直接回源
		_ = c.cache.Delete(ctx, key)
		return loader(ctx)
	}
	doc.EnsureDefaults()
	return &doc, nil
}

// Invalidate 文档变更后清掉缓存
func (c *StoryCache) Invalidate(ctx context.Context, userID string) error {
	return c.cache.Delete(ctx, storyKey(userID))
}
