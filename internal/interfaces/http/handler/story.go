package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"storygpt-api/internal/domain/story"
	"storygpt-api/internal/infrastructure/persistence/redis"
	"storygpt-api/internal/interfaces/http/dto"
	"storygpt-api/pkg/errors"
	"storygpt-api/pkg/logger"
)

// StoryStore 故事文档的持久化能力,不存在时 Get 返回 (nil, nil)
type StoryStore interface {
	Get(ctx context.Context, userID string) (*story.Document, error)
	Save(ctx context.Context, userID string, doc *story.Document) error
}

// StoryHandler 故事文档的读写入口
type StoryHandler struct {
	store StoryStore
	cache *redis.StoryCache
}

// NewStoryHandler 创建故事处理器,cache 可以为 nil
func NewStoryHandler(store StoryStore, cache *redis.StoryCache) *StoryHandler {
	return &StoryHandler{store: store, cache: cache}
}

// Get 读取用户的故事文档
// @Summary 读取故事文档
// @Tags Story
// @Produce json
// @Param user_id path string true "用户 ID"
// @Success 200 {object} dto.Response[dto.StoryResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/users/{user_id}/story [get]
func (h *StoryHandler) Get(c *gin.Context) {
	userID := dto.BindUserID(c)
	if userID == "" {
		dto.BadRequest(c, "user_id is required")
		return
	}
	ctx := c.Request.Context()

	load := func(ctx context.Context) (*story.Document, error) {
		doc, err := h.store.Get(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load story")
		}
		if doc == nil {
			return nil, errors.New(errors.CodeStoryNotFound, "story not found for user "+userID)
		}
		return doc, nil
	}

	var doc *story.Document
	var err error
	if h.cache != nil {
		doc, err = h.cache.GetOrLoad(ctx, userID, load)
	} else {
		doc, err = load(ctx)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.StoryResponse{Story: doc.Story, Entities: doc.Entities})
}

// Save 保存用户的故事文档,整体覆盖
// @Summary 保存故事文档
// @Tags Story
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param request body dto.SaveStoryRequest true "故事文档"
// @Success 200 {object} dto.Response[dto.StoryResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/users/{user_id}/story [put]
func (h *StoryHandler) Save(c *gin.Context) {
	userID := dto.BindUserID(c)
	if userID == "" {
		dto.BadRequest(c, "user_id is required")
		return
	}

	var req dto.SaveStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	doc := &story.Document{Story: req.Story, Entities: req.Entities}
	doc.EnsureDefaults()

	if err := h.store.Save(ctx, userID, doc); err != nil {
		writeError(c, errors.Wrap(err, errors.CodeDatabaseError, "failed to save story"))
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, userID); err != nil {
			logger.Warn(ctx, "story cache invalidate failed", "user_id", userID, "error", err.Error())
		}
	}
	dto.Success(c, dto.StoryResponse{Story: doc.Story, Entities: doc.Entities})
}
