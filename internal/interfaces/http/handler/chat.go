package handler

import (
	"github.com/gin-gonic/gin"

	"storygpt-api/internal/application/chat"
	"storygpt-api/internal/interfaces/http/dto"
	"storygpt-api/pkg/logger"
)

// ChatHandler 对话式编辑入口
type ChatHandler struct {
	svc *chat.Service
}

// NewChatHandler 创建对话处理器
func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat 处理一轮对话
// @Summary 对话式编辑一轮
// @Description 用户消息经意图识别转为工具调用并应用到随请求带入的文档上
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "对话请求"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	doc := req.Document()

	out, err := h.svc.HandleTurn(ctx, chat.TurnInput{
		Document:    doc,
		History:     req.History,
		UserMessage: req.UserMessage,
	})
	if err != nil {
		logger.Warn(ctx, "chat turn failed", "error", err.Error())
		writeError(c, err)
		return
	}

	dto.Success(c, dto.ChatResponse{
		ExecutedTools:      out.Results,
		AssistantNarration: out.Reply,
		Story:              out.Document.Story,
		Entities:           out.Document.Entities,
		History:            out.History,
		ImageData:          out.ImageData,
	})
}
