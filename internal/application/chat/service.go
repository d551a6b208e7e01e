package chat

import (
	"context"
	"encoding/json"
	"time"

	"storygpt-api/internal/config"
	"storygpt-api/internal/domain/story"
	"storygpt-api/pkg/logger"
	"storygpt-api/pkg/metrics"
	"storygpt-api/pkg/tracer"
)

// TurnInput 一轮对话的完整输入。服务自身无状态,
// 文档与历史都由调用方带入,变更后的版本在输出里带回。
type TurnInput struct {
	Document    *story.Document
	History     []story.Message
	UserMessage string
}

// TurnOutput 一轮对话的结果
type TurnOutput struct {
	Document *story.Document
	History  []story.Message
	// Results 本轮执行的每个工具调用及其结果,失败批次截止到首个失败
	Results []ToolResult
	// Reply 给用户的答复,可能来自工具汇报或模型的直接回答
	Reply string
	// ImageData generate_image 产出的独立图像
	ImageData string
}

// IntentDecider 把用户消息翻译成工具调用批次的能力
type IntentDecider interface {
	Decide(ctx context.Context, doc *story.Document, history []story.Message, userMessage string) (*Decision, error)
}

// Narrator 汇报已执行工具的能力
type Narrator interface {
	Narrate(ctx context.Context, userMessage string, results []ToolResult) string
}

// Service 编排一轮对话:意图识别 -> 批次分发 -> 答复生成
type Service struct {
	intent     IntentDecider
	reply      Narrator
	dispatcher *Dispatcher
	cfg        *config.ChatConfig
}

// NewService 创建对话服务
func NewService(intent IntentDecider, reply Narrator, dispatcher *Dispatcher, cfg *config.ChatConfig) *Service {
	return &Service{intent: intent, reply: reply, dispatcher: dispatcher, cfg: cfg}
}

// auditRecord 记入历史的审计消息体
type auditRecord struct {
	Tools []ToolResult `json:"tools"`
}

// HandleTurn 处理一轮对话。
// 分发失败时已执行调用的变更保留在文档中,错误与截至失败的结果一并返回。
func (s *Service) HandleTurn(ctx context.Context, in TurnInput) (*TurnOutput, error) {
	ctx, span := tracer.Start(ctx, "chat.turn")
	defer span.End()

	start := time.Now()
	status := "success"
	defer func() {
		metrics.ChatTurnsTotal.WithLabelValues(status).Inc()
		metrics.ChatTurnDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	doc := in.Document
	if doc == nil {
		doc = story.NewDocument()
	}
	if doc.Story != nil && doc.Story.Settings == nil && s.cfg.DefaultTargetPageCount > 0 {
		doc.Story.Settings = &story.Settings{TargetPageCount: s.cfg.DefaultTargetPageCount}
	}
	doc.EnsureDefaults()

	// 喂给模型的历史:去掉审计消息,只保留窗口内的
	llmHistory := story.WindowHistory(story.HistoryForLLM(in.History), s.cfg.MaxHistory)

	out := &TurnOutput{
		Document: doc,
		History:  append(in.History, story.Message{Role: story.RoleUser, Content: in.UserMessage}),
	}

	decision, err := s.intent.Decide(ctx, doc, llmHistory, in.UserMessage)
	if err != nil {
		status = "error"
		out.History = story.WindowHistory(out.History, s.cfg.MaxHistory)
		return out, err
	}

	if len(decision.Calls) == 0 {
		out.Reply = decision.Reply
		out.History = story.WindowHistory(
			append(out.History, story.Message{Role: story.RoleAssistant, Content: out.Reply}),
			s.cfg.MaxHistory)
		return out, nil
	}

	results, side, dispatchErr := s.dispatcher.ApplyAll(ctx, doc, decision.Calls)
	out.Results = results
	out.ImageData = side.ImageData
	metrics.StoryPageCount.Observe(float64(len(doc.Story.Pages)))

	// 工具执行记入审计历史,下一轮喂模型前会被过滤掉
	if audit, mErr := json.Marshal(auditRecord{Tools: results}); mErr == nil {
		out.History = append(out.History, story.Message{Role: story.RoleToolAudit, Content: string(audit)})
	}

	if dispatchErr != nil {
		status = "error"
		logger.Warn(ctx, "tool batch aborted",
			"executed", len(results), "requested", len(decision.Calls), "error", dispatchErr.Error())
		out.History = story.WindowHistory(out.History, s.cfg.MaxHistory)
		return out, dispatchErr
	}

	if s.cfg.ReplyEnabled && s.reply != nil {
		out.Reply = s.reply.Narrate(ctx, in.UserMessage, results)
	} else {
		out.Reply = fallbackNarration(results)
	}
	out.History = story.WindowHistory(
		append(out.History, story.Message{Role: story.RoleAssistant, Content: out.Reply}),
		s.cfg.MaxHistory)
	return out, nil
}
