package chat

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"storygpt-api/internal/domain/story"
	"storygpt-api/internal/infrastructure/llm"
	einoobs "storygpt-api/internal/observability/eino"
	"storygpt-api/pkg/errors"
	"storygpt-api/pkg/logger"
)

// Decision 意图识别的结果:要执行的调用批次,或一句直接答复
type Decision struct {
	Calls []ToolCall
	// Reply 模型没有选择任何工具时给用户的直接回答
	Reply string
}

// IntentAgent 把用户消息翻译成工具调用。
// 模型只负责选择工具和参数,真正的变更由 Dispatcher 执行。
type IntentAgent struct {
	factory  *llm.EinoFactory
	provider string
}

// NewIntentAgent 创建意图识别代理,provider 为空时使用默认提供商
func NewIntentAgent(factory *llm.EinoFactory, provider string) *IntentAgent {
	return &IntentAgent{factory: factory, provider: provider}
}

const intentSystemPrompt = `You are the editing assistant for an illustrated story. ` +
	`The user edits the story by chatting with you; you act by calling tools. ` +
	`Call the tool (or tools, in order) that carries out the user's request against the state below. ` +
	`Page indexes are zero-based. ` +
	`Never generate an image unless the user explicitly asks for one; ` +
	`when they only discuss an image's description, use edit_image_prompt. ` +
	`If the user is just chatting and no change is needed, answer directly without calling any tool.`

// Decide 结合文档状态与截断后的历史,产出一个工具调用批次。
// history 应当已经过滤掉审计消息并截断到窗口大小。
func (a *IntentAgent) Decide(ctx context.Context, doc *story.Document, history []story.Message, userMessage string) (*Decision, error) {
	if a == nil || a.factory == nil {
		return nil, errors.New(errors.CodeInternalError, "llm factory not configured")
	}

	base, err := a.factory.Get(ctx, a.provider)
	if err != nil {
		return nil, err
	}
	tcm, ok := base.(model.ToolCallingChatModel)
	if !ok {
		return nil, errors.New(errors.CodeLLMProviderError, "chat model does not support tool calling")
	}
	bound, err := tcm.WithTools(toolInfos())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLLMProviderError, "bind tools failed")
	}

	ctx = einoobs.WithWorkflowProvider(ctx, "intent", a.provider)

	msgs := make([]*schema.Message, 0, len(history)+3)
	msgs = append(msgs, schema.SystemMessage(intentSystemPrompt))
	msgs = append(msgs, schema.SystemMessage(buildDocumentSummary(doc)))
	for _, m := range history {
		switch m.Role {
		case story.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		case story.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		}
	}
	msgs = append(msgs, schema.UserMessage(userMessage))

	out, err := bound.Generate(ctx, msgs)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLLMCallFailed, "intent call failed")
	}

	if len(out.ToolCalls) == 0 {
		return &Decision{Reply: out.Content}, nil
	}

	calls := make([]ToolCall, 0, len(out.ToolCalls))
	for _, tc := range out.ToolCalls {
		call, err := ParseToolCall(tc.Function.Name, tc.Function.Arguments)
		if err != nil {
			logger.Warn(ctx, "model picked unusable tool call",
				"tool", tc.Function.Name, "error", err.Error())
			return nil, err
		}
		calls = append(calls, call)
	}
	return &Decision{Calls: calls, Reply: out.Content}, nil
}
