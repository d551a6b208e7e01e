package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"storygpt-api/internal/infrastructure/llm"
	einoobs "storygpt-api/internal/observability/eino"
	"storygpt-api/pkg/logger"
)

// ReplyAgent 在工具执行完毕后生成一句面向用户的答复
type ReplyAgent struct {
	factory  *llm.EinoFactory
	provider string
}

// NewReplyAgent 创建答复生成代理
func NewReplyAgent(factory *llm.EinoFactory, provider string) *ReplyAgent {
	return &ReplyAgent{factory: factory, provider: provider}
}

const replySystemPrompt = `You are the editing assistant for an illustrated story. ` +
	`The requested edits have already been applied. ` +
	`In one or two sentences, tell the user what was done. ` +
	`Do not repeat the full story text.`

// Narrate 汇报一批已执行的工具。生成失败只降级为固定措辞,不影响已落地的变更。
func (a *ReplyAgent) Narrate(ctx context.Context, userMessage string, results []ToolResult) string {
	fallback := fallbackNarration(results)
	if a == nil || a.factory == nil {
		return fallback
	}

	cm, err := a.factory.Get(ctx, a.provider)
	if err != nil {
		logger.Warn(ctx, "reply model unavailable, using fallback", "error", err.Error())
		return fallback
	}

	ctx = einoobs.WithWorkflowProvider(ctx, "reply", a.provider)

	names := make([]string, 0, len(results))
	for _, r := range results {
		if r.OK {
			names = append(names, string(r.Name))
		}
	}
	prompt := fmt.Sprintf("User request: %s\nTools executed: %s", userMessage, strings.Join(names, ", "))

	out, err := cm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(replySystemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil || strings.TrimSpace(out.Content) == "" {
		if err != nil {
			logger.Warn(ctx, "reply generation failed, using fallback", "error", err.Error())
		}
		return fallback
	}
	return strings.TrimSpace(out.Content)
}

func fallbackNarration(results []ToolResult) string {
	n := 0
	for _, r := range results {
		if r.OK {
			n++
		}
	}
	if n == 0 {
		return "No changes were made."
	}
	if n == 1 {
		return "Done, I applied the change."
	}
	return fmt.Sprintf("Done, I applied %d changes.", n)
}
