package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"storygpt-api/internal/domain/story"
	"storygpt-api/internal/infrastructure/llm"
	einoobs "storygpt-api/internal/observability/eino"
	"storygpt-api/pkg/errors"
	"storygpt-api/pkg/logger"
)

// StoryPagesGenerator 基于故事提示词整本重写页文本
type StoryPagesGenerator struct {
	factory  *llm.EinoFactory
	provider string
}

// NewStoryPagesGenerator 创建页面生成器,provider 为空时使用默认提供商
func NewStoryPagesGenerator(factory *llm.EinoFactory, provider string) *StoryPagesGenerator {
	return &StoryPagesGenerator{factory: factory, provider: provider}
}

// GeneratePages 依据当前文档的提示词/基调/目标页数生成全部页文本。
// 输出经 parsePageTexts 容错解析,解析失败报 MalformedLLMOutput。
func (g *StoryPagesGenerator) GeneratePages(ctx context.Context, doc *story.Document) ([]string, error) {
	if g == nil || g.factory == nil {
		return nil, errors.New(errors.CodeInternalError, "llm factory not configured")
	}

	cm, err := g.factory.Get(ctx, g.provider)
	if err != nil {
		return nil, err
	}

	ctx = einoobs.WithWorkflowProvider(ctx, "page_generate", g.provider)

	msgs := []*schema.Message{
		schema.SystemMessage(pageGenSystemPrompt),
		schema.UserMessage(buildPageGenPrompt(doc)),
	}

	out, err := cm.Generate(ctx, msgs)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLLMCallFailed, "page generation call failed")
	}

	texts, err := parsePageTexts(out.Content)
	if err != nil {
		logger.Warn(ctx, "page generation output unparsable",
			"raw", truncateByRunes(out.Content, 200))
		return nil, err
	}
	return texts, nil
}

const pageGenSystemPrompt = `You are a children's story writer. ` +
	`Given a story premise you write the full story as a list of pages. ` +
	`Each page is one short paragraph of narration. ` +
	`Respond with a JSON array of strings, one string per page, and nothing else.`

// buildPageGenPrompt 把文档状态拼成一次生成请求
func buildPageGenPrompt(doc *story.Document) string {
	st := doc.Story

	var b strings.Builder
	fmt.Fprintf(&b, "Story premise: %s\n", strings.TrimSpace(st.Prompt))
	if st.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", st.Title)
	}
	if st.Genre != "" {
		fmt.Fprintf(&b, "Genre: %s\n", st.Genre)
	}
	if len(st.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(st.Keywords, ", "))
	}
	if st.Settings != nil && st.Settings.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", st.Settings.Tone)
	}
	fmt.Fprintf(&b, "Write exactly %d pages.\n", st.TargetPageCount())

	if len(doc.Entities) > 0 {
		b.WriteString("Recurring characters/objects:\n")
		for _, ent := range doc.Entities {
			if ent.Prompt != "" {
				fmt.Fprintf(&b, "- %s: %s\n", ent.Name, ent.Prompt)
			} else {
				fmt.Fprintf(&b, "- %s\n", ent.Name)
			}
		}
	}
	return b.String()
}
