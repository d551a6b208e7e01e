package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygpt-api/internal/config"
	"storygpt-api/internal/domain/story"
)

func testChatConfig() *config.ChatConfig {
	return &config.ChatConfig{
		MaxHistory:             20,
		DefaultTargetPageCount: 5,
		EntityPromptScope:      EntityPromptScopeAll,
		RegenerateOnPromptEdit: true,
		ReplyEnabled:           true,
	}
}

func newTestService(intent IntentDecider, narrator Narrator) *Service {
	dispatcher := newTestDispatcher(&fakeBackend{result: "img"}, &fakePages{texts: []string{"p0"}}, true)
	return NewService(intent, narrator, dispatcher, testChatConfig())
}

func TestService_HandleTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("执行批次并汇报", func(t *testing.T) {
		intent := &fakeIntent{decision: &Decision{Calls: []ToolCall{
			mustCall(t, ToolInsertPage, `{"index":0,"text":"새"}`),
		}}}
		narrator := &fakeNarrator{reply: "已插入一页"}
		svc := newTestService(intent, narrator)
		doc := makeDoc("a")

		out, err := svc.HandleTurn(ctx, TurnInput{Document: doc, UserMessage: "在开头插一页"})
		require.NoError(t, err)
		assert.Equal(t, "已插入一页", out.Reply)
		require.Len(t, out.Results, 1)
		assert.True(t, out.Results[0].OK)
		assert.Len(t, out.Document.Story.Pages, 2)
	})

	t.Run("历史依次是用户/审计/助手", func(t *testing.T) {
		intent := &fakeIntent{decision: &Decision{Calls: []ToolCall{
			mustCall(t, ToolEditStoryTone, `{"tone":"dark"}`),
		}}}
		svc := newTestService(intent, &fakeNarrator{reply: "ok"})

		out, err := svc.HandleTurn(ctx, TurnInput{Document: makeDoc("a"), UserMessage: "调暗一点"})
		require.NoError(t, err)
		require.Len(t, out.History, 3)
		assert.Equal(t, story.RoleUser, out.History[0].Role)
		assert.Equal(t, story.RoleToolAudit, out.History[1].Role)
		assert.Contains(t, out.History[1].Content, "edit_story_tone")
		assert.Equal(t, story.RoleAssistant, out.History[2].Role)
	})

	t.Run("审计消息不进模型历史", func(t *testing.T) {
		intent := &fakeIntent{decision: &Decision{Reply: "聊聊天"}}
		svc := newTestService(intent, &fakeNarrator{})

		history := []story.Message{
			{Role: story.RoleUser, Content: "你好"},
			{Role: story.RoleToolAudit, Content: `{"tools":[]}`},
			{Role: story.RoleAssistant, Content: "你好呀"},
		}
		_, err := svc.HandleTurn(ctx, TurnInput{Document: makeDoc("a"), History: history, UserMessage: "继续"})
		require.NoError(t, err)
		require.Len(t, intent.seenHistory, 2)
		for _, m := range intent.seenHistory {
			assert.NotEqual(t, story.RoleToolAudit, m.Role)
		}
	})

	t.Run("历史超窗截断到上限", func(t *testing.T) {
		intent := &fakeIntent{decision: &Decision{Reply: "好"}}
		svc := newTestService(intent, &fakeNarrator{})

		var history []story.Message
		for i := 0; i < 30; i++ {
			history = append(history, story.Message{Role: story.RoleUser, Content: fmt.Sprintf("m%d", i)})
		}
		out, err := svc.HandleTurn(ctx, TurnInput{Document: makeDoc("a"), History: history, UserMessage: "x"})
		require.NoError(t, err)
		assert.Len(t, intent.seenHistory, 20)
		assert.Len(t, out.History, 20)
	})

	t.Run("无工具直接回答", func(t *testing.T) {
		intent := &fakeIntent{decision: &Decision{Reply: "这个故事讲的是勇气"}}
		narrator := &fakeNarrator{reply: "unused"}
		svc := newTestService(intent, narrator)

		out, err := svc.HandleTurn(ctx, TurnInput{Document: makeDoc("a"), UserMessage: "故事讲了什么?"})
		require.NoError(t, err)
		assert.Equal(t, "这个故事讲的是勇气", out.Reply)
		assert.Empty(t, out.Results)
		assert.Equal(t, 0, narrator.calls)
	})

	t.Run("空文档自动补默认值", func(t *testing.T) {
		intent := &fakeIntent{decision: &Decision{Reply: "好"}}
		svc := newTestService(intent, &fakeNarrator{})

		out, err := svc.HandleTurn(ctx, TurnInput{UserMessage: "你好"})
		require.NoError(t, err)
		require.NotNil(t, out.Document.Story)
		assert.Equal(t, 5, out.Document.Story.TargetPageCount())
	})

	t.Run("批次失败保留已执行的变更", func(t *testing.T) {
		intent := &fakeIntent{decision: &Decision{Calls: []ToolCall{
			mustCall(t, ToolInsertPage, `{"index":1,"text":"b"}`),
			mustCall(t, ToolDeletePage, `{"index":9}`),
		}}}
		svc := newTestService(intent, &fakeNarrator{reply: "unused"})
		doc := makeDoc("a")

		out, err := svc.HandleTurn(ctx, TurnInput{Document: doc, UserMessage: "x"})
		require.Error(t, err)
		require.Len(t, out.Results, 2)
		assert.True(t, out.Results[0].OK)
		assert.False(t, out.Results[1].OK)
		assert.Len(t, out.Document.Story.Pages, 2)
		// 失败批次也要留下审计记录
		var audits int
		for _, m := range out.History {
			if m.Role == story.RoleToolAudit {
				audits++
			}
		}
		assert.Equal(t, 1, audits)
	})

	t.Run("generate_image 的旁路图像透传", func(t *testing.T) {
		intent := &fakeIntent{decision: &Decision{Calls: []ToolCall{
			mustCall(t, ToolGenerateImage, `{"prompt":"封面"}`),
		}}}
		svc := newTestService(intent, &fakeNarrator{reply: "画好了"})

		out, err := svc.HandleTurn(ctx, TurnInput{Document: makeDoc("a"), UserMessage: "画个封面"})
		require.NoError(t, err)
		assert.Equal(t, "img", out.ImageData)
	})
}
