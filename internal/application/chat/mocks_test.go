package chat

import (
	"context"

	"storygpt-api/internal/domain/story"
	"storygpt-api/internal/infrastructure/image"
)

// fakeBackend 记录图像调用并返回固定结果
type fakeBackend struct {
	generateCalls []image.GenerateParams
	editCalls     []image.EditParams
	result        string
	err           error
}

func (f *fakeBackend) Generate(_ context.Context, p image.GenerateParams) (string, error) {
	f.generateCalls = append(f.generateCalls, p)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

func (f *fakeBackend) Edit(_ context.Context, p image.EditParams) (string, error) {
	f.editCalls = append(f.editCalls, p)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

// fakePages 固定返回给定页文本
type fakePages struct {
	texts []string
	err   error
	calls int
}

func (f *fakePages) GeneratePages(_ context.Context, _ *story.Document) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.texts, nil
}

// fakeIntent 固定返回一个决策
type fakeIntent struct {
	decision *Decision
	err      error
	// seenHistory 记录传入的历史,用于断言过滤与截断
	seenHistory []story.Message
}

func (f *fakeIntent) Decide(_ context.Context, _ *story.Document, history []story.Message, _ string) (*Decision, error) {
	f.seenHistory = history
	if f.err != nil {
		return nil, f.err
	}
	return f.decision, nil
}

// fakeNarrator 固定答复
type fakeNarrator struct {
	reply string
	calls int
}

func (f *fakeNarrator) Narrate(_ context.Context, _ string, _ []ToolResult) string {
	f.calls++
	return f.reply
}
