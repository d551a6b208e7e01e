// Package eino 为 Eino 模型调用注册进程级的指标与追踪回调
package eino

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

// WithWorkflowProvider 标记本次调用所属的工作流与提供商,回调据此打点
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	if w := strings.TrimSpace(workflow); w != "" {
		ctx = context.WithValue(ctx, llmCtxKeyWorkflow, w)
	}
	if p := strings.TrimSpace(provider); p != "" {
		ctx = context.WithValue(ctx, llmCtxKeyProvider, p)
	}
	return ctx
}

// WorkflowFromContext 读取工作流标记,缺省返回 unknown
func WorkflowFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(llmCtxKeyWorkflow).(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return "unknown"
}

// ProviderFromContext 读取提供商标记,缺省返回 unknown
func ProviderFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(llmCtxKeyProvider).(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return "unknown"
}
