package chat

import (
	"context"
	"time"

	"storygpt-api/internal/domain/story"
	"storygpt-api/pkg/errors"
	"storygpt-api/pkg/logger"
	"storygpt-api/pkg/metrics"
	"storygpt-api/pkg/tracer"
)

// PageGenerator 由故事提示词生成整本页文本的能力
type PageGenerator interface {
	GeneratePages(ctx context.Context, doc *story.Document) ([]string, error)
}

// SideOutput 工具执行的旁路输出,独立于文档变更
type SideOutput struct {
	// ImageData generate_image 产出的 base64 图像
	ImageData string
}

// ToolResult 批次中单个调用的执行结果
type ToolResult struct {
	Name  ToolName `json:"name"`
	OK    bool     `json:"ok"`
	Error string   `json:"error,omitempty"`
}

// Dispatcher 工具分发器。自身无状态,对 (文档, 调用) 逐个求值;
// 同一批次内按顺序执行,后面的调用看得到前面的变更,失败不回滚。
type Dispatcher struct {
	composer *Composer
	pages    PageGenerator
	// regenerate 为 true 时 edit_story_prompt 会连带重新生成全部页面
	regenerate bool
}

// NewDispatcher 创建分发器,pages 传 nil 时 edit_story_prompt 只改提示词
func NewDispatcher(composer *Composer, pages PageGenerator, regenerateOnPromptEdit bool) *Dispatcher {
	return &Dispatcher{
		composer:   composer,
		pages:      pages,
		regenerate: regenerateOnPromptEdit,
	}
}

// ApplyAll 按顺序执行一个批次。首个失败的调用终止批次并返回其错误,
// 已执行调用的变更保留在 doc 中;results 记录到失败为止每个调用的结果。
func (d *Dispatcher) ApplyAll(ctx context.Context, doc *story.Document, calls []ToolCall) ([]ToolResult, *SideOutput, error) {
	side := &SideOutput{}
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		if err := d.Apply(ctx, doc, call, side); err != nil {
			results = append(results, ToolResult{Name: call.Name, Error: err.Error()})
			return results, side, err
		}
		results = append(results, ToolResult{Name: call.Name, OK: true})
	}
	return results, side, nil
}

// Apply 对文档执行单个工具调用,生成类工具的旁路输出写入 side
func (d *Dispatcher) Apply(ctx context.Context, doc *story.Document, call ToolCall, side *SideOutput) (err error) {
	ctx, span := tracer.Start(ctx, "chat.tool."+string(call.Name))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ToolCallsTotal.WithLabelValues(string(call.Name), status).Inc()
		metrics.ToolCallDuration.WithLabelValues(string(call.Name)).Observe(time.Since(start).Seconds())
	}()

	st := doc.Story

	switch args := call.Args.(type) {
	case *EditStoryPromptArgs:
		st.Prompt = args.NewPrompt
		if d.regenerate && d.pages != nil {
			texts, genErr := d.pages.GeneratePages(ctx, doc)
			if genErr != nil {
				return genErr
			}
			st.ReplaceAllPages(texts)
		}
		return nil

	case *EditStoryTitleArgs:
		st.Title = args.Title
		return nil

	case *EditStoryGenreArgs:
		st.Genre = args.Genre
		return nil

	case *EditStoryKeywordsArgs:
		st.Keywords = args.Keywords
		return nil

	case *EditStoryToneArgs:
		if st.Settings == nil {
			st.Settings = &story.Settings{}
		}
		st.Settings.Tone = args.Tone
		return nil

	case *EditTargetPageCountArgs:
		if st.Settings == nil {
			st.Settings = &story.Settings{}
		}
		st.Settings.TargetPageCount = args.TargetPageCount
		return nil

	case *TruncateToPageCountArgs:
		st.TruncateToPageCount()
		return nil

	case *EditTextArgs:
		return st.ReplaceText(args.Index, args.NewText)

	case *EditAllArgs:
		st.ReplaceAllPages(args.NewTexts)
		return nil

	case *InsertPageArgs:
		return st.InsertPage(args.Index, args.Text)

	case *DeletePageArgs:
		return st.DeletePage(args.Index)

	case *MovePageArgs:
		return st.MovePage(args.FromIndex, args.ToIndex)

	case *AddEntityArgs:
		doc.UpsertEntity(args.Name, args.ReferenceImage, args.Prompt)
		return nil

	case *UpdateEntityArgs:
		return doc.UpdateEntity(args.Name, story.EntityPatch{
			NewName:        args.NewName,
			ReferenceImage: args.ReferenceImage,
			Prompt:         args.Prompt,
		})

	case *DeleteEntityArgs:
		return doc.DeleteEntity(args.Name)

	case *EditImagePromptArgs:
		return st.PatchImage(args.Index, args.Prompt, args.Size, args.Quality)

	case *GenerateImageForPageArgs:
		data, genErr := d.composer.Compose(ctx, doc, ComposeInput{
			Prompt:      args.Prompt,
			EntityNames: args.EntityNames,
			Size:        args.Size,
			Quality:     args.Quality,
		})
		if genErr != nil {
			return genErr
		}
		size := args.Size
		if size == "" {
			size = d.composer.cfg.DefaultSize
		}
		quality := args.Quality
		if quality == "" {
			quality = d.composer.cfg.DefaultQuality
		}
		return st.SetGeneratedImage(args.Index, args.Prompt, size, quality, data)

	case *GenerateImageArgs:
		data, genErr := d.composer.Compose(ctx, doc, ComposeInput{
			Prompt:      args.Prompt,
			EntityNames: args.EntityNames,
		})
		if genErr != nil {
			return genErr
		}
		side.ImageData = data
		return nil

	case *NoToolArgs:
		logger.Debug(ctx, "no_tool dispatched, document unchanged")
		return nil

	default:
		// ParseToolCall 只产出目录内的类型,走到这里说明联合被绕过了
		return errors.UnknownTool(string(call.Name))
	}
}
