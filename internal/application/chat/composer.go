package chat

import (
	"context"
	"encoding/base64"
	"strings"

	"storygpt-api/internal/config"
	"storygpt-api/internal/domain/story"
	"storygpt-api/internal/infrastructure/image"
	"storygpt-api/pkg/errors"
	"storygpt-api/pkg/logger"
)

// EntityPromptScope 合成提示词时收集实体描述的范围
const (
	EntityPromptScopeAll        = "all"
	EntityPromptScopeReferenced = "referenced"
)

// ImageBackend 图像生成能力,Generate 纯文生图,Edit 带参考图
type ImageBackend interface {
	Generate(ctx context.Context, p image.GenerateParams) (string, error)
	Edit(ctx context.Context, p image.EditParams) (string, error)
}

// Composer 将 (提示词, 被引用实体) 合成为一次图像生成请求
type Composer struct {
	backend ImageBackend
	cfg     *config.ImageConfig
	// promptScope 为 all 时注册表内所有带提示词的实体都贡献文本行,
	// 为 referenced 时仅限本次点名的实体
	promptScope string
}

// NewComposer 创建图像合成器
func NewComposer(backend ImageBackend, cfg *config.ImageConfig, promptScope string) *Composer {
	if promptScope != EntityPromptScopeReferenced {
		promptScope = EntityPromptScopeAll
	}
	return &Composer{backend: backend, cfg: cfg, promptScope: promptScope}
}

// ComposeInput 一次合成请求
type ComposeInput struct {
	Prompt      string
	EntityNames []string
	Size        string
	Quality     string
}

// Compose 合成提示词并调用图像能力,返回 base64 编码的结果。
// 被点名实体带参考图时走图像编辑,否则走文生图;
// 既无提示词也无任何素材时报客户端错误。
func (c *Composer) Compose(ctx context.Context, doc *story.Document, in ComposeInput) (string, error) {
	referenced := c.resolveEntities(ctx, doc, in.EntityNames)

	refImages, err := decodeReferenceImages(referenced)
	if err != nil {
		return "", err
	}

	prompt := c.composePrompt(doc, referenced, in.Prompt)

	size := in.Size
	if size == "" {
		size = c.cfg.DefaultSize
	}
	quality := in.Quality
	if quality == "" {
		quality = c.cfg.DefaultQuality
	}

	if len(refImages) > 0 {
		return c.backend.Edit(ctx, image.EditParams{
			Prompt:  prompt,
			Images:  refImages,
			Size:    size,
			Quality: quality,
		})
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.ErrNoImageInputs
	}
	return c.backend.Generate(ctx, image.GenerateParams{
		Prompt:  prompt,
		Size:    size,
		Quality: quality,
	})
}

// resolveEntities 按名称解析实体,未注册的名称直接丢弃
func (c *Composer) resolveEntities(ctx context.Context, doc *story.Document, names []string) []*story.Entity {
	out := make([]*story.Entity, 0, len(names))
	for _, name := range names {
		ent := doc.FindEntity(name)
		if ent == nil {
			logger.Debug(ctx, "image composition dropped unknown entity", "entity", name)
			continue
		}
		out = append(out, ent)
	}
	return out
}

// composePrompt 在基础提示词后追加实体描述行,空行分隔。
// 带参考图的实体措辞为"在图上追加",纯文本实体措辞为独立描述。
func (c *Composer) composePrompt(doc *story.Document, referenced []*story.Entity, base string) string {
	var contributors []*story.Entity
	if c.promptScope == EntityPromptScopeReferenced {
		contributors = referenced
	} else {
		for i := range doc.Entities {
			contributors = append(contributors, &doc.Entities[i])
		}
	}

	var entityLines []string
	for _, ent := range contributors {
		if strings.TrimSpace(ent.Prompt) == "" {
			continue
		}
		if ent.ReferenceImage != "" {
			entityLines = append(entityLines, ent.Name+": add the following to the image – "+ent.Prompt)
		} else {
			entityLines = append(entityLines, ent.Name+": "+ent.Prompt)
		}
	}

	// 空行分隔主描述和实体块,实体行之间单换行
	block := strings.Join(entityLines, "\n")
	switch {
	case strings.TrimSpace(base) == "":
		return block
	case block == "":
		return base
	default:
		return base + "\n\n" + block
	}
}

func decodeReferenceImages(referenced []*story.Entity) ([][]byte, error) {
	var out [][]byte
	for _, ent := range referenced {
		if ent.ReferenceImage == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(ent.ReferenceImage)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidParam,
				"invalid reference image for entity "+ent.Name)
		}
		out = append(out, raw)
	}
	return out, nil
}
