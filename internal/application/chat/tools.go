// Package chat 实现对话式故事编辑的核心编排:
// 意图识别 -> 工具分发 -> 文档变更 -> 答复生成。
package chat

import (
	"encoding/json"

	"github.com/cloudwego/eino/schema"

	"storygpt-api/pkg/errors"
)

// ToolName 工具目录中的工具名
type ToolName string

const (
	ToolEditStoryPrompt      ToolName = "edit_story_prompt"
	ToolEditStoryTitle       ToolName = "edit_story_title"
	ToolEditStoryGenre       ToolName = "edit_story_genre"
	ToolEditStoryKeywords    ToolName = "edit_story_keywords"
	ToolEditStoryTone        ToolName = "edit_story_tone"
	ToolEditTargetPageCount  ToolName = "edit_target_page_count"
	ToolTruncateToPageCount  ToolName = "truncate_to_page_count"
	ToolEditText             ToolName = "edit_text"
	ToolEditAll              ToolName = "edit_all"
	ToolInsertPage           ToolName = "insert_page"
	ToolDeletePage           ToolName = "delete_page"
	ToolMovePage             ToolName = "move_page"
	ToolAddEntity            ToolName = "add_entity"
	ToolUpdateEntity         ToolName = "update_entity"
	ToolDeleteEntity         ToolName = "delete_entity"
	ToolEditImagePrompt      ToolName = "edit_image_prompt"
	ToolGenerateImageForPage ToolName = "generate_image_for_index"
	ToolGenerateImage        ToolName = "generate_image"
	ToolNoTool               ToolName = "no_tool"
)

// ToolArgs 各工具参数的封闭联合,新增工具必须同时扩展 ParseToolCall 与 Dispatcher.Apply
type ToolArgs interface {
	isToolArgs()
}

// ToolCall 一次具名工具调用
type ToolCall struct {
	Name ToolName
	Args ToolArgs
}

type EditStoryPromptArgs struct {
	NewPrompt string `json:"new_prompt"`
}

type EditStoryTitleArgs struct {
	Title string `json:"title"`
}

type EditStoryGenreArgs struct {
	Genre string `json:"genre"`
}

type EditStoryKeywordsArgs struct {
	Keywords []string `json:"keywords"`
}

type EditStoryToneArgs struct {
	Tone string `json:"tone"`
}

type EditTargetPageCountArgs struct {
	TargetPageCount int `json:"target_page_count"`
}

type TruncateToPageCountArgs struct{}

type EditTextArgs struct {
	Index   int    `json:"index"`
	NewText string `json:"new_text"`
}

type EditAllArgs struct {
	NewTexts []string `json:"new_texts"`
}

type InsertPageArgs struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type DeletePageArgs struct {
	Index int `json:"index"`
}

type MovePageArgs struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

// AddEntityArgs 指针字段区分"未提供"与"显式置空"
type AddEntityArgs struct {
	Name           string  `json:"name"`
	ReferenceImage *string `json:"reference_image"`
	Prompt         *string `json:"prompt"`
}

type UpdateEntityArgs struct {
	Name           string  `json:"name"`
	NewName        *string `json:"new_name"`
	ReferenceImage *string `json:"reference_image"`
	Prompt         *string `json:"prompt"`
}

type DeleteEntityArgs struct {
	Name string `json:"name"`
}

type EditImagePromptArgs struct {
	Index   int     `json:"index"`
	Prompt  *string `json:"prompt"`
	Size    *string `json:"size"`
	Quality *string `json:"quality"`
}

type GenerateImageForPageArgs struct {
	Index       int      `json:"index"`
	Prompt      string   `json:"prompt"`
	EntityNames []string `json:"entity_names"`
	Size        string   `json:"size"`
	Quality     string   `json:"quality"`
}

type GenerateImageArgs struct {
	Prompt      string   `json:"prompt"`
	EntityNames []string `json:"entity_names"`
}

type NoToolArgs struct{}

func (EditStoryPromptArgs) isToolArgs()      {}
func (EditStoryTitleArgs) isToolArgs()       {}
func (EditStoryGenreArgs) isToolArgs()       {}
func (EditStoryKeywordsArgs) isToolArgs()    {}
func (EditStoryToneArgs) isToolArgs()        {}
func (EditTargetPageCountArgs) isToolArgs()  {}
func (TruncateToPageCountArgs) isToolArgs()  {}
func (EditTextArgs) isToolArgs()             {}
func (EditAllArgs) isToolArgs()              {}
func (InsertPageArgs) isToolArgs()           {}
func (DeletePageArgs) isToolArgs()           {}
func (MovePageArgs) isToolArgs()             {}
func (AddEntityArgs) isToolArgs()            {}
func (UpdateEntityArgs) isToolArgs()         {}
func (DeleteEntityArgs) isToolArgs()         {}
func (EditImagePromptArgs) isToolArgs()      {}
func (GenerateImageForPageArgs) isToolArgs() {}
func (GenerateImageArgs) isToolArgs()        {}
func (NoToolArgs) isToolArgs()               {}

// ParseToolCall 将模型返回的 (工具名, JSON 参数) 解析为强类型调用。
// 目录外的名称在这里挡下,不会进入分发器。
func ParseToolCall(name string, argumentsInJSON string) (ToolCall, error) {
	if argumentsInJSON == "" {
		argumentsInJSON = "{}"
	}
	decode := func(into ToolArgs) (ToolCall, error) {
		if err := json.Unmarshal([]byte(argumentsInJSON), into); err != nil {
			return ToolCall{}, errors.Wrap(err, errors.CodeInvalidParam, "invalid tool arguments for "+name)
		}
		return ToolCall{Name: ToolName(name), Args: into}, nil
	}

	switch ToolName(name) {
	case ToolEditStoryPrompt:
		return decode(&EditStoryPromptArgs{})
	case ToolEditStoryTitle:
		return decode(&EditStoryTitleArgs{})
	case ToolEditStoryGenre:
		return decode(&EditStoryGenreArgs{})
	case ToolEditStoryKeywords:
		return decode(&EditStoryKeywordsArgs{})
	case ToolEditStoryTone:
		return decode(&EditStoryToneArgs{})
	case ToolEditTargetPageCount:
		return decode(&EditTargetPageCountArgs{})
	case ToolTruncateToPageCount:
		return decode(&TruncateToPageCountArgs{})
	case ToolEditText:
		return decode(&EditTextArgs{})
	case ToolEditAll:
		return decode(&EditAllArgs{})
	case ToolInsertPage:
		return decode(&InsertPageArgs{})
	case ToolDeletePage:
		return decode(&DeletePageArgs{})
	case ToolMovePage:
		return decode(&MovePageArgs{})
	case ToolAddEntity:
		return decode(&AddEntityArgs{})
	case ToolUpdateEntity:
		return decode(&UpdateEntityArgs{})
	case ToolDeleteEntity:
		return decode(&DeleteEntityArgs{})
	case ToolEditImagePrompt:
		return decode(&EditImagePromptArgs{})
	case ToolGenerateImageForPage:
		return decode(&GenerateImageForPageArgs{})
	case ToolGenerateImage:
		return decode(&GenerateImageArgs{})
	case ToolNoTool:
		return decode(&NoToolArgs{})
	default:
		return ToolCall{}, errors.UnknownTool(name)
	}
}

// toolInfos 向模型公开的工具目录
func toolInfos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: string(ToolEditStoryPrompt),
			Desc: "Set the story's overall premise. Regenerates all pages from the new premise, consulting registered entities, tone and target page count.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"new_prompt": {Type: schema.String, Desc: "The new story premise", Required: true},
			}),
		},
		{
			Name: string(ToolEditStoryTitle),
			Desc: "Set the story's title without touching pages.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"title": {Type: schema.String, Desc: "New title", Required: true},
			}),
		},
		{
			Name: string(ToolEditStoryGenre),
			Desc: "Set the story's genre without touching pages.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"genre": {Type: schema.String, Desc: "New genre", Required: true},
			}),
		},
		{
			Name: string(ToolEditStoryKeywords),
			Desc: "Replace the story's keyword list.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"keywords": {
					Type:     schema.Array,
					Desc:     "New keywords",
					Required: true,
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
			}),
		},
		{
			Name: string(ToolEditStoryTone),
			Desc: "Set the story's tone (e.g. whimsical, dark). Does not rewrite existing pages.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"tone": {Type: schema.String, Desc: "New tone", Required: true},
			}),
		},
		{
			Name: string(ToolEditTargetPageCount),
			Desc: "Set the desired total page count. Does not add or remove pages by itself.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"target_page_count": {Type: schema.Integer, Desc: "Desired page count", Required: true},
			}),
		},
		{
			Name:        string(ToolTruncateToPageCount),
			Desc:        "Drop pages beyond the target page count so the story matches it.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name: string(ToolEditText),
			Desc: "Replace the text of one existing page.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"index":    {Type: schema.Integer, Desc: "Zero-based page index", Required: true},
				"new_text": {Type: schema.String, Desc: "Replacement text", Required: true},
			}),
		},
		{
			Name: string(ToolEditAll),
			Desc: "Replace the entire page list with new texts, in order.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"new_texts": {
					Type:     schema.Array,
					Desc:     "All page texts in reading order",
					Required: true,
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
			}),
		},
		{
			Name: string(ToolInsertPage),
			Desc: "Insert a new page at the given index. Index equal to the page count appends at the end.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"index": {Type: schema.Integer, Desc: "Insertion position", Required: true},
				"text":  {Type: schema.String, Desc: "Text for the new page", Required: true},
			}),
		},
		{
			Name: string(ToolDeletePage),
			Desc: "Delete the page at the given index.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"index": {Type: schema.Integer, Desc: "Zero-based page index", Required: true},
			}),
		},
		{
			Name: string(ToolMovePage),
			Desc: "Move a page from one position to another.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"from_index": {Type: schema.Integer, Desc: "Current position", Required: true},
				"to_index":   {Type: schema.Integer, Desc: "Target position", Required: true},
			}),
		},
		{
			Name: string(ToolAddEntity),
			Desc: "Register a named character/object. If the name already exists the provided fields update it instead of failing.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name":            {Type: schema.String, Desc: "Unique entity name, case-sensitive", Required: true},
				"reference_image": {Type: schema.String, Desc: "Optional base64 reference picture"},
				"prompt":          {Type: schema.String, Desc: "Visual description, or modifications on top of the reference image"},
			}),
		},
		{
			Name: string(ToolUpdateEntity),
			Desc: "Patch an existing entity. Omitted fields stay unchanged; an empty prompt clears it. Renaming fails if the new name is taken.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name":            {Type: schema.String, Desc: "Entity to update", Required: true},
				"new_name":        {Type: schema.String, Desc: "Optional new name"},
				"reference_image": {Type: schema.String, Desc: "Optional base64 reference picture"},
				"prompt":          {Type: schema.String, Desc: "Optional new prompt; empty string clears it"},
			}),
		},
		{
			Name: string(ToolDeleteEntity),
			Desc: "Remove an entity from the registry.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name": {Type: schema.String, Desc: "Entity to delete", Required: true},
			}),
		},
		{
			Name: string(ToolEditImagePrompt),
			Desc: "Edit the illustration prompt/size/quality for a page WITHOUT generating pixels. Prefer this when the user talks about image prompts rather than actual images.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"index":   {Type: schema.Integer, Desc: "Page index the illustration belongs to", Required: true},
				"prompt":  {Type: schema.String, Desc: "New illustration prompt"},
				"size":    {Type: schema.String, Desc: "e.g. 1024x1024"},
				"quality": {Type: schema.String, Desc: "low, medium or high"},
			}),
		},
		{
			Name: string(ToolGenerateImageForPage),
			Desc: "Generate an illustration and attach it to a specific page. Only call when the user explicitly asks for an image. Prefer this over generate_image when a page is targeted.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"index":  {Type: schema.Integer, Desc: "Page to attach the image to", Required: true},
				"prompt": {Type: schema.String, Desc: "Base prompt for the illustration", Required: true},
				"entity_names": {
					Type:     schema.Array,
					Desc:     "Entities whose reference images/descriptions should be used",
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
				"size":    {Type: schema.String, Desc: "e.g. 1024x1024"},
				"quality": {Type: schema.String, Desc: "low, medium or high"},
			}),
		},
		{
			Name: string(ToolGenerateImage),
			Desc: "Generate a standalone image not bound to any page. Only call when the user explicitly asks for an image.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"prompt": {Type: schema.String, Desc: "Base prompt for the image", Required: true},
				"entity_names": {
					Type:     schema.Array,
					Desc:     "Entities whose reference images/descriptions should be used",
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
			}),
		},
		{
			Name:        string(ToolNoTool),
			Desc:        "Explicit no-op: the user is just chatting and no document change is needed.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
	}
}
