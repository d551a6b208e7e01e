// Package story 定义故事文档领域模型
package story

import (
	"encoding/json"
)

// DefaultTargetPageCount 新故事的默认目标页数
const DefaultTargetPageCount = 5

// 图像默认参数
const (
	DefaultImageSize    = "1024x1024"
	DefaultImageQuality = "low"
)

// Page 故事页面,Index 始终等于其在 Pages 中的位置
type Page struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// PageImage 页面插图的提示词、参数与生成结果
type PageImage struct {
	Index     int    `json:"index"`
	Prompt    string `json:"prompt,omitempty"`
	Size      string `json:"size,omitempty"`
	Quality   string `json:"quality,omitempty"`
	ImageData string `json:"image_data,omitempty"` // base64 编码的图像数据
}

// Settings 故事级别设置
type Settings struct {
	Tone            string `json:"tone,omitempty"`
	TargetPageCount int    `json:"target_page_count,omitempty"`
}

// ImageSet 按页索引稀疏存储的插图集合。
// 对外序列化为与页索引对齐的数组,空洞以 null 表示。
type ImageSet map[int]*PageImage

// MarshalJSON 序列化为长度 maxIndex+1 的数组
func (s ImageSet) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	max := -1
	for idx := range s {
		if idx > max {
			max = idx
		}
	}
	arr := make([]*PageImage, max+1)
	for idx, img := range s {
		if idx >= 0 {
			arr[idx] = img
		}
	}
	return json.Marshal(arr)
}

// UnmarshalJSON 从数组还原,null 槽位不产生条目
func (s *ImageSet) UnmarshalJSON(data []byte) error {
	var arr []*PageImage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	out := make(ImageSet, len(arr))
	for i, img := range arr {
		if img == nil {
			continue
		}
		img.Index = i
		out[i] = img
	}
	*s = out
	return nil
}

// Get 返回指定索引的插图,不存在时返回 nil
func (s ImageSet) Get(index int) *PageImage {
	return s[index]
}

// MaxIndex 返回已占用的最大索引,集合为空时返回 -1
func (s ImageSet) MaxIndex() int {
	max := -1
	for idx := range s {
		if idx > max {
			max = idx
		}
	}
	return max
}

// Story 故事文档聚合根
type Story struct {
	Prompt   string    `json:"prompt"`
	Title    string    `json:"title,omitempty"`
	Genre    string    `json:"genre,omitempty"`
	Keywords []string  `json:"keywords,omitempty"`
	Pages    []Page    `json:"pages"`
	Images   ImageSet  `json:"images"`
	Settings *Settings `json:"settings,omitempty"`
}

// NewStory 创建带默认设置的空故事
func NewStory() *Story {
	return &Story{
		Pages:  []Page{},
		Images: ImageSet{},
		Settings: &Settings{
			TargetPageCount: DefaultTargetPageCount,
		},
	}
}

// EnsureDefaults 补齐缺失的集合与设置,反序列化后的文档可能缺字段
func (st *Story) EnsureDefaults() {
	if st.Pages == nil {
		st.Pages = []Page{}
	}
	if st.Images == nil {
		st.Images = ImageSet{}
	}
	if st.Settings == nil {
		st.Settings = &Settings{TargetPageCount: DefaultTargetPageCount}
	}
	if st.Settings.TargetPageCount <= 0 {
		st.Settings.TargetPageCount = DefaultTargetPageCount
	}
}

// TargetPageCount 返回目标页数,未设置时返回默认值
func (st *Story) TargetPageCount() int {
	if st.Settings != nil && st.Settings.TargetPageCount > 0 {
		return st.Settings.TargetPageCount
	}
	return DefaultTargetPageCount
}

// ImageAt 返回指定页的插图,不存在时返回 nil
func (st *Story) ImageAt(index int) *PageImage {
	return st.Images.Get(index)
}

// EnsureImage 返回指定页的插图槽位,不存在时创建
func (st *Story) EnsureImage(index int) *PageImage {
	if st.Images == nil {
		st.Images = ImageSet{}
	}
	if img := st.Images[index]; img != nil {
		return img
	}
	img := &PageImage{Index: index}
	st.Images[index] = img
	return img
}

// Document 对话核心操作的完整文档:故事 + 实体注册表
type Document struct {
	Story    *Story   `json:"story"`
	Entities []Entity `json:"entities"`
}

// NewDocument 创建空文档
func NewDocument() *Document {
	return &Document{
		Story:    NewStory(),
		Entities: []Entity{},
	}
}

// EnsureDefaults 补齐文档中缺失的部分
func (d *Document) EnsureDefaults() {
	if d.Story == nil {
		d.Story = NewStory()
	}
	d.Story.EnsureDefaults()
	if d.Entities == nil {
		d.Entities = []Entity{}
	}
}
