package story

import (
	"storygpt-api/pkg/errors"
)

// renumber 重排页索引,使 pages[i].Index == i 恒成立。
// 每次结构性变更 (插入/删除/移动/整体替换) 后调用。
func (st *Story) renumber() {
	for i := range st.Pages {
		st.Pages[i].Index = i
	}
}

// ReplaceText 替换指定页的文本,索引必须落在 [0, len) 内
func (st *Story) ReplaceText(index int, newText string) error {
	if index < 0 || index >= len(st.Pages) {
		return errors.PageIndexOutOfRange(index, len(st.Pages))
	}
	st.Pages[index].Text = newText
	return nil
}

// ReplaceAllPages 丢弃旧页面,按给定文本顺序重建页列表
func (st *Story) ReplaceAllPages(newTexts []string) {
	pages := make([]Page, 0, len(newTexts))
	for i, text := range newTexts {
		pages = append(pages, Page{Index: i, Text: text})
	}
	st.Pages = pages
}

// InsertPage 在指定位置插入新页,index == len 表示追加
func (st *Story) InsertPage(index int, text string) error {
	if index < 0 || index > len(st.Pages) {
		return errors.PageIndexOutOfRange(index, len(st.Pages)+1)
	}
	st.Pages = append(st.Pages, Page{})
	copy(st.Pages[index+1:], st.Pages[index:])
	st.Pages[index] = Page{Text: text}
	st.renumber()
	return nil
}

// DeletePage 删除指定页
func (st *Story) DeletePage(index int) error {
	if index < 0 || index >= len(st.Pages) {
		return errors.PageIndexOutOfRange(index, len(st.Pages))
	}
	st.Pages = append(st.Pages[:index], st.Pages[index+1:]...)
	st.renumber()
	return nil
}

// MovePage 将页面从 fromIndex 移动到 toIndex,两端均要求 [0, len) 内
func (st *Story) MovePage(fromIndex, toIndex int) error {
	n := len(st.Pages)
	if fromIndex < 0 || fromIndex >= n {
		return errors.PageIndexOutOfRange(fromIndex, n)
	}
	if toIndex < 0 || toIndex >= n {
		return errors.PageIndexOutOfRange(toIndex, n)
	}
	if fromIndex == toIndex {
		return nil
	}
	page := st.Pages[fromIndex]
	rest := append(st.Pages[:fromIndex], st.Pages[fromIndex+1:]...)
	rest = append(rest, Page{})
	copy(rest[toIndex+1:], rest[toIndex:])
	rest[toIndex] = page
	st.Pages = rest
	st.renumber()
	return nil
}

// TruncateToPageCount 将页数裁剪到目标页数,同时丢弃越界的插图
func (st *Story) TruncateToPageCount() {
	target := st.TargetPageCount()
	if target < 0 || len(st.Pages) <= target {
		return
	}
	st.Pages = st.Pages[:target]
	st.renumber()
	for idx := range st.Images {
		if idx >= target {
			delete(st.Images, idx)
		}
	}
}

// PatchImage 修改指定页的插图元数据,槽位不存在时自动创建。
// nil 表示字段未提供,保持原值;提示词显式传空串表示清除。
func (st *Story) PatchImage(index int, prompt, size, quality *string) error {
	if index < 0 {
		return errors.PageIndexOutOfRange(index, len(st.Pages))
	}
	img := st.EnsureImage(index)
	if prompt != nil {
		img.Prompt = *prompt
	}
	if size != nil {
		img.Size = *size
	}
	if quality != nil {
		img.Quality = *quality
	}
	return nil
}

// SetGeneratedImage 原子写入生成结果与所用参数,覆盖旧元数据
func (st *Story) SetGeneratedImage(index int, prompt, size, quality, imageData string) error {
	if index < 0 {
		return errors.PageIndexOutOfRange(index, len(st.Pages))
	}
	if st.Images == nil {
		st.Images = ImageSet{}
	}
	st.Images[index] = &PageImage{
		Index:     index,
		Prompt:    prompt,
		Size:      size,
		Quality:   quality,
		ImageData: imageData,
	}
	return nil
}
