package chat

import (
	"fmt"
	"strings"

	"storygpt-api/internal/domain/story"
)

const summaryPromptRunes = 60

// buildDocumentSummary 把当前文档压缩成喂给模型的状态摘要。
// 只描述结构和提示词摘录,不携带页全文和图像数据。
func buildDocumentSummary(doc *story.Document) string {
	st := doc.Story

	var b strings.Builder
	b.WriteString("Current story state:\n")
	fmt.Fprintf(&b, "- premise: %s\n", excerpt(st.Prompt))
	if st.Title != "" {
		fmt.Fprintf(&b, "- title: %s\n", st.Title)
	}
	if st.Genre != "" {
		fmt.Fprintf(&b, "- genre: %s\n", st.Genre)
	}
	if len(st.Keywords) > 0 {
		fmt.Fprintf(&b, "- keywords: %s\n", strings.Join(st.Keywords, ", "))
	}
	if st.Settings != nil && st.Settings.Tone != "" {
		fmt.Fprintf(&b, "- tone: %s\n", st.Settings.Tone)
	}
	fmt.Fprintf(&b, "- target page count: %d\n", st.TargetPageCount())
	fmt.Fprintf(&b, "- pages: %d (valid indexes 0..%d)\n", len(st.Pages), len(st.Pages)-1)

	for _, p := range st.Pages {
		fmt.Fprintf(&b, "  - page %d: %s\n", p.Index, excerpt(p.Text))
	}

	if len(st.Images) > 0 {
		b.WriteString("- illustrations:\n")
		for i := 0; i <= st.Images.MaxIndex(); i++ {
			img := st.Images.Get(i)
			if img == nil {
				continue
			}
			state := "prompt only"
			if img.ImageData != "" {
				state = "generated"
			}
			fmt.Fprintf(&b, "  - page %d (%s): %s\n", i, state, excerpt(img.Prompt))
		}
	}

	if len(doc.Entities) > 0 {
		b.WriteString("- entities:\n")
		for _, ent := range doc.Entities {
			marker := "no reference image"
			if ent.ReferenceImage != "" {
				marker = "has reference image"
			}
			fmt.Fprintf(&b, "  - %s (%s): %s\n", ent.Name, marker, excerpt(ent.Prompt))
		}
	} else {
		b.WriteString("- entities: none\n")
	}
	return b.String()
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(empty)"
	}
	t := truncateByRunes(s, summaryPromptRunes)
	if t != s {
		t += "…"
	}
	return t
}
