package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDocumentSummary(t *testing.T) {
	t.Run("包含页数/索引范围/实体", func(t *testing.T) {
		doc := makeDoc("小猫醒来了", "它飞上了屋顶")
		doc.UpsertEntity("Milo", nil, strp("橘猫"))

		s := buildDocumentSummary(doc)
		assert.Contains(t, s, "pages: 2 (valid indexes 0..1)")
		assert.Contains(t, s, "page 0: 小猫醒来了")
		assert.Contains(t, s, "Milo (no reference image): 橘猫")
	})

	t.Run("长提示词截断到摘录长度", func(t *testing.T) {
		doc := makeDoc(strings.Repeat("长", 100))

		s := buildDocumentSummary(doc)
		assert.Contains(t, s, strings.Repeat("长", summaryPromptRunes)+"…")
		assert.NotContains(t, s, strings.Repeat("长", summaryPromptRunes+1))
	})

	t.Run("插图区分已生成与仅提示词", func(t *testing.T) {
		doc := makeDoc("a", "b")
		require.NoError(t, doc.Story.PatchImage(0, strp("月下"), nil, nil))
		require.NoError(t, doc.Story.SetGeneratedImage(1, "屋顶", "1024x1024", "low", "data"))

		s := buildDocumentSummary(doc)
		assert.Contains(t, s, "page 0 (prompt only): 月下")
		assert.Contains(t, s, "page 1 (generated): 屋顶")
	})
}
