package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygpt-api/pkg/errors"
)

func TestParsePageTexts(t *testing.T) {
	t.Run("严格 JSON 数组", func(t *testing.T) {
		texts, err := parsePageTexts(`["第一页","第二页"]`)
		require.NoError(t, err)
		assert.Equal(t, []string{"第一页", "第二页"}, texts)
	})

	t.Run("markdown 代码围栏", func(t *testing.T) {
		texts, err := parsePageTexts("```json\n[\"a\",\"b\"]\n```")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, texts)
	})

	t.Run("前后带废话的 JSON", func(t *testing.T) {
		texts, err := parsePageTexts(`好的，以下是故事：["a","b"] 希望你喜欢`)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, texts)
	})

	t.Run("pages 包装对象", func(t *testing.T) {
		texts, err := parsePageTexts(`{"pages":["a","b","c"]}`)
		require.NoError(t, err)
		assert.Len(t, texts, 3)
	})

	t.Run("pages 内嵌 text 对象", func(t *testing.T) {
		texts, err := parsePageTexts(`{"pages":[{"text":"a"},{"text":"b"}]}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, texts)
	})

	t.Run("编号行兜底", func(t *testing.T) {
		raw := "1. 小猫醒来了\n2. 它飞上了屋顶\nPage 3: 它看见了月亮"
		texts, err := parsePageTexts(raw)
		require.NoError(t, err)
		require.Len(t, texts, 3)
		assert.Equal(t, "小猫醒来了", texts[0])
		assert.Equal(t, "它看见了月亮", texts[2])
	})

	t.Run("空输出报格式错误", func(t *testing.T) {
		_, err := parsePageTexts("   ")
		require.Error(t, err)
		appErr := errors.AsAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.CodeMalformedLLMOutput, appErr.Code)
	})
}

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "", truncateByRunes("abc", 0))
	assert.Equal(t, "abc", truncateByRunes("abc", 10))
	assert.Equal(t, "ab", truncateByRunes("abcd", 2))
	// 多字节字符按 rune 截断,不能截出半个字符
	assert.Equal(t, "你好", truncateByRunes("你好世界", 2))
}
