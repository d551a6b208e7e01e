package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygpt-api/pkg/errors"
)

func makeStory(texts ...string) *Story {
	st := NewStory()
	st.ReplaceAllPages(texts)
	return st
}

func assertIndicesContiguous(t *testing.T, st *Story) {
	t.Helper()
	for i, p := range st.Pages {
		assert.Equal(t, i, p.Index, "页索引必须与位置一致")
	}
}

func TestStory_ReplaceText(t *testing.T) {
	t.Run("替换范围内的页文本", func(t *testing.T) {
		st := makeStory("a", "b", "c")
		require.NoError(t, st.ReplaceText(1, "B"))
		assert.Equal(t, "B", st.Pages[1].Text)
		assertIndicesContiguous(t, st)
	})

	t.Run("索引等于页数时拒绝", func(t *testing.T) {
		st := makeStory("a")
		err := st.ReplaceText(1, "x")
		require.Error(t, err)
		assert.Equal(t, errors.CodePageIndexOutOfRange, errors.AsAppError(err).Code)
	})

	t.Run("负索引拒绝", func(t *testing.T) {
		st := makeStory("a")
		require.Error(t, st.ReplaceText(-1, "x"))
	})
}

func TestStory_ReplaceAllPages(t *testing.T) {
	t.Run("无论原页数多少都按新文本重建", func(t *testing.T) {
		st := makeStory("old1", "old2", "old3", "old4")
		st.ReplaceAllPages([]string{"n1", "n2"})
		require.Len(t, st.Pages, 2)
		assert.Equal(t, "n1", st.Pages[0].Text)
		assert.Equal(t, "n2", st.Pages[1].Text)
		assertIndicesContiguous(t, st)
	})

	t.Run("空列表清空页面", func(t *testing.T) {
		st := makeStory("a")
		st.ReplaceAllPages(nil)
		assert.Empty(t, st.Pages)
	})
}

func TestStory_InsertPage(t *testing.T) {
	t.Run("末尾追加允许 index 等于页数", func(t *testing.T) {
		st := makeStory("a", "b")
		require.NoError(t, st.InsertPage(2, "c"))
		require.Len(t, st.Pages, 3)
		assert.Equal(t, "c", st.Pages[2].Text)
		assertIndicesContiguous(t, st)
	})

	t.Run("中间插入后续页后移", func(t *testing.T) {
		st := makeStory("a", "c")
		require.NoError(t, st.InsertPage(1, "b"))
		assert.Equal(t, []string{"a", "b", "c"}, pageTexts(st))
		assertIndicesContiguous(t, st)
	})

	t.Run("超过页数加一时拒绝", func(t *testing.T) {
		st := makeStory("a")
		require.Error(t, st.InsertPage(3, "x"))
	})

	t.Run("插入后删除同一位置恢复原序列", func(t *testing.T) {
		st := makeStory("a", "b", "c")
		require.NoError(t, st.InsertPage(1, "x"))
		require.NoError(t, st.DeletePage(1))
		assert.Equal(t, []string{"a", "b", "c"}, pageTexts(st))
		assertIndicesContiguous(t, st)
	})
}

func TestStory_DeletePage(t *testing.T) {
	t.Run("删除后索引重排", func(t *testing.T) {
		st := makeStory("a", "b", "c")
		require.NoError(t, st.DeletePage(0))
		assert.Equal(t, []string{"b", "c"}, pageTexts(st))
		assertIndicesContiguous(t, st)
	})

	t.Run("索引等于页数时拒绝", func(t *testing.T) {
		st := makeStory("a", "b")
		require.Error(t, st.DeletePage(2))
	})
}

func TestStory_MovePage(t *testing.T) {
	t.Run("首页移到末尾其余整体前移", func(t *testing.T) {
		st := makeStory("p0", "p1", "p2")
		require.NoError(t, st.MovePage(0, 2))
		assert.Equal(t, []string{"p1", "p2", "p0"}, pageTexts(st))
		assertIndicesContiguous(t, st)
	})

	t.Run("单页列表原地移动是无操作", func(t *testing.T) {
		st := makeStory("only")
		require.NoError(t, st.MovePage(0, 0))
		assert.Equal(t, []string{"only"}, pageTexts(st))
		assertIndicesContiguous(t, st)
	})

	t.Run("目标越界拒绝", func(t *testing.T) {
		st := makeStory("a", "b")
		require.Error(t, st.MovePage(0, 2))
	})

	t.Run("来源越界拒绝", func(t *testing.T) {
		st := makeStory("a", "b")
		require.Error(t, st.MovePage(2, 0))
	})
}

func TestStory_TruncateToPageCount(t *testing.T) {
	t.Run("页数超出目标时裁剪并丢弃越界插图", func(t *testing.T) {
		st := makeStory("a", "b", "c", "d", "e", "f", "g")
		st.Settings.TargetPageCount = 3
		require.NoError(t, st.SetGeneratedImage(1, "p", "1024x1024", "low", "xxx"))
		require.NoError(t, st.SetGeneratedImage(5, "p", "1024x1024", "low", "yyy"))

		st.TruncateToPageCount()

		require.Len(t, st.Pages, 3)
		assertIndicesContiguous(t, st)
		assert.NotNil(t, st.ImageAt(1))
		assert.Nil(t, st.ImageAt(5))
	})

	t.Run("页数不足目标时不变", func(t *testing.T) {
		st := makeStory("a", "b")
		st.Settings.TargetPageCount = 5
		st.TruncateToPageCount()
		assert.Len(t, st.Pages, 2)
	})
}

func TestStory_PatchImage(t *testing.T) {
	strp := func(s string) *string { return &s }

	t.Run("槽位不存在时自动创建", func(t *testing.T) {
		st := makeStory("a")
		require.NoError(t, st.PatchImage(5, strp("a castle"), nil, nil))
		img := st.ImageAt(5)
		require.NotNil(t, img)
		assert.Equal(t, "a castle", img.Prompt)
		assert.Equal(t, 5, img.Index)
	})

	t.Run("未提供的字段保持原值", func(t *testing.T) {
		st := makeStory("a")
		require.NoError(t, st.PatchImage(0, strp("v1"), strp("1024x1024"), strp("low")))
		require.NoError(t, st.PatchImage(0, strp("v2"), nil, nil))
		img := st.ImageAt(0)
		assert.Equal(t, "v2", img.Prompt)
		assert.Equal(t, "1024x1024", img.Size)
		assert.Equal(t, "low", img.Quality)
	})

	t.Run("负索引拒绝", func(t *testing.T) {
		st := makeStory("a")
		require.Error(t, st.PatchImage(-1, strp("x"), nil, nil))
	})
}

func TestStory_SetGeneratedImage(t *testing.T) {
	t.Run("覆盖旧元数据", func(t *testing.T) {
		st := makeStory("a")
		prompt := "old"
		size := "512x512"
		require.NoError(t, st.PatchImage(0, &prompt, &size, nil))

		require.NoError(t, st.SetGeneratedImage(0, "new", "1024x1024", "high", "base64data"))

		img := st.ImageAt(0)
		assert.Equal(t, "new", img.Prompt)
		assert.Equal(t, "1024x1024", img.Size)
		assert.Equal(t, "high", img.Quality)
		assert.Equal(t, "base64data", img.ImageData)
	})
}

func pageTexts(st *Story) []string {
	texts := make([]string, 0, len(st.Pages))
	for _, p := range st.Pages {
		texts = append(texts, p.Text)
	}
	return texts
}
