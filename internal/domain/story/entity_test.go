package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygpt-api/pkg/errors"
)

func strp(s string) *string { return &s }

func TestDocument_UpsertEntity(t *testing.T) {
	t.Run("新名称追加实体", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Fox", nil, strp("a clever arctic fox"))
		require.Len(t, doc.Entities, 1)
		assert.Equal(t, "Fox", doc.Entities[0].Name)
		assert.Equal(t, "a clever arctic fox", doc.Entities[0].Prompt)
	})

	t.Run("同名按更新处理不增加数量", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Fox", strp("img1"), strp("v1"))
		doc.UpsertEntity("Fox", nil, strp("v2"))
		require.Len(t, doc.Entities, 1)
		assert.Equal(t, "v2", doc.Entities[0].Prompt)
		assert.Equal(t, "img1", doc.Entities[0].ReferenceImage, "未提供的字段不被覆盖")
	})

	t.Run("名称大小写敏感", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("fox", nil, nil)
		doc.UpsertEntity("Fox", nil, nil)
		assert.Len(t, doc.Entities, 2)
	})
}

func TestDocument_UpdateEntity(t *testing.T) {
	t.Run("不存在的实体报 NotFound 且注册表不变", func(t *testing.T) {
		doc := NewDocument()
		err := doc.UpdateEntity("Ghost", EntityPatch{Prompt: strp("boo")})
		require.Error(t, err)
		assert.Equal(t, errors.CodeEntityNotFound, errors.AsAppError(err).Code)
		assert.Empty(t, doc.Entities)
	})

	t.Run("改名成功", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Rex", nil, strp("a dog"))
		require.NoError(t, doc.UpdateEntity("Rex", EntityPatch{NewName: strp("Max")}))
		assert.Nil(t, doc.FindEntity("Rex"))
		require.NotNil(t, doc.FindEntity("Max"))
		assert.Equal(t, "a dog", doc.FindEntity("Max").Prompt)
	})

	t.Run("改名撞到其他实体报 Conflict", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Rex", nil, nil)
		doc.UpsertEntity("Max", nil, nil)
		err := doc.UpdateEntity("Rex", EntityPatch{NewName: strp("Max")})
		require.Error(t, err)
		assert.Equal(t, errors.CodeEntityConflict, errors.AsAppError(err).Code)
	})

	t.Run("新名与原名相同不算冲突", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Rex", nil, nil)
		require.NoError(t, doc.UpdateEntity("Rex", EntityPatch{NewName: strp("Rex")}))
	})

	t.Run("显式空串清除提示词", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Rex", nil, strp("a dog"))
		require.NoError(t, doc.UpdateEntity("Rex", EntityPatch{Prompt: strp("")}))
		assert.Empty(t, doc.FindEntity("Rex").Prompt)
	})

	t.Run("缺省字段保持原值", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Rex", strp("img"), strp("a dog"))
		require.NoError(t, doc.UpdateEntity("Rex", EntityPatch{ReferenceImage: strp("img2")}))
		ent := doc.FindEntity("Rex")
		assert.Equal(t, "a dog", ent.Prompt)
		assert.Equal(t, "img2", ent.ReferenceImage)
	})
}

func TestDocument_DeleteEntity(t *testing.T) {
	t.Run("删除存在的实体", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Rex", nil, nil)
		doc.UpsertEntity("Max", nil, nil)
		require.NoError(t, doc.DeleteEntity("Rex"))
		assert.Equal(t, []string{"Max"}, doc.EntityNames())
	})

	t.Run("不存在时报 NotFound", func(t *testing.T) {
		doc := NewDocument()
		err := doc.DeleteEntity("Rex")
		require.Error(t, err)
		assert.Equal(t, errors.CodeEntityNotFound, errors.AsAppError(err).Code)
	})
}

func TestDocument_FindEntity(t *testing.T) {
	t.Run("返回可就地修改的指针", func(t *testing.T) {
		doc := NewDocument()
		doc.UpsertEntity("Rex", nil, nil)
		doc.FindEntity("Rex").Prompt = "updated"
		assert.Equal(t, "updated", doc.Entities[0].Prompt)
	})

	t.Run("未命中返回 nil", func(t *testing.T) {
		doc := NewDocument()
		assert.Nil(t, doc.FindEntity("nobody"))
	})
}
