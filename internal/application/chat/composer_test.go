package chat

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygpt-api/pkg/errors"
)

func TestComposer_Compose(t *testing.T) {
	ctx := context.Background()
	refB64 := base64.StdEncoding.EncodeToString([]byte("fake-png-bytes"))

	t.Run("无参考图走文生图", func(t *testing.T) {
		backend := &fakeBackend{result: "img"}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeAll)
		doc := makeDoc("a")

		out, err := c.Compose(ctx, doc, ComposeInput{Prompt: "猫在屋顶"})
		require.NoError(t, err)
		assert.Equal(t, "img", out)
		require.Len(t, backend.generateCalls, 1)
		assert.Empty(t, backend.editCalls)
		assert.Equal(t, "猫在屋顶", backend.generateCalls[0].Prompt)
		assert.Equal(t, "1024x1024", backend.generateCalls[0].Size)
	})

	t.Run("被点名实体带参考图走图像编辑", func(t *testing.T) {
		backend := &fakeBackend{result: "edited"}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeAll)
		doc := makeDoc("a")
		doc.UpsertEntity("Milo", &refB64, strp("橘猫"))

		out, err := c.Compose(ctx, doc, ComposeInput{Prompt: "猫在屋顶", EntityNames: []string{"Milo"}})
		require.NoError(t, err)
		assert.Equal(t, "edited", out)
		require.Len(t, backend.editCalls, 1)
		require.Len(t, backend.editCalls[0].Images, 1)
		assert.Equal(t, []byte("fake-png-bytes"), backend.editCalls[0].Images[0])
	})

	t.Run("带图实体的描述按追加措辞拼接", func(t *testing.T) {
		backend := &fakeBackend{result: "edited"}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeAll)
		doc := makeDoc("a")
		doc.UpsertEntity("Milo", &refB64, strp("戴帽子"))

		_, err := c.Compose(ctx, doc, ComposeInput{Prompt: "猫在屋顶", EntityNames: []string{"Milo"}})
		require.NoError(t, err)
		assert.Equal(t, "猫在屋顶\n\nMilo: add the following to the image – 戴帽子", backend.editCalls[0].Prompt)
	})

	t.Run("all 范围未点名实体也贡献描述", func(t *testing.T) {
		backend := &fakeBackend{result: "img"}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeAll)
		doc := makeDoc("a")
		doc.UpsertEntity("Milo", nil, strp("橘猫"))

		_, err := c.Compose(ctx, doc, ComposeInput{Prompt: "屋顶"})
		require.NoError(t, err)
		assert.Equal(t, "屋顶\n\nMilo: 橘猫", backend.generateCalls[0].Prompt)
	})

	t.Run("多个实体行之间单换行拼接", func(t *testing.T) {
		backend := &fakeBackend{result: "img"}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeAll)
		doc := makeDoc("a")
		doc.UpsertEntity("Milo", nil, strp("橘猫"))
		doc.UpsertEntity("Luna", nil, strp("黑猫"))

		_, err := c.Compose(ctx, doc, ComposeInput{Prompt: "屋顶"})
		require.NoError(t, err)
		assert.Equal(t, "屋顶\n\nMilo: 橘猫\nLuna: 黑猫", backend.generateCalls[0].Prompt)
	})

	t.Run("referenced 范围只收被点名的", func(t *testing.T) {
		backend := &fakeBackend{result: "img"}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeReferenced)
		doc := makeDoc("a")
		doc.UpsertEntity("Milo", nil, strp("橘猫"))
		doc.UpsertEntity("Luna", nil, strp("黑猫"))

		_, err := c.Compose(ctx, doc, ComposeInput{Prompt: "屋顶", EntityNames: []string{"Luna"}})
		require.NoError(t, err)
		assert.Equal(t, "屋顶\n\nLuna: 黑猫", backend.generateCalls[0].Prompt)
	})

	t.Run("未注册的实体名直接丢弃", func(t *testing.T) {
		backend := &fakeBackend{result: "img"}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeReferenced)
		doc := makeDoc("a")

		out, err := c.Compose(ctx, doc, ComposeInput{Prompt: "屋顶", EntityNames: []string{"Ghost"}})
		require.NoError(t, err)
		assert.Equal(t, "img", out)
		assert.Equal(t, "屋顶", backend.generateCalls[0].Prompt)
	})

	t.Run("坏的参考图 base64 报参数错误", func(t *testing.T) {
		backend := &fakeBackend{}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeAll)
		doc := makeDoc("a")
		doc.UpsertEntity("Milo", strp("!!not-base64!!"), nil)

		_, err := c.Compose(ctx, doc, ComposeInput{Prompt: "屋顶", EntityNames: []string{"Milo"}})
		require.Error(t, err)
		appErr := errors.AsAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.CodeInvalidParam, appErr.Code)
	})

	t.Run("既无提示词也无素材报错", func(t *testing.T) {
		backend := &fakeBackend{}
		c := NewComposer(backend, testImageConfig(), EntityPromptScopeAll)
		doc := makeDoc("a")

		_, err := c.Compose(ctx, doc, ComposeInput{})
		require.ErrorIs(t, err, errors.ErrNoImageInputs)
		assert.Empty(t, backend.generateCalls)
	})
}

func strp(s string) *string { return &s }
