package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygpt-api/pkg/errors"
)

func TestParseToolCall(t *testing.T) {
	t.Run("解析为强类型参数", func(t *testing.T) {
		call, err := ParseToolCall("edit_text", `{"index":3,"new_text":"hi"}`)
		require.NoError(t, err)
		args, ok := call.Args.(*EditTextArgs)
		require.True(t, ok)
		assert.Equal(t, 3, args.Index)
		assert.Equal(t, "hi", args.NewText)
	})

	t.Run("空参数串当作空对象", func(t *testing.T) {
		call, err := ParseToolCall("no_tool", "")
		require.NoError(t, err)
		assert.Equal(t, ToolNoTool, call.Name)
	})

	t.Run("目录外名称报未知工具", func(t *testing.T) {
		_, err := ParseToolCall("drop_database", `{}`)
		require.Error(t, err)
		appErr := errors.AsAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.CodeUnknownTool, appErr.Code)
	})

	t.Run("坏 JSON 报参数错误", func(t *testing.T) {
		_, err := ParseToolCall("edit_text", `{"index":`)
		require.Error(t, err)
		appErr := errors.AsAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.CodeInvalidParam, appErr.Code)
	})

	t.Run("update_entity 区分缺省与显式空串", func(t *testing.T) {
		call, err := ParseToolCall("update_entity", `{"name":"Milo","prompt":""}`)
		require.NoError(t, err)
		args := call.Args.(*UpdateEntityArgs)
		require.NotNil(t, args.Prompt)
		assert.Equal(t, "", *args.Prompt)
		assert.Nil(t, args.NewName)
	})
}

func TestToolInfos(t *testing.T) {
	infos := toolInfos()

	t.Run("目录与解析器一一对应", func(t *testing.T) {
		require.NotEmpty(t, infos)
		for _, info := range infos {
			_, err := ParseToolCall(info.Name, "{}")
			assert.NoError(t, err, "tool %s should be parseable", info.Name)
		}
	})

	t.Run("工具名不重复", func(t *testing.T) {
		seen := map[string]bool{}
		for _, info := range infos {
			assert.False(t, seen[info.Name], "duplicate tool %s", info.Name)
			seen[info.Name] = true
		}
	})
}
