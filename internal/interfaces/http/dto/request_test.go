package dto

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBindUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("从 URI 参数绑定", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "user_id", Value: "u-123"}}

		assert.Equal(t, "u-123", BindUserID(c))
	})

	t.Run("参数缺失返回空串", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		assert.Equal(t, "", BindUserID(c))
	})
}
