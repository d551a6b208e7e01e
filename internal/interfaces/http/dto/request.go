// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/gin-gonic/gin"
)

// UserIDRequest 用户 ID 请求
type UserIDRequest struct {
	UserID string `uri:"user_id" binding:"required"`
}

// BindUserID 从 URI 绑定用户 ID,缺失时返回空串
func BindUserID(c *gin.Context) string {
	var req UserIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		return ""
	}
	return req.UserID
}
