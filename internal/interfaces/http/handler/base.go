// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storygpt-api/internal/interfaces/http/dto"
	"storygpt-api/pkg/errors"
)

// writeError 将错误映射为统一的错误响应。
// AppError 按自身的 HTTP 状态码与错误码输出,其余错误一律 500。
func writeError(c *gin.Context, err error) {
	if appErr := errors.AsAppError(err); appErr != nil {
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		})
		return
	}
	dto.Error(c, http.StatusInternalServerError, err.Error())
}
