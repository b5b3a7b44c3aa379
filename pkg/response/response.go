package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 错误码常量（使用 pkg/errors 的定义）
const (
	CodeSuccess     = appErrors.CodeSuccess
	CodeParamsError = appErrors.CodeParamsError
	CodeNullError   = appErrors.CodeNullError
	CodeNotLogin    = appErrors.CodeNotLogin
	CodeNoAuth      = appErrors.CodeNoAuth
	CodeSystemError = appErrors.CodeSystemError
)

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "ok",
		Data:    data,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorFromAppError 从 AppError 生成错误响应
// 只返回错误码和提示，被包装的内部错误不会出现在响应中
func ErrorFromAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusOK, Response{
		Code:    appErrors.GetCode(err),
		Message: appErrors.GetMessage(err),
		Data:    nil,
	})
}

// InvalidParams 请求参数绑定失败
func InvalidParams(c *gin.Context, err error) {
	_ = c.Error(err)
	ErrorWithMsg(c, CodeParamsError, appErrors.ErrParams.Message)
}

// Unauthorized 未登录或登录态失效
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = appErrors.ErrNotLogin.Message
	}
	c.JSON(http.StatusUnauthorized, Response{
		Code:    CodeNotLogin,
		Message: message,
		Data:    nil,
	})
}
