package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvWizard/internal/errcode"
	"cvWizard/internal/resume"
)

const (
	msgInternal         = "internal error"
	msgGenerationFailed = "An error occurred while generating the CV. Please try again."
)

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	Field string `json:"field,omitempty"`
}

func Error(c *gin.Context, status, code int, msg string) {
	c.JSON(status, errorResponse{Error: msg, Code: code})
}

func BadRequest(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, errcode.ValidationFailed, msg)
}

func NotFound(c *gin.Context, msg string) {
	Error(c, http.StatusNotFound, errcode.NotFound, msg)
}

func Conflict(c *gin.Context, msg string) {
	Error(c, http.StatusConflict, errcode.StepOutOfOrder, msg)
}

func Internal(c *gin.Context, msg string) {
	Error(c, http.StatusInternalServerError, errcode.SystemError, msg)
}

// ValidationFailed 返回字段级的校验错误；非 ValidationError 按普通 400 处理。
func ValidationFailed(c *gin.Context, err error) {
	var vErr *resume.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: vErr.Reason,
			Code:  errcode.ValidationFailed,
			Field: vErr.Field,
		})
		return
	}
	BadRequest(c, err.Error())
}
