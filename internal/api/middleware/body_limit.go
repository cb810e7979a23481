package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salon-staff/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 声明了 Content-Length 且超限时直接返回 413；未声明长度的请求由 MaxBytesReader 截断，
// 读取失败会在参数绑定阶段表现为 400
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
