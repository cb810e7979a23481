package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salon-staff/internal/service"
	"salon-staff/pkg/clock"
	"salon-staff/pkg/response"
)

// 上下文键，由中间件写入
const (
	ctxUserID        = "user_id"
	ctxBusinessID    = "business_id"
	ctxStaffMemberID = "staff_member_id"

	headerForceCreate = "X-Force-Create"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxUserID)
}

// MustGetBusinessID 从 Gin 上下文中安全提取 business_id。
func MustGetBusinessID(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxBusinessID)
}

// MustGetStaffMemberID 从 Gin 上下文中提取当前员工 ID（由 ResolveStaff 中间件注入）
func MustGetStaffMemberID(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxStaffMemberID)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// LocationContext 当前请求的门店上下文：X-Location-ID 优先，其次 location_id 查询参数
func LocationContext(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader("X-Location-ID")); v != "" {
		return v
	}
	return c.Query("location_id")
}

// forceCreate 读取 X-Force-Create 头
func forceCreate(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader(headerForceCreate), "true")
}

// tenantAndCaller 同时取出商户与调用人
func tenantAndCaller(c *gin.Context) (businessID, callerID string, ok bool) {
	if businessID, ok = MustGetBusinessID(c); !ok {
		return "", "", false
	}
	if callerID, ok = MustGetUserID(c); !ok {
		return "", "", false
	}
	return businessID, callerID, true
}

// handleCommonError 处理跨模块共用的错误，已处理时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, clock.ErrInvalidDate):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "日期格式无效，应为 yyyy-MM-dd", err.Error())
	case errors.Is(err, clock.ErrInvalidTime):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "时间格式无效，应为 HH:mm", err.Error())
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 16001, "日期区间无效")
	case errors.Is(err, service.ErrDateRangeTooLarge):
		response.BadRequest(c, 16002, "日期区间过大")
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, 11001, "员工不存在")
	default:
		return false
	}
	return true
}
