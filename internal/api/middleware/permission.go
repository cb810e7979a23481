package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salon-staff/internal/service"
	"salon-staff/pkg/response"
)

const staffMemberIDKey = "staff_member_id"

// ResolveStaff 将登录用户解析为当前商户下的在职员工，写入 staff_member_id
// 必须挂在 JWTAuth 之后
func ResolveStaff(perm service.PermissionEvaluator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveStaff(c, perm, logger) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission 权限中间件
// 门店上下文取自 X-Location-ID 头或 location_id 查询参数，缺省为员工主门店
func RequirePermission(perm service.PermissionEvaluator, key string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveStaff(c, perm, logger) {
			c.Abort()
			return
		}

		locationID := strings.TrimSpace(c.GetHeader("X-Location-ID"))
		if locationID == "" {
			locationID = c.Query("location_id")
		}

		granted, err := perm.HasPermission(c.Request.Context(), c.GetString("business_id"), c.GetString(staffMemberIDKey), locationID, key)
		if err != nil {
			logger.Error("权限判定失败", zap.String("key", key), zap.Error(err))
			response.InternalError(c)
			c.Abort()
			return
		}
		if !granted {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Next()
	}
}

// resolveStaff 已解析过时直接返回；失败时写入响应并返回 false
func resolveStaff(c *gin.Context, perm service.PermissionEvaluator, logger *zap.Logger) bool {
	if c.GetString(staffMemberIDKey) != "" {
		return true
	}

	userID := c.GetString("user_id")
	businessID := c.GetString("business_id")
	if userID == "" || businessID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return false
	}

	staff, err := perm.ResolveCaller(c.Request.Context(), businessID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotStaffMember):
			response.Forbidden(c, 10006, "当前用户不是该商户的员工")
		case errors.Is(err, service.ErrStaffInactive):
			response.Forbidden(c, 10007, "员工账号已停用")
		default:
			logger.Error("解析当前员工失败", zap.String("user_id", userID), zap.Error(err))
			response.InternalError(c)
		}
		return false
	}

	c.Set(staffMemberIDKey, staff.StaffMemberID)
	return true
}
