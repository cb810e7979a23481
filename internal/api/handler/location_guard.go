package handler

import (
	"github.com/gin-gonic/gin"

	"salon-staff/internal/service"
	"salon-staff/pkg/response"
)

// locationGuard 按记录所属门店复核权限
// 路由中间件只按请求的门店上下文判定，记录实际落在的门店需要在这里再判一次
type locationGuard struct {
	perm service.PermissionEvaluator
	key  string
}

// allow 对每个非空门店判定 key 权限；拒绝时写入 403 并返回 false
func (g locationGuard) allow(c *gin.Context, locationIDs ...*string) bool {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return false
	}
	staffID, ok := MustGetStaffMemberID(c)
	if !ok {
		return false
	}

	seen := make(map[string]bool, len(locationIDs))
	for _, loc := range locationIDs {
		if loc == nil || *loc == "" || seen[*loc] {
			continue
		}
		seen[*loc] = true

		granted, err := g.perm.HasPermission(c.Request.Context(), businessID, staffID, *loc, g.key)
		if err != nil {
			response.InternalError(c)
			return false
		}
		if !granted {
			response.Forbidden(c, 10003, "无权在该门店操作")
			return false
		}
	}
	return true
}
