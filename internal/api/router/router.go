package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"salon-staff/config"
	"salon-staff/internal/api/handler"
	"salon-staff/internal/api/middleware"
	"salon-staff/internal/model"
	"salon-staff/internal/service"
	"salon-staff/pkg/jwt"
	"salon-staff/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	perm service.PermissionEvaluator,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	db *gorm.DB,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db, rdb))

	// 权限快捷方式
	can := func(key string) gin.HandlerFunc {
		return middleware.RequirePermission(perm, key, logger)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	v1.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window, logger))
	{
		// 接受邀请时调用人尚未绑定员工，只需登录
		v1.POST("/staff/invitations/accept", h.Staff.AcceptInvitation)

		// 以下路由要求调用人是本商户的在职员工
		authorized := v1.Group("")
		authorized.Use(middleware.ResolveStaff(perm, logger))

		// 员工模块
		staff := authorized.Group("/staff")
		{
			staff.GET("", can(model.PermStaffView), h.Staff.ListStaff)
			staff.POST("", can(model.PermStaffManage), h.Staff.CreateStaff)
			staff.GET("/:id", can(model.PermStaffView), h.Staff.GetStaff)
			staff.PUT("/:id", can(model.PermStaffManage), h.Staff.UpdateStaff)
			staff.DELETE("/:id", can(model.PermStaffManage), h.Staff.DeleteStaff)
			staff.PUT("/:id/status", can(model.PermStaffManage), h.Staff.UpdateStaffStatus)
			staff.GET("/:id/locations", can(model.PermStaffView), h.Staff.GetLocations)
			staff.PUT("/:id/locations", can(model.PermStaffManage), h.Staff.SetLocations)
			staff.GET("/:id/services", can(model.PermStaffView), h.Staff.GetServices)
			staff.PUT("/:id/services", can(model.PermStaffManage), h.Staff.SetServices)
			staff.POST("/:id/invitations", can(model.PermStaffManage), h.Staff.CreateInvitation)
			staff.DELETE("/:id/invitations/:invitationId", can(model.PermStaffManage), h.Staff.RevokeInvitation)

			staff.POST("/:id/time-off", can(model.PermTimeOffApprove), h.TimeOff.CreateStaffTimeOff)
			staff.GET("/:id/availability", can(model.PermSchedulingViewAll), h.ScheduleView.GetAvailability)
			staff.GET("/:id/schedule.ics", can(model.PermSchedulingViewAll), h.ScheduleView.ExportStaffCalendar)
		}

		// 角色与权限
		roles := authorized.Group("/roles")
		{
			roles.GET("", can(model.PermStaffView), h.Role.ListRoles)
			roles.POST("", can(model.PermSettingsManage), h.Role.CreateRole)
			roles.POST("/seed", can(model.PermSettingsManage), h.Role.SeedDefaults)
			roles.GET("/:id", can(model.PermStaffView), h.Role.GetRole)
			roles.PUT("/:id", can(model.PermSettingsManage), h.Role.UpdateRole)
			roles.DELETE("/:id", can(model.PermSettingsManage), h.Role.DeleteRole)
			roles.PUT("/:id/permissions", can(model.PermSettingsManage), h.Role.UpdatePermissions)
		}
		authorized.GET("/permissions/check", h.Role.CheckPermission)

		// 班次模块
		shifts := authorized.Group("/shifts")
		{
			shifts.GET("", can(model.PermSchedulingViewAll), h.Shift.ListShifts)
			shifts.POST("", can(model.PermSchedulingManage), h.Shift.CreateShift)
			shifts.POST("/check-conflicts", can(model.PermSchedulingManage), h.Shift.CheckConflicts)
			shifts.GET("/change-logs", can(model.PermSchedulingViewAll), h.Shift.ListChangeLogs)
			shifts.GET("/:id", can(model.PermSchedulingViewAll), h.Shift.GetShift)
			shifts.PUT("/:id", can(model.PermSchedulingManage), h.Shift.UpdateShift)
			shifts.DELETE("/:id", can(model.PermSchedulingManage), h.Shift.DeleteShift)
			shifts.PUT("/:id/status", can(model.PermSchedulingManage), h.Shift.UpdateShiftStatus)
		}

		// 周期模式
		patterns := authorized.Group("/shift-patterns")
		{
			patterns.GET("", can(model.PermSchedulingViewAll), h.Pattern.ListPatterns)
			patterns.POST("", can(model.PermSchedulingManage), h.Pattern.CreatePattern)
			patterns.GET("/:id", can(model.PermSchedulingViewAll), h.Pattern.GetPattern)
			patterns.PUT("/:id", can(model.PermSchedulingManage), h.Pattern.UpdatePattern)
			patterns.DELETE("/:id", can(model.PermSchedulingManage), h.Pattern.DeletePattern)
			patterns.GET("/:id/occurrences", can(model.PermSchedulingViewAll), h.Pattern.GetOccurrences)
			patterns.POST("/:id/overrides", can(model.PermSchedulingManage), h.Pattern.CreateOverride)
		}

		// 请假模块
		timeOff := authorized.Group("/time-off")
		{
			timeOff.GET("", can(model.PermTimeOffApprove), h.TimeOff.ListTimeOff)
			timeOff.POST("", can(model.PermTimeOffRequest), h.TimeOff.CreateMyTimeOff)
			timeOff.GET("/mine", h.TimeOff.ListMyTimeOff)
			timeOff.GET("/:id", can(model.PermTimeOffApprove), h.TimeOff.GetTimeOff)
			timeOff.POST("/:id/approve", can(model.PermTimeOffApprove), h.TimeOff.Approve)
			timeOff.POST("/:id/deny", can(model.PermTimeOffApprove), h.TimeOff.Deny)
			timeOff.POST("/:id/cancel", can(model.PermTimeOffRequest), h.TimeOff.Cancel)
		}

		// 本人视图
		authorized.GET("/me/availability", h.ScheduleView.GetMyAvailability)

		// 导出
		authorized.GET("/export/shifts.xlsx", can(model.PermReportsView), h.ScheduleView.ExportRoster)
	}

	return r
}

// healthCheck 数据库必须可用；Redis 仅报告状态，不影响整体结果
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				body["redis"] = "unreachable"
			} else {
				body["redis"] = "ok"
			}
		}

		c.JSON(status, body)
	}
}
