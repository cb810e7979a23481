package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
	"salon-staff/internal/service"
	"salon-staff/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
	guard    locationGuard
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService, perm service.PermissionEvaluator) *ShiftHandler {
	return &ShiftHandler{
		shiftSvc: shiftSvc,
		guard:    locationGuard{perm: perm, key: model.PermSchedulingManage},
	}
}

// allowStored 按班次当前所在门店（以及即将改到的门店）复核排班权限
func (h *ShiftHandler) allowStored(c *gin.Context, businessID, shiftID string, target *string) bool {
	stored, err := h.shiftSvc.GetByID(c.Request.Context(), businessID, shiftID)
	if err != nil {
		h.handleShiftError(c, err)
		return false
	}
	return h.guard.allow(c, stored.LocationID, target)
}

// ListShifts 获取班次列表
// GET /api/v1/shifts
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	list, total, err := h.shiftSvc.List(c.Request.Context(), businessID, &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetShift 获取班次详情
// GET /api/v1/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// CreateShift 创建班次
// POST /api/v1/shifts
// 冲突阻断时返回 409，data 为冲突列表；X-Force-Create: true 可忽略 warning 级冲突
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	if !h.guard.allow(c, req.LocationID) {
		return
	}

	shift, err := h.shiftSvc.Create(c.Request.Context(), businessID, &req, forceCreate(c), callerID)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.Created(c, shift)
}

// UpdateShift 更新班次
// PUT /api/v1/shifts/:id
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	if !h.allowStored(c, businessID, c.Param("id"), req.LocationID) {
		return
	}

	shift, err := h.shiftSvc.Update(c.Request.Context(), businessID, c.Param("id"), &req, forceCreate(c), callerID)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// UpdateShiftStatus 班次状态流转
// PUT /api/v1/shifts/:id/status
func (h *ShiftHandler) UpdateShiftStatus(c *gin.Context) {
	var req dto.UpdateShiftStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	if !h.allowStored(c, businessID, c.Param("id"), nil) {
		return
	}

	shift, err := h.shiftSvc.UpdateStatus(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// DeleteShift 删除班次
// DELETE /api/v1/shifts/:id
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	if !h.allowStored(c, businessID, c.Param("id"), nil) {
		return
	}

	if err := h.shiftSvc.Delete(c.Request.Context(), businessID, c.Param("id"), callerID); err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, nil)
}

// CheckConflicts 冲突预检（不写入）
// POST /api/v1/shifts/check-conflicts
func (h *ShiftHandler) CheckConflicts(c *gin.Context) {
	var req dto.CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.CheckConflicts(c.Request.Context(), businessID, &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, result)
}

// ListChangeLogs 获取班次变更日志
// GET /api/v1/shifts/change-logs
func (h *ShiftHandler) ListChangeLogs(c *gin.Context) {
	var req dto.ShiftChangeLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	list, total, err := h.shiftSvc.ListChangeLogs(c.Request.Context(), businessID, &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleShiftError 统一处理班次模块业务错误
func (h *ShiftHandler) handleShiftError(c *gin.Context, err error) {
	if handleShiftWriteError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidStatusTransition):
		response.BadRequest(c, 13004, "班次状态流转不合法")
	default:
		response.InternalError(c)
	}
}

// handleShiftWriteError 班次写入路径（含周期模式覆盖）共用的错误映射
func handleShiftWriteError(c *gin.Context, err error) bool {
	if handleCommonError(c, err) {
		return true
	}
	var conflictErr *service.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		response.Conflict(c, 13002, "班次存在冲突", gin.H{"conflicts": service.ToConflictResponses(conflictErr.Conflicts)})
	case errors.Is(err, service.ErrShiftConflict):
		response.Conflict(c, 13002, "班次存在冲突", nil)
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 13001, "班次不存在")
	case errors.Is(err, service.ErrShiftNotEditable):
		response.Conflict(c, 13003, "班次已结束或已取消，不能修改", nil)
	case errors.Is(err, service.ErrOverrideExists):
		response.Conflict(c, 13005, "该日期已存在覆盖班次", nil)
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 13006, "开始时间必须早于结束时间")
	case errors.Is(err, service.ErrPatternNotFound):
		response.NotFound(c, 14001, "周期模式不存在")
	default:
		return false
	}
	return true
}
