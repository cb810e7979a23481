package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salon-staff/internal/dto"
	"salon-staff/internal/service"
	"salon-staff/pkg/response"
)

// TimeOffHandler 请假模块 HTTP 处理器
type TimeOffHandler struct {
	timeOffSvc service.TimeOffService
}

// NewTimeOffHandler 创建 TimeOffHandler
func NewTimeOffHandler(timeOffSvc service.TimeOffService) *TimeOffHandler {
	return &TimeOffHandler{timeOffSvc: timeOffSvc}
}

// CreateMyTimeOff 当前员工提交请假
// POST /api/v1/time-off
func (h *TimeOffHandler) CreateMyTimeOff(c *gin.Context) {
	staffID, ok := MustGetStaffMemberID(c)
	if !ok {
		return
	}
	h.create(c, staffID)
}

// CreateStaffTimeOff 管理者代员工登记请假
// POST /api/v1/staff/:id/time-off
func (h *TimeOffHandler) CreateStaffTimeOff(c *gin.Context) {
	h.create(c, c.Param("id"))
}

func (h *TimeOffHandler) create(c *gin.Context, staffID string) {
	var req dto.CreateTimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	r, err := h.timeOffSvc.Create(c.Request.Context(), businessID, staffID, &req, callerID)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.Created(c, r)
}

// ListTimeOff 获取请假列表
// GET /api/v1/time-off
func (h *TimeOffHandler) ListTimeOff(c *gin.Context) {
	var req dto.TimeOffListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	h.list(c, &req)
}

// ListMyTimeOff 获取当前员工的请假
// GET /api/v1/time-off/mine
func (h *TimeOffHandler) ListMyTimeOff(c *gin.Context) {
	var req dto.TimeOffListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	staffID, ok := MustGetStaffMemberID(c)
	if !ok {
		return
	}
	req.StaffMemberID = staffID
	h.list(c, &req)
}

func (h *TimeOffHandler) list(c *gin.Context, req *dto.TimeOffListRequest) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	list, total, err := h.timeOffSvc.List(c.Request.Context(), businessID, req)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetTimeOff 获取请假详情
// GET /api/v1/time-off/:id
func (h *TimeOffHandler) GetTimeOff(c *gin.Context) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	r, err := h.timeOffSvc.GetByID(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, r)
}

// Approve 批准请假
// POST /api/v1/time-off/:id/approve
func (h *TimeOffHandler) Approve(c *gin.Context) {
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}
	staffID, ok := MustGetStaffMemberID(c)
	if !ok {
		return
	}

	r, err := h.timeOffSvc.Approve(c.Request.Context(), businessID, c.Param("id"), staffID, callerID)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, r)
}

// Deny 驳回请假
// POST /api/v1/time-off/:id/deny
func (h *TimeOffHandler) Deny(c *gin.Context) {
	var req dto.DenyTimeOffRequest
	// 请求体可省略
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}
	staffID, ok := MustGetStaffMemberID(c)
	if !ok {
		return
	}

	r, err := h.timeOffSvc.Deny(c.Request.Context(), businessID, c.Param("id"), staffID, &req, callerID)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, r)
}

// Cancel 申请人撤回请假
// POST /api/v1/time-off/:id/cancel
func (h *TimeOffHandler) Cancel(c *gin.Context) {
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}
	staffID, ok := MustGetStaffMemberID(c)
	if !ok {
		return
	}

	r, err := h.timeOffSvc.Cancel(c.Request.Context(), businessID, c.Param("id"), staffID, callerID)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, r)
}

// handleTimeOffError 统一处理请假模块业务错误
func (h *TimeOffHandler) handleTimeOffError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrTimeOffNotFound):
		response.NotFound(c, 15001, "请假申请不存在")
	case errors.Is(err, service.ErrTimeOffInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15002, "请假时间无效", err.Error())
	case errors.Is(err, service.ErrTimeOffInvalidTransition):
		response.Conflict(c, 15003, "请假申请已处理，不能重复操作", nil)
	case errors.Is(err, service.ErrTimeOffVersionConflict):
		response.Conflict(c, 15004, "请假申请已被他人处理，请刷新后重试", nil)
	case errors.Is(err, service.ErrTimeOffNotOwner):
		response.Forbidden(c, 15005, "只能取消本人的请假申请")
	default:
		response.InternalError(c)
	}
}
