package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
	"salon-staff/internal/service"
	"salon-staff/pkg/response"
)

// PatternHandler 周期班次模式 HTTP 处理器
type PatternHandler struct {
	patternSvc service.PatternService
	guard      locationGuard
}

// NewPatternHandler 创建 PatternHandler
func NewPatternHandler(patternSvc service.PatternService, perm service.PermissionEvaluator) *PatternHandler {
	return &PatternHandler{
		patternSvc: patternSvc,
		guard:      locationGuard{perm: perm, key: model.PermSchedulingManage},
	}
}

// allowStored 按模式当前门店（以及请求中的新门店）复核排班权限
func (h *PatternHandler) allowStored(c *gin.Context, businessID, patternID string, target *string) bool {
	stored, err := h.patternSvc.GetByID(c.Request.Context(), businessID, patternID)
	if err != nil {
		h.handlePatternError(c, err)
		return false
	}
	return h.guard.allow(c, stored.LocationID, target)
}

// ListPatterns 获取周期模式列表
// GET /api/v1/shift-patterns
func (h *PatternHandler) ListPatterns(c *gin.Context) {
	var req dto.PatternListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	list, err := h.patternSvc.List(c.Request.Context(), businessID, &req)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetPattern 获取周期模式详情
// GET /api/v1/shift-patterns/:id
func (h *PatternHandler) GetPattern(c *gin.Context) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	p, err := h.patternSvc.GetByID(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, p)
}

// CreatePattern 创建周期模式
// POST /api/v1/shift-patterns
func (h *PatternHandler) CreatePattern(c *gin.Context) {
	var req dto.CreatePatternRequest
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

	p, err := h.patternSvc.Create(c.Request.Context(), businessID, &req, callerID)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.Created(c, p)
}

// UpdatePattern 更新周期模式
// PUT /api/v1/shift-patterns/:id
func (h *PatternHandler) UpdatePattern(c *gin.Context) {
	var req dto.UpdatePatternRequest
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

	p, err := h.patternSvc.Update(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, p)
}

// DeletePattern 删除周期模式
// DELETE /api/v1/shift-patterns/:id
func (h *PatternHandler) DeletePattern(c *gin.Context) {
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	if !h.allowStored(c, businessID, c.Param("id"), nil) {
		return
	}

	if err := h.patternSvc.Delete(c.Request.Context(), businessID, c.Param("id"), callerID); err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetOccurrences 展开区间内的发生日
// GET /api/v1/shift-patterns/:id/occurrences?from=&to=
func (h *PatternHandler) GetOccurrences(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "from 与 to 不能为空")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	list, err := h.patternSvc.Occurrences(c.Request.Context(), businessID, c.Param("id"), &req)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateOverride 覆盖某个发生日
// POST /api/v1/shift-patterns/:id/overrides
func (h *PatternHandler) CreateOverride(c *gin.Context) {
	var req dto.CreateOverrideRequest
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

	shift, err := h.patternSvc.CreateOverride(c.Request.Context(), businessID, c.Param("id"), &req, forceCreate(c), callerID)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.Created(c, shift)
}

// handlePatternError 统一处理周期模式业务错误
func (h *PatternHandler) handlePatternError(c *gin.Context, err error) {
	if handleShiftWriteError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidPattern):
		response.ErrorWithDetails(c, http.StatusBadRequest, 14002, "周期规则无效", err.Error())
	case errors.Is(err, service.ErrNotAnOccurrence):
		response.BadRequest(c, 14003, "该日期不是周期模式的发生日")
	default:
		response.InternalError(c)
	}
}
