package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salon-staff/internal/dto"
	"salon-staff/internal/service"
	"salon-staff/pkg/response"
)

// StaffHandler 员工模块 HTTP 处理器
type StaffHandler struct {
	staffSvc service.StaffService
}

// NewStaffHandler 创建 StaffHandler
func NewStaffHandler(staffSvc service.StaffService) *StaffHandler {
	return &StaffHandler{staffSvc: staffSvc}
}

// ListStaff 获取员工列表
// GET /api/v1/staff
func (h *StaffHandler) ListStaff(c *gin.Context) {
	var req dto.StaffListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	list, total, err := h.staffSvc.List(c.Request.Context(), businessID, &req)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetStaff 获取员工详情
// GET /api/v1/staff/:id
func (h *StaffHandler) GetStaff(c *gin.Context) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	staff, err := h.staffSvc.GetByID(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, staff)
}

// CreateStaff 创建员工
// POST /api/v1/staff
func (h *StaffHandler) CreateStaff(c *gin.Context) {
	var req dto.CreateStaffMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	staff, err := h.staffSvc.Create(c.Request.Context(), businessID, &req, callerID)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.Created(c, staff)
}

// UpdateStaff 更新员工资料
// PUT /api/v1/staff/:id
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	var req dto.UpdateStaffMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	staff, err := h.staffSvc.Update(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, staff)
}

// UpdateStaffStatus 修改员工状态
// PUT /api/v1/staff/:id/status
func (h *StaffHandler) UpdateStaffStatus(c *gin.Context) {
	var req dto.UpdateStaffStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	staff, err := h.staffSvc.UpdateStatus(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, staff)
}

// DeleteStaff 删除员工（软删除，同时停用其周期模式、撤销邀请）
// DELETE /api/v1/staff/:id
func (h *StaffHandler) DeleteStaff(c *gin.Context) {
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	if err := h.staffSvc.Delete(c.Request.Context(), businessID, c.Param("id"), callerID); err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 门店与服务项目 ──

// GetLocations 获取员工门店分配
// GET /api/v1/staff/:id/locations
func (h *StaffHandler) GetLocations(c *gin.Context) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	list, err := h.staffSvc.GetLocations(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SetLocations 整体替换员工门店分配
// PUT /api/v1/staff/:id/locations
func (h *StaffHandler) SetLocations(c *gin.Context) {
	var req dto.SetStaffLocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	list, err := h.staffSvc.SetLocations(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetServices 获取员工服务项目
// GET /api/v1/staff/:id/services
func (h *StaffHandler) GetServices(c *gin.Context) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	list, err := h.staffSvc.GetServices(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SetServices 整体替换员工服务项目
// PUT /api/v1/staff/:id/services
func (h *StaffHandler) SetServices(c *gin.Context) {
	var req dto.SetStaffServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	list, err := h.staffSvc.SetServices(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ── 邀请 ──

// CreateInvitation 发起账号绑定邀请
// POST /api/v1/staff/:id/invitations
func (h *StaffHandler) CreateInvitation(c *gin.Context) {
	var req dto.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	inv, err := h.staffSvc.CreateInvitation(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.Created(c, inv)
}

// RevokeInvitation 撤销邀请
// DELETE /api/v1/staff/:id/invitations/:invitationId
func (h *StaffHandler) RevokeInvitation(c *gin.Context) {
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	if err := h.staffSvc.RevokeInvitation(c.Request.Context(), businessID, c.Param("id"), c.Param("invitationId"), callerID); err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, nil)
}

// AcceptInvitation 当前登录用户接受邀请并绑定到员工
// POST /api/v1/staff/invitations/accept
func (h *StaffHandler) AcceptInvitation(c *gin.Context) {
	var req dto.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, userID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	staff, err := h.staffSvc.AcceptInvitation(c.Request.Context(), businessID, userID, &req)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}

	response.OK(c, staff)
}

// handleStaffError 统一处理员工模块业务错误
func (h *StaffHandler) handleStaffError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrStaffUserLinked):
		response.Conflict(c, 11002, "该用户已绑定到本商户的其他员工", nil)
	case errors.Is(err, service.ErrStaffAlreadyLinked):
		response.Conflict(c, 11003, "员工已绑定账号", nil)
	case errors.Is(err, service.ErrDuplicateLocation):
		response.BadRequest(c, 11004, "门店分配重复")
	case errors.Is(err, service.ErrMultiplePrimary):
		response.BadRequest(c, 11005, "只能有一个主门店")
	case errors.Is(err, service.ErrDuplicateService):
		response.BadRequest(c, 11006, "服务项目重复")
	case errors.Is(err, service.ErrRoleNotFound):
		response.BadRequest(c, 12001, "角色不存在")
	case errors.Is(err, service.ErrInvitationNotFound):
		response.NotFound(c, 11011, "邀请不存在")
	case errors.Is(err, service.ErrInvitationNotPending):
		response.Conflict(c, 11012, "邀请已失效", nil)
	case errors.Is(err, service.ErrInvitationExpired):
		response.Error(c, http.StatusGone, 11013, "邀请已过期")
	case errors.Is(err, service.ErrInvitationInvalid):
		response.BadRequest(c, 11014, "邀请凭证无效")
	case errors.Is(err, service.ErrInvitationEmailRequired):
		response.BadRequest(c, 11015, "员工未设置邮箱，请指定邀请邮箱")
	default:
		response.InternalError(c)
	}
}
