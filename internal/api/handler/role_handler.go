package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"salon-staff/internal/dto"
	"salon-staff/internal/service"
	"salon-staff/pkg/response"
)

// RoleHandler 角色与权限模块 HTTP 处理器
type RoleHandler struct {
	roleSvc    service.RoleService
	permission service.PermissionEvaluator
}

// NewRoleHandler 创建 RoleHandler
func NewRoleHandler(roleSvc service.RoleService, permission service.PermissionEvaluator) *RoleHandler {
	return &RoleHandler{roleSvc: roleSvc, permission: permission}
}

// ListRoles 获取角色列表
// GET /api/v1/roles
func (h *RoleHandler) ListRoles(c *gin.Context) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	roles, err := h.roleSvc.List(c.Request.Context(), businessID)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": roles})
}

// GetRole 获取角色详情
// GET /api/v1/roles/:id
func (h *RoleHandler) GetRole(c *gin.Context) {
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}

	role, err := h.roleSvc.GetByID(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, role)
}

// CreateRole 创建自定义角色
// POST /api/v1/roles
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	role, err := h.roleSvc.Create(c.Request.Context(), businessID, &req, callerID)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.Created(c, role)
}

// UpdateRole 更新角色名称与描述
// PUT /api/v1/roles/:id
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	role, err := h.roleSvc.Update(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, role)
}

// UpdatePermissions 整体替换角色权限（带版本号）
// PUT /api/v1/roles/:id/permissions
func (h *RoleHandler) UpdatePermissions(c *gin.Context) {
	var req dto.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	role, err := h.roleSvc.UpdatePermissions(c.Request.Context(), businessID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, role)
}

// DeleteRole 删除自定义角色
// DELETE /api/v1/roles/:id
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	if err := h.roleSvc.Delete(c.Request.Context(), businessID, c.Param("id"), callerID); err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, nil)
}

// SeedDefaults 补齐默认角色
// POST /api/v1/roles/seed
func (h *RoleHandler) SeedDefaults(c *gin.Context) {
	businessID, callerID, ok := tenantAndCaller(c)
	if !ok {
		return
	}

	roles, err := h.roleSvc.SeedDefaults(c.Request.Context(), businessID, callerID)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": roles})
}

// CheckPermission 判定当前员工在门店上下文下是否拥有某权限
// GET /api/v1/permissions/check?key=
func (h *RoleHandler) CheckPermission(c *gin.Context) {
	var req dto.PermissionCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	businessID, ok := MustGetBusinessID(c)
	if !ok {
		return
	}
	staffID, ok := MustGetStaffMemberID(c)
	if !ok {
		return
	}

	locationID := LocationContext(c)
	granted, err := h.permission.HasPermission(c.Request.Context(), businessID, staffID, locationID, req.Key)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.PermissionCheckResponse{Key: req.Key, LocationID: locationID, Granted: granted})
}

// handleRoleError 统一处理角色模块业务错误
func (h *RoleHandler) handleRoleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoleNotFound):
		response.NotFound(c, 12001, "角色不存在")
	case errors.Is(err, service.ErrRoleNameExists):
		response.Conflict(c, 12002, "角色名称已存在", nil)
	case errors.Is(err, service.ErrRoleNameReserved):
		response.BadRequest(c, 12003, "不能使用系统角色名称")
	case errors.Is(err, service.ErrRoleNameImmutable):
		response.BadRequest(c, 12004, "系统角色名称不可修改")
	case errors.Is(err, service.ErrOwnerRoleImmutable):
		response.Forbidden(c, 12005, "Owner 角色权限不可修改")
	case errors.Is(err, service.ErrSystemRoleDelete):
		response.BadRequest(c, 12006, "系统角色不可删除")
	case errors.Is(err, service.ErrRoleInUse):
		response.Conflict(c, 12007, "角色仍被员工使用，不能删除", nil)
	case errors.Is(err, service.ErrRoleVersionConflict):
		response.Conflict(c, 12008, "角色已被他人修改，请刷新后重试", nil)
	default:
		response.InternalError(c)
	}
}
