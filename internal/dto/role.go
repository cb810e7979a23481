package dto

// ── 角色模块 DTO ──

// RolePermissionsDto 16 个权限位
type RolePermissionsDto struct {
	SchedulingViewAll bool `json:"schedulingViewAll"`
	SchedulingManage  bool `json:"schedulingManage"`
	TimeOffRequest    bool `json:"timeOffRequest"`
	TimeOffApprove    bool `json:"timeOffApprove"`
	StaffView         bool `json:"staffView"`
	StaffManage       bool `json:"staffManage"`
	ServicesView      bool `json:"servicesView"`
	ServicesManage    bool `json:"servicesManage"`
	ClientsView       bool `json:"clientsView"`
	ClientsManage     bool `json:"clientsManage"`
	ReportsView       bool `json:"reportsView"`
	SettingsManage    bool `json:"settingsManage"`
	BookingsViewOwn   bool `json:"bookingsViewOwn"`
	BookingsViewAll   bool `json:"bookingsViewAll"`
	BookingsCreate    bool `json:"bookingsCreate"`
	BookingsManage    bool `json:"bookingsManage"`
}

// CreateRoleRequest 创建自定义角色请求
type CreateRoleRequest struct {
	Name        string             `json:"name"        binding:"required,min=1,max=100"`
	Description string             `json:"description" binding:"omitempty,max=500"`
	Permissions RolePermissionsDto `json:"permissions"`
}

// UpdateRoleRequest 修改角色名称/描述请求
type UpdateRoleRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// UpdateRolePermissionsRequest 修改角色权限请求
type UpdateRolePermissionsRequest struct {
	Permissions RolePermissionsDto `json:"permissions"`
	Version     int                `json:"version" binding:"required,min=1"`
}

// PermissionCheckRequest 权限检查查询参数
type PermissionCheckRequest struct {
	Key string `form:"key" binding:"required,max=50"`
}

// ── 响应 ──

// RoleResponse 角色响应
type RoleResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	IsSystem    bool               `json:"isSystem"`
	IsEditable  bool               `json:"isEditable"` // Owner 权限不可编辑
	Permissions RolePermissionsDto `json:"permissions"`
	Version     int                `json:"version"`
	CreatedAt   string             `json:"createdAt"`
	UpdatedAt   string             `json:"updatedAt"`
}

// PermissionCheckResponse 权限检查结果
type PermissionCheckResponse struct {
	Key        string `json:"key"`
	LocationID string `json:"locationId,omitempty"`
	Granted    bool   `json:"granted"`
}
