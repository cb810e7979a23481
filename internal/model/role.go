package model

import "strings"

// 系统默认角色名（每个商户初始化时创建，名称不可修改）
const (
	RoleNameOwner    = "Owner"
	RoleNameManager  = "Manager"
	RoleNameEmployee = "Employee"
)

// 权限键，格式 "Area.Action"
const (
	PermSchedulingViewAll = "Scheduling.ViewAll"
	PermSchedulingManage  = "Scheduling.Manage"
	PermTimeOffRequest    = "TimeOff.Request"
	PermTimeOffApprove    = "TimeOff.Approve"
	PermStaffView         = "Staff.View"
	PermStaffManage       = "Staff.Manage"
	PermServicesView      = "Services.View"
	PermServicesManage    = "Services.Manage"
	PermClientsView       = "Clients.View"
	PermClientsManage     = "Clients.Manage"
	PermReportsView       = "Reports.View"
	PermSettingsManage    = "Settings.Manage"
	PermBookingsViewOwn   = "Bookings.ViewOwn"
	PermBookingsViewAll   = "Bookings.ViewAll"
	PermBookingsCreate    = "Bookings.Create"
	PermBookingsManage    = "Bookings.Manage"
)

// Role 角色表，对应 roles
type Role struct {
	RoleID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"role_id"`
	BusinessID  string `gorm:"type:uuid;not null"                             json:"business_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	IsSystem    bool   `gorm:"not null;default:false"                         json:"is_system"` // Owner / Manager / Employee
	RolePermissions
	VersionedModel
}

func (Role) TableName() string { return "roles" }

// IsOwnerRole 系统 Owner 角色权限固定不可编辑
func (r *Role) IsOwnerRole() bool {
	return r.IsSystem && r.Name == RoleNameOwner
}

// RolePermissions 16 个权限位，平铺存储在 roles 表
type RolePermissions struct {
	SchedulingViewAll bool `gorm:"not null;default:false" json:"scheduling_view_all"`
	SchedulingManage  bool `gorm:"not null;default:false" json:"scheduling_manage"`
	TimeOffRequest    bool `gorm:"not null;default:false" json:"time_off_request"`
	TimeOffApprove    bool `gorm:"not null;default:false" json:"time_off_approve"`
	StaffView         bool `gorm:"not null;default:false" json:"staff_view"`
	StaffManage       bool `gorm:"not null;default:false" json:"staff_manage"`
	ServicesView      bool `gorm:"not null;default:false" json:"services_view"`
	ServicesManage    bool `gorm:"not null;default:false" json:"services_manage"`
	ClientsView       bool `gorm:"not null;default:false" json:"clients_view"`
	ClientsManage     bool `gorm:"not null;default:false" json:"clients_manage"`
	ReportsView       bool `gorm:"not null;default:false" json:"reports_view"`
	SettingsManage    bool `gorm:"not null;default:false" json:"settings_manage"`
	BookingsViewOwn   bool `gorm:"not null;default:false" json:"bookings_view_own"`
	BookingsViewAll   bool `gorm:"not null;default:false" json:"bookings_view_all"`
	BookingsCreate    bool `gorm:"not null;default:false" json:"bookings_create"`
	BookingsManage    bool `gorm:"not null;default:false" json:"bookings_manage"`
}

// permissionKeys 固定顺序，供列表/校验使用
var permissionKeys = []string{
	PermSchedulingViewAll, PermSchedulingManage,
	PermTimeOffRequest, PermTimeOffApprove,
	PermStaffView, PermStaffManage,
	PermServicesView, PermServicesManage,
	PermClientsView, PermClientsManage,
	PermReportsView, PermSettingsManage,
	PermBookingsViewOwn, PermBookingsViewAll, PermBookingsCreate, PermBookingsManage,
}

var permissionFields = map[string]func(p *RolePermissions) *bool{
	PermSchedulingViewAll: func(p *RolePermissions) *bool { return &p.SchedulingViewAll },
	PermSchedulingManage:  func(p *RolePermissions) *bool { return &p.SchedulingManage },
	PermTimeOffRequest:    func(p *RolePermissions) *bool { return &p.TimeOffRequest },
	PermTimeOffApprove:    func(p *RolePermissions) *bool { return &p.TimeOffApprove },
	PermStaffView:         func(p *RolePermissions) *bool { return &p.StaffView },
	PermStaffManage:       func(p *RolePermissions) *bool { return &p.StaffManage },
	PermServicesView:      func(p *RolePermissions) *bool { return &p.ServicesView },
	PermServicesManage:    func(p *RolePermissions) *bool { return &p.ServicesManage },
	PermClientsView:       func(p *RolePermissions) *bool { return &p.ClientsView },
	PermClientsManage:     func(p *RolePermissions) *bool { return &p.ClientsManage },
	PermReportsView:       func(p *RolePermissions) *bool { return &p.ReportsView },
	PermSettingsManage:    func(p *RolePermissions) *bool { return &p.SettingsManage },
	PermBookingsViewOwn:   func(p *RolePermissions) *bool { return &p.BookingsViewOwn },
	PermBookingsViewAll:   func(p *RolePermissions) *bool { return &p.BookingsViewAll },
	PermBookingsCreate:    func(p *RolePermissions) *bool { return &p.BookingsCreate },
	PermBookingsManage:    func(p *RolePermissions) *bool { return &p.BookingsManage },
}

// PermissionKeys 返回全部权限键的副本
func PermissionKeys() []string {
	keys := make([]string, len(permissionKeys))
	copy(keys, permissionKeys)
	return keys
}

// IsPermissionKey 判断是否为已知权限键
func IsPermissionKey(key string) bool {
	_, ok := permissionFields[key]
	return ok
}

// Has 查询权限位；未知键一律返回 false
func (p RolePermissions) Has(key string) bool {
	field, ok := permissionFields[key]
	if !ok {
		return false
	}
	return *field(&p)
}

// Set 设置权限位；未知键返回 false 且不做修改
func (p *RolePermissions) Set(key string, value bool) bool {
	field, ok := permissionFields[key]
	if !ok {
		return false
	}
	*field(p) = value
	return true
}

// ToMap 以权限键为 key 导出
func (p RolePermissions) ToMap() map[string]bool {
	m := make(map[string]bool, len(permissionKeys))
	for _, k := range permissionKeys {
		m[k] = p.Has(k)
	}
	return m
}

// ── 预设权限 ──

// OwnerPermissions 全部权限
func OwnerPermissions() RolePermissions {
	var p RolePermissions
	for _, k := range permissionKeys {
		p.Set(k, true)
	}
	return p
}

// ManagerPermissions 除系统设置外的全部权限
func ManagerPermissions() RolePermissions {
	p := OwnerPermissions()
	p.SettingsManage = false
	return p
}

// EmployeePermissions 普通员工：请假、查看与自助预约
func EmployeePermissions() RolePermissions {
	return RolePermissions{
		TimeOffRequest:  true,
		StaffView:       true,
		ServicesView:    true,
		ClientsView:     true,
		BookingsViewOwn: true,
		BookingsCreate:  true,
	}
}

// DefaultRolePresets 默认角色名 → 预设权限
func DefaultRolePresets() map[string]RolePermissions {
	return map[string]RolePermissions{
		RoleNameOwner:    OwnerPermissions(),
		RoleNameManager:  ManagerPermissions(),
		RoleNameEmployee: EmployeePermissions(),
	}
}

// IsDefaultRoleName 判断名称是否为保留的系统角色名（不区分大小写）
func IsDefaultRoleName(name string) bool {
	for _, reserved := range []string{RoleNameOwner, RoleNameManager, RoleNameEmployee} {
		if strings.EqualFold(strings.TrimSpace(name), reserved) {
			return true
		}
	}
	return false
}
