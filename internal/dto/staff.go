package dto

// ── 员工模块 DTO ──

// CreateStaffMemberRequest 创建员工请求
type CreateStaffMemberRequest struct {
	UserID          *string `json:"userId"          binding:"omitempty,uuid"`
	FirstName       string  `json:"firstName"       binding:"required,min=1,max=100"`
	LastName        string  `json:"lastName"        binding:"omitempty,max=100"`
	Email           string  `json:"email"           binding:"omitempty,email,max=255"`
	Phone           string  `json:"phone"           binding:"omitempty,max=50"`
	JobTitle        string  `json:"jobTitle"        binding:"omitempty,max=100"`
	Bio             string  `json:"bio"             binding:"omitempty,max=2000"`
	Color           string  `json:"color"           binding:"omitempty,max=20"`
	PermissionLevel string  `json:"permissionLevel" binding:"omitempty,oneof=owner manager employee none"`
	IsBookable      *bool   `json:"isBookable"`
}

// UpdateStaffMemberRequest 更新员工资料请求，nil 表示不修改
type UpdateStaffMemberRequest struct {
	FirstName       *string `json:"firstName"       binding:"omitempty,min=1,max=100"`
	LastName        *string `json:"lastName"        binding:"omitempty,max=100"`
	Email           *string `json:"email"           binding:"omitempty,email,max=255"`
	Phone           *string `json:"phone"           binding:"omitempty,max=50"`
	JobTitle        *string `json:"jobTitle"        binding:"omitempty,max=100"`
	Bio             *string `json:"bio"             binding:"omitempty,max=2000"`
	Color           *string `json:"color"           binding:"omitempty,max=20"`
	PermissionLevel *string `json:"permissionLevel" binding:"omitempty,oneof=owner manager employee none"`
	IsBookable      *bool   `json:"isBookable"`
}

// UpdateStaffStatusRequest 修改员工状态请求
type UpdateStaffStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended archived"`
}

// StaffListRequest 员工列表查询参数
type StaffListRequest struct {
	PaginationRequest
	Status     string `form:"status"     binding:"omitempty,oneof=active suspended archived"`
	LocationID string `form:"locationId" binding:"omitempty,uuid"`
	Search     string `form:"search"     binding:"omitempty,max=100"`
	Bookable   *bool  `form:"bookable"`
}

// StaffLocationItem 门店分配项
type StaffLocationItem struct {
	LocationID string  `json:"locationId" binding:"required,uuid"`
	RoleID     *string `json:"roleId"     binding:"omitempty,uuid"`
	IsPrimary  bool    `json:"isPrimary"`
}

// SetStaffLocationsRequest 整体替换门店分配
type SetStaffLocationsRequest struct {
	Locations []StaffLocationItem `json:"locations" binding:"dive"`
}

// StaffServiceItem 服务项目分配项
type StaffServiceItem struct {
	ServiceID             string   `json:"serviceId"             binding:"required,uuid"`
	CustomDurationMinutes *int     `json:"customDurationMinutes" binding:"omitempty,min=1,max=1440"`
	CustomPrice           *float64 `json:"customPrice"           binding:"omitempty,min=0"`
}

// SetStaffServicesRequest 整体替换服务项目
type SetStaffServicesRequest struct {
	Services []StaffServiceItem `json:"services" binding:"dive"`
}

// CreateInvitationRequest 发起账号绑定邀请，Email 为空时使用员工邮箱
type CreateInvitationRequest struct {
	Email string `json:"email" binding:"omitempty,email,max=255"`
}

// AcceptInvitationRequest 接受邀请请求
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required,min=10,max=200"`
}

// ── 响应 ──

// StaffMemberResponse 员工信息响应
type StaffMemberResponse struct {
	ID              string                  `json:"id"`
	UserID          *string                 `json:"userId,omitempty"`
	FirstName       string                  `json:"firstName"`
	LastName        string                  `json:"lastName"`
	FullName        string                  `json:"fullName"`
	Email           string                  `json:"email,omitempty"`
	Phone           string                  `json:"phone,omitempty"`
	JobTitle        string                  `json:"jobTitle,omitempty"`
	Bio             string                  `json:"bio,omitempty"`
	Color           string                  `json:"color,omitempty"`
	PermissionLevel string                  `json:"permissionLevel"`
	Status          string                  `json:"status"`
	IsBookable      bool                    `json:"isBookable"`
	Locations       []StaffLocationResponse `json:"locations,omitempty"`
	Services        []StaffServiceResponse  `json:"services,omitempty"`
	CreatedAt       string                  `json:"createdAt"`
	UpdatedAt       string                  `json:"updatedAt"`
}

// StaffLocationResponse 门店分配响应
type StaffLocationResponse struct {
	LocationID string  `json:"locationId"`
	RoleID     *string `json:"roleId,omitempty"`
	RoleName   string  `json:"roleName,omitempty"`
	IsPrimary  bool    `json:"isPrimary"`
}

// StaffServiceResponse 服务项目分配响应
type StaffServiceResponse struct {
	ServiceID             string   `json:"serviceId"`
	CustomDurationMinutes *int     `json:"customDurationMinutes,omitempty"`
	CustomPrice           *float64 `json:"customPrice,omitempty"`
}

// InvitationResponse 邀请响应，Token 仅在创建时返回
type InvitationResponse struct {
	ID            string `json:"id"`
	StaffMemberID string `json:"staffMemberId"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	ExpiresAt     string `json:"expiresAt"`
	Token         string `json:"token,omitempty"`
}
