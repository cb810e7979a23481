package model

import "time"

// 员工状态
const (
	StaffStatusActive    = "active"
	StaffStatusSuspended = "suspended"
	StaffStatusArchived  = "archived"
)

// 旧版权限级别，已被 Role 取代，仅 owner 仍参与鉴权
const (
	PermissionLevelOwner    = "owner"
	PermissionLevelManager  = "manager"
	PermissionLevelEmployee = "employee"
	PermissionLevelNone     = "none"
)

// StaffMember 员工表，对应 staff_members
type StaffMember struct {
	StaffMemberID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"staff_member_id"`
	BusinessID      string  `gorm:"type:uuid;not null;index"                       json:"business_id"`
	UserID          *string `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	FirstName       string  `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName        string  `gorm:"type:varchar(100);not null;default:''"          json:"last_name"`
	Email           string  `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Phone           string  `gorm:"type:varchar(50)"                               json:"phone,omitempty"`
	JobTitle        string  `gorm:"type:varchar(100)"                              json:"job_title,omitempty"`
	Bio             string  `gorm:"type:text"                                      json:"bio,omitempty"`
	Color           string  `gorm:"type:varchar(20)"                               json:"color,omitempty"`
	PermissionLevel string  `gorm:"type:varchar(20);not null;default:'employee'"   json:"permission_level"` // owner | manager | employee | none
	Status          string  `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`           // active | suspended | archived
	IsBookable      bool    `gorm:"not null;default:true"                          json:"is_bookable"`
	SoftDeleteModel

	// 关联（子 → 父单向）
	Locations []StaffLocation `gorm:"foreignKey:StaffMemberID" json:"locations,omitempty"`
	Services  []StaffService  `gorm:"foreignKey:StaffMemberID" json:"services,omitempty"`
}

func (StaffMember) TableName() string { return "staff_members" }

// FullName 返回展示用姓名
func (m *StaffMember) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// StaffLocation 员工门店分配表，对应 staff_locations
// 每个 (员工, 门店) 至多一个角色
type StaffLocation struct {
	StaffLocationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"staff_location_id"`
	BusinessID      string  `gorm:"type:uuid;not null"                             json:"business_id"`
	StaffMemberID   string  `gorm:"type:uuid;not null"                             json:"staff_member_id"`
	LocationID      string  `gorm:"type:uuid;not null"                             json:"location_id"`
	RoleID          *string `gorm:"type:uuid"                                      json:"role_id,omitempty"`
	IsPrimary       bool    `gorm:"not null;default:false"                         json:"is_primary"`
	BaseModel

	Role *Role `gorm:"foreignKey:RoleID;references:RoleID" json:"role,omitempty"`
}

func (StaffLocation) TableName() string { return "staff_locations" }

// StaffService 员工可提供服务表，对应 staff_services
// ServiceID 归属服务目录系统，这里只保存引用
type StaffService struct {
	StaffServiceID        string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"staff_service_id"`
	BusinessID            string   `gorm:"type:uuid;not null"                             json:"business_id"`
	StaffMemberID         string   `gorm:"type:uuid;not null"                             json:"staff_member_id"`
	ServiceID             string   `gorm:"type:uuid;not null"                             json:"service_id"`
	CustomDurationMinutes *int     `gorm:"type:integer"                                   json:"custom_duration_minutes,omitempty"`
	CustomPrice           *float64 `gorm:"type:numeric(10,2)"                             json:"custom_price,omitempty"`
	BaseModel
}

func (StaffService) TableName() string { return "staff_services" }

// 邀请状态
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusRevoked  = "revoked"
	InvitationStatusExpired  = "expired"
)

// StaffInvitation 员工账号绑定邀请表，对应 staff_invitations
// 明文 token 只在创建时返回一次，库中仅存 bcrypt 哈希
type StaffInvitation struct {
	InvitationID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invitation_id"`
	BusinessID     string     `gorm:"type:uuid;not null"                             json:"business_id"`
	StaffMemberID  string     `gorm:"type:uuid;not null"                             json:"staff_member_id"`
	Email          string     `gorm:"type:varchar(255);not null"                     json:"email"`
	TokenHash      string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | accepted | revoked | expired
	ExpiresAt      time.Time  `gorm:"not null"                                       json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	AcceptedUserID *string    `gorm:"type:uuid"                                      json:"accepted_user_id,omitempty"`
	BaseModel
}

func (StaffInvitation) TableName() string { return "staff_invitations" }
