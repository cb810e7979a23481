package model

import (
	"time"

	"gorm.io/datatypes"
)

// 班次类型
const (
	ShiftTypeOpening = "opening"
	ShiftTypeMid     = "mid"
	ShiftTypeClosing = "closing"
	ShiftTypeCustom  = "custom"
)

// 班次状态
const (
	ShiftStatusPending   = "pending"
	ShiftStatusScheduled = "scheduled"
	ShiftStatusConfirmed = "confirmed"
	ShiftStatusRejected  = "rejected"
	ShiftStatusCompleted = "completed"
	ShiftStatusCancelled = "cancelled"
	ShiftStatusNoShow    = "no_show"
)

// IsValidShiftType 判断班次类型是否合法
func IsValidShiftType(t string) bool {
	switch t {
	case ShiftTypeOpening, ShiftTypeMid, ShiftTypeClosing, ShiftTypeCustom:
		return true
	}
	return false
}

// Shift 班次表，对应 shifts
// StartTime / EndTime 为门店本地时间 "HH:MM[:SS]"，不含时区
type Shift struct {
	ShiftID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	BusinessID         string    `gorm:"type:uuid;not null"                             json:"business_id"`
	StaffMemberID      string    `gorm:"type:uuid;not null"                             json:"staff_member_id"`
	LocationID         *string   `gorm:"type:uuid"                                      json:"location_id,omitempty"`
	RecurringPatternID *string   `gorm:"type:uuid"                                      json:"recurring_pattern_id,omitempty"` // 非空表示对该模式某日的覆盖
	Date               time.Time `gorm:"type:date;not null"                             json:"date"`
	StartTime          string    `gorm:"type:time;not null"                             json:"start_time"`
	EndTime            string    `gorm:"type:time;not null"                             json:"end_time"`
	ShiftType          string    `gorm:"type:varchar(20);not null;default:'custom'"     json:"shift_type"` // opening | mid | closing | custom
	Status             string    `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"`
	Notes              string    `gorm:"type:varchar(1000)"                             json:"notes,omitempty"`
	SoftDeleteModel

	StaffMember *StaffMember `gorm:"foreignKey:StaffMemberID;references:StaffMemberID" json:"staff_member,omitempty"`
}

func (Shift) TableName() string { return "shifts" }

// IsActive 取消/拒绝的班次不占用时间
func (s *Shift) IsActive() bool {
	return s.Status != ShiftStatusCancelled && s.Status != ShiftStatusRejected
}

// ShiftChangeLog 班次变更日志，对应 shift_change_logs（纯审计）
type ShiftChangeLog struct {
	ChangeLogID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_log_id"`
	BusinessID    string         `gorm:"type:uuid;not null"                             json:"business_id"`
	ShiftID       string         `gorm:"type:uuid;not null"                             json:"shift_id"`
	StaffMemberID string         `gorm:"type:uuid;not null"                             json:"staff_member_id"`
	ChangeType    string         `gorm:"type:varchar(20);not null"                      json:"change_type"` // created | updated | status_changed | deleted
	FromStatus    string         `gorm:"type:varchar(20)"                               json:"from_status,omitempty"`
	ToStatus      string         `gorm:"type:varchar(20)"                               json:"to_status,omitempty"`
	Forced        bool           `gorm:"not null;default:false"                         json:"forced"`
	Conflicts     datatypes.JSON `gorm:"type:jsonb"                                     json:"conflicts,omitempty"` // 被强制忽略的冲突快照
	OperatorID    string         `gorm:"type:uuid;not null"                             json:"operator_id"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (ShiftChangeLog) TableName() string { return "shift_change_logs" }

// 变更类型
const (
	ChangeTypeCreated       = "created"
	ChangeTypeUpdated       = "updated"
	ChangeTypeStatusChanged = "status_changed"
	ChangeTypeDeleted       = "deleted"
)
