package model

import "time"

// 请假类型
const (
	TimeOffTypeVacation = "vacation"
	TimeOffTypeSick     = "sick"
	TimeOffTypePersonal = "personal"
	TimeOffTypeUnpaid   = "unpaid"
	TimeOffTypeOther    = "other"
)

// 请假状态：pending → approved | denied | cancelled，终态不可再变
const (
	TimeOffStatusPending   = "pending"
	TimeOffStatusApproved  = "approved"
	TimeOffStatusDenied    = "denied"
	TimeOffStatusCancelled = "cancelled"
)

// IsValidTimeOffType 判断请假类型是否合法
func IsValidTimeOffType(t string) bool {
	switch t {
	case TimeOffTypeVacation, TimeOffTypeSick, TimeOffTypePersonal, TimeOffTypeUnpaid, TimeOffTypeOther:
		return true
	}
	return false
}

// TimeOffRequest 请假申请表，对应 time_off_requests
// IsAllDay=false 时 StartTime/EndTime 表示每天的不可用时段
type TimeOffRequest struct {
	TimeOffRequestID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_off_request_id"`
	BusinessID       string     `gorm:"type:uuid;not null"                             json:"business_id"`
	StaffMemberID    string     `gorm:"type:uuid;not null"                             json:"staff_member_id"`
	Type             string     `gorm:"type:varchar(20);not null"                      json:"type"`
	StartDate        time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	IsAllDay         bool       `gorm:"not null;default:true"                          json:"is_all_day"`
	StartTime        *string    `gorm:"type:time"                                      json:"start_time,omitempty"`
	EndTime          *string    `gorm:"type:time"                                      json:"end_time,omitempty"`
	Reason           string     `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ApprovedBy       *string    `gorm:"type:uuid"                                      json:"approved_by,omitempty"` // 审批人（批准或驳回）
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	DenialReason     string     `gorm:"type:varchar(500)"                              json:"denial_reason,omitempty"`
	VersionedModel

	StaffMember *StaffMember `gorm:"foreignKey:StaffMemberID;references:StaffMemberID" json:"staff_member,omitempty"`
}

func (TimeOffRequest) TableName() string { return "time_off_requests" }

// IsTerminal 判断是否已处于终态
func (r *TimeOffRequest) IsTerminal() bool {
	return r.Status != TimeOffStatusPending
}
