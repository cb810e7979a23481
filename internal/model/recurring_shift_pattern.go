package model

import "time"

// RecurringShiftPattern 周期班次模式表，对应 recurring_shift_patterns
// RecurrenceRule 为 RFC 5545 RRULE 主体，例如 FREQ=WEEKLY;BYDAY=MO,WE,FR
type RecurringShiftPattern struct {
	PatternID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pattern_id"`
	BusinessID     string     `gorm:"type:uuid;not null"                             json:"business_id"`
	StaffMemberID  string     `gorm:"type:uuid;not null"                             json:"staff_member_id"`
	LocationID     *string    `gorm:"type:uuid"                                      json:"location_id,omitempty"`
	RecurrenceRule string     `gorm:"type:varchar(500);not null"                     json:"recurrence_rule"`
	StartTime      string     `gorm:"type:time;not null"                             json:"start_time"`
	EndTime        string     `gorm:"type:time;not null"                             json:"end_time"`
	StartDate      time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate        *time.Time `gorm:"type:date"                                      json:"end_date,omitempty"` // nil 表示无结束日期
	ShiftType      string     `gorm:"type:varchar(20);not null;default:'custom'"     json:"shift_type"`
	IsActive       bool       `gorm:"not null;default:true"                          json:"is_active"`
	Notes          string     `gorm:"type:varchar(1000)"                             json:"notes,omitempty"`
	SoftDeleteModel
}

func (RecurringShiftPattern) TableName() string { return "recurring_shift_patterns" }
