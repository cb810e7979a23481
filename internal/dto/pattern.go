package dto

// ── 周期班次模式 DTO ──

// CreatePatternRequest 创建周期模式请求
type CreatePatternRequest struct {
	StaffMemberID  string  `json:"staffMemberId"  binding:"required,uuid"`
	LocationID     *string `json:"locationId"     binding:"omitempty,uuid"`
	RecurrenceRule string  `json:"recurrenceRule" binding:"required,max=500"`
	StartTime      string  `json:"startTime"      binding:"required"`
	EndTime        string  `json:"endTime"        binding:"required"`
	StartDate      string  `json:"startDate"      binding:"required"`
	EndDate        *string `json:"endDate"`
	ShiftType      string  `json:"shiftType"      binding:"omitempty,oneof=opening mid closing custom"`
	Notes          string  `json:"notes"          binding:"omitempty,max=1000"`
}

// UpdatePatternRequest 更新周期模式请求，nil 表示不修改
// EndDate 传空字符串表示清除结束日期
type UpdatePatternRequest struct {
	LocationID     *string `json:"locationId"     binding:"omitempty,uuid"`
	RecurrenceRule *string `json:"recurrenceRule" binding:"omitempty,max=500"`
	StartTime      *string `json:"startTime"`
	EndTime        *string `json:"endTime"`
	StartDate      *string `json:"startDate"`
	EndDate        *string `json:"endDate"`
	ShiftType      *string `json:"shiftType"      binding:"omitempty,oneof=opening mid closing custom"`
	IsActive       *bool   `json:"isActive"`
	Notes          *string `json:"notes"          binding:"omitempty,max=1000"`
}

// PatternListRequest 周期模式列表查询参数
type PatternListRequest struct {
	StaffMemberID   string `form:"staffMemberId"   binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"includeInactive"`
}

// CreateOverrideRequest 覆盖周期模式某一天
// Cancel=true 表示当天跳过；否则按给定字段（缺省沿用模式）生成具体班次
type CreateOverrideRequest struct {
	Date            string  `json:"date"      binding:"required"`
	StartTime       *string `json:"startTime"`
	EndTime         *string `json:"endTime"`
	LocationID      *string `json:"locationId" binding:"omitempty,uuid"`
	Notes           string  `json:"notes"     binding:"omitempty,max=1000"`
	Cancel          bool    `json:"cancel"`
	OverrideOverlap bool    `json:"overrideOverlap"`
}

// ── 响应 ──

// PatternResponse 周期模式响应
type PatternResponse struct {
	ID             string  `json:"id"`
	StaffMemberID  string  `json:"staffMemberId"`
	LocationID     *string `json:"locationId,omitempty"`
	RecurrenceRule string  `json:"recurrenceRule"`
	StartTime      string  `json:"startTime"`
	EndTime        string  `json:"endTime"`
	StartDate      string  `json:"startDate"`
	EndDate        *string `json:"endDate,omitempty"`
	ShiftType      string  `json:"shiftType"`
	IsActive       bool    `json:"isActive"`
	Notes          string  `json:"notes,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// ShiftOccurrence 周期模式展开出的单日班次
type ShiftOccurrence struct {
	PatternID       string  `json:"patternId"`
	StaffMemberID   string  `json:"staffMemberId"`
	LocationID      *string `json:"locationId,omitempty"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	ShiftType       string  `json:"shiftType"`
	IsOverridden    bool    `json:"isOverridden"`
	OverrideShiftID string  `json:"overrideShiftId,omitempty"`
}
