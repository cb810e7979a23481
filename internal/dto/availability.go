package dto

// ── 可用性 / 导出 DTO ──

// AvailabilitySlot 员工不可预约时段
// Type: busy | unavailable；Source: shift | recurring_pattern | time_off
type AvailabilitySlot struct {
	Date        string  `json:"date"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Type        string  `json:"type"`
	Source      string  `json:"source"`
	ReferenceID string  `json:"referenceId"`
	AllDay      bool    `json:"allDay,omitempty"`
	LocationID  *string `json:"locationId,omitempty"`
	ShiftType   string  `json:"shiftType,omitempty"`
}

// ExportShiftsRequest 排班导出查询参数
type ExportShiftsRequest struct {
	DateRangeRequest
	LocationID string `form:"locationId" binding:"omitempty,uuid"`
}
