package dto

// ── 班次模块 DTO ──

// CreateShiftRequest 创建班次请求
// 日期 yyyy-MM-dd，时间 HH:mm
type CreateShiftRequest struct {
	StaffMemberID      string  `json:"staffMemberId"      binding:"required,uuid"`
	LocationID         *string `json:"locationId"         binding:"omitempty,uuid"`
	RecurringPatternID *string `json:"recurringPatternId" binding:"omitempty,uuid"`
	Date               string  `json:"date"               binding:"required"`
	StartTime          string  `json:"startTime"          binding:"required"`
	EndTime            string  `json:"endTime"            binding:"required"`
	ShiftType          string  `json:"shiftType"          binding:"omitempty,oneof=opening mid closing custom"`
	Status             string  `json:"status"             binding:"omitempty,oneof=pending scheduled"`
	Notes              string  `json:"notes"              binding:"omitempty,max=1000"`
	OverrideOverlap    bool    `json:"overrideOverlap"`
}

// UpdateShiftRequest 更新班次请求，nil 表示不修改
type UpdateShiftRequest struct {
	StaffMemberID   *string `json:"staffMemberId"   binding:"omitempty,uuid"`
	LocationID      *string `json:"locationId"      binding:"omitempty,uuid"`
	Date            *string `json:"date"`
	StartTime       *string `json:"startTime"`
	EndTime         *string `json:"endTime"`
	ShiftType       *string `json:"shiftType"       binding:"omitempty,oneof=opening mid closing custom"`
	Notes           *string `json:"notes"           binding:"omitempty,max=1000"`
	ClearLocation   bool    `json:"clearLocation"`
	OverrideOverlap bool    `json:"overrideOverlap"`
}

// UpdateShiftStatusRequest 班次状态流转请求
type UpdateShiftStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending scheduled confirmed rejected completed cancelled no_show"`
}

// CheckConflictsRequest 冲突预检请求
type CheckConflictsRequest struct {
	StaffMemberID  string  `json:"staffMemberId"  binding:"required,uuid"`
	LocationID     *string `json:"locationId"     binding:"omitempty,uuid"`
	Date           string  `json:"date"           binding:"required"`
	StartTime      string  `json:"startTime"      binding:"required"`
	EndTime        string  `json:"endTime"        binding:"required"`
	ExcludeShiftID string  `json:"excludeShiftId" binding:"omitempty,uuid"`
}

// ShiftListRequest 班次列表查询参数
type ShiftListRequest struct {
	PaginationRequest
	StaffMemberID string `form:"staffMemberId" binding:"omitempty,uuid"`
	LocationID    string `form:"locationId"    binding:"omitempty,uuid"`
	Status        string `form:"status"        binding:"omitempty,oneof=pending scheduled confirmed rejected completed cancelled no_show"`
	From          string `form:"from"`
	To            string `form:"to"`
}

// ShiftChangeLogListRequest 变更日志列表查询参数
type ShiftChangeLogListRequest struct {
	PaginationRequest
	ShiftID string `form:"shiftId" binding:"omitempty,uuid"`
}

// ── 响应 ──

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID                 string                  `json:"id"`
	StaffMemberID      string                  `json:"staffMemberId"`
	LocationID         *string                 `json:"locationId,omitempty"`
	RecurringPatternID *string                 `json:"recurringPatternId,omitempty"`
	Date               string                  `json:"date"`
	StartTime          string                  `json:"startTime"`
	EndTime            string                  `json:"endTime"`
	ShiftType          string                  `json:"shiftType"`
	Status             string                  `json:"status"`
	Notes              string                  `json:"notes,omitempty"`
	Warnings           []ShiftConflictResponse `json:"warnings,omitempty"` // 被强制忽略的冲突
	CreatedAt          string                  `json:"createdAt"`
	UpdatedAt          string                  `json:"updatedAt"`
}

// ShiftConflictResponse 冲突明细
type ShiftConflictResponse struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	ShiftID  string `json:"shiftId,omitempty"`
}

// CheckConflictsResponse 冲突预检结果
type CheckConflictsResponse struct {
	Conflicts   []ShiftConflictResponse `json:"conflicts"`
	HasBlocking bool                    `json:"hasBlocking"`
}

// ShiftChangeLogResponse 班次变更日志响应
type ShiftChangeLogResponse struct {
	ID            string                  `json:"id"`
	ShiftID       string                  `json:"shiftId"`
	StaffMemberID string                  `json:"staffMemberId"`
	ChangeType    string                  `json:"changeType"`
	FromStatus    string                  `json:"fromStatus,omitempty"`
	ToStatus      string                  `json:"toStatus,omitempty"`
	Forced        bool                    `json:"forced"`
	Conflicts     []ShiftConflictResponse `json:"conflicts,omitempty"`
	OperatorID    string                  `json:"operatorId"`
	CreatedAt     string                  `json:"createdAt"`
}
