package dto

import "fmt"

// ── 请假模块 DTO ──

// CreateTimeOffRequest 提交请假申请
// IsAllDay 缺省为 true；false 时必须给出 StartTime/EndTime
type CreateTimeOffRequest struct {
	Type      string  `json:"type"      binding:"required,oneof=vacation sick personal unpaid other"`
	StartDate string  `json:"startDate" binding:"required"`
	EndDate   string  `json:"endDate"   binding:"required"`
	IsAllDay  *bool   `json:"isAllDay"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Reason    string  `json:"reason"    binding:"omitempty,max=500"`
}

// AllDay 返回是否全天
func (r *CreateTimeOffRequest) AllDay() bool {
	return r.IsAllDay == nil || *r.IsAllDay
}

// Validate 校验全天标记与时段的联动约束
func (r *CreateTimeOffRequest) Validate() error {
	hasStart := r.StartTime != nil && *r.StartTime != ""
	hasEnd := r.EndTime != nil && *r.EndTime != ""
	if r.AllDay() {
		if hasStart || hasEnd {
			return fmt.Errorf("全天请假不应指定时段")
		}
		return nil
	}
	if !hasStart || !hasEnd {
		return fmt.Errorf("非全天请假必须指定 startTime 与 endTime")
	}
	return nil
}

// DenyTimeOffRequest 驳回请假请求
type DenyTimeOffRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// TimeOffListRequest 请假列表查询参数
type TimeOffListRequest struct {
	PaginationRequest
	StaffMemberID string `form:"staffMemberId" binding:"omitempty,uuid"`
	Status        string `form:"status"        binding:"omitempty,oneof=pending approved denied cancelled"`
	From          string `form:"from"`
	To            string `form:"to"`
}

// ── 响应 ──

// TimeOffResponse 请假申请响应
type TimeOffResponse struct {
	ID            string  `json:"id"`
	StaffMemberID string  `json:"staffMemberId"`
	Type          string  `json:"type"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	IsAllDay      bool    `json:"isAllDay"`
	StartTime     *string `json:"startTime,omitempty"`
	EndTime       *string `json:"endTime,omitempty"`
	Reason        string  `json:"reason,omitempty"`
	Status        string  `json:"status"`
	ApprovedBy    *string `json:"approvedBy,omitempty"`
	ApprovedAt    *string `json:"approvedAt,omitempty"`
	DenialReason  string  `json:"denialReason,omitempty"`
	Version       int     `json:"version"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}
