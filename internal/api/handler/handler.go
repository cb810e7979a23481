package handler

import "salon-staff/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Staff        *StaffHandler
	Role         *RoleHandler
	Shift        *ShiftHandler
	Pattern      *PatternHandler
	TimeOff      *TimeOffHandler
	ScheduleView *ScheduleViewHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Staff:        NewStaffHandler(svc.Staff),
		Role:         NewRoleHandler(svc.Role, svc.Permission),
		Shift:        NewShiftHandler(svc.Shift, svc.Permission),
		Pattern:      NewPatternHandler(svc.Pattern, svc.Permission),
		TimeOff:      NewTimeOffHandler(svc.TimeOff),
		ScheduleView: NewScheduleViewHandler(svc.Availability, svc.Export),
	}
}
