package service

import (
	"go.uber.org/zap"

	"salon-staff/config"
	"salon-staff/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Staff        StaffService
	Role         RoleService
	Permission   PermissionEvaluator
	Shift        ShiftService
	Pattern      PatternService
	TimeOff      TimeOffService
	Availability AvailabilityService
	Export       ExportService
}

// NewService 创建 Service 聚合
// 展开器、冲突检测器与聚合器无状态，各业务共享同一实例
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	expander := NewExpander(NewRRuleParser())
	checker := NewConflictChecker(ConflictPolicy{
		MaxDailyHours:    cfg.Scheduling.MaxDailyHours,
		LocationCapacity: cfg.Scheduling.LocationCapacity,
	})
	aggregator := NewAvailabilityAggregator(expander)
	maxDays := cfg.Scheduling.MaxExpandDays

	return &Service{
		Staff:        NewStaffService(repo, cfg.Invitation.TTL, logger),
		Role:         NewRoleService(repo, logger),
		Permission:   NewPermissionEvaluator(repo, logger),
		Shift:        NewShiftService(repo, checker, logger),
		Pattern:      NewPatternService(repo, expander, checker, maxDays, logger),
		TimeOff:      NewTimeOffService(repo, logger),
		Availability: NewAvailabilityService(repo, aggregator, maxDays, logger),
		Export:       NewExportService(repo, expander, aggregator, maxDays, logger),
	}
}
