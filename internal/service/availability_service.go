package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"salon-staff/internal/dto"
	"salon-staff/internal/repository"
	"salon-staff/pkg/clock"
)

// ── 可用性模块业务错误 ──

var (
	ErrInvalidDateRange  = errors.New("日期区间无效")
	ErrDateRangeTooLarge = errors.New("日期区间过大")
)

// AvailabilityService 员工可用性查询接口
type AvailabilityService interface {
	GetAvailability(ctx context.Context, businessID, staffMemberID string, req *dto.DateRangeRequest) ([]dto.AvailabilitySlot, error)
}

type availabilityService struct {
	repo       *repository.Repository
	aggregator *AvailabilityAggregator
	maxDays    int
	logger     *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(repo *repository.Repository, aggregator *AvailabilityAggregator, maxDays int, logger *zap.Logger) AvailabilityService {
	return &availabilityService{repo: repo, aggregator: aggregator, maxDays: maxDays, logger: logger}
}

func (s *availabilityService) GetAvailability(ctx context.Context, businessID, staffMemberID string, req *dto.DateRangeRequest) ([]dto.AvailabilitySlot, error) {
	from, to, err := parseDateRange(req.From, req.To, s.maxDays)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.StaffMember.GetByID(ctx, businessID, staffMemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, err
	}

	shifts, err := s.repo.Shift.ListByStaffInRange(ctx, businessID, staffMemberID, from, to)
	if err != nil {
		s.logger.Error("查询班次失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, err
	}
	patterns, err := s.repo.Pattern.ListActiveByStaff(ctx, businessID, staffMemberID)
	if err != nil {
		s.logger.Error("查询周期模式失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, err
	}
	timeOff, err := s.repo.TimeOff.ListApprovedInRange(ctx, businessID, staffMemberID, from, to)
	if err != nil {
		s.logger.Error("查询请假失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, err
	}

	slots, err := s.aggregator.Aggregate(shifts, patterns, timeOff, from, to)
	if err != nil {
		s.logger.Error("聚合可用性失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AvailabilitySlot, 0, len(slots))
	for _, slot := range slots {
		result = append(result, dto.AvailabilitySlot{
			Date:        clock.FormatDate(slot.Date),
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			Type:        slot.Type,
			Source:      slot.Source,
			ReferenceID: slot.ReferenceID,
			AllDay:      slot.AllDay,
			LocationID:  slot.LocationID,
			ShiftType:   slot.ShiftType,
		})
	}
	return result, nil
}

// ── 内部辅助方法 ──

// parseDateRange 解析闭区间 [from, to]，maxDays > 0 时限制跨度
func parseDateRange(fromStr, toStr string, maxDays int) (time.Time, time.Time, error) {
	from, err := clock.ParseDate(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %v", ErrInvalidDateRange, err)
	}
	to, err := clock.ParseDate(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %v", ErrInvalidDateRange, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from 晚于 to", ErrInvalidDateRange)
	}
	if maxDays > 0 && clock.DaysBetween(from, to)+1 > maxDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 最多 %d 天", ErrDateRangeTooLarge, maxDays)
	}
	return from, to, nil
}
