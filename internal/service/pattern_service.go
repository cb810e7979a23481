package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
	"salon-staff/internal/repository"
	"salon-staff/pkg/clock"
)

// ── 周期模式业务错误 ──

var (
	ErrPatternNotFound = errors.New("周期模式不存在")
	ErrNotAnOccurrence = errors.New("该日期不是周期模式的发生日")
)

// PatternService 周期班次模式业务接口
type PatternService interface {
	Create(ctx context.Context, businessID string, req *dto.CreatePatternRequest, callerID string) (*dto.PatternResponse, error)
	GetByID(ctx context.Context, businessID, id string) (*dto.PatternResponse, error)
	List(ctx context.Context, businessID string, req *dto.PatternListRequest) ([]dto.PatternResponse, error)
	Update(ctx context.Context, businessID, id string, req *dto.UpdatePatternRequest, callerID string) (*dto.PatternResponse, error)
	Delete(ctx context.Context, businessID, id, callerID string) error
	// Occurrences 展开区间内的发生日，并标注已被覆盖的日期
	Occurrences(ctx context.Context, businessID, id string, req *dto.DateRangeRequest) ([]dto.ShiftOccurrence, error)
	// CreateOverride 为某个发生日生成具体班次（或取消当天）
	CreateOverride(ctx context.Context, businessID, id string, req *dto.CreateOverrideRequest, force bool, callerID string) (*dto.ShiftResponse, error)
}

type patternService struct {
	repo     *repository.Repository
	expander *Expander
	checker  *ConflictChecker
	maxDays  int
	logger   *zap.Logger
}

// NewPatternService 创建 PatternService 实例
func NewPatternService(repo *repository.Repository, expander *Expander, checker *ConflictChecker, maxDays int, logger *zap.Logger) PatternService {
	return &patternService{
		repo:     repo,
		expander: expander,
		checker:  checker,
		maxDays:  maxDays,
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *patternService) Create(ctx context.Context, businessID string, req *dto.CreatePatternRequest, callerID string) (*dto.PatternResponse, error) {
	if _, err := s.repo.StaffMember.GetByID(ctx, businessID, req.StaffMemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.String("staff_member_id", req.StaffMemberID), zap.Error(err))
		return nil, err
	}

	startDate, err := clock.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	p := &model.RecurringShiftPattern{
		BusinessID:     businessID,
		StaffMemberID:  req.StaffMemberID,
		LocationID:     req.LocationID,
		RecurrenceRule: req.RecurrenceRule,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		StartDate:      startDate,
		ShiftType:      req.ShiftType,
		IsActive:       true,
		Notes:          req.Notes,
	}
	if p.ShiftType == "" {
		p.ShiftType = model.ShiftTypeCustom
	}
	if req.EndDate != nil && *req.EndDate != "" {
		endDate, err := clock.ParseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		p.EndDate = &endDate
	}
	if err := s.validate(p); err != nil {
		return nil, err
	}
	p.CreatedBy = &callerID
	p.UpdatedBy = &callerID

	if err := s.repo.Pattern.Create(ctx, p); err != nil {
		s.logger.Error("创建周期模式失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("周期模式已创建",
		zap.String("pattern_id", p.PatternID),
		zap.String("staff_member_id", p.StaffMemberID),
		zap.String("rule", p.RecurrenceRule))
	return toPatternResponse(p), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *patternService) GetByID(ctx context.Context, businessID, id string) (*dto.PatternResponse, error) {
	p, err := s.getPattern(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return toPatternResponse(p), nil
}

func (s *patternService) List(ctx context.Context, businessID string, req *dto.PatternListRequest) ([]dto.PatternResponse, error) {
	patterns, err := s.repo.Pattern.List(ctx, businessID, req.StaffMemberID, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出周期模式失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.PatternResponse, 0, len(patterns))
	for i := range patterns {
		result = append(result, *toPatternResponse(&patterns[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *patternService) Update(ctx context.Context, businessID, id string, req *dto.UpdatePatternRequest, callerID string) (*dto.PatternResponse, error) {
	p, err := s.getPattern(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	if req.LocationID != nil {
		p.LocationID = req.LocationID
	}
	if req.RecurrenceRule != nil {
		p.RecurrenceRule = *req.RecurrenceRule
	}
	if req.StartTime != nil {
		p.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		p.EndTime = *req.EndTime
	}
	if req.StartDate != nil {
		d, err := clock.ParseDate(*req.StartDate)
		if err != nil {
			return nil, err
		}
		p.StartDate = d
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			p.EndDate = nil
		} else {
			d, err := clock.ParseDate(*req.EndDate)
			if err != nil {
				return nil, err
			}
			p.EndDate = &d
		}
	}
	if req.ShiftType != nil {
		p.ShiftType = *req.ShiftType
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	if err := s.validate(p); err != nil {
		return nil, err
	}
	p.UpdatedBy = &callerID

	if err := s.repo.Pattern.Update(ctx, p); err != nil {
		s.logger.Error("更新周期模式失败", zap.String("pattern_id", id), zap.Error(err))
		return nil, err
	}
	return toPatternResponse(p), nil
}

// ────────────────────── Delete ──────────────────────

func (s *patternService) Delete(ctx context.Context, businessID, id, callerID string) error {
	if _, err := s.getPattern(ctx, businessID, id); err != nil {
		return err
	}
	if err := s.repo.Pattern.Delete(ctx, businessID, id, callerID); err != nil {
		s.logger.Error("删除周期模式失败", zap.String("pattern_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Occurrences ──────────────────────

func (s *patternService) Occurrences(ctx context.Context, businessID, id string, req *dto.DateRangeRequest) ([]dto.ShiftOccurrence, error) {
	from, to, err := parseDateRange(req.From, req.To, s.maxDays)
	if err != nil {
		return nil, err
	}
	p, err := s.getPattern(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	seq, err := s.expander.Expand(p, from, to)
	if err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.ListByStaffInRange(ctx, businessID, p.StaffMemberID, from, to)
	if err != nil {
		s.logger.Error("查询覆盖班次失败", zap.String("pattern_id", id), zap.Error(err))
		return nil, err
	}
	overrides := make(map[string]string)
	for _, sh := range shifts {
		if sh.RecurringPatternID != nil && *sh.RecurringPatternID == id {
			overrides[clock.FormatDate(sh.Date)] = sh.ShiftID
		}
	}

	result := make([]dto.ShiftOccurrence, 0)
	for occ := range seq {
		date := clock.FormatDate(occ.Date)
		item := dto.ShiftOccurrence{
			PatternID:     occ.PatternID,
			StaffMemberID: occ.StaffMemberID,
			LocationID:    occ.LocationID,
			Date:          date,
			StartTime:     occ.StartTime,
			EndTime:       occ.EndTime,
			ShiftType:     occ.ShiftType,
		}
		if shiftID, ok := overrides[date]; ok {
			item.IsOverridden = true
			item.OverrideShiftID = shiftID
		}
		result = append(result, item)
	}
	return result, nil
}

// ────────────────────── CreateOverride ──────────────────────

// CreateOverride 覆盖周期模式的某一天
//
// Cancel=true 写入一条 cancelled 状态的关联班次，作为跳过标记；
// 否则按请求字段（缺省沿用模式）生成 scheduled 班次并检测冲突。
// 同一模式同一日期只能有一条覆盖。
func (s *patternService) CreateOverride(ctx context.Context, businessID, id string, req *dto.CreateOverrideRequest, force bool, callerID string) (*dto.ShiftResponse, error) {
	p, err := s.getPattern(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	date, err := clock.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	seq, err := s.expander.Expand(p, date, date)
	if err != nil {
		return nil, err
	}
	var occ *Occurrence
	for o := range seq {
		occ = &o
		break
	}
	if occ == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAnOccurrence, req.Date)
	}
	if existing, err := s.repo.Shift.GetOverride(ctx, businessID, id, date); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrOverrideExists, existing.ShiftID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询覆盖班次失败", zap.String("pattern_id", id), zap.Error(err))
		return nil, err
	}

	startStr, endStr := occ.StartTime, occ.EndTime
	if req.StartTime != nil {
		startStr = *req.StartTime
	}
	if req.EndTime != nil {
		endStr = *req.EndTime
	}
	start, end, err := normalizeRange(startStr, endStr)
	if err != nil {
		return nil, err
	}

	patternID := p.PatternID
	shift := &model.Shift{
		BusinessID:         businessID,
		StaffMemberID:      p.StaffMemberID,
		LocationID:         occ.LocationID,
		RecurringPatternID: &patternID,
		Date:               date,
		StartTime:          start,
		EndTime:            end,
		ShiftType:          occ.ShiftType,
		Status:             model.ShiftStatusScheduled,
		Notes:              req.Notes,
	}
	if req.LocationID != nil {
		shift.LocationID = req.LocationID
	}
	if req.Cancel {
		shift.Status = model.ShiftStatusCancelled
	}
	shift.CreatedBy = &callerID
	shift.UpdatedBy = &callerID

	warnings, err := insertShift(ctx, s.repo, s.checker, shift,
		WriteOptions{OverrideOverlap: req.OverrideOverlap, Force: force}, callerID)
	if err != nil {
		if !errors.Is(err, ErrShiftConflict) && !errors.Is(err, ErrOverrideExists) {
			s.logger.Error("创建覆盖班次失败", zap.String("pattern_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("周期模式已覆盖",
		zap.String("pattern_id", id),
		zap.String("date", req.Date),
		zap.Bool("cancel", req.Cancel),
		zap.String("operator", callerID))
	return toShiftResponse(shift, warnings), nil
}

// ── 内部辅助方法 ──

func (s *patternService) getPattern(ctx context.Context, businessID, id string) (*model.RecurringShiftPattern, error) {
	p, err := s.repo.Pattern.GetByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatternNotFound
		}
		s.logger.Error("查询周期模式失败", zap.String("pattern_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// validate 规则、时刻与有效期，时刻统一为 HH:mm
func (s *patternService) validate(p *model.RecurringShiftPattern) error {
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: 结束日期早于开始日期", ErrInvalidPattern)
	}
	if err := s.expander.Validate(p); err != nil {
		return err
	}
	p.StartTime = displayTime(p.StartTime)
	p.EndTime = displayTime(p.EndTime)
	return nil
}

func toPatternResponse(p *model.RecurringShiftPattern) *dto.PatternResponse {
	resp := &dto.PatternResponse{
		ID:             p.PatternID,
		StaffMemberID:  p.StaffMemberID,
		LocationID:     p.LocationID,
		RecurrenceRule: p.RecurrenceRule,
		StartTime:      displayTime(p.StartTime),
		EndTime:        displayTime(p.EndTime),
		StartDate:      clock.FormatDate(p.StartDate),
		ShiftType:      p.ShiftType,
		IsActive:       p.IsActive,
		Notes:          p.Notes,
		CreatedAt:      dto.FormatTimestamp(p.CreatedAt),
		UpdatedAt:      dto.FormatTimestamp(p.UpdatedAt),
	}
	if p.EndDate != nil {
		end := clock.FormatDate(*p.EndDate)
		resp.EndDate = &end
	}
	return resp
}
