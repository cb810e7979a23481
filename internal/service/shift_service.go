package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
	"salon-staff/internal/repository"
	"salon-staff/pkg/clock"
	pkgerrors "salon-staff/pkg/errors"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound           = errors.New("班次不存在")
	ErrShiftNotEditable        = errors.New("班次已结束或已取消，不能修改")
	ErrInvalidStatusTransition = errors.New("班次状态流转不合法")
	ErrOverrideExists          = errors.New("该日期已存在覆盖班次")
)

// shiftTransitions 班次状态机
var shiftTransitions = map[string][]string{
	model.ShiftStatusPending:   {model.ShiftStatusScheduled, model.ShiftStatusRejected, model.ShiftStatusCancelled},
	model.ShiftStatusScheduled: {model.ShiftStatusConfirmed, model.ShiftStatusCancelled, model.ShiftStatusNoShow, model.ShiftStatusCompleted},
	model.ShiftStatusConfirmed: {model.ShiftStatusCompleted, model.ShiftStatusCancelled, model.ShiftStatusNoShow},
}

// CanTransitShift 判断班次状态能否从 from 流转到 to
func CanTransitShift(from, to string) bool {
	for _, next := range shiftTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// WriteOptions 写入班次时的冲突处理选项
type WriteOptions struct {
	OverrideOverlap bool // 忽略 error 级冲突
	Force           bool // 忽略 warning 级冲突（X-Force-Create）
}

// ShiftService 班次业务接口
type ShiftService interface {
	Create(ctx context.Context, businessID string, req *dto.CreateShiftRequest, force bool, callerID string) (*dto.ShiftResponse, error)
	GetByID(ctx context.Context, businessID, id string) (*dto.ShiftResponse, error)
	List(ctx context.Context, businessID string, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error)
	Update(ctx context.Context, businessID, id string, req *dto.UpdateShiftRequest, force bool, callerID string) (*dto.ShiftResponse, error)
	UpdateStatus(ctx context.Context, businessID, id string, req *dto.UpdateShiftStatusRequest, callerID string) (*dto.ShiftResponse, error)
	Delete(ctx context.Context, businessID, id, callerID string) error
	// CheckConflicts 只检测不写入
	CheckConflicts(ctx context.Context, businessID string, req *dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error)
	ListChangeLogs(ctx context.Context, businessID string, req *dto.ShiftChangeLogListRequest) ([]dto.ShiftChangeLogResponse, int64, error)
}

type shiftService struct {
	repo    *repository.Repository
	checker *ConflictChecker
	logger  *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, checker *ConflictChecker, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, checker: checker, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *shiftService) Create(ctx context.Context, businessID string, req *dto.CreateShiftRequest, force bool, callerID string) (*dto.ShiftResponse, error) {
	date, err := clock.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, end, err := normalizeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := s.ensureStaff(ctx, businessID, req.StaffMemberID); err != nil {
		return nil, err
	}
	if req.RecurringPatternID != nil {
		if err := s.ensurePatternOwner(ctx, businessID, *req.RecurringPatternID, req.StaffMemberID); err != nil {
			return nil, err
		}
	}

	shift := &model.Shift{
		BusinessID:         businessID,
		StaffMemberID:      req.StaffMemberID,
		LocationID:         req.LocationID,
		RecurringPatternID: req.RecurringPatternID,
		Date:               date,
		StartTime:          start,
		EndTime:            end,
		ShiftType:          req.ShiftType,
		Status:             req.Status,
		Notes:              req.Notes,
	}
	if shift.ShiftType == "" {
		shift.ShiftType = model.ShiftTypeCustom
	}
	if shift.Status == "" {
		shift.Status = model.ShiftStatusScheduled
	}
	shift.CreatedBy = &callerID
	shift.UpdatedBy = &callerID

	warnings, err := insertShift(ctx, s.repo, s.checker, shift,
		WriteOptions{OverrideOverlap: req.OverrideOverlap, Force: force}, callerID)
	if err != nil {
		if !errors.Is(err, ErrShiftConflict) && !errors.Is(err, ErrOverrideExists) {
			s.logger.Error("创建班次失败", zap.String("staff_member_id", req.StaffMemberID), zap.Error(err))
		}
		return nil, err
	}

	if len(warnings) > 0 {
		s.logger.Warn("班次冲突被忽略",
			zap.String("shift_id", shift.ShiftID),
			zap.Int("conflicts", len(warnings)),
			zap.String("operator", callerID))
	}
	return toShiftResponse(shift, warnings), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *shiftService) GetByID(ctx context.Context, businessID, id string) (*dto.ShiftResponse, error) {
	shift, err := s.getShift(ctx, s.repo, businessID, id)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift, nil), nil
}

func (s *shiftService) List(ctx context.Context, businessID string, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error) {
	filter := repository.ShiftFilter{
		StaffMemberID: req.StaffMemberID,
		LocationID:    req.LocationID,
		Status:        req.Status,
	}
	if req.From != "" {
		from, err := clock.ParseDate(req.From)
		if err != nil {
			return nil, 0, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := clock.ParseDate(req.To)
		if err != nil {
			return nil, 0, err
		}
		filter.To = &to
	}

	shifts, total, err := s.repo.Shift.List(ctx, businessID, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出班次失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i], nil))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

// Update 修改班次，时间/员工/门店变化时在员工锁内重新检测冲突
func (s *shiftService) Update(ctx context.Context, businessID, id string, req *dto.UpdateShiftRequest, force bool, callerID string) (*dto.ShiftResponse, error) {
	shift, err := s.getShift(ctx, s.repo, businessID, id)
	if err != nil {
		return nil, err
	}
	if !shift.IsActive() || shift.Status == model.ShiftStatusCompleted || shift.Status == model.ShiftStatusNoShow {
		return nil, ErrShiftNotEditable
	}

	if req.StaffMemberID != nil && *req.StaffMemberID != shift.StaffMemberID {
		if shift.RecurringPatternID != nil {
			return nil, fmt.Errorf("%w: 覆盖班次不能更换员工", ErrShiftNotEditable)
		}
		if err := s.ensureStaff(ctx, businessID, *req.StaffMemberID); err != nil {
			return nil, err
		}
		shift.StaffMemberID = *req.StaffMemberID
	}
	if req.Date != nil {
		date, err := clock.ParseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		if shift.RecurringPatternID != nil && !date.Equal(clock.DateOf(shift.Date)) {
			return nil, fmt.Errorf("%w: 覆盖班次不能更换日期", ErrShiftNotEditable)
		}
		shift.Date = date
	}
	startStr, endStr := shift.StartTime, shift.EndTime
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
	shift.StartTime, shift.EndTime = start, end
	if req.ClearLocation {
		shift.LocationID = nil
	} else if req.LocationID != nil {
		shift.LocationID = req.LocationID
	}
	if req.ShiftType != nil {
		shift.ShiftType = *req.ShiftType
	}
	if req.Notes != nil {
		shift.Notes = *req.Notes
	}
	shift.UpdatedBy = &callerID

	var warnings []Conflict
	err = s.repo.Tx.WithStaffLock(ctx, shift.StaffMemberID, func(tx *repository.Repository) error {
		conflicts, err := s.checker.Check(ctx, tx.Shift, businessID, candidateOf(shift))
		if err != nil {
			return err
		}
		if blocking := BlockingConflicts(conflicts, req.OverrideOverlap, force); len(blocking) > 0 {
			return &ConflictError{Conflicts: blocking}
		}
		if err := tx.Shift.Update(ctx, shift); err != nil {
			return err
		}
		warnings = conflicts
		return writeChangeLog(ctx, tx, shift, model.ChangeTypeUpdated, "", "", conflicts, callerID)
	})
	if err != nil {
		if !errors.Is(err, ErrShiftConflict) {
			s.logger.Error("更新班次失败", zap.String("shift_id", id), zap.Error(err))
		}
		return nil, err
	}
	return toShiftResponse(shift, warnings), nil
}

func (s *shiftService) UpdateStatus(ctx context.Context, businessID, id string, req *dto.UpdateShiftStatusRequest, callerID string) (*dto.ShiftResponse, error) {
	var shift *model.Shift
	err := s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		shift, err = s.getShift(ctx, tx, businessID, id)
		if err != nil {
			return err
		}
		from := shift.Status
		if !CanTransitShift(from, req.Status) {
			return fmt.Errorf("%w: %s → %s", ErrInvalidStatusTransition, from, req.Status)
		}
		shift.Status = req.Status
		shift.UpdatedBy = &callerID
		if err := tx.Shift.Update(ctx, shift); err != nil {
			return err
		}
		return writeChangeLog(ctx, tx, shift, model.ChangeTypeStatusChanged, from, req.Status, nil, callerID)
	})
	if err != nil {
		if !errors.Is(err, ErrShiftNotFound) && !errors.Is(err, ErrInvalidStatusTransition) {
			s.logger.Error("变更班次状态失败", zap.String("shift_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("班次状态已变更",
		zap.String("shift_id", id),
		zap.String("status", req.Status),
		zap.String("operator", callerID))
	return toShiftResponse(shift, nil), nil
}

// ────────────────────── Delete ──────────────────────

func (s *shiftService) Delete(ctx context.Context, businessID, id, callerID string) error {
	err := s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		shift, err := s.getShift(ctx, tx, businessID, id)
		if err != nil {
			return err
		}
		if err := tx.Shift.Delete(ctx, businessID, id, callerID); err != nil {
			return err
		}
		return writeChangeLog(ctx, tx, shift, model.ChangeTypeDeleted, shift.Status, "", nil, callerID)
	})
	if err != nil {
		if !errors.Is(err, ErrShiftNotFound) {
			s.logger.Error("删除班次失败", zap.String("shift_id", id), zap.Error(err))
		}
		return err
	}
	return nil
}

// ────────────────────── CheckConflicts ──────────────────────

func (s *shiftService) CheckConflicts(ctx context.Context, businessID string, req *dto.CheckConflictsRequest) (*dto.CheckConflictsResponse, error) {
	date, err := clock.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.ensureStaff(ctx, businessID, req.StaffMemberID); err != nil {
		return nil, err
	}

	conflicts, err := s.checker.Check(ctx, s.repo.Shift, businessID, CandidateShift{
		StaffMemberID:  req.StaffMemberID,
		Date:           date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		LocationID:     req.LocationID,
		ExcludeShiftID: req.ExcludeShiftID,
	})
	if err != nil {
		return nil, err
	}
	return &dto.CheckConflictsResponse{
		Conflicts:   ToConflictResponses(conflicts),
		HasBlocking: len(BlockingConflicts(conflicts, false, false)) > 0,
	}, nil
}

// ────────────────────── ChangeLogs ──────────────────────

func (s *shiftService) ListChangeLogs(ctx context.Context, businessID string, req *dto.ShiftChangeLogListRequest) ([]dto.ShiftChangeLogResponse, int64, error) {
	logs, total, err := s.repo.ShiftChangeLog.List(ctx, businessID, req.ShiftID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出班次变更日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ShiftChangeLogResponse, 0, len(logs))
	for _, l := range logs {
		resp := dto.ShiftChangeLogResponse{
			ID:            l.ChangeLogID,
			ShiftID:       l.ShiftID,
			StaffMemberID: l.StaffMemberID,
			ChangeType:    l.ChangeType,
			FromStatus:    l.FromStatus,
			ToStatus:      l.ToStatus,
			Forced:        l.Forced,
			OperatorID:    l.OperatorID,
			CreatedAt:     dto.FormatTimestamp(l.CreatedAt),
		}
		if len(l.Conflicts) > 0 {
			var conflicts []Conflict
			if err := json.Unmarshal(l.Conflicts, &conflicts); err != nil {
				s.logger.Warn("变更日志冲突快照解析失败", zap.String("change_log_id", l.ChangeLogID), zap.Error(err))
			}
			resp.Conflicts = ToConflictResponses(conflicts)
		}
		result = append(result, resp)
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

func (s *shiftService) getShift(ctx context.Context, repo *repository.Repository, businessID, id string) (*model.Shift, error) {
	shift, err := repo.Shift.GetByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) ensureStaff(ctx context.Context, businessID, staffMemberID string) error {
	if _, err := s.repo.StaffMember.GetByID(ctx, businessID, staffMemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return err
	}
	return nil
}

func (s *shiftService) ensurePatternOwner(ctx context.Context, businessID, patternID, staffMemberID string) error {
	p, err := s.repo.Pattern.GetByID(ctx, businessID, patternID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPatternNotFound
		}
		return err
	}
	if p.StaffMemberID != staffMemberID {
		return fmt.Errorf("%w: 周期模式不属于该员工", ErrPatternNotFound)
	}
	return nil
}

// insertShift 在员工锁内完成冲突检测与写入，返回被忽略的冲突
// 已取消的班次（跳过某日的覆盖）不参与检测
func insertShift(ctx context.Context, repo *repository.Repository, checker *ConflictChecker, shift *model.Shift, opts WriteOptions, callerID string) ([]Conflict, error) {
	var warnings []Conflict
	err := repo.Tx.WithStaffLock(ctx, shift.StaffMemberID, func(tx *repository.Repository) error {
		var conflicts []Conflict
		if shift.IsActive() {
			var err error
			conflicts, err = checker.Check(ctx, tx.Shift, shift.BusinessID, candidateOf(shift))
			if err != nil {
				return err
			}
			if blocking := BlockingConflicts(conflicts, opts.OverrideOverlap, opts.Force); len(blocking) > 0 {
				return &ConflictError{Conflicts: blocking}
			}
		}
		if err := tx.Shift.Create(ctx, shift); err != nil {
			if errors.Is(err, pkgerrors.ErrDuplicate) {
				return ErrOverrideExists
			}
			return err
		}
		warnings = conflicts
		return writeChangeLog(ctx, tx, shift, model.ChangeTypeCreated, "", shift.Status, conflicts, callerID)
	})
	if err != nil {
		return nil, err
	}
	return warnings, nil
}

func writeChangeLog(ctx context.Context, tx *repository.Repository, shift *model.Shift, changeType, from, to string, forced []Conflict, callerID string) error {
	entry := &model.ShiftChangeLog{
		BusinessID:    shift.BusinessID,
		ShiftID:       shift.ShiftID,
		StaffMemberID: shift.StaffMemberID,
		ChangeType:    changeType,
		FromStatus:    from,
		ToStatus:      to,
		Forced:        len(forced) > 0,
		OperatorID:    callerID,
	}
	if len(forced) > 0 {
		raw, err := json.Marshal(forced)
		if err != nil {
			return err
		}
		entry.Conflicts = datatypes.JSON(raw)
	}
	return tx.ShiftChangeLog.Create(ctx, entry)
}

func candidateOf(shift *model.Shift) CandidateShift {
	return CandidateShift{
		StaffMemberID:  shift.StaffMemberID,
		Date:           shift.Date,
		StartTime:      shift.StartTime,
		EndTime:        shift.EndTime,
		LocationID:     shift.LocationID,
		ExcludeShiftID: shift.ShiftID,
	}
}

// normalizeRange 统一为 HH:mm 并校验 start < end
func normalizeRange(startStr, endStr string) (string, string, error) {
	start, err := clock.ParseTimeOfDay(startStr)
	if err != nil {
		return "", "", err
	}
	end, err := clock.ParseTimeOfDay(endStr)
	if err != nil {
		return "", "", err
	}
	if start >= end {
		return "", "", ErrInvalidTimeRange
	}
	return clock.FormatTimeOfDay(start), clock.FormatTimeOfDay(end), nil
}

// ToConflictResponses 冲突明细 → 响应 DTO
func ToConflictResponses(conflicts []Conflict) []dto.ShiftConflictResponse {
	result := make([]dto.ShiftConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		result = append(result, dto.ShiftConflictResponse{
			Type:     c.Type,
			Message:  c.Message,
			Severity: c.Severity,
			ShiftID:  c.ShiftID,
		})
	}
	return result
}

func toShiftResponse(s *model.Shift, warnings []Conflict) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:                 s.ShiftID,
		StaffMemberID:      s.StaffMemberID,
		LocationID:         s.LocationID,
		RecurringPatternID: s.RecurringPatternID,
		Date:               clock.FormatDate(s.Date),
		StartTime:          displayTime(s.StartTime),
		EndTime:            displayTime(s.EndTime),
		ShiftType:          s.ShiftType,
		Status:             s.Status,
		Notes:              s.Notes,
		CreatedAt:          dto.FormatTimestamp(s.CreatedAt),
		UpdatedAt:          dto.FormatTimestamp(s.UpdatedAt),
	}
	if len(warnings) > 0 {
		resp.Warnings = ToConflictResponses(warnings)
	}
	return resp
}

// displayTime 数据库 time 列可能带秒，对外统一 HH:mm
func displayTime(s string) string {
	if t, err := clock.NormalizeTime(s); err == nil {
		return t
	}
	return s
}
