package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
	"salon-staff/internal/repository"
	"salon-staff/pkg/clock"
	pkgerrors "salon-staff/pkg/errors"
)

// ── 请假模块业务错误 ──

var (
	ErrTimeOffNotFound          = errors.New("请假申请不存在")
	ErrTimeOffInvalid           = errors.New("请假时间无效")
	ErrTimeOffInvalidTransition = errors.New("请假申请已处理，不能重复操作")
	ErrTimeOffVersionConflict   = errors.New("请假申请已被他人处理，请刷新后重试")
	ErrTimeOffNotOwner          = errors.New("只能取消本人的请假申请")
)

// TimeOffService 请假业务接口
//
// 状态机：pending → approved | denied | cancelled，终态不可再变。
// 并发审批由 version 乐观锁保证只有一次生效。
type TimeOffService interface {
	// Create 为 staffMemberID 提交请假，状态为 pending
	Create(ctx context.Context, businessID, staffMemberID string, req *dto.CreateTimeOffRequest, callerID string) (*dto.TimeOffResponse, error)
	GetByID(ctx context.Context, businessID, id string) (*dto.TimeOffResponse, error)
	List(ctx context.Context, businessID string, req *dto.TimeOffListRequest) ([]dto.TimeOffResponse, int64, error)
	Approve(ctx context.Context, businessID, id, approverStaffID, callerID string) (*dto.TimeOffResponse, error)
	Deny(ctx context.Context, businessID, id, approverStaffID string, req *dto.DenyTimeOffRequest, callerID string) (*dto.TimeOffResponse, error)
	// Cancel 申请人撤回自己仍在 pending 的申请
	Cancel(ctx context.Context, businessID, id, callerStaffID, callerID string) (*dto.TimeOffResponse, error)
}

type timeOffService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewTimeOffService 创建 TimeOffService 实例
func NewTimeOffService(repo *repository.Repository, logger *zap.Logger) TimeOffService {
	return &timeOffService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *timeOffService) Create(ctx context.Context, businessID, staffMemberID string, req *dto.CreateTimeOffRequest, callerID string) (*dto.TimeOffResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeOffInvalid, err)
	}
	startDate, err := clock.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := clock.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("%w: 结束日期早于开始日期", ErrTimeOffInvalid)
	}

	r := &model.TimeOffRequest{
		BusinessID:    businessID,
		StaffMemberID: staffMemberID,
		Type:          req.Type,
		StartDate:     startDate,
		EndDate:       endDate,
		IsAllDay:      req.AllDay(),
		Reason:        req.Reason,
		Status:        model.TimeOffStatusPending,
	}
	if !r.IsAllDay {
		start, end, err := normalizeRange(*req.StartTime, *req.EndTime)
		if err != nil {
			if errors.Is(err, ErrInvalidTimeRange) {
				return nil, fmt.Errorf("%w: %v", ErrTimeOffInvalid, err)
			}
			return nil, err
		}
		r.StartTime, r.EndTime = &start, &end
	}

	if _, err := s.repo.StaffMember.GetByID(ctx, businessID, staffMemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, err
	}

	r.CreatedBy = &callerID
	r.UpdatedBy = &callerID
	if err := s.repo.TimeOff.Create(ctx, r); err != nil {
		s.logger.Error("创建请假申请失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请已提交",
		zap.String("time_off_request_id", r.TimeOffRequestID),
		zap.String("staff_member_id", staffMemberID),
		zap.String("type", r.Type))
	return toTimeOffResponse(r), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *timeOffService) GetByID(ctx context.Context, businessID, id string) (*dto.TimeOffResponse, error) {
	r, err := s.getRequest(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return toTimeOffResponse(r), nil
}

func (s *timeOffService) List(ctx context.Context, businessID string, req *dto.TimeOffListRequest) ([]dto.TimeOffResponse, int64, error) {
	filter := repository.TimeOffFilter{
		StaffMemberID: req.StaffMemberID,
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

	reqs, total, err := s.repo.TimeOff.List(ctx, businessID, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出请假申请失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.TimeOffResponse, 0, len(reqs))
	for i := range reqs {
		result = append(result, *toTimeOffResponse(&reqs[i]))
	}
	return result, total, nil
}

// ────────────────────── 审批 ──────────────────────

func (s *timeOffService) Approve(ctx context.Context, businessID, id, approverStaffID, callerID string) (*dto.TimeOffResponse, error) {
	return s.decide(ctx, businessID, id, callerID, func(r *model.TimeOffRequest) error {
		now := s.now()
		r.Status = model.TimeOffStatusApproved
		r.ApprovedBy = &approverStaffID
		r.ApprovedAt = &now
		return nil
	})
}

func (s *timeOffService) Deny(ctx context.Context, businessID, id, approverStaffID string, req *dto.DenyTimeOffRequest, callerID string) (*dto.TimeOffResponse, error) {
	return s.decide(ctx, businessID, id, callerID, func(r *model.TimeOffRequest) error {
		now := s.now()
		r.Status = model.TimeOffStatusDenied
		r.ApprovedBy = &approverStaffID
		r.ApprovedAt = &now
		r.DenialReason = req.Reason
		return nil
	})
}

func (s *timeOffService) Cancel(ctx context.Context, businessID, id, callerStaffID, callerID string) (*dto.TimeOffResponse, error) {
	return s.decide(ctx, businessID, id, callerID, func(r *model.TimeOffRequest) error {
		if r.StaffMemberID != callerStaffID {
			return ErrTimeOffNotOwner
		}
		r.Status = model.TimeOffStatusCancelled
		return nil
	})
}

// ── 内部辅助方法 ──

// decide 只允许从 pending 出发，写入带版本校验
func (s *timeOffService) decide(ctx context.Context, businessID, id, callerID string, apply func(r *model.TimeOffRequest) error) (*dto.TimeOffResponse, error) {
	r, err := s.getRequest(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if r.IsTerminal() {
		return nil, fmt.Errorf("%w: 当前状态 %s", ErrTimeOffInvalidTransition, r.Status)
	}
	if err := apply(r); err != nil {
		return nil, err
	}
	r.UpdatedBy = &callerID

	if err := s.repo.TimeOff.UpdateStatus(ctx, r); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrTimeOffVersionConflict
		}
		s.logger.Error("更新请假状态失败", zap.String("time_off_request_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请状态已变更",
		zap.String("time_off_request_id", id),
		zap.String("status", r.Status),
		zap.String("operator", callerID))
	return toTimeOffResponse(r), nil
}

func (s *timeOffService) getRequest(ctx context.Context, businessID, id string) (*model.TimeOffRequest, error) {
	r, err := s.repo.TimeOff.GetByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeOffNotFound
		}
		s.logger.Error("查询请假申请失败", zap.String("time_off_request_id", id), zap.Error(err))
		return nil, err
	}
	return r, nil
}

func toTimeOffResponse(r *model.TimeOffRequest) *dto.TimeOffResponse {
	resp := &dto.TimeOffResponse{
		ID:            r.TimeOffRequestID,
		StaffMemberID: r.StaffMemberID,
		Type:          r.Type,
		StartDate:     clock.FormatDate(r.StartDate),
		EndDate:       clock.FormatDate(r.EndDate),
		IsAllDay:      r.IsAllDay,
		Reason:        r.Reason,
		Status:        r.Status,
		ApprovedBy:    r.ApprovedBy,
		DenialReason:  r.DenialReason,
		Version:       r.Version,
		CreatedAt:     dto.FormatTimestamp(r.CreatedAt),
		UpdatedAt:     dto.FormatTimestamp(r.UpdatedAt),
	}
	if r.StartTime != nil {
		t := displayTime(*r.StartTime)
		resp.StartTime = &t
	}
	if r.EndTime != nil {
		t := displayTime(*r.EndTime)
		resp.EndTime = &t
	}
	if r.ApprovedAt != nil {
		t := dto.FormatTimestamp(*r.ApprovedAt)
		resp.ApprovedAt = &t
	}
	return resp
}
