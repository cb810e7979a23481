package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"salon-staff/internal/model"
	pkgerrors "salon-staff/pkg/errors"
)

// TimeOffFilter 请假列表过滤条件
type TimeOffFilter struct {
	StaffMemberID string
	Status        string
	From          *time.Time // 与 [From, To] 有交集的申请
	To            *time.Time
}

// TimeOffRequestRepository 请假申请数据访问接口
type TimeOffRequestRepository interface {
	Create(ctx context.Context, req *model.TimeOffRequest) error
	GetByID(ctx context.Context, businessID, id string) (*model.TimeOffRequest, error)
	List(ctx context.Context, businessID string, filter TimeOffFilter, offset, limit int) ([]model.TimeOffRequest, int64, error)
	// ListApprovedInRange 员工在区间内已批准的请假
	ListApprovedInRange(ctx context.Context, businessID, staffMemberID string, from, to time.Time) ([]model.TimeOffRequest, error)
	// UpdateStatus 带乐观锁的状态变更
	UpdateStatus(ctx context.Context, req *model.TimeOffRequest) error
}

type timeOffRequestRepo struct {
	db *gorm.DB
}

// NewTimeOffRequestRepo 创建 TimeOffRequestRepository 实例
func NewTimeOffRequestRepo(db *gorm.DB) TimeOffRequestRepository {
	return &timeOffRequestRepo{db: db}
}

func (r *timeOffRequestRepo) Create(ctx context.Context, req *model.TimeOffRequest) error {
	return r.db.WithContext(ctx).Omit("StaffMember").Create(req).Error
}

func (r *timeOffRequestRepo) GetByID(ctx context.Context, businessID, id string) (*model.TimeOffRequest, error) {
	var req model.TimeOffRequest
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("time_off_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *timeOffRequestRepo) List(ctx context.Context, businessID string, filter TimeOffFilter, offset, limit int) ([]model.TimeOffRequest, int64, error) {
	var reqs []model.TimeOffRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TimeOffRequest{}).Scopes(tenantScope(businessID))
	if filter.StaffMemberID != "" {
		db = db.Where("staff_member_id = ?", filter.StaffMemberID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("end_date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("start_date <= ?", *filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("start_date DESC, created_at DESC").Offset(offset).Limit(limit).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *timeOffRequestRepo) ListApprovedInRange(ctx context.Context, businessID, staffMemberID string, from, to time.Time) ([]model.TimeOffRequest, error) {
	var reqs []model.TimeOffRequest
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("staff_member_id = ? AND status = ?", staffMemberID, model.TimeOffStatusApproved).
		Where("start_date <= ? AND end_date >= ?", to, from).
		Order("start_date ASC, time_off_request_id ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *timeOffRequestRepo) UpdateStatus(ctx context.Context, req *model.TimeOffRequest) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(&model.TimeOffRequest{}).
		Where("time_off_request_id = ? AND version = ?", req.TimeOffRequestID, oldVersion).
		Updates(map[string]interface{}{
			"status":        req.Status,
			"approved_by":   req.ApprovedBy,
			"approved_at":   req.ApprovedAt,
			"denial_reason": req.DenialReason,
			"updated_by":    req.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}
