package repository

import (
	"context"

	"gorm.io/gorm"

	"salon-staff/internal/model"
)

// RecurringPatternRepository 周期班次模式数据访问接口
type RecurringPatternRepository interface {
	Create(ctx context.Context, pattern *model.RecurringShiftPattern) error
	GetByID(ctx context.Context, businessID, id string) (*model.RecurringShiftPattern, error)
	// List staffMemberID 为空表示全部员工
	List(ctx context.Context, businessID, staffMemberID string, includeInactive bool) ([]model.RecurringShiftPattern, error)
	ListActiveByStaff(ctx context.Context, businessID, staffMemberID string) ([]model.RecurringShiftPattern, error)
	Update(ctx context.Context, pattern *model.RecurringShiftPattern) error
	Delete(ctx context.Context, businessID, id, deletedBy string) error
	// DeactivateByStaff 员工删除时停用其全部模式
	DeactivateByStaff(ctx context.Context, businessID, staffMemberID, updatedBy string) error
}

type recurringPatternRepo struct {
	db *gorm.DB
}

// NewRecurringPatternRepo 创建 RecurringPatternRepository 实例
func NewRecurringPatternRepo(db *gorm.DB) RecurringPatternRepository {
	return &recurringPatternRepo{db: db}
}

func (r *recurringPatternRepo) Create(ctx context.Context, pattern *model.RecurringShiftPattern) error {
	return r.db.WithContext(ctx).Create(pattern).Error
}

func (r *recurringPatternRepo) GetByID(ctx context.Context, businessID, id string) (*model.RecurringShiftPattern, error) {
	var pattern model.RecurringShiftPattern
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("pattern_id = ?", id).
		First(&pattern).Error
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}

func (r *recurringPatternRepo) List(ctx context.Context, businessID, staffMemberID string, includeInactive bool) ([]model.RecurringShiftPattern, error) {
	var patterns []model.RecurringShiftPattern
	db := r.db.WithContext(ctx).Scopes(tenantScope(businessID))
	if staffMemberID != "" {
		db = db.Where("staff_member_id = ?", staffMemberID)
	}
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("start_date ASC, start_time ASC, pattern_id ASC").Find(&patterns).Error
	return patterns, err
}

func (r *recurringPatternRepo) ListActiveByStaff(ctx context.Context, businessID, staffMemberID string) ([]model.RecurringShiftPattern, error) {
	return r.List(ctx, businessID, staffMemberID, false)
}

func (r *recurringPatternRepo) Update(ctx context.Context, pattern *model.RecurringShiftPattern) error {
	return r.db.WithContext(ctx).
		Model(&model.RecurringShiftPattern{}).
		Where("business_id = ? AND pattern_id = ?", pattern.BusinessID, pattern.PatternID).
		Updates(map[string]interface{}{
			"location_id":     pattern.LocationID,
			"recurrence_rule": pattern.RecurrenceRule,
			"start_time":      pattern.StartTime,
			"end_time":        pattern.EndTime,
			"start_date":      pattern.StartDate,
			"end_date":        pattern.EndDate,
			"shift_type":      pattern.ShiftType,
			"is_active":       pattern.IsActive,
			"notes":           pattern.Notes,
			"updated_by":      pattern.UpdatedBy,
		}).Error
}

func (r *recurringPatternRepo) Delete(ctx context.Context, businessID, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.RecurringShiftPattern{}).
		Where("business_id = ? AND pattern_id = ?", businessID, id).
		Updates(softDelete(deletedBy)).Error
}

func (r *recurringPatternRepo) DeactivateByStaff(ctx context.Context, businessID, staffMemberID, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.RecurringShiftPattern{}).
		Where("business_id = ? AND staff_member_id = ? AND is_active = ?", businessID, staffMemberID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": updatedBy,
		}).Error
}
