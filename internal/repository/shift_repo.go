package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"salon-staff/internal/model"
	pkgerrors "salon-staff/pkg/errors"
)

// ShiftFilter 班次列表过滤条件
type ShiftFilter struct {
	StaffMemberID string
	LocationID    string
	Status        string
	From          *time.Time
	To            *time.Time
}

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, businessID, id string) (*model.Shift, error)
	List(ctx context.Context, businessID string, filter ShiftFilter, offset, limit int) ([]model.Shift, int64, error)
	// ListByStaffAndDate 员工当天全部班次（含已取消），按开始时间排序
	ListByStaffAndDate(ctx context.Context, businessID, staffMemberID string, date time.Time) ([]model.Shift, error)
	// ListByLocationAndDate 门店当天全部班次（含已取消）
	ListByLocationAndDate(ctx context.Context, businessID, locationID string, date time.Time) ([]model.Shift, error)
	ListByStaffInRange(ctx context.Context, businessID, staffMemberID string, from, to time.Time) ([]model.Shift, error)
	// ListInRange 区间内全部班次，附带员工信息，locationID 为空表示不限门店
	ListInRange(ctx context.Context, businessID string, from, to time.Time, locationID string) ([]model.Shift, error)
	GetOverride(ctx context.Context, businessID, patternID string, date time.Time) (*model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, businessID, id, deletedBy string) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("StaffMember").Create(shift).Error)
}

func (r *shiftRepo) GetByID(ctx context.Context, businessID, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) List(ctx context.Context, businessID string, filter ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	var shifts []model.Shift
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Shift{}).Scopes(tenantScope(businessID))

	if filter.StaffMemberID != "" {
		db = db.Where("staff_member_id = ?", filter.StaffMemberID)
	}
	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("date <= ?", *filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("date ASC, start_time ASC, shift_id ASC").
		Find(&shifts).Error; err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

func (r *shiftRepo) ListByStaffAndDate(ctx context.Context, businessID, staffMemberID string, date time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("staff_member_id = ? AND date = ?", staffMemberID, date).
		Order("start_time ASC, shift_id ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListByLocationAndDate(ctx context.Context, businessID, locationID string, date time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("location_id = ? AND date = ?", locationID, date).
		Order("start_time ASC, shift_id ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListByStaffInRange(ctx context.Context, businessID, staffMemberID string, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("staff_member_id = ? AND date BETWEEN ? AND ?", staffMemberID, from, to).
		Order("date ASC, start_time ASC, shift_id ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListInRange(ctx context.Context, businessID string, from, to time.Time, locationID string) ([]model.Shift, error) {
	var shifts []model.Shift
	db := r.db.WithContext(ctx).
		Preload("StaffMember").
		Scopes(tenantScope(businessID)).
		Where("date BETWEEN ? AND ?", from, to)
	if locationID != "" {
		db = db.Where("location_id = ?", locationID)
	}
	err := db.Order("date ASC, start_time ASC, shift_id ASC").Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) GetOverride(ctx context.Context, businessID, patternID string, date time.Time) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("recurring_pattern_id = ? AND date = ?", patternID, date).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("business_id = ? AND shift_id = ?", shift.BusinessID, shift.ShiftID).
		Updates(map[string]interface{}{
			"staff_member_id":      shift.StaffMemberID,
			"location_id":          shift.LocationID,
			"recurring_pattern_id": shift.RecurringPatternID,
			"date":                 shift.Date,
			"start_time":           shift.StartTime,
			"end_time":             shift.EndTime,
			"shift_type":           shift.ShiftType,
			"status":               shift.Status,
			"notes":                shift.Notes,
			"updated_by":           shift.UpdatedBy,
		}).Error)
}

func (r *shiftRepo) Delete(ctx context.Context, businessID, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("business_id = ? AND shift_id = ?", businessID, id).
		Updates(softDelete(deletedBy)).Error
}

// ── ShiftChangeLog Repository ──

// ShiftChangeLogRepository 班次变更日志数据访问接口
type ShiftChangeLogRepository interface {
	Create(ctx context.Context, log *model.ShiftChangeLog) error
	List(ctx context.Context, businessID, shiftID string, offset, limit int) ([]model.ShiftChangeLog, int64, error)
}

type shiftChangeLogRepo struct {
	db *gorm.DB
}

// NewShiftChangeLogRepo 创建 ShiftChangeLogRepository 实例
func NewShiftChangeLogRepo(db *gorm.DB) ShiftChangeLogRepository {
	return &shiftChangeLogRepo{db: db}
}

func (r *shiftChangeLogRepo) Create(ctx context.Context, log *model.ShiftChangeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *shiftChangeLogRepo) List(ctx context.Context, businessID, shiftID string, offset, limit int) ([]model.ShiftChangeLog, int64, error) {
	var logs []model.ShiftChangeLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ShiftChangeLog{}).Where("business_id = ?", businessID)
	if shiftID != "" {
		db = db.Where("shift_id = ?", shiftID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
