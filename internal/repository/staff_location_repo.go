package repository

import (
	"context"

	"gorm.io/gorm"

	"salon-staff/internal/model"
)

// StaffLocationRepository 员工门店分配数据访问接口
type StaffLocationRepository interface {
	ListByStaff(ctx context.Context, businessID, staffMemberID string) ([]model.StaffLocation, error)
	// GetAssignment 返回员工在门店的分配（含角色）；无分配时返回 gorm.ErrRecordNotFound
	GetAssignment(ctx context.Context, businessID, staffMemberID, locationID string) (*model.StaffLocation, error)
	ReplaceForStaff(ctx context.Context, businessID, staffMemberID string, items []model.StaffLocation) error
	CountByRole(ctx context.Context, businessID, roleID string) (int64, error)
}

type staffLocationRepo struct {
	db *gorm.DB
}

// NewStaffLocationRepo 创建 StaffLocationRepository 实例
func NewStaffLocationRepo(db *gorm.DB) StaffLocationRepository {
	return &staffLocationRepo{db: db}
}

func (r *staffLocationRepo) ListByStaff(ctx context.Context, businessID, staffMemberID string) ([]model.StaffLocation, error) {
	var items []model.StaffLocation
	err := r.db.WithContext(ctx).
		Preload("Role").
		Scopes(tenantScope(businessID)).
		Where("staff_member_id = ?", staffMemberID).
		Order("is_primary DESC, created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *staffLocationRepo) GetAssignment(ctx context.Context, businessID, staffMemberID, locationID string) (*model.StaffLocation, error) {
	var item model.StaffLocation
	err := r.db.WithContext(ctx).
		Preload("Role").
		Scopes(tenantScope(businessID)).
		Where("staff_member_id = ? AND location_id = ?", staffMemberID, locationID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *staffLocationRepo) ReplaceForStaff(ctx context.Context, businessID, staffMemberID string, items []model.StaffLocation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 分配关系无需审计，直接整体替换
		if err := tx.Where("business_id = ? AND staff_member_id = ?", businessID, staffMemberID).
			Delete(&model.StaffLocation{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Omit("Role").Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *staffLocationRepo) CountByRole(ctx context.Context, businessID, roleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.StaffLocation{}).
		Scopes(tenantScope(businessID)).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}
