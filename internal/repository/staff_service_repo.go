package repository

import (
	"context"

	"gorm.io/gorm"

	"salon-staff/internal/model"
)

// StaffServiceRepository 员工服务项目数据访问接口
type StaffServiceRepository interface {
	ListByStaff(ctx context.Context, businessID, staffMemberID string) ([]model.StaffService, error)
	ReplaceForStaff(ctx context.Context, businessID, staffMemberID string, items []model.StaffService) error
}

type staffServiceRepo struct {
	db *gorm.DB
}

// NewStaffServiceRepo 创建 StaffServiceRepository 实例
func NewStaffServiceRepo(db *gorm.DB) StaffServiceRepository {
	return &staffServiceRepo{db: db}
}

func (r *staffServiceRepo) ListByStaff(ctx context.Context, businessID, staffMemberID string) ([]model.StaffService, error) {
	var items []model.StaffService
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("staff_member_id = ?", staffMemberID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *staffServiceRepo) ReplaceForStaff(ctx context.Context, businessID, staffMemberID string, items []model.StaffService) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ? AND staff_member_id = ?", businessID, staffMemberID).
			Delete(&model.StaffService{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
