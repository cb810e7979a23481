package repository

import (
	"context"

	"gorm.io/gorm"

	"salon-staff/internal/model"
	pkgerrors "salon-staff/pkg/errors"
)

// RoleRepository 角色数据访问接口
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	GetByID(ctx context.Context, businessID, id string) (*model.Role, error)
	GetByName(ctx context.Context, businessID, name string) (*model.Role, error)
	List(ctx context.Context, businessID string) ([]model.Role, error)
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, businessID, id, deletedBy string) error
}

type roleRepo struct {
	db *gorm.DB
}

// NewRoleRepo 创建 RoleRepository 实例
func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Create(role).Error)
}

func (r *roleRepo) GetByID(ctx context.Context, businessID, id string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND role_id = ?", businessID, id).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) GetByName(ctx context.Context, businessID, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND LOWER(name) = LOWER(?)", businessID, name).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) List(ctx context.Context, businessID string) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("is_system DESC, name ASC").
		Find(&roles).Error
	return roles, err
}

func (r *roleRepo) Update(ctx context.Context, role *model.Role) error {
	oldVersion := role.Version
	updates := map[string]interface{}{
		"name":        role.Name,
		"description": role.Description,
		"updated_by":  role.UpdatedBy,
		"version":     oldVersion + 1,
	}
	for key, col := range permissionColumns {
		updates[col] = role.Has(key)
	}

	result := r.db.WithContext(ctx).
		Model(&model.Role{}).
		Where("business_id = ? AND role_id = ? AND version = ?", role.BusinessID, role.RoleID, oldVersion).
		Updates(updates)
	if result.Error != nil {
		return pkgerrors.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	role.Version = oldVersion + 1
	return nil
}

func (r *roleRepo) Delete(ctx context.Context, businessID, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Role{}).
		Where("business_id = ? AND role_id = ?", businessID, id).
		Updates(softDelete(deletedBy)).Error
}

// permissionColumns 权限键 → roles 表列名
var permissionColumns = map[string]string{
	model.PermSchedulingViewAll: "scheduling_view_all",
	model.PermSchedulingManage:  "scheduling_manage",
	model.PermTimeOffRequest:    "time_off_request",
	model.PermTimeOffApprove:    "time_off_approve",
	model.PermStaffView:         "staff_view",
	model.PermStaffManage:       "staff_manage",
	model.PermServicesView:      "services_view",
	model.PermServicesManage:    "services_manage",
	model.PermClientsView:       "clients_view",
	model.PermClientsManage:     "clients_manage",
	model.PermReportsView:       "reports_view",
	model.PermSettingsManage:    "settings_manage",
	model.PermBookingsViewOwn:   "bookings_view_own",
	model.PermBookingsViewAll:   "bookings_view_all",
	model.PermBookingsCreate:    "bookings_create",
	model.PermBookingsManage:    "bookings_manage",
}
