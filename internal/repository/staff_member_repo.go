package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"salon-staff/internal/model"
	pkgerrors "salon-staff/pkg/errors"
)

// StaffMemberFilter 员工列表过滤条件
type StaffMemberFilter struct {
	Status     string
	LocationID string
	Search     string // 姓名/邮箱模糊匹配
	Bookable   *bool
}

// StaffMemberRepository 员工数据访问接口
// 所有查询按商户隔离，且自动排除软删除记录
type StaffMemberRepository interface {
	Create(ctx context.Context, member *model.StaffMember) error
	GetByID(ctx context.Context, businessID, id string) (*model.StaffMember, error)
	GetByUserID(ctx context.Context, businessID, userID string) (*model.StaffMember, error)
	List(ctx context.Context, businessID string, filter StaffMemberFilter, offset, limit int) ([]model.StaffMember, int64, error)
	Update(ctx context.Context, member *model.StaffMember) error
	// LinkUser 仅当员工尚未绑定账号时写入 user_id；返回 false 表示已被绑定
	LinkUser(ctx context.Context, businessID, id, userID string) (bool, error)
	Delete(ctx context.Context, businessID, id, deletedBy string) error
}

type staffMemberRepo struct {
	db *gorm.DB
}

// NewStaffMemberRepo 创建 StaffMemberRepository 实例
func NewStaffMemberRepo(db *gorm.DB) StaffMemberRepository {
	return &staffMemberRepo{db: db}
}

func (r *staffMemberRepo) Create(ctx context.Context, member *model.StaffMember) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Locations", "Services").Create(member).Error)
}

func (r *staffMemberRepo) GetByID(ctx context.Context, businessID, id string) (*model.StaffMember, error) {
	var member model.StaffMember
	err := r.db.WithContext(ctx).
		Preload("Locations").Preload("Locations.Role").
		Preload("Services").
		Where("business_id = ? AND staff_member_id = ?", businessID, id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *staffMemberRepo) GetByUserID(ctx context.Context, businessID, userID string) (*model.StaffMember, error) {
	var member model.StaffMember
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND user_id = ?", businessID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *staffMemberRepo) List(ctx context.Context, businessID string, filter StaffMemberFilter, offset, limit int) ([]model.StaffMember, int64, error) {
	var members []model.StaffMember
	var total int64

	db := r.db.WithContext(ctx).Model(&model.StaffMember{}).Where("business_id = ?", businessID)

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Bookable != nil {
		db = db.Where("is_bookable = ?", *filter.Bookable)
	}
	if filter.LocationID != "" {
		db = db.Where("staff_member_id IN (?)",
			r.db.Model(&model.StaffLocation{}).Select("staff_member_id").Where("location_id = ?", filter.LocationID))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("(LOWER(first_name || ' ' || last_name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Locations").Preload("Locations.Role").
		Offset(offset).Limit(limit).
		Order("first_name ASC, last_name ASC, staff_member_id ASC").
		Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func (r *staffMemberRepo) Update(ctx context.Context, member *model.StaffMember) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).
		Model(&model.StaffMember{}).
		Where("business_id = ? AND staff_member_id = ?", member.BusinessID, member.StaffMemberID).
		Updates(map[string]interface{}{
			"user_id":          member.UserID,
			"first_name":       member.FirstName,
			"last_name":        member.LastName,
			"email":            member.Email,
			"phone":            member.Phone,
			"job_title":        member.JobTitle,
			"bio":              member.Bio,
			"color":            member.Color,
			"permission_level": member.PermissionLevel,
			"status":           member.Status,
			"is_bookable":      member.IsBookable,
			"updated_by":       member.UpdatedBy,
		}).Error)
}

func (r *staffMemberRepo) LinkUser(ctx context.Context, businessID, id, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.StaffMember{}).
		Where("business_id = ? AND staff_member_id = ? AND user_id IS NULL AND deleted_at IS NULL", businessID, id).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"updated_by": userID,
		})
	if result.Error != nil {
		return false, pkgerrors.Translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *staffMemberRepo) Delete(ctx context.Context, businessID, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.StaffMember{}).
		Where("business_id = ? AND staff_member_id = ?", businessID, id).
		Updates(softDelete(deletedBy)).Error
}
