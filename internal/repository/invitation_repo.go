package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"salon-staff/internal/model"
)

// StaffInvitationRepository 员工邀请数据访问接口
type StaffInvitationRepository interface {
	Create(ctx context.Context, inv *model.StaffInvitation) error
	GetByID(ctx context.Context, businessID, id string) (*model.StaffInvitation, error)
	Update(ctx context.Context, inv *model.StaffInvitation) error
	// Accept 仅当邀请仍为 pending 时标记为 accepted；返回 false 表示已被他人处理
	Accept(ctx context.Context, businessID, id, userID string, at time.Time) (bool, error)
	// RevokePending 将员工名下仍待接受的邀请置为 revoked
	RevokePending(ctx context.Context, businessID, staffMemberID, updatedBy string) error
}

type staffInvitationRepo struct {
	db *gorm.DB
}

// NewStaffInvitationRepo 创建 StaffInvitationRepository 实例
func NewStaffInvitationRepo(db *gorm.DB) StaffInvitationRepository {
	return &staffInvitationRepo{db: db}
}

func (r *staffInvitationRepo) Create(ctx context.Context, inv *model.StaffInvitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *staffInvitationRepo) GetByID(ctx context.Context, businessID, id string) (*model.StaffInvitation, error) {
	var inv model.StaffInvitation
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(businessID)).
		Where("invitation_id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *staffInvitationRepo) Update(ctx context.Context, inv *model.StaffInvitation) error {
	return r.db.WithContext(ctx).
		Model(&model.StaffInvitation{}).
		Where("invitation_id = ?", inv.InvitationID).
		Updates(map[string]interface{}{
			"status":           inv.Status,
			"accepted_at":      inv.AcceptedAt,
			"accepted_user_id": inv.AcceptedUserID,
			"updated_by":       inv.UpdatedBy,
		}).Error
}

func (r *staffInvitationRepo) Accept(ctx context.Context, businessID, id, userID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.StaffInvitation{}).
		Where("business_id = ? AND invitation_id = ? AND status = ?", businessID, id, model.InvitationStatusPending).
		Updates(map[string]interface{}{
			"status":           model.InvitationStatusAccepted,
			"accepted_at":      at,
			"accepted_user_id": userID,
			"updated_by":       userID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *staffInvitationRepo) RevokePending(ctx context.Context, businessID, staffMemberID, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.StaffInvitation{}).
		Where("business_id = ? AND staff_member_id = ? AND status = ?", businessID, staffMemberID, model.InvitationStatusPending).
		Updates(map[string]interface{}{
			"status":     model.InvitationStatusRevoked,
			"updated_by": updatedBy,
		}).Error
}
