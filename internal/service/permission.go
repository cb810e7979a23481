package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"salon-staff/internal/model"
	"salon-staff/internal/repository"
)

// ── 权限模块业务错误 ──

var (
	ErrNotStaffMember = errors.New("当前用户不是该商户的员工")
	ErrStaffInactive  = errors.New("员工账号已停用")
)

// PermissionEvaluator 权限判定接口
type PermissionEvaluator interface {
	// HasPermission 判定员工在门店下是否拥有 key 权限
	// locationID 为空时使用员工的主门店分配
	HasPermission(ctx context.Context, businessID, staffMemberID, locationID, key string) (bool, error)
	// ResolveCaller 由登录用户解析出当前商户下的员工
	ResolveCaller(ctx context.Context, businessID, userID string) (*model.StaffMember, error)
}

// permissionContext 单次判定的输入快照
type permissionContext struct {
	staff      *model.StaffMember
	locationID string
	key        string
}

// permissionRule 判定规则；decided=false 表示交给下一条规则
type permissionRule func(ctx context.Context, pc *permissionContext) (granted, decided bool, err error)

type permissionEvaluator struct {
	repo   *repository.Repository
	rules  []permissionRule
	logger *zap.Logger
}

// NewPermissionEvaluator 创建 PermissionEvaluator
// 规则顺序：旧版 owner 级别 → 门店角色分配
func NewPermissionEvaluator(repo *repository.Repository, logger *zap.Logger) PermissionEvaluator {
	e := &permissionEvaluator{repo: repo, logger: logger}
	e.rules = []permissionRule{
		legacyOwnerRule,
		e.roleAssignmentRule,
	}
	return e
}

func (e *permissionEvaluator) HasPermission(ctx context.Context, businessID, staffMemberID, locationID, key string) (bool, error) {
	// 未知权限键一律拒绝，任何规则都不能放行
	if !model.IsPermissionKey(key) {
		return false, nil
	}

	staff, err := e.repo.StaffMember.GetByID(ctx, businessID, staffMemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		e.logger.Error("查询员工失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return false, err
	}

	pc := &permissionContext{staff: staff, locationID: locationID, key: key}
	for _, rule := range e.rules {
		granted, decided, err := rule(ctx, pc)
		if err != nil {
			e.logger.Error("权限判定失败",
				zap.String("staff_member_id", staffMemberID),
				zap.String("key", key),
				zap.Error(err))
			return false, err
		}
		if decided {
			return granted, nil
		}
	}
	return false, nil
}

func (e *permissionEvaluator) ResolveCaller(ctx context.Context, businessID, userID string) (*model.StaffMember, error) {
	staff, err := e.repo.StaffMember.GetByUserID(ctx, businessID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotStaffMember
		}
		e.logger.Error("解析当前员工失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if staff.Status != model.StaffStatusActive {
		return nil, ErrStaffInactive
	}
	return staff, nil
}

// ── 判定规则 ──

// legacyOwnerRule 旧版 owner 级别直接放行
// Deprecated: 待所有商户迁移到 Owner 角色后移除
func legacyOwnerRule(_ context.Context, pc *permissionContext) (bool, bool, error) {
	if pc.staff.PermissionLevel == model.PermissionLevelOwner {
		return true, true, nil
	}
	return false, false, nil
}

// roleAssignmentRule 按员工在门店的角色查权限位，无分配即拒绝
func (e *permissionEvaluator) roleAssignmentRule(ctx context.Context, pc *permissionContext) (bool, bool, error) {
	assignment, err := e.findAssignment(ctx, pc)
	if err != nil {
		return false, true, err
	}
	if assignment == nil || assignment.Role == nil {
		return false, true, nil
	}
	return assignment.Role.Has(pc.key), true, nil
}

func (e *permissionEvaluator) findAssignment(ctx context.Context, pc *permissionContext) (*model.StaffLocation, error) {
	if pc.locationID != "" {
		a, err := e.repo.StaffLocation.GetAssignment(ctx, pc.staff.BusinessID, pc.staff.StaffMemberID, pc.locationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return a, nil
	}

	// 未指定门店：取主门店，没有主门店时取最早的分配
	items, err := e.repo.StaffLocation.ListByStaff(ctx, pc.staff.BusinessID, pc.staff.StaffMemberID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	for i := range items {
		if items[i].IsPrimary {
			return &items[i], nil
		}
	}
	return &items[0], nil
}
