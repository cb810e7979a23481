package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
	"salon-staff/internal/repository"
	pkgerrors "salon-staff/pkg/errors"
)

// ── 角色模块业务错误 ──

var (
	ErrRoleNotFound        = errors.New("角色不存在")
	ErrRoleNameExists      = errors.New("角色名称已存在")
	ErrRoleNameReserved    = errors.New("不能使用系统角色名称")
	ErrRoleNameImmutable   = errors.New("系统角色名称不可修改")
	ErrOwnerRoleImmutable  = errors.New("Owner 角色权限不可修改")
	ErrSystemRoleDelete    = errors.New("系统角色不可删除")
	ErrRoleInUse           = errors.New("角色仍被员工使用，不能删除")
	ErrRoleVersionConflict = errors.New("角色已被他人修改，请刷新后重试")
)

// RoleService 角色业务接口
type RoleService interface {
	// SeedDefaults 为商户补齐 Owner/Manager/Employee 默认角色，可重复调用
	SeedDefaults(ctx context.Context, businessID, callerID string) ([]dto.RoleResponse, error)
	Create(ctx context.Context, businessID string, req *dto.CreateRoleRequest, callerID string) (*dto.RoleResponse, error)
	GetByID(ctx context.Context, businessID, id string) (*dto.RoleResponse, error)
	List(ctx context.Context, businessID string) ([]dto.RoleResponse, error)
	Update(ctx context.Context, businessID, id string, req *dto.UpdateRoleRequest, callerID string) (*dto.RoleResponse, error)
	UpdatePermissions(ctx context.Context, businessID, id string, req *dto.UpdateRolePermissionsRequest, callerID string) (*dto.RoleResponse, error)
	Delete(ctx context.Context, businessID, id, callerID string) error
}

type roleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoleService 创建 RoleService 实例
func NewRoleService(repo *repository.Repository, logger *zap.Logger) RoleService {
	return &roleService{repo: repo, logger: logger}
}

// ────────────────────── SeedDefaults ──────────────────────

func (s *roleService) SeedDefaults(ctx context.Context, businessID, callerID string) ([]dto.RoleResponse, error) {
	presets := model.DefaultRolePresets()
	err := s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		for _, name := range []string{model.RoleNameOwner, model.RoleNameManager, model.RoleNameEmployee} {
			_, err := tx.Role.GetByName(ctx, businessID, name)
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			role := &model.Role{
				BusinessID:      businessID,
				Name:            name,
				IsSystem:        true,
				RolePermissions: presets[name],
			}
			role.CreatedBy = &callerID
			role.UpdatedBy = &callerID
			if err := tx.Role.Create(ctx, role); err != nil {
				return err
			}
			s.logger.Info("已创建默认角色", zap.String("business_id", businessID), zap.String("name", name))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("初始化默认角色失败", zap.String("business_id", businessID), zap.Error(err))
		return nil, err
	}
	return s.List(ctx, businessID)
}

// ────────────────────── Create ──────────────────────

func (s *roleService) Create(ctx context.Context, businessID string, req *dto.CreateRoleRequest, callerID string) (*dto.RoleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if model.IsDefaultRoleName(name) {
		return nil, ErrRoleNameReserved
	}

	role := &model.Role{
		BusinessID:      businessID,
		Name:            name,
		Description:     req.Description,
		RolePermissions: model.RolePermissions(req.Permissions),
	}
	role.CreatedBy = &callerID
	role.UpdatedBy = &callerID

	if err := s.repo.Role.Create(ctx, role); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicate) {
			return nil, ErrRoleNameExists
		}
		s.logger.Error("创建角色失败", zap.Error(err))
		return nil, err
	}
	return toRoleResponse(role), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *roleService) GetByID(ctx context.Context, businessID, id string) (*dto.RoleResponse, error) {
	role, err := s.getRole(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return toRoleResponse(role), nil
}

func (s *roleService) List(ctx context.Context, businessID string) ([]dto.RoleResponse, error) {
	roles, err := s.repo.Role.List(ctx, businessID)
	if err != nil {
		s.logger.Error("列出角色失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		result = append(result, *toRoleResponse(&roles[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *roleService) Update(ctx context.Context, businessID, id string, req *dto.UpdateRoleRequest, callerID string) (*dto.RoleResponse, error) {
	role, err := s.getRole(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if role.Version != req.Version {
		return nil, ErrRoleVersionConflict
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if role.IsSystem && name != role.Name {
			return nil, ErrRoleNameImmutable
		}
		if !role.IsSystem && model.IsDefaultRoleName(name) {
			return nil, ErrRoleNameReserved
		}
		role.Name = name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	role.UpdatedBy = &callerID

	if err := s.save(ctx, role); err != nil {
		return nil, err
	}
	return toRoleResponse(role), nil
}

func (s *roleService) UpdatePermissions(ctx context.Context, businessID, id string, req *dto.UpdateRolePermissionsRequest, callerID string) (*dto.RoleResponse, error) {
	role, err := s.getRole(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if role.IsOwnerRole() {
		return nil, ErrOwnerRoleImmutable
	}
	if role.Version != req.Version {
		return nil, ErrRoleVersionConflict
	}

	role.RolePermissions = model.RolePermissions(req.Permissions)
	role.UpdatedBy = &callerID

	if err := s.save(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("角色权限已更新",
		zap.String("role_id", id),
		zap.String("operator", callerID))
	return toRoleResponse(role), nil
}

// ────────────────────── Delete ──────────────────────

func (s *roleService) Delete(ctx context.Context, businessID, id, callerID string) error {
	role, err := s.getRole(ctx, businessID, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRoleDelete
	}

	count, err := s.repo.StaffLocation.CountByRole(ctx, businessID, id)
	if err != nil {
		s.logger.Error("统计角色使用失败", zap.String("role_id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrRoleInUse
	}

	if err := s.repo.Role.Delete(ctx, businessID, id, callerID); err != nil {
		s.logger.Error("删除角色失败", zap.String("role_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *roleService) getRole(ctx context.Context, businessID, id string) (*model.Role, error) {
	role, err := s.repo.Role.GetByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		s.logger.Error("查询角色失败", zap.String("role_id", id), zap.Error(err))
		return nil, err
	}
	return role, nil
}

func (s *roleService) save(ctx context.Context, role *model.Role) error {
	if err := s.repo.Role.Update(ctx, role); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return ErrRoleVersionConflict
		case errors.Is(err, pkgerrors.ErrDuplicate):
			return ErrRoleNameExists
		}
		s.logger.Error("更新角色失败", zap.String("role_id", role.RoleID), zap.Error(err))
		return err
	}
	return nil
}

func toRoleResponse(r *model.Role) *dto.RoleResponse {
	return &dto.RoleResponse{
		ID:          r.RoleID,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		IsEditable:  !r.IsOwnerRole(),
		Permissions: dto.RolePermissionsDto(r.RolePermissions),
		Version:     r.Version,
		CreatedAt:   dto.FormatTimestamp(r.CreatedAt),
		UpdatedAt:   dto.FormatTimestamp(r.UpdatedAt),
	}
}
