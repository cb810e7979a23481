package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
	"salon-staff/internal/repository"
	pkgerrors "salon-staff/pkg/errors"
)

// ── 员工模块业务错误 ──

var (
	ErrStaffNotFound           = errors.New("员工不存在")
	ErrStaffUserLinked         = errors.New("该用户已绑定到本商户的其他员工")
	ErrStaffAlreadyLinked      = errors.New("员工已绑定账号")
	ErrDuplicateLocation       = errors.New("门店分配重复")
	ErrMultiplePrimary         = errors.New("只能有一个主门店")
	ErrDuplicateService        = errors.New("服务项目重复")
	ErrInvitationNotFound      = errors.New("邀请不存在")
	ErrInvitationNotPending    = errors.New("邀请已失效")
	ErrInvitationExpired       = errors.New("邀请已过期")
	ErrInvitationInvalid       = errors.New("邀请凭证无效")
	ErrInvitationEmailRequired = errors.New("员工未设置邮箱，请指定邀请邮箱")
)

// StaffService 员工业务接口
type StaffService interface {
	Create(ctx context.Context, businessID string, req *dto.CreateStaffMemberRequest, callerID string) (*dto.StaffMemberResponse, error)
	GetByID(ctx context.Context, businessID, id string) (*dto.StaffMemberResponse, error)
	List(ctx context.Context, businessID string, req *dto.StaffListRequest) ([]dto.StaffMemberResponse, int64, error)
	Update(ctx context.Context, businessID, id string, req *dto.UpdateStaffMemberRequest, callerID string) (*dto.StaffMemberResponse, error)
	UpdateStatus(ctx context.Context, businessID, id string, req *dto.UpdateStaffStatusRequest, callerID string) (*dto.StaffMemberResponse, error)
	Delete(ctx context.Context, businessID, id, callerID string) error

	GetLocations(ctx context.Context, businessID, id string) ([]dto.StaffLocationResponse, error)
	SetLocations(ctx context.Context, businessID, id string, req *dto.SetStaffLocationsRequest, callerID string) ([]dto.StaffLocationResponse, error)
	GetServices(ctx context.Context, businessID, id string) ([]dto.StaffServiceResponse, error)
	SetServices(ctx context.Context, businessID, id string, req *dto.SetStaffServicesRequest, callerID string) ([]dto.StaffServiceResponse, error)

	CreateInvitation(ctx context.Context, businessID, id string, req *dto.CreateInvitationRequest, callerID string) (*dto.InvitationResponse, error)
	RevokeInvitation(ctx context.Context, businessID, id, invitationID, callerID string) error
	AcceptInvitation(ctx context.Context, businessID, userID string, req *dto.AcceptInvitationRequest) (*dto.StaffMemberResponse, error)
}

type staffService struct {
	repo          *repository.Repository
	invitationTTL time.Duration
	hashCost      int
	logger        *zap.Logger
}

// NewStaffService 创建 StaffService 实例
func NewStaffService(repo *repository.Repository, invitationTTL time.Duration, logger *zap.Logger) StaffService {
	return &staffService{
		repo:          repo,
		invitationTTL: invitationTTL,
		hashCost:      bcrypt.DefaultCost,
		logger:        logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *staffService) Create(ctx context.Context, businessID string, req *dto.CreateStaffMemberRequest, callerID string) (*dto.StaffMemberResponse, error) {
	member := &model.StaffMember{
		BusinessID:      businessID,
		UserID:          req.UserID,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           req.Phone,
		JobTitle:        req.JobTitle,
		Bio:             req.Bio,
		Color:           req.Color,
		PermissionLevel: req.PermissionLevel,
		Status:          model.StaffStatusActive,
		IsBookable:      true,
	}
	if member.PermissionLevel == "" {
		member.PermissionLevel = model.PermissionLevelEmployee
	}
	if req.IsBookable != nil {
		member.IsBookable = *req.IsBookable
	}
	member.CreatedBy = &callerID
	member.UpdatedBy = &callerID

	if err := s.repo.StaffMember.Create(ctx, member); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicate) {
			return nil, ErrStaffUserLinked
		}
		s.logger.Error("创建员工失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("员工已创建",
		zap.String("business_id", businessID),
		zap.String("staff_member_id", member.StaffMemberID))
	return s.toStaffResponse(member), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *staffService) GetByID(ctx context.Context, businessID, id string) (*dto.StaffMemberResponse, error) {
	member, err := s.getStaff(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return s.toStaffResponse(member), nil
}

func (s *staffService) List(ctx context.Context, businessID string, req *dto.StaffListRequest) ([]dto.StaffMemberResponse, int64, error) {
	filter := repository.StaffMemberFilter{
		Status:     req.Status,
		LocationID: req.LocationID,
		Search:     req.Search,
		Bookable:   req.Bookable,
	}
	members, total, err := s.repo.StaffMember.List(ctx, businessID, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出员工失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StaffMemberResponse, 0, len(members))
	for i := range members {
		result = append(result, *s.toStaffResponse(&members[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *staffService) Update(ctx context.Context, businessID, id string, req *dto.UpdateStaffMemberRequest, callerID string) (*dto.StaffMemberResponse, error) {
	member, err := s.getStaff(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		member.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		member.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		member.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.JobTitle != nil {
		member.JobTitle = *req.JobTitle
	}
	if req.Bio != nil {
		member.Bio = *req.Bio
	}
	if req.Color != nil {
		member.Color = *req.Color
	}
	if req.PermissionLevel != nil {
		member.PermissionLevel = *req.PermissionLevel
	}
	if req.IsBookable != nil {
		member.IsBookable = *req.IsBookable
	}
	member.UpdatedBy = &callerID

	if err := s.repo.StaffMember.Update(ctx, member); err != nil {
		s.logger.Error("更新员工失败", zap.String("staff_member_id", id), zap.Error(err))
		return nil, err
	}
	return s.toStaffResponse(member), nil
}

func (s *staffService) UpdateStatus(ctx context.Context, businessID, id string, req *dto.UpdateStaffStatusRequest, callerID string) (*dto.StaffMemberResponse, error) {
	member, err := s.getStaff(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if member.Status == req.Status {
		return s.toStaffResponse(member), nil
	}

	member.Status = req.Status
	member.UpdatedBy = &callerID
	if err := s.repo.StaffMember.Update(ctx, member); err != nil {
		s.logger.Error("更新员工状态失败", zap.String("staff_member_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("员工状态已变更",
		zap.String("staff_member_id", id),
		zap.String("status", req.Status),
		zap.String("operator", callerID))
	return s.toStaffResponse(member), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除员工，同时停用其周期模式并撤销待接受的邀请
func (s *staffService) Delete(ctx context.Context, businessID, id, callerID string) error {
	if _, err := s.getStaff(ctx, businessID, id); err != nil {
		return err
	}

	err := s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Pattern.DeactivateByStaff(ctx, businessID, id, callerID); err != nil {
			return err
		}
		if err := tx.Invitation.RevokePending(ctx, businessID, id, callerID); err != nil {
			return err
		}
		return tx.StaffMember.Delete(ctx, businessID, id, callerID)
	})
	if err != nil {
		s.logger.Error("删除员工失败", zap.String("staff_member_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("员工已删除", zap.String("staff_member_id", id), zap.String("operator", callerID))
	return nil
}

// ────────────────────── 门店分配 ──────────────────────

func (s *staffService) GetLocations(ctx context.Context, businessID, id string) ([]dto.StaffLocationResponse, error) {
	if _, err := s.getStaff(ctx, businessID, id); err != nil {
		return nil, err
	}
	items, err := s.repo.StaffLocation.ListByStaff(ctx, businessID, id)
	if err != nil {
		s.logger.Error("查询门店分配失败", zap.String("staff_member_id", id), zap.Error(err))
		return nil, err
	}
	return toLocationResponses(items), nil
}

// SetLocations 整体替换门店分配，每个门店至多一个角色
func (s *staffService) SetLocations(ctx context.Context, businessID, id string, req *dto.SetStaffLocationsRequest, callerID string) ([]dto.StaffLocationResponse, error) {
	if _, err := s.getStaff(ctx, businessID, id); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Locations))
	primaries := 0
	items := make([]model.StaffLocation, 0, len(req.Locations))
	for _, l := range req.Locations {
		if _, dup := seen[l.LocationID]; dup {
			return nil, ErrDuplicateLocation
		}
		seen[l.LocationID] = struct{}{}
		if l.IsPrimary {
			primaries++
		}
		if l.RoleID != nil {
			if _, err := s.repo.Role.GetByID(ctx, businessID, *l.RoleID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrRoleNotFound
				}
				s.logger.Error("查询角色失败", zap.String("role_id", *l.RoleID), zap.Error(err))
				return nil, err
			}
		}
		item := model.StaffLocation{
			BusinessID:    businessID,
			StaffMemberID: id,
			LocationID:    l.LocationID,
			RoleID:        l.RoleID,
			IsPrimary:     l.IsPrimary,
		}
		item.CreatedBy = &callerID
		item.UpdatedBy = &callerID
		items = append(items, item)
	}
	if primaries > 1 {
		return nil, ErrMultiplePrimary
	}
	if primaries == 0 && len(items) > 0 {
		items[0].IsPrimary = true
	}

	if err := s.repo.StaffLocation.ReplaceForStaff(ctx, businessID, id, items); err != nil {
		s.logger.Error("更新门店分配失败", zap.String("staff_member_id", id), zap.Error(err))
		return nil, err
	}
	return s.GetLocations(ctx, businessID, id)
}

// ────────────────────── 服务项目 ──────────────────────

func (s *staffService) GetServices(ctx context.Context, businessID, id string) ([]dto.StaffServiceResponse, error) {
	if _, err := s.getStaff(ctx, businessID, id); err != nil {
		return nil, err
	}
	items, err := s.repo.StaffService.ListByStaff(ctx, businessID, id)
	if err != nil {
		s.logger.Error("查询服务项目失败", zap.String("staff_member_id", id), zap.Error(err))
		return nil, err
	}
	return toServiceResponses(items), nil
}

func (s *staffService) SetServices(ctx context.Context, businessID, id string, req *dto.SetStaffServicesRequest, callerID string) ([]dto.StaffServiceResponse, error) {
	if _, err := s.getStaff(ctx, businessID, id); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Services))
	items := make([]model.StaffService, 0, len(req.Services))
	for _, svc := range req.Services {
		if _, dup := seen[svc.ServiceID]; dup {
			return nil, ErrDuplicateService
		}
		seen[svc.ServiceID] = struct{}{}
		item := model.StaffService{
			BusinessID:            businessID,
			StaffMemberID:         id,
			ServiceID:             svc.ServiceID,
			CustomDurationMinutes: svc.CustomDurationMinutes,
			CustomPrice:           svc.CustomPrice,
		}
		item.CreatedBy = &callerID
		item.UpdatedBy = &callerID
		items = append(items, item)
	}

	if err := s.repo.StaffService.ReplaceForStaff(ctx, businessID, id, items); err != nil {
		s.logger.Error("更新服务项目失败", zap.String("staff_member_id", id), zap.Error(err))
		return nil, err
	}
	return toServiceResponses(items), nil
}

// ────────────────────── 账号邀请 ──────────────────────

// CreateInvitation 生成一次性邀请凭证，格式 "<invitationID>.<secret>"
// 同一员工的旧邀请会被撤销
func (s *staffService) CreateInvitation(ctx context.Context, businessID, id string, req *dto.CreateInvitationRequest, callerID string) (*dto.InvitationResponse, error) {
	member, err := s.getStaff(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if member.UserID != nil {
		return nil, ErrStaffAlreadyLinked
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = member.Email
	}
	if email == "" {
		return nil, ErrInvitationEmailRequired
	}

	secret, err := generateSecret()
	if err != nil {
		s.logger.Error("生成邀请凭证失败", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.hashCost)
	if err != nil {
		s.logger.Error("邀请凭证哈希失败", zap.Error(err))
		return nil, err
	}

	inv := &model.StaffInvitation{
		BusinessID:    businessID,
		StaffMemberID: id,
		Email:         email,
		TokenHash:     string(hash),
		Status:        model.InvitationStatusPending,
		ExpiresAt:     time.Now().Add(s.invitationTTL),
	}
	inv.CreatedBy = &callerID
	inv.UpdatedBy = &callerID

	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Invitation.RevokePending(ctx, businessID, id, callerID); err != nil {
			return err
		}
		return tx.Invitation.Create(ctx, inv)
	})
	if err != nil {
		s.logger.Error("创建邀请失败", zap.String("staff_member_id", id), zap.Error(err))
		return nil, err
	}

	resp := toInvitationResponse(inv)
	resp.Token = inv.InvitationID + "." + secret
	return resp, nil
}

func (s *staffService) RevokeInvitation(ctx context.Context, businessID, id, invitationID, callerID string) error {
	inv, err := s.repo.Invitation.GetByID(ctx, businessID, invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		s.logger.Error("查询邀请失败", zap.String("invitation_id", invitationID), zap.Error(err))
		return err
	}
	if inv.StaffMemberID != id {
		return ErrInvitationNotFound
	}
	if inv.Status != model.InvitationStatusPending {
		return ErrInvitationNotPending
	}

	inv.Status = model.InvitationStatusRevoked
	inv.UpdatedBy = &callerID
	if err := s.repo.Invitation.Update(ctx, inv); err != nil {
		s.logger.Error("撤销邀请失败", zap.String("invitation_id", invitationID), zap.Error(err))
		return err
	}
	return nil
}

// AcceptInvitation 当前登录用户凭邀请绑定到员工
func (s *staffService) AcceptInvitation(ctx context.Context, businessID, userID string, req *dto.AcceptInvitationRequest) (*dto.StaffMemberResponse, error) {
	invitationID, secret, ok := strings.Cut(strings.TrimSpace(req.Token), ".")
	if !ok || invitationID == "" || secret == "" {
		return nil, ErrInvitationInvalid
	}

	inv, err := s.repo.Invitation.GetByID(ctx, businessID, invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationInvalid
		}
		s.logger.Error("查询邀请失败", zap.String("invitation_id", invitationID), zap.Error(err))
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(secret)) != nil {
		return nil, ErrInvitationInvalid
	}
	if inv.Status != model.InvitationStatusPending {
		return nil, ErrInvitationNotPending
	}
	if time.Now().After(inv.ExpiresAt) {
		inv.Status = model.InvitationStatusExpired
		if err := s.repo.Invitation.Update(ctx, inv); err != nil {
			s.logger.Warn("标记邀请过期失败", zap.String("invitation_id", invitationID), zap.Error(err))
		}
		return nil, ErrInvitationExpired
	}

	if _, err := s.repo.StaffMember.GetByUserID(ctx, businessID, userID); err == nil {
		return nil, ErrStaffUserLinked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户绑定失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	member, err := s.getStaff(ctx, businessID, inv.StaffMemberID)
	if err != nil {
		return nil, err
	}
	if member.UserID != nil {
		return nil, ErrStaffAlreadyLinked
	}

	// 上面的检查可能与并发接受交错，事务内用条件更新重新确认
	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		accepted, err := tx.Invitation.Accept(ctx, businessID, invitationID, userID, time.Now())
		if err != nil {
			return err
		}
		if !accepted {
			return ErrInvitationNotPending
		}
		linked, err := tx.StaffMember.LinkUser(ctx, businessID, member.StaffMemberID, userID)
		if err != nil {
			return err
		}
		if !linked {
			return ErrStaffAlreadyLinked
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvitationNotPending), errors.Is(err, ErrStaffAlreadyLinked):
			return nil, err
		case errors.Is(err, pkgerrors.ErrDuplicate):
			return nil, ErrStaffUserLinked
		}
		s.logger.Error("接受邀请失败", zap.String("invitation_id", invitationID), zap.Error(err))
		return nil, err
	}
	member.UserID = &userID
	member.UpdatedBy = &userID

	s.logger.Info("员工已绑定账号",
		zap.String("staff_member_id", member.StaffMemberID),
		zap.String("user_id", userID))
	return s.toStaffResponse(member), nil
}

// ── 内部辅助方法 ──

func (s *staffService) getStaff(ctx context.Context, businessID, id string) (*model.StaffMember, error) {
	member, err := s.repo.StaffMember.GetByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.String("staff_member_id", id), zap.Error(err))
		return nil, err
	}
	return member, nil
}

func (s *staffService) toStaffResponse(m *model.StaffMember) *dto.StaffMemberResponse {
	return &dto.StaffMemberResponse{
		ID:              m.StaffMemberID,
		UserID:          m.UserID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		FullName:        m.FullName(),
		Email:           m.Email,
		Phone:           m.Phone,
		JobTitle:        m.JobTitle,
		Bio:             m.Bio,
		Color:           m.Color,
		PermissionLevel: m.PermissionLevel,
		Status:          m.Status,
		IsBookable:      m.IsBookable,
		Locations:       toLocationResponses(m.Locations),
		Services:        toServiceResponses(m.Services),
		CreatedAt:       dto.FormatTimestamp(m.CreatedAt),
		UpdatedAt:       dto.FormatTimestamp(m.UpdatedAt),
	}
}

func toLocationResponses(items []model.StaffLocation) []dto.StaffLocationResponse {
	result := make([]dto.StaffLocationResponse, 0, len(items))
	for _, l := range items {
		resp := dto.StaffLocationResponse{
			LocationID: l.LocationID,
			RoleID:     l.RoleID,
			IsPrimary:  l.IsPrimary,
		}
		if l.Role != nil {
			resp.RoleName = l.Role.Name
		}
		result = append(result, resp)
	}
	return result
}

func toServiceResponses(items []model.StaffService) []dto.StaffServiceResponse {
	result := make([]dto.StaffServiceResponse, 0, len(items))
	for _, svc := range items {
		result = append(result, dto.StaffServiceResponse{
			ServiceID:             svc.ServiceID,
			CustomDurationMinutes: svc.CustomDurationMinutes,
			CustomPrice:           svc.CustomPrice,
		})
	}
	return result
}

func toInvitationResponse(inv *model.StaffInvitation) *dto.InvitationResponse {
	return &dto.InvitationResponse{
		ID:            inv.InvitationID,
		StaffMemberID: inv.StaffMemberID,
		Email:         inv.Email,
		Status:        inv.Status,
		ExpiresAt:     dto.FormatTimestamp(inv.ExpiresAt),
	}
}

// generateSecret 32 字节随机数，URL 安全编码
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
