package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
)

// ── 测试辅助 ──

func setupTestStaffService() (StaffService, *testRepos) {
	repo, m := newTestRepos()
	svc := NewStaffService(repo, time.Hour, zap.NewNop())
	svc.(*staffService).hashCost = bcrypt.MinCost
	return svc, m
}

// ── Create / Get 测试 ──

func TestStaffService_Create_Defaults(t *testing.T) {
	svc, _ := setupTestStaffService()

	result, err := svc.Create(context.Background(), "biz-001", &dto.CreateStaffMemberRequest{
		FirstName: " Alice ",
		LastName:  "Wong",
		Email:     "Alice@Example.com",
	}, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.FullName != "Alice Wong" {
		t.Errorf("期望 FullName=Alice Wong，实际=%s", result.FullName)
	}
	if result.Email != "alice@example.com" {
		t.Errorf("邮箱应转小写，实际=%s", result.Email)
	}
	if result.PermissionLevel != model.PermissionLevelEmployee || result.Status != model.StaffStatusActive || !result.IsBookable {
		t.Errorf("默认值错误: %+v", result)
	}
}

func TestStaffService_Create_DuplicateUser(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", strPtr("user-1"))

	_, err := svc.Create(context.Background(), "biz-001", &dto.CreateStaffMemberRequest{
		FirstName: "Bob",
		UserID:    strPtr("user-1"),
	}, "admin-001")
	if !errors.Is(err, ErrStaffUserLinked) {
		t.Errorf("期望 ErrStaffUserLinked，实际: %v", err)
	}
}

func TestStaffService_GetByID_OtherBusiness(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", nil)

	if _, err := svc.GetByID(context.Background(), "biz-002", "staff-x"); !errors.Is(err, ErrStaffNotFound) {
		t.Errorf("跨商户访问期望 ErrStaffNotFound，实际: %v", err)
	}
}

func TestStaffService_List_Filters(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-a", "biz-001", nil)
	b := seedStaff(m, "staff-b", "biz-001", nil)
	b.Status = model.StaffStatusSuspended
	seedStaff(m, "staff-c", "biz-002", nil)

	all, total, err := svc.List(context.Background(), "biz-001", &dto.StaffListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("期望 2 名员工，实际 %d", total)
	}

	active, total, _ := svc.List(context.Background(), "biz-001", &dto.StaffListRequest{Status: model.StaffStatusActive})
	if total != 1 || active[0].ID != "staff-a" {
		t.Errorf("状态过滤错误: %+v", active)
	}
}

// ── Update / Status / Delete 测试 ──

func TestStaffService_Update(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", nil)

	result, err := svc.Update(context.Background(), "biz-001", "staff-x", &dto.UpdateStaffMemberRequest{
		JobTitle:   strPtr("Senior Stylist"),
		IsBookable: new(bool),
	}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.JobTitle != "Senior Stylist" || result.IsBookable {
		t.Errorf("更新未生效: %+v", result)
	}
	if m.staff.members["staff-x"].JobTitle != "Senior Stylist" {
		t.Error("应写回仓储")
	}
}

func TestStaffService_UpdateStatus(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", nil)

	result, err := svc.UpdateStatus(context.Background(), "biz-001", "staff-x",
		&dto.UpdateStaffStatusRequest{Status: model.StaffStatusArchived}, "admin-001")
	if err != nil {
		t.Fatalf("UpdateStatus 应成功: %v", err)
	}
	if result.Status != model.StaffStatusArchived {
		t.Errorf("期望 archived，实际 %s", result.Status)
	}
}

func TestStaffService_Delete_CascadesAndHides(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", nil)
	p := weeklyPattern(t)
	p.StaffMemberID = "staff-x"
	m.patterns.patterns[p.PatternID] = p
	s := stubShift(t, "shift-1", "staff-x", "2024-06-03", "09:00", "12:00")
	m.shifts.shifts[s.ShiftID] = &s
	m.invitations.invitations["inv-1"] = &model.StaffInvitation{
		InvitationID: "inv-1", BusinessID: "biz-001", StaffMemberID: "staff-x", Status: model.InvitationStatusPending,
	}
	ctx := context.Background()

	if err := svc.Delete(ctx, "biz-001", "staff-x", "admin-001"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if m.patterns.patterns[p.PatternID].IsActive {
		t.Error("删除员工应停用其周期模式")
	}
	if m.invitations.invitations["inv-1"].Status != model.InvitationStatusRevoked {
		t.Error("删除员工应撤销待接受邀请")
	}
	if _, err := svc.GetByID(ctx, "biz-001", "staff-x"); !errors.Is(err, ErrStaffNotFound) {
		t.Errorf("删除后期望 ErrStaffNotFound，实际: %v", err)
	}
	if _, err := m.shifts.GetByID(ctx, "biz-001", "shift-1"); err == nil {
		t.Error("已删除员工的班次应不可见")
	}
}

// ── 门店 / 服务项目 测试 ──

func TestStaffService_SetLocations(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", nil)
	seedRole(m, "role-mgr", "biz-001", model.RoleNameManager, model.ManagerPermissions())
	ctx := context.Background()

	result, err := svc.SetLocations(ctx, "biz-001", "staff-x", &dto.SetStaffLocationsRequest{
		Locations: []dto.StaffLocationItem{
			{LocationID: "loc-a", RoleID: strPtr("role-mgr")},
			{LocationID: "loc-b"},
		},
	}, "admin-001")
	if err != nil {
		t.Fatalf("SetLocations 应成功: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("期望 2 个分配，实际 %d", len(result))
	}
	if !result[0].IsPrimary || result[0].LocationID != "loc-a" {
		t.Errorf("未指定主门店时第一个应为主门店: %+v", result[0])
	}
	if result[0].RoleName != model.RoleNameManager {
		t.Errorf("应带出角色名，实际 %q", result[0].RoleName)
	}

	// 整体替换
	result, _ = svc.SetLocations(ctx, "biz-001", "staff-x", &dto.SetStaffLocationsRequest{
		Locations: []dto.StaffLocationItem{{LocationID: "loc-c", IsPrimary: true}},
	}, "admin-001")
	if len(result) != 1 || result[0].LocationID != "loc-c" {
		t.Errorf("应整体替换为 loc-c，实际 %+v", result)
	}
}

func TestStaffService_SetLocations_Invalid(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", nil)
	seedRole(m, "role-other", "biz-002", "Other", model.RolePermissions{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  *dto.SetStaffLocationsRequest
		want error
	}{
		{"重复门店", &dto.SetStaffLocationsRequest{Locations: []dto.StaffLocationItem{{LocationID: "loc-a"}, {LocationID: "loc-a"}}}, ErrDuplicateLocation},
		{"多个主门店", &dto.SetStaffLocationsRequest{Locations: []dto.StaffLocationItem{{LocationID: "loc-a", IsPrimary: true}, {LocationID: "loc-b", IsPrimary: true}}}, ErrMultiplePrimary},
		{"其他商户的角色", &dto.SetStaffLocationsRequest{Locations: []dto.StaffLocationItem{{LocationID: "loc-a", RoleID: strPtr("role-other")}}}, ErrRoleNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SetLocations(ctx, "biz-001", "staff-x", tc.req, "admin-001"); !errors.Is(err, tc.want) {
				t.Errorf("期望 %v，实际 %v", tc.want, err)
			}
		})
	}
}

func TestStaffService_SetServices(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", nil)
	ctx := context.Background()
	duration := 45

	result, err := svc.SetServices(ctx, "biz-001", "staff-x", &dto.SetStaffServicesRequest{
		Services: []dto.StaffServiceItem{{ServiceID: "svc-cut", CustomDurationMinutes: &duration}},
	}, "admin-001")
	if err != nil {
		t.Fatalf("SetServices 应成功: %v", err)
	}
	if len(result) != 1 || *result[0].CustomDurationMinutes != 45 {
		t.Errorf("服务项目错误: %+v", result)
	}

	_, err = svc.SetServices(ctx, "biz-001", "staff-x", &dto.SetStaffServicesRequest{
		Services: []dto.StaffServiceItem{{ServiceID: "svc-cut"}, {ServiceID: "svc-cut"}},
	}, "admin-001")
	if !errors.Is(err, ErrDuplicateService) {
		t.Errorf("期望 ErrDuplicateService，实际 %v", err)
	}
}

// ── 邀请 测试 ──

func TestStaffService_InvitationFlow(t *testing.T) {
	svc, m := setupTestStaffService()
	s := seedStaff(m, "staff-x", "biz-001", nil)
	s.Email = "x@example.com"
	ctx := context.Background()

	inv, err := svc.CreateInvitation(ctx, "biz-001", "staff-x", &dto.CreateInvitationRequest{}, "admin-001")
	if err != nil {
		t.Fatalf("CreateInvitation 应成功: %v", err)
	}
	if inv.Email != "x@example.com" || inv.Status != model.InvitationStatusPending {
		t.Errorf("邀请信息错误: %+v", inv)
	}
	if !strings.HasPrefix(inv.Token, inv.ID+".") {
		t.Fatalf("Token 应以邀请 ID 开头: %s", inv.Token)
	}
	stored := m.invitations.invitations[inv.ID]
	if strings.Contains(stored.TokenHash, strings.TrimPrefix(inv.Token, inv.ID+".")) {
		t.Error("库中不应保存明文凭证")
	}

	// 错误凭证
	if _, err := svc.AcceptInvitation(ctx, "biz-001", "user-9", &dto.AcceptInvitationRequest{Token: inv.ID + ".wrong-secret"}); !errors.Is(err, ErrInvitationInvalid) {
		t.Errorf("错误凭证期望 ErrInvitationInvalid，实际 %v", err)
	}

	result, err := svc.AcceptInvitation(ctx, "biz-001", "user-9", &dto.AcceptInvitationRequest{Token: inv.Token})
	if err != nil {
		t.Fatalf("AcceptInvitation 应成功: %v", err)
	}
	if result.UserID == nil || *result.UserID != "user-9" {
		t.Errorf("应绑定 user-9，实际 %+v", result.UserID)
	}
	if m.invitations.invitations[inv.ID].Status != model.InvitationStatusAccepted {
		t.Error("邀请应标记为 accepted")
	}

	// 重复使用
	if _, err := svc.AcceptInvitation(ctx, "biz-001", "user-10", &dto.AcceptInvitationRequest{Token: inv.Token}); !errors.Is(err, ErrInvitationNotPending) {
		t.Errorf("重复使用期望 ErrInvitationNotPending，实际 %v", err)
	}
	// 已绑定不能再邀请
	if _, err := svc.CreateInvitation(ctx, "biz-001", "staff-x", &dto.CreateInvitationRequest{}, "admin-001"); !errors.Is(err, ErrStaffAlreadyLinked) {
		t.Errorf("已绑定员工期望 ErrStaffAlreadyLinked，实际 %v", err)
	}
}

func TestStaffService_AcceptInvitation_ConcurrentAccept(t *testing.T) {
	svc, m := setupTestStaffService()
	s := seedStaff(m, "staff-x", "biz-001", nil)
	s.Email = "x@example.com"
	ctx := context.Background()

	inv, err := svc.CreateInvitation(ctx, "biz-001", "staff-x", &dto.CreateInvitationRequest{}, "admin-001")
	if err != nil {
		t.Fatalf("CreateInvitation 应成功: %v", err)
	}

	// 另一个用户在本次检查通过后抢先接受
	other := "user-other"
	m.invitations.beforeAccept = func() {
		stored := m.invitations.invitations[inv.ID]
		stored.Status = model.InvitationStatusAccepted
		stored.AcceptedUserID = &other
		m.staff.members["staff-x"].UserID = &other
	}

	if _, err := svc.AcceptInvitation(ctx, "biz-001", "user-9", &dto.AcceptInvitationRequest{Token: inv.Token}); !errors.Is(err, ErrInvitationNotPending) {
		t.Fatalf("并发接受期望 ErrInvitationNotPending，实际 %v", err)
	}
	if got := m.staff.members["staff-x"].UserID; got == nil || *got != other {
		t.Errorf("先接受者的绑定不应被覆盖，实际 %v", got)
	}
	if got := m.invitations.invitations[inv.ID].AcceptedUserID; got == nil || *got != other {
		t.Errorf("邀请接受人不应被覆盖，实际 %v", got)
	}
}

func TestStaffService_AcceptInvitation_MemberLinkedMeanwhile(t *testing.T) {
	svc, m := setupTestStaffService()
	s := seedStaff(m, "staff-x", "biz-001", nil)
	s.Email = "x@example.com"
	ctx := context.Background()

	inv, _ := svc.CreateInvitation(ctx, "biz-001", "staff-x", &dto.CreateInvitationRequest{}, "admin-001")

	other := "user-other"
	m.invitations.beforeAccept = func() {
		m.staff.members["staff-x"].UserID = &other
	}

	if _, err := svc.AcceptInvitation(ctx, "biz-001", "user-9", &dto.AcceptInvitationRequest{Token: inv.Token}); !errors.Is(err, ErrStaffAlreadyLinked) {
		t.Fatalf("员工已被绑定期望 ErrStaffAlreadyLinked，实际 %v", err)
	}
	if got := m.staff.members["staff-x"].UserID; got == nil || *got != other {
		t.Errorf("已有绑定不应被覆盖，实际 %v", got)
	}
}

func TestStaffService_Invitation_ExpiredAndRevoked(t *testing.T) {
	svc, m := setupTestStaffService()
	seedStaff(m, "staff-x", "biz-001", nil)
	ctx := context.Background()

	if _, err := svc.CreateInvitation(ctx, "biz-001", "staff-x", &dto.CreateInvitationRequest{}, "admin-001"); !errors.Is(err, ErrInvitationEmailRequired) {
		t.Errorf("无邮箱期望 ErrInvitationEmailRequired，实际 %v", err)
	}

	first, err := svc.CreateInvitation(ctx, "biz-001", "staff-x", &dto.CreateInvitationRequest{Email: "x@example.com"}, "admin-001")
	if err != nil {
		t.Fatalf("CreateInvitation 应成功: %v", err)
	}
	second, _ := svc.CreateInvitation(ctx, "biz-001", "staff-x", &dto.CreateInvitationRequest{Email: "x@example.com"}, "admin-001")
	if m.invitations.invitations[first.ID].Status != model.InvitationStatusRevoked {
		t.Error("新邀请应撤销旧邀请")
	}

	m.invitations.invitations[second.ID].ExpiresAt = time.Now().Add(-time.Minute)
	if _, err := svc.AcceptInvitation(ctx, "biz-001", "user-9", &dto.AcceptInvitationRequest{Token: second.Token}); !errors.Is(err, ErrInvitationExpired) {
		t.Errorf("过期邀请期望 ErrInvitationExpired，实际 %v", err)
	}
	if m.invitations.invitations[second.ID].Status != model.InvitationStatusExpired {
		t.Error("过期邀请应被标记 expired")
	}

	third, _ := svc.CreateInvitation(ctx, "biz-001", "staff-x", &dto.CreateInvitationRequest{Email: "x@example.com"}, "admin-001")
	if err := svc.RevokeInvitation(ctx, "biz-001", "staff-x", third.ID, "admin-001"); err != nil {
		t.Fatalf("RevokeInvitation 应成功: %v", err)
	}
	if err := svc.RevokeInvitation(ctx, "biz-001", "staff-x", third.ID, "admin-001"); !errors.Is(err, ErrInvitationNotPending) {
		t.Errorf("重复撤销期望 ErrInvitationNotPending，实际 %v", err)
	}
	if err := svc.RevokeInvitation(ctx, "biz-001", "staff-y", third.ID, "admin-001"); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("员工不匹配期望 ErrInvitationNotFound，实际 %v", err)
	}
}
