package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
)

// ── 测试辅助 ──

func setupTestTimeOffService() (TimeOffService, *testRepos) {
	repo, m := newTestRepos()
	seedStaff(m, "staff-x", "biz-001", nil)
	seedStaff(m, "staff-mgr", "biz-001", nil)
	svc := NewTimeOffService(repo, zap.NewNop())
	svc.(*timeOffService).now = func() time.Time {
		return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	}
	return svc, m
}

func vacationReq(start, end string) *dto.CreateTimeOffRequest {
	return &dto.CreateTimeOffRequest{Type: model.TimeOffTypeVacation, StartDate: start, EndDate: end}
}

// ── Create 测试 ──

func TestTimeOffService_Create(t *testing.T) {
	svc, _ := setupTestTimeOffService()

	r, err := svc.Create(context.Background(), "biz-001", "staff-x", vacationReq("2024-06-10", "2024-06-12"), "user-x")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if r.Status != model.TimeOffStatusPending || !r.IsAllDay || r.Version != 1 {
		t.Errorf("初始状态错误: %+v", r)
	}
	if r.StartTime != nil || r.EndTime != nil {
		t.Error("全天请假不应带时段")
	}
}

func TestTimeOffService_Create_PartialDay(t *testing.T) {
	svc, _ := setupTestTimeOffService()
	ctx := context.Background()
	allDay := false

	req := vacationReq("2024-06-10", "2024-06-10")
	req.IsAllDay = &allDay
	req.StartTime, req.EndTime = strPtr("13:00"), strPtr("15:30")
	r, err := svc.Create(ctx, "biz-001", "staff-x", req, "user-x")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if r.IsAllDay || *r.StartTime != "13:00" || *r.EndTime != "15:30" {
		t.Errorf("时段错误: %+v", r)
	}

	missing := vacationReq("2024-06-10", "2024-06-10")
	missing.IsAllDay = &allDay
	if _, err := svc.Create(ctx, "biz-001", "staff-x", missing, "user-x"); !errors.Is(err, ErrTimeOffInvalid) {
		t.Errorf("缺少时段期望 ErrTimeOffInvalid，实际 %v", err)
	}

	reversed := vacationReq("2024-06-10", "2024-06-10")
	reversed.IsAllDay = &allDay
	reversed.StartTime, reversed.EndTime = strPtr("15:00"), strPtr("13:00")
	if _, err := svc.Create(ctx, "biz-001", "staff-x", reversed, "user-x"); !errors.Is(err, ErrTimeOffInvalid) {
		t.Errorf("时段倒置期望 ErrTimeOffInvalid，实际 %v", err)
	}
}

func TestTimeOffService_Create_Invalid(t *testing.T) {
	svc, _ := setupTestTimeOffService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "biz-001", "staff-x", vacationReq("2024-06-12", "2024-06-10"), "user-x"); !errors.Is(err, ErrTimeOffInvalid) {
		t.Errorf("日期倒置期望 ErrTimeOffInvalid，实际 %v", err)
	}
	withTime := vacationReq("2024-06-10", "2024-06-10")
	withTime.StartTime = strPtr("09:00")
	if _, err := svc.Create(ctx, "biz-001", "staff-x", withTime, "user-x"); !errors.Is(err, ErrTimeOffInvalid) {
		t.Errorf("全天请假带时段期望 ErrTimeOffInvalid，实际 %v", err)
	}
	if _, err := svc.Create(ctx, "biz-001", "ghost", vacationReq("2024-06-10", "2024-06-10"), "user-x"); !errors.Is(err, ErrStaffNotFound) {
		t.Errorf("期望 ErrStaffNotFound，实际 %v", err)
	}
}

// ── 状态机测试 ──

func TestTimeOffService_Approve_Once(t *testing.T) {
	svc, m := setupTestTimeOffService()
	ctx := context.Background()
	r, _ := svc.Create(ctx, "biz-001", "staff-x", vacationReq("2024-06-10", "2024-06-12"), "user-x")

	approved, err := svc.Approve(ctx, "biz-001", r.ID, "staff-mgr", "user-mgr")
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if approved.Status != model.TimeOffStatusApproved || approved.ApprovedBy == nil || *approved.ApprovedBy != "staff-mgr" {
		t.Errorf("审批信息错误: %+v", approved)
	}
	if approved.ApprovedAt == nil || *approved.ApprovedAt != "2024-06-01T08:00:00Z" {
		t.Errorf("审批时间错误: %v", approved.ApprovedAt)
	}
	if approved.Version != 2 {
		t.Errorf("版本号应递增为 2，实际 %d", approved.Version)
	}

	// 再次审批/驳回/取消均失败
	if _, err := svc.Approve(ctx, "biz-001", r.ID, "staff-mgr", "user-mgr"); !errors.Is(err, ErrTimeOffInvalidTransition) {
		t.Errorf("重复审批期望 ErrTimeOffInvalidTransition，实际 %v", err)
	}
	if _, err := svc.Deny(ctx, "biz-001", r.ID, "staff-mgr", &dto.DenyTimeOffRequest{}, "user-mgr"); !errors.Is(err, ErrTimeOffInvalidTransition) {
		t.Errorf("已批准后驳回期望 ErrTimeOffInvalidTransition，实际 %v", err)
	}
	if _, err := svc.Cancel(ctx, "biz-001", r.ID, "staff-x", "user-x"); !errors.Is(err, ErrTimeOffInvalidTransition) {
		t.Errorf("已批准后取消期望 ErrTimeOffInvalidTransition，实际 %v", err)
	}
	if got := m.timeOff.requests[r.ID].Status; got != model.TimeOffStatusApproved {
		t.Errorf("状态应保持 approved，实际 %s", got)
	}
}

func TestTimeOffService_Deny(t *testing.T) {
	svc, _ := setupTestTimeOffService()
	ctx := context.Background()
	r, _ := svc.Create(ctx, "biz-001", "staff-x", vacationReq("2024-06-10", "2024-06-12"), "user-x")

	denied, err := svc.Deny(ctx, "biz-001", r.ID, "staff-mgr", &dto.DenyTimeOffRequest{Reason: "旺季"}, "user-mgr")
	if err != nil {
		t.Fatalf("Deny 应成功: %v", err)
	}
	if denied.Status != model.TimeOffStatusDenied || denied.DenialReason != "旺季" {
		t.Errorf("驳回信息错误: %+v", denied)
	}
}

func TestTimeOffService_Cancel(t *testing.T) {
	svc, _ := setupTestTimeOffService()
	ctx := context.Background()
	r, _ := svc.Create(ctx, "biz-001", "staff-x", vacationReq("2024-06-10", "2024-06-12"), "user-x")

	if _, err := svc.Cancel(ctx, "biz-001", r.ID, "staff-mgr", "user-mgr"); !errors.Is(err, ErrTimeOffNotOwner) {
		t.Errorf("非本人期望 ErrTimeOffNotOwner，实际 %v", err)
	}
	cancelled, err := svc.Cancel(ctx, "biz-001", r.ID, "staff-x", "user-x")
	if err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if cancelled.Status != model.TimeOffStatusCancelled || cancelled.ApprovedBy != nil {
		t.Errorf("取消不应记录审批人: %+v", cancelled)
	}
}

// racingTimeOffRepo 在每次读取后推进库中版本，模拟并发审批先行提交
type racingTimeOffRepo struct {
	*mockTimeOffRepo
}

func (r racingTimeOffRepo) GetByID(ctx context.Context, businessID, id string) (*model.TimeOffRequest, error) {
	got, err := r.mockTimeOffRepo.GetByID(ctx, businessID, id)
	if err == nil {
		r.requests[id].Version++
	}
	return got, err
}

func TestTimeOffService_ConcurrentDecisionLoses(t *testing.T) {
	repo, m := newTestRepos()
	seedStaff(m, "staff-x", "biz-001", nil)
	ctx := context.Background()
	svc := NewTimeOffService(repo, zap.NewNop())
	r, _ := svc.Create(ctx, "biz-001", "staff-x", vacationReq("2024-06-10", "2024-06-12"), "user-x")

	repo.TimeOff = racingTimeOffRepo{m.timeOff}
	if _, err := svc.Approve(ctx, "biz-001", r.ID, "staff-mgr", "user-mgr"); !errors.Is(err, ErrTimeOffVersionConflict) {
		t.Errorf("期望 ErrTimeOffVersionConflict，实际 %v", err)
	}
	if got := m.timeOff.requests[r.ID].Status; got != model.TimeOffStatusPending {
		t.Errorf("失败的审批不应落库，实际 %s", got)
	}
}

func TestTimeOffService_NotFoundAcrossBusiness(t *testing.T) {
	svc, _ := setupTestTimeOffService()
	ctx := context.Background()
	r, _ := svc.Create(ctx, "biz-001", "staff-x", vacationReq("2024-06-10", "2024-06-12"), "user-x")

	if _, err := svc.GetByID(ctx, "biz-002", r.ID); !errors.Is(err, ErrTimeOffNotFound) {
		t.Errorf("跨商户期望 ErrTimeOffNotFound，实际 %v", err)
	}
	if _, err := svc.Approve(ctx, "biz-002", r.ID, "staff-mgr", "user-mgr"); !errors.Is(err, ErrTimeOffNotFound) {
		t.Errorf("跨商户审批期望 ErrTimeOffNotFound，实际 %v", err)
	}
}

func TestTimeOffService_List(t *testing.T) {
	svc, _ := setupTestTimeOffService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, "biz-001", "staff-x", vacationReq("2024-06-10", "2024-06-12"), "user-x")
	_, _ = svc.Create(ctx, "biz-001", "staff-x", vacationReq("2024-07-01", "2024-07-02"), "user-x")
	_, _ = svc.Approve(ctx, "biz-001", a.ID, "staff-mgr", "user-mgr")

	pending, total, err := svc.List(ctx, "biz-001", &dto.TimeOffListRequest{Status: model.TimeOffStatusPending})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || pending[0].StartDate != "2024-07-01" {
		t.Errorf("状态过滤错误: %+v", pending)
	}

	june, total, _ := svc.List(ctx, "biz-001", &dto.TimeOffListRequest{From: "2024-06-11", To: "2024-06-30"})
	if total != 1 || june[0].ID != a.ID {
		t.Errorf("区间过滤应返回与区间相交的申请: %+v", june)
	}
}
