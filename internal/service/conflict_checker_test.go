package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"salon-staff/internal/model"
)

// stubShiftReader 按员工/门店返回固定班次
type stubShiftReader struct {
	shifts []model.Shift
}

func (s *stubShiftReader) ListByStaffAndDate(_ context.Context, businessID, staffMemberID string, date time.Time) ([]model.Shift, error) {
	var out []model.Shift
	for _, sh := range s.shifts {
		if sh.BusinessID == businessID && sh.StaffMemberID == staffMemberID && sh.Date.Equal(date) {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *stubShiftReader) ListByLocationAndDate(_ context.Context, businessID, locationID string, date time.Time) ([]model.Shift, error) {
	var out []model.Shift
	for _, sh := range s.shifts {
		if sh.BusinessID == businessID && sh.LocationID != nil && *sh.LocationID == locationID && sh.Date.Equal(date) {
			out = append(out, sh)
		}
	}
	return out, nil
}

func stubShift(t *testing.T, id, staffID, date, start, end string) model.Shift {
	return model.Shift{
		ShiftID:       id,
		BusinessID:    "biz-001",
		StaffMemberID: staffID,
		Date:          mustDate(t, date),
		StartTime:     start,
		EndTime:       end,
		ShiftType:     model.ShiftTypeCustom,
		Status:        model.ShiftStatusScheduled,
	}
}

func candidate(t *testing.T, staffID, date, start, end string) CandidateShift {
	return CandidateShift{StaffMemberID: staffID, Date: mustDate(t, date), StartTime: start, EndTime: end}
}

// ── Check 测试 ──

func TestConflictChecker_Overlap(t *testing.T) {
	reader := &stubShiftReader{shifts: []model.Shift{
		stubShift(t, "shift-1", "staff-x", "2024-06-03", "09:00", "12:00"),
	}}
	c := NewConflictChecker(ConflictPolicy{})

	conflicts, err := c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "11:00", "14:00"))
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("期望 1 个冲突，实际 %d: %+v", len(conflicts), conflicts)
	}
	if conflicts[0].Type != ConflictTypeOverlap || conflicts[0].Severity != SeverityError {
		t.Errorf("期望 overlap/error，实际 %s/%s", conflicts[0].Type, conflicts[0].Severity)
	}
	if conflicts[0].ShiftID != "shift-1" {
		t.Errorf("应指向已有班次 shift-1，实际 %s", conflicts[0].ShiftID)
	}
}

func TestConflictChecker_TouchingIsNotOverlap(t *testing.T) {
	reader := &stubShiftReader{shifts: []model.Shift{
		stubShift(t, "shift-1", "staff-x", "2024-06-03", "09:00", "12:00"),
	}}
	c := NewConflictChecker(ConflictPolicy{})

	conflicts, err := c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "12:00", "14:00"))
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("首尾相接不应冲突，实际 %+v", conflicts)
	}
}

func TestConflictChecker_IgnoresInactiveAndOtherScopes(t *testing.T) {
	cancelled := stubShift(t, "shift-c", "staff-x", "2024-06-03", "09:00", "12:00")
	cancelled.Status = model.ShiftStatusCancelled
	rejected := stubShift(t, "shift-r", "staff-x", "2024-06-03", "10:00", "11:00")
	rejected.Status = model.ShiftStatusRejected
	otherDay := stubShift(t, "shift-d", "staff-x", "2024-06-04", "09:00", "12:00")
	otherStaff := stubShift(t, "shift-s", "staff-y", "2024-06-03", "09:00", "12:00")
	otherBiz := stubShift(t, "shift-b", "staff-x", "2024-06-03", "09:00", "12:00")
	otherBiz.BusinessID = "biz-002"

	reader := &stubShiftReader{shifts: []model.Shift{cancelled, rejected, otherDay, otherStaff, otherBiz}}
	c := NewConflictChecker(ConflictPolicy{})

	conflicts, err := c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "09:30", "11:30"))
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("不应有冲突，实际 %+v", conflicts)
	}
}

func TestConflictChecker_ExcludeSelf(t *testing.T) {
	reader := &stubShiftReader{shifts: []model.Shift{
		stubShift(t, "shift-1", "staff-x", "2024-06-03", "09:00", "12:00"),
	}}
	c := NewConflictChecker(ConflictPolicy{})

	cand := candidate(t, "staff-x", "2024-06-03", "10:00", "13:00")
	cand.ExcludeShiftID = "shift-1"
	conflicts, err := c.Check(context.Background(), reader, "biz-001", cand)
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("原地更新不应与自身冲突，实际 %+v", conflicts)
	}
}

func TestConflictChecker_OvertimeAndOrdering(t *testing.T) {
	reader := &stubShiftReader{shifts: []model.Shift{
		stubShift(t, "shift-b", "staff-x", "2024-06-03", "13:00", "18:00"),
		stubShift(t, "shift-a", "staff-x", "2024-06-03", "08:00", "12:30"),
	}}
	c := NewConflictChecker(ConflictPolicy{MaxDailyHours: 10})

	// 12:00-14:00 与两个班次都重叠，总时长 4.5+5+2 = 11.5h
	conflicts, err := c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "12:00", "14:00"))
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if len(conflicts) != 3 {
		t.Fatalf("期望 3 个冲突，实际 %d: %+v", len(conflicts), conflicts)
	}
	if conflicts[0].ShiftID != "shift-a" || conflicts[1].ShiftID != "shift-b" {
		t.Errorf("overlap 应按已有班次开始时间排序，实际 %s, %s", conflicts[0].ShiftID, conflicts[1].ShiftID)
	}
	if conflicts[2].Type != ConflictTypeOvertime || conflicts[2].Severity != SeverityWarning {
		t.Errorf("最后一项应为 overtime/warning，实际 %s/%s", conflicts[2].Type, conflicts[2].Severity)
	}
}

func TestConflictChecker_OvertimeBoundary(t *testing.T) {
	reader := &stubShiftReader{shifts: []model.Shift{
		stubShift(t, "shift-1", "staff-x", "2024-06-03", "08:00", "12:00"),
	}}

	// 恰好 8h 不告警
	c := NewConflictChecker(ConflictPolicy{MaxDailyHours: 8})
	conflicts, _ := c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "13:00", "17:00"))
	if len(conflicts) != 0 {
		t.Errorf("恰好达到上限不应告警，实际 %+v", conflicts)
	}

	conflicts, _ = c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "13:00", "17:30"))
	if len(conflicts) != 1 || conflicts[0].Type != ConflictTypeOvertime {
		t.Errorf("超过上限应告警，实际 %+v", conflicts)
	}

	// 阈值为 0 关闭检查
	c = NewConflictChecker(ConflictPolicy{})
	conflicts, _ = c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "13:00", "23:00"))
	if len(conflicts) != 0 {
		t.Errorf("阈值为 0 不应告警，实际 %+v", conflicts)
	}
}

func TestConflictChecker_LocationCapacity(t *testing.T) {
	loc := "loc-001"
	withLoc := func(s model.Shift) model.Shift {
		l := loc
		s.LocationID = &l
		return s
	}
	reader := &stubShiftReader{shifts: []model.Shift{
		withLoc(stubShift(t, "shift-1", "staff-a", "2024-06-03", "09:00", "12:00")),
		withLoc(stubShift(t, "shift-2", "staff-b", "2024-06-03", "10:00", "15:00")),
		// 同一员工两个班次只计一次
		withLoc(stubShift(t, "shift-3", "staff-b", "2024-06-03", "15:00", "16:00")),
		// 不重叠的不计
		withLoc(stubShift(t, "shift-4", "staff-c", "2024-06-03", "17:00", "19:00")),
	}}
	cand := candidate(t, "staff-x", "2024-06-03", "11:00", "16:00")
	cand.LocationID = &loc

	c := NewConflictChecker(ConflictPolicy{LocationCapacity: 2})
	conflicts, err := c.Check(context.Background(), reader, "biz-001", cand)
	if err != nil {
		t.Fatalf("Check 应成功: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].Type != ConflictTypeLocation || conflicts[0].Severity != SeverityWarning {
		t.Fatalf("期望 location_conflict/warning，实际 %+v", conflicts)
	}

	c = NewConflictChecker(ConflictPolicy{LocationCapacity: 3})
	conflicts, _ = c.Check(context.Background(), reader, "biz-001", cand)
	if len(conflicts) != 0 {
		t.Errorf("未达容量不应告警，实际 %+v", conflicts)
	}

	// 未指定门店不检查
	c = NewConflictChecker(ConflictPolicy{LocationCapacity: 1})
	conflicts, _ = c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "11:00", "16:00"))
	if len(conflicts) != 0 {
		t.Errorf("无门店不应检查容量，实际 %+v", conflicts)
	}
}

func TestConflictChecker_InvalidInput(t *testing.T) {
	c := NewConflictChecker(ConflictPolicy{})
	reader := &stubShiftReader{}

	if _, err := c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "14:00", "14:00")); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("开始等于结束期望 ErrInvalidTimeRange，实际 %v", err)
	}
	if _, err := c.Check(context.Background(), reader, "biz-001", candidate(t, "staff-x", "2024-06-03", "25:00", "26:00")); err == nil {
		t.Error("非法时间应报错")
	}
}

// ── BlockingConflicts 测试 ──

func TestBlockingConflicts(t *testing.T) {
	all := []Conflict{
		{Type: ConflictTypeOverlap, Severity: SeverityError},
		{Type: ConflictTypeOvertime, Severity: SeverityWarning},
	}

	if got := BlockingConflicts(all, false, false); len(got) != 2 {
		t.Errorf("无豁免时应全部阻断，实际 %d", len(got))
	}
	if got := BlockingConflicts(all, true, false); len(got) != 1 || got[0].Type != ConflictTypeOvertime {
		t.Errorf("overrideOverlap 只豁免 error，实际 %+v", got)
	}
	if got := BlockingConflicts(all, false, true); len(got) != 1 || got[0].Type != ConflictTypeOverlap {
		t.Errorf("force 只豁免 warning，实际 %+v", got)
	}
	if got := BlockingConflicts(all, true, true); len(got) != 0 {
		t.Errorf("全部豁免后不应阻断，实际 %+v", got)
	}
}

func TestConflictError_Is(t *testing.T) {
	var err error = &ConflictError{Conflicts: []Conflict{{Type: ConflictTypeOverlap}}}
	if !errors.Is(err, ErrShiftConflict) {
		t.Error("ConflictError 应匹配 ErrShiftConflict")
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || len(ce.Conflicts) != 1 {
		t.Error("应可通过 errors.As 取回冲突明细")
	}
}
