package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"salon-staff/internal/model"
	"salon-staff/internal/repository"
	pkgerrors "salon-staff/pkg/errors"
)

// ── 测试仓储聚合 ──

type testRepos struct {
	staff       *mockStaffMemberRepo
	locations   *mockStaffLocationRepo
	services    *mockStaffServiceRepo
	invitations *mockInvitationRepo
	roles       *mockRoleRepo
	shifts      *mockShiftRepo
	changeLogs  *mockShiftChangeLogRepo
	patterns    *mockPatternRepo
	timeOff     *mockTimeOffRepo
	tx          *mockTransactor
}

// newTestRepos 创建互相关联的 mock 仓储
// 与真实实现一致：员工被删除后其名下数据对查询不可见
func newTestRepos() (*repository.Repository, *testRepos) {
	m := &testRepos{
		staff:       &mockStaffMemberRepo{members: make(map[string]*model.StaffMember)},
		roles:       &mockRoleRepo{roles: make(map[string]*model.Role)},
		services:    &mockStaffServiceRepo{},
		invitations: &mockInvitationRepo{invitations: make(map[string]*model.StaffInvitation)},
		changeLogs:  &mockShiftChangeLogRepo{},
		tx:          &mockTransactor{},
	}
	m.locations = &mockStaffLocationRepo{roles: m.roles, staff: m.staff}
	m.staff.locations = m.locations
	m.staff.services = m.services
	m.shifts = &mockShiftRepo{shifts: make(map[string]*model.Shift), staff: m.staff}
	m.patterns = &mockPatternRepo{patterns: make(map[string]*model.RecurringShiftPattern), staff: m.staff}
	m.timeOff = &mockTimeOffRepo{requests: make(map[string]*model.TimeOffRequest), staff: m.staff}

	repo := &repository.Repository{
		StaffMember:    m.staff,
		StaffLocation:  m.locations,
		StaffService:   m.services,
		Invitation:     m.invitations,
		Role:           m.roles,
		Shift:          m.shifts,
		ShiftChangeLog: m.changeLogs,
		Pattern:        m.patterns,
		TimeOff:        m.timeOff,
		Tx:             m.tx,
	}
	m.tx.repo = repo
	return repo, m
}

var mockSeq int

func nextMockID(prefix string) string {
	mockSeq++
	return fmt.Sprintf("%s-%04d", prefix, mockSeq)
}

// ── Mock Transactor ──

type mockTransactor struct {
	repo        *repository.Repository
	lockedStaff []string
}

func (m *mockTransactor) InTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(m.repo)
}

func (m *mockTransactor) WithStaffLock(_ context.Context, staffMemberID string, fn func(tx *repository.Repository) error) error {
	m.lockedStaff = append(m.lockedStaff, staffMemberID)
	return fn(m.repo)
}

// ── Mock StaffMemberRepository ──

type mockStaffMemberRepo struct {
	members   map[string]*model.StaffMember
	locations *mockStaffLocationRepo
	services  *mockStaffServiceRepo
}

func (m *mockStaffMemberRepo) visible(businessID, staffMemberID string) bool {
	s, ok := m.members[staffMemberID]
	return ok && s.BusinessID == businessID && !s.DeletedAt.Valid
}

func (m *mockStaffMemberRepo) Create(_ context.Context, member *model.StaffMember) error {
	if member.StaffMemberID == "" {
		member.StaffMemberID = nextMockID("staff")
	}
	for _, s := range m.members {
		if member.UserID != nil && s.UserID != nil && *s.UserID == *member.UserID &&
			s.BusinessID == member.BusinessID && !s.DeletedAt.Valid {
			return pkgerrors.ErrDuplicate
		}
	}
	now := time.Now()
	member.CreatedAt, member.UpdatedAt = now, now
	m.members[member.StaffMemberID] = member
	return nil
}

func (m *mockStaffMemberRepo) GetByID(ctx context.Context, businessID, id string) (*model.StaffMember, error) {
	if !m.visible(businessID, id) {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.members[id]
	cp.Locations, _ = m.locations.ListByStaff(ctx, businessID, id)
	cp.Services, _ = m.services.ListByStaff(ctx, businessID, id)
	return &cp, nil
}

func (m *mockStaffMemberRepo) LinkUser(_ context.Context, businessID, id, userID string) (bool, error) {
	if !m.visible(businessID, id) || m.members[id].UserID != nil {
		return false, nil
	}
	for _, s := range m.members {
		if s.BusinessID == businessID && s.UserID != nil && *s.UserID == userID && !s.DeletedAt.Valid {
			return false, pkgerrors.ErrDuplicate
		}
	}
	m.members[id].UserID = &userID
	m.members[id].UpdatedBy = &userID
	return true, nil
}

func (m *mockStaffMemberRepo) GetByUserID(_ context.Context, businessID, userID string) (*model.StaffMember, error) {
	for _, s := range m.members {
		if s.BusinessID == businessID && s.UserID != nil && *s.UserID == userID && !s.DeletedAt.Valid {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffMemberRepo) List(ctx context.Context, businessID string, filter repository.StaffMemberFilter, offset, limit int) ([]model.StaffMember, int64, error) {
	var result []model.StaffMember
	for _, s := range m.members {
		if !m.visible(businessID, s.StaffMemberID) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.Bookable != nil && s.IsBookable != *filter.Bookable {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(s.FullName()+" "+s.Email), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.LocationID != "" {
			found := false
			for _, l := range m.locations.items {
				if l.StaffMemberID == s.StaffMemberID && l.LocationID == filter.LocationID {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		cp := *s
		cp.Locations, _ = m.locations.ListByStaff(ctx, businessID, s.StaffMemberID)
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName() < result[j].FullName() })
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockStaffMemberRepo) Update(_ context.Context, member *model.StaffMember) error {
	if existing, ok := m.members[member.StaffMemberID]; ok {
		cp := *member
		cp.Locations, cp.Services = nil, nil
		cp.CreatedAt = existing.CreatedAt
		cp.UpdatedAt = time.Now()
		m.members[member.StaffMemberID] = &cp
	}
	return nil
}

func (m *mockStaffMemberRepo) Delete(_ context.Context, businessID, id, _ string) error {
	if s, ok := m.members[id]; ok && s.BusinessID == businessID {
		s.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return nil
}

// ── Mock StaffLocationRepository ──

type mockStaffLocationRepo struct {
	items []model.StaffLocation
	roles *mockRoleRepo
	staff *mockStaffMemberRepo
}

func (m *mockStaffLocationRepo) withRole(l model.StaffLocation) model.StaffLocation {
	if l.RoleID != nil {
		if r, ok := m.roles.roles[*l.RoleID]; ok && !r.DeletedAt.Valid {
			cp := *r
			l.Role = &cp
		}
	}
	return l
}

func (m *mockStaffLocationRepo) ListByStaff(_ context.Context, businessID, staffMemberID string) ([]model.StaffLocation, error) {
	var result []model.StaffLocation
	if !m.staff.visible(businessID, staffMemberID) {
		return result, nil
	}
	for _, l := range m.items {
		if l.BusinessID == businessID && l.StaffMemberID == staffMemberID {
			result = append(result, m.withRole(l))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].IsPrimary && !result[j].IsPrimary })
	return result, nil
}

func (m *mockStaffLocationRepo) GetAssignment(_ context.Context, businessID, staffMemberID, locationID string) (*model.StaffLocation, error) {
	if !m.staff.visible(businessID, staffMemberID) {
		return nil, gorm.ErrRecordNotFound
	}
	for _, l := range m.items {
		if l.BusinessID == businessID && l.StaffMemberID == staffMemberID && l.LocationID == locationID {
			cp := m.withRole(l)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffLocationRepo) ReplaceForStaff(_ context.Context, businessID, staffMemberID string, items []model.StaffLocation) error {
	kept := m.items[:0]
	for _, l := range m.items {
		if !(l.BusinessID == businessID && l.StaffMemberID == staffMemberID) {
			kept = append(kept, l)
		}
	}
	m.items = append(kept, items...)
	return nil
}

func (m *mockStaffLocationRepo) CountByRole(_ context.Context, businessID, roleID string) (int64, error) {
	var n int64
	for _, l := range m.items {
		if l.BusinessID == businessID && l.RoleID != nil && *l.RoleID == roleID && m.staff.visible(businessID, l.StaffMemberID) {
			n++
		}
	}
	return n, nil
}

// ── Mock StaffServiceRepository ──

type mockStaffServiceRepo struct {
	items []model.StaffService
}

func (m *mockStaffServiceRepo) ListByStaff(_ context.Context, businessID, staffMemberID string) ([]model.StaffService, error) {
	var result []model.StaffService
	for _, s := range m.items {
		if s.BusinessID == businessID && s.StaffMemberID == staffMemberID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockStaffServiceRepo) ReplaceForStaff(_ context.Context, businessID, staffMemberID string, items []model.StaffService) error {
	kept := m.items[:0]
	for _, s := range m.items {
		if !(s.BusinessID == businessID && s.StaffMemberID == staffMemberID) {
			kept = append(kept, s)
		}
	}
	m.items = append(kept, items...)
	return nil
}

// ── Mock StaffInvitationRepository ──

type mockInvitationRepo struct {
	invitations map[string]*model.StaffInvitation
	// beforeAccept 模拟检查与条件更新之间的并发写入
	beforeAccept func()
}

func (m *mockInvitationRepo) Create(_ context.Context, inv *model.StaffInvitation) error {
	if inv.InvitationID == "" {
		inv.InvitationID = nextMockID("inv")
	}
	m.invitations[inv.InvitationID] = inv
	return nil
}

func (m *mockInvitationRepo) GetByID(_ context.Context, businessID, id string) (*model.StaffInvitation, error) {
	if inv, ok := m.invitations[id]; ok && inv.BusinessID == businessID {
		cp := *inv
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) Update(_ context.Context, inv *model.StaffInvitation) error {
	cp := *inv
	m.invitations[inv.InvitationID] = &cp
	return nil
}

func (m *mockInvitationRepo) Accept(_ context.Context, businessID, id, userID string, at time.Time) (bool, error) {
	if m.beforeAccept != nil {
		m.beforeAccept()
	}
	inv, ok := m.invitations[id]
	if !ok || inv.BusinessID != businessID || inv.Status != model.InvitationStatusPending {
		return false, nil
	}
	inv.Status = model.InvitationStatusAccepted
	inv.AcceptedAt = &at
	inv.AcceptedUserID = &userID
	inv.UpdatedBy = &userID
	return true, nil
}

func (m *mockInvitationRepo) RevokePending(_ context.Context, businessID, staffMemberID, _ string) error {
	for _, inv := range m.invitations {
		if inv.BusinessID == businessID && inv.StaffMemberID == staffMemberID && inv.Status == model.InvitationStatusPending {
			inv.Status = model.InvitationStatusRevoked
		}
	}
	return nil
}

// ── Mock RoleRepository ──

type mockRoleRepo struct {
	roles map[string]*model.Role
}

func (m *mockRoleRepo) Create(_ context.Context, role *model.Role) error {
	for _, r := range m.roles {
		if r.BusinessID == role.BusinessID && strings.EqualFold(r.Name, role.Name) && !r.DeletedAt.Valid {
			return pkgerrors.ErrDuplicate
		}
	}
	if role.RoleID == "" {
		role.RoleID = nextMockID("role")
	}
	if role.Version == 0 {
		role.Version = 1
	}
	cp := *role
	m.roles[role.RoleID] = &cp
	return nil
}

func (m *mockRoleRepo) GetByID(_ context.Context, businessID, id string) (*model.Role, error) {
	if r, ok := m.roles[id]; ok && r.BusinessID == businessID && !r.DeletedAt.Valid {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoleRepo) GetByName(_ context.Context, businessID, name string) (*model.Role, error) {
	for _, r := range m.roles {
		if r.BusinessID == businessID && strings.EqualFold(r.Name, name) && !r.DeletedAt.Valid {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoleRepo) List(_ context.Context, businessID string) ([]model.Role, error) {
	var result []model.Role
	for _, r := range m.roles {
		if r.BusinessID == businessID && !r.DeletedAt.Valid {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockRoleRepo) Update(_ context.Context, role *model.Role) error {
	existing, ok := m.roles[role.RoleID]
	if !ok || existing.Version != role.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for _, r := range m.roles {
		if r.RoleID != role.RoleID && r.BusinessID == role.BusinessID && strings.EqualFold(r.Name, role.Name) && !r.DeletedAt.Valid {
			return pkgerrors.ErrDuplicate
		}
	}
	role.Version++
	cp := *role
	m.roles[role.RoleID] = &cp
	return nil
}

func (m *mockRoleRepo) Delete(_ context.Context, _, id, _ string) error {
	if r, ok := m.roles[id]; ok {
		r.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
	staff  *mockStaffMemberRepo
}

func (m *mockShiftRepo) each(businessID string, fn func(s *model.Shift)) {
	ids := make([]string, 0, len(m.shifts))
	for id := range m.shifts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s := m.shifts[id]
		if s.BusinessID == businessID && !s.DeletedAt.Valid && m.staff.visible(businessID, s.StaffMemberID) {
			fn(s)
		}
	}
}

func sortShifts(shifts []model.Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		if !shifts[i].Date.Equal(shifts[j].Date) {
			return shifts[i].Date.Before(shifts[j].Date)
		}
		return shifts[i].StartTime < shifts[j].StartTime
	})
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.RecurringPatternID != nil {
		for _, s := range m.shifts {
			if s.RecurringPatternID != nil && *s.RecurringPatternID == *shift.RecurringPatternID &&
				s.Date.Equal(shift.Date) && !s.DeletedAt.Valid {
				return pkgerrors.ErrDuplicate
			}
		}
	}
	if shift.ShiftID == "" {
		shift.ShiftID = nextMockID("shift")
	}
	now := time.Now()
	shift.CreatedAt, shift.UpdatedAt = now, now
	cp := *shift
	m.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, businessID, id string) (*model.Shift, error) {
	var found *model.Shift
	m.each(businessID, func(s *model.Shift) {
		if s.ShiftID == id {
			cp := *s
			found = &cp
		}
	})
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (m *mockShiftRepo) List(_ context.Context, businessID string, filter repository.ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	var result []model.Shift
	m.each(businessID, func(s *model.Shift) {
		if filter.StaffMemberID != "" && s.StaffMemberID != filter.StaffMemberID {
			return
		}
		if filter.LocationID != "" && (s.LocationID == nil || *s.LocationID != filter.LocationID) {
			return
		}
		if filter.Status != "" && s.Status != filter.Status {
			return
		}
		if filter.From != nil && s.Date.Before(*filter.From) {
			return
		}
		if filter.To != nil && s.Date.After(*filter.To) {
			return
		}
		result = append(result, *s)
	})
	sortShifts(result)
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockShiftRepo) ListByStaffAndDate(_ context.Context, businessID, staffMemberID string, date time.Time) ([]model.Shift, error) {
	var result []model.Shift
	m.each(businessID, func(s *model.Shift) {
		if s.StaffMemberID == staffMemberID && s.Date.Equal(date) {
			result = append(result, *s)
		}
	})
	sortShifts(result)
	return result, nil
}

func (m *mockShiftRepo) ListByLocationAndDate(_ context.Context, businessID, locationID string, date time.Time) ([]model.Shift, error) {
	var result []model.Shift
	m.each(businessID, func(s *model.Shift) {
		if s.LocationID != nil && *s.LocationID == locationID && s.Date.Equal(date) {
			result = append(result, *s)
		}
	})
	sortShifts(result)
	return result, nil
}

func (m *mockShiftRepo) ListByStaffInRange(_ context.Context, businessID, staffMemberID string, from, to time.Time) ([]model.Shift, error) {
	var result []model.Shift
	m.each(businessID, func(s *model.Shift) {
		if s.StaffMemberID == staffMemberID && !s.Date.Before(from) && !s.Date.After(to) {
			result = append(result, *s)
		}
	})
	sortShifts(result)
	return result, nil
}

func (m *mockShiftRepo) ListInRange(_ context.Context, businessID string, from, to time.Time, locationID string) ([]model.Shift, error) {
	var result []model.Shift
	m.each(businessID, func(s *model.Shift) {
		if s.Date.Before(from) || s.Date.After(to) {
			return
		}
		if locationID != "" && (s.LocationID == nil || *s.LocationID != locationID) {
			return
		}
		cp := *s
		if member, ok := m.staff.members[s.StaffMemberID]; ok {
			mc := *member
			cp.StaffMember = &mc
		}
		result = append(result, cp)
	})
	sortShifts(result)
	return result, nil
}

func (m *mockShiftRepo) GetOverride(_ context.Context, businessID, patternID string, date time.Time) (*model.Shift, error) {
	var found *model.Shift
	m.each(businessID, func(s *model.Shift) {
		if s.RecurringPatternID != nil && *s.RecurringPatternID == patternID && s.Date.Equal(date) {
			cp := *s
			found = &cp
		}
	})
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	if existing, ok := m.shifts[shift.ShiftID]; ok {
		cp := *shift
		cp.CreatedAt = existing.CreatedAt
		cp.UpdatedAt = time.Now()
		m.shifts[shift.ShiftID] = &cp
	}
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, businessID, id, _ string) error {
	if s, ok := m.shifts[id]; ok && s.BusinessID == businessID {
		s.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return nil
}

// ── Mock ShiftChangeLogRepository ──

type mockShiftChangeLogRepo struct {
	logs []model.ShiftChangeLog
}

func (m *mockShiftChangeLogRepo) Create(_ context.Context, log *model.ShiftChangeLog) error {
	if log.ChangeLogID == "" {
		log.ChangeLogID = nextMockID("log")
	}
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockShiftChangeLogRepo) List(_ context.Context, businessID, shiftID string, offset, limit int) ([]model.ShiftChangeLog, int64, error) {
	var result []model.ShiftChangeLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if l.BusinessID == businessID && (shiftID == "" || l.ShiftID == shiftID) {
			result = append(result, l)
		}
	}
	return paginate(result, offset, limit), int64(len(result)), nil
}

// ── Mock RecurringPatternRepository ──

type mockPatternRepo struct {
	patterns map[string]*model.RecurringShiftPattern
	staff    *mockStaffMemberRepo
}

func (m *mockPatternRepo) Create(_ context.Context, p *model.RecurringShiftPattern) error {
	if p.PatternID == "" {
		p.PatternID = nextMockID("pat")
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	m.patterns[p.PatternID] = &cp
	return nil
}

func (m *mockPatternRepo) GetByID(_ context.Context, businessID, id string) (*model.RecurringShiftPattern, error) {
	if p, ok := m.patterns[id]; ok && p.BusinessID == businessID && !p.DeletedAt.Valid && m.staff.visible(businessID, p.StaffMemberID) {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatternRepo) List(_ context.Context, businessID, staffMemberID string, includeInactive bool) ([]model.RecurringShiftPattern, error) {
	var result []model.RecurringShiftPattern
	for _, p := range m.patterns {
		if p.BusinessID != businessID || p.DeletedAt.Valid || !m.staff.visible(businessID, p.StaffMemberID) {
			continue
		}
		if staffMemberID != "" && p.StaffMemberID != staffMemberID {
			continue
		}
		if !includeInactive && !p.IsActive {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PatternID < result[j].PatternID })
	return result, nil
}

func (m *mockPatternRepo) ListActiveByStaff(ctx context.Context, businessID, staffMemberID string) ([]model.RecurringShiftPattern, error) {
	return m.List(ctx, businessID, staffMemberID, false)
}

func (m *mockPatternRepo) Update(_ context.Context, p *model.RecurringShiftPattern) error {
	if existing, ok := m.patterns[p.PatternID]; ok {
		cp := *p
		cp.CreatedAt = existing.CreatedAt
		cp.UpdatedAt = time.Now()
		m.patterns[p.PatternID] = &cp
	}
	return nil
}

func (m *mockPatternRepo) Delete(_ context.Context, businessID, id, _ string) error {
	if p, ok := m.patterns[id]; ok && p.BusinessID == businessID {
		p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return nil
}

func (m *mockPatternRepo) DeactivateByStaff(_ context.Context, businessID, staffMemberID, _ string) error {
	for _, p := range m.patterns {
		if p.BusinessID == businessID && p.StaffMemberID == staffMemberID {
			p.IsActive = false
		}
	}
	return nil
}

// ── Mock TimeOffRequestRepository ──

type mockTimeOffRepo struct {
	requests map[string]*model.TimeOffRequest
	staff    *mockStaffMemberRepo
}

func (m *mockTimeOffRepo) Create(_ context.Context, req *model.TimeOffRequest) error {
	if req.TimeOffRequestID == "" {
		req.TimeOffRequestID = nextMockID("tor")
	}
	if req.Version == 0 {
		req.Version = 1
	}
	now := time.Now()
	req.CreatedAt, req.UpdatedAt = now, now
	cp := *req
	m.requests[req.TimeOffRequestID] = &cp
	return nil
}

func (m *mockTimeOffRepo) GetByID(_ context.Context, businessID, id string) (*model.TimeOffRequest, error) {
	if r, ok := m.requests[id]; ok && r.BusinessID == businessID && m.staff.visible(businessID, r.StaffMemberID) {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeOffRepo) List(_ context.Context, businessID string, filter repository.TimeOffFilter, offset, limit int) ([]model.TimeOffRequest, int64, error) {
	var result []model.TimeOffRequest
	for _, r := range m.requests {
		if r.BusinessID != businessID || !m.staff.visible(businessID, r.StaffMemberID) {
			continue
		}
		if filter.StaffMemberID != "" && r.StaffMemberID != filter.StaffMemberID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.From != nil && r.EndDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && r.StartDate.After(*filter.To) {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockTimeOffRepo) ListApprovedInRange(_ context.Context, businessID, staffMemberID string, from, to time.Time) ([]model.TimeOffRequest, error) {
	var result []model.TimeOffRequest
	for _, r := range m.requests {
		if r.BusinessID == businessID && r.StaffMemberID == staffMemberID &&
			r.Status == model.TimeOffStatusApproved &&
			!r.StartDate.After(to) && !r.EndDate.Before(from) &&
			m.staff.visible(businessID, staffMemberID) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (m *mockTimeOffRepo) UpdateStatus(_ context.Context, req *model.TimeOffRequest) error {
	existing, ok := m.requests[req.TimeOffRequestID]
	if !ok || existing.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	cp := *req
	m.requests[req.TimeOffRequestID] = &cp
	return nil
}

// ── 通用 ──

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// seedStaff 写入一个在职员工
func seedStaff(m *testRepos, id, businessID string, userID *string) *model.StaffMember {
	s := &model.StaffMember{
		StaffMemberID:   id,
		BusinessID:      businessID,
		UserID:          userID,
		FirstName:       "Staff",
		LastName:        id,
		PermissionLevel: model.PermissionLevelEmployee,
		Status:          model.StaffStatusActive,
		IsBookable:      true,
	}
	m.staff.members[id] = s
	return s
}
