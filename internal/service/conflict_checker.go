package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"salon-staff/internal/model"
	"salon-staff/pkg/clock"
)

// 冲突类型与严重级别
const (
	ConflictTypeOverlap  = "overlap"
	ConflictTypeOvertime = "overtime"
	ConflictTypeLocation = "location_conflict"

	SeverityError   = "error"
	SeverityWarning = "warning"
)

var (
	ErrShiftConflict    = errors.New("班次存在冲突")
	ErrInvalidTimeRange = errors.New("开始时间必须早于结束时间")
)

// Conflict 单条冲突
type Conflict struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	ShiftID  string `json:"shiftId,omitempty"` // 关联的已有班次
}

// ConflictError 携带冲突明细的阻断错误，errors.Is(err, ErrShiftConflict) 成立
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	msgs := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		msgs = append(msgs, c.Type)
	}
	return fmt.Sprintf("%s: %s", ErrShiftConflict.Error(), strings.Join(msgs, ","))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrShiftConflict
}

// CandidateShift 待检测的班次
type CandidateShift struct {
	StaffMemberID  string
	Date           time.Time
	StartTime      string
	EndTime        string
	LocationID     *string
	ExcludeShiftID string // 原地更新时排除自身
}

// ShiftReader 冲突检测所需的最小读取接口
type ShiftReader interface {
	ListByStaffAndDate(ctx context.Context, businessID, staffMemberID string, date time.Time) ([]model.Shift, error)
	ListByLocationAndDate(ctx context.Context, businessID, locationID string, date time.Time) ([]model.Shift, error)
}

// ConflictPolicy 冲突策略阈值，0 表示不检查
type ConflictPolicy struct {
	MaxDailyHours    float64
	LocationCapacity int
}

// ConflictChecker 班次冲突检测
type ConflictChecker struct {
	policy ConflictPolicy
}

// NewConflictChecker 创建 ConflictChecker
func NewConflictChecker(policy ConflictPolicy) *ConflictChecker {
	return &ConflictChecker{policy: policy}
}

// Check 检测候选班次的冲突
//
// 输出顺序固定为 overlap → overtime → location_conflict，
// overlap 按已有班次开始时间排序。已取消/已拒绝的班次不参与检测。
func (c *ConflictChecker) Check(ctx context.Context, shifts ShiftReader, businessID string, cand CandidateShift) ([]Conflict, error) {
	start, err := clock.ParseTimeOfDay(cand.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := clock.ParseTimeOfDay(cand.EndTime)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, ErrInvalidTimeRange
	}
	date := clock.DateOf(cand.Date)

	existing, err := shifts.ListByStaffAndDate(ctx, businessID, cand.StaffMemberID, date)
	if err != nil {
		return nil, err
	}

	type window struct {
		shift      model.Shift
		start, end int
	}
	var active []window
	for _, s := range existing {
		if s.ShiftID == cand.ExcludeShiftID || !s.IsActive() {
			continue
		}
		ws, err1 := clock.ParseTimeOfDay(s.StartTime)
		we, err2 := clock.ParseTimeOfDay(s.EndTime)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("班次 %s 时间数据异常: %s-%s", s.ShiftID, s.StartTime, s.EndTime)
		}
		active = append(active, window{shift: s, start: ws, end: we})
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].start != active[j].start {
			return active[i].start < active[j].start
		}
		return active[i].shift.ShiftID < active[j].shift.ShiftID
	})

	conflicts := make([]Conflict, 0)

	// 1. 时间重叠（半开区间，首尾相接不算）
	for _, w := range active {
		if clock.Overlaps(w.start, w.end, start, end) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictTypeOverlap,
				Severity: SeverityError,
				Message: fmt.Sprintf("与已有班次 %s-%s 时间重叠",
					clock.FormatTimeOfDay(w.start), clock.FormatTimeOfDay(w.end)),
				ShiftID: w.shift.ShiftID,
			})
		}
	}

	// 2. 单日总时长
	if c.policy.MaxDailyHours > 0 {
		total := end - start
		for _, w := range active {
			total += w.end - w.start
		}
		if float64(total) > c.policy.MaxDailyHours*60 {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictTypeOvertime,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("当日排班总时长 %s 超过上限 %g 小时",
					formatMinutes(total), c.policy.MaxDailyHours),
			})
		}
	}

	// 3. 门店容量
	if cand.LocationID != nil && *cand.LocationID != "" && c.policy.LocationCapacity > 0 {
		atLocation, err := shifts.ListByLocationAndDate(ctx, businessID, *cand.LocationID, date)
		if err != nil {
			return nil, err
		}
		others := make(map[string]struct{})
		for _, s := range atLocation {
			if s.ShiftID == cand.ExcludeShiftID || s.StaffMemberID == cand.StaffMemberID || !s.IsActive() {
				continue
			}
			ws, err1 := clock.ParseTimeOfDay(s.StartTime)
			we, err2 := clock.ParseTimeOfDay(s.EndTime)
			if err1 != nil || err2 != nil {
				continue
			}
			if clock.Overlaps(ws, we, start, end) {
				others[s.StaffMemberID] = struct{}{}
			}
		}
		if len(others) >= c.policy.LocationCapacity {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictTypeLocation,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("该时段门店已有 %d 名员工在岗，达到容量上限 %d", len(others), c.policy.LocationCapacity),
			})
		}
	}

	return conflicts, nil
}

// BlockingConflicts 过滤出会阻止写入的冲突
// error 级别需要 overrideOverlap，warning 级别需要 force
func BlockingConflicts(conflicts []Conflict, overrideOverlap, force bool) []Conflict {
	var blocking []Conflict
	for _, c := range conflicts {
		switch c.Severity {
		case SeverityError:
			if !overrideOverlap {
				blocking = append(blocking, c)
			}
		default:
			if !force {
				blocking = append(blocking, c)
			}
		}
	}
	return blocking
}

func formatMinutes(m int) string {
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
