package service

import (
	"fmt"
	"sort"
	"time"

	"salon-staff/internal/model"
	"salon-staff/pkg/clock"
)

// 可用性时段类型与来源
const (
	SlotTypeBusy        = "busy"
	SlotTypeUnavailable = "unavailable"

	SlotSourceShift   = "shift"
	SlotSourcePattern = "recurring_pattern"
	SlotSourceTimeOff = "time_off"
)

// 同一开始时刻的排序优先级
var slotSourceRank = map[string]int{
	SlotSourceShift:   0,
	SlotSourcePattern: 1,
	SlotSourceTimeOff: 2,
}

// AvailabilitySlot 聚合后的单个占用时段
type AvailabilitySlot struct {
	Date        time.Time
	StartTime   string // HH:mm
	EndTime     string // HH:mm
	Type        string
	Source      string
	ReferenceID string // 班次 / 模式 / 请假 ID
	AllDay      bool
	LocationID  *string
	ShiftType   string

	start, end int
}

// AvailabilityAggregator 合并班次、周期模式与已批准请假
// 不访问存储，输入即全部依据
type AvailabilityAggregator struct {
	expander *Expander
}

// NewAvailabilityAggregator 创建 AvailabilityAggregator
func NewAvailabilityAggregator(expander *Expander) *AvailabilityAggregator {
	return &AvailabilityAggregator{expander: expander}
}

// Aggregate 计算 [from, to] 内的占用时段
//
// shifts 应包含区间内全部班次（含已取消），用于识别周期模式的单日覆盖：
// 关联了 recurring_pattern_id 的班次会屏蔽该模式当天的发生，即便它已被取消。
// 已取消/已拒绝的班次本身不输出。只有 approved 的请假参与计算。
// 结果按日期、开始时间、来源（shift < recurring_pattern < time_off）排序，重叠不合并。
func (a *AvailabilityAggregator) Aggregate(
	shifts []model.Shift,
	patterns []model.RecurringShiftPattern,
	timeOff []model.TimeOffRequest,
	from, to time.Time,
) ([]AvailabilitySlot, error) {
	from, to = clock.DateOf(from), clock.DateOf(to)
	slots := make([]AvailabilitySlot, 0)
	if from.After(to) {
		return slots, nil
	}

	// 1. 具体班次 + 覆盖索引
	overridden := make(map[string]struct{})
	for i := range shifts {
		s := &shifts[i]
		date := clock.DateOf(s.Date)
		if date.Before(from) || date.After(to) {
			continue
		}
		if s.RecurringPatternID != nil {
			overridden[overrideKey(*s.RecurringPatternID, date)] = struct{}{}
		}
		if !s.IsActive() {
			continue
		}
		start, err := clock.ParseTimeOfDay(s.StartTime)
		if err != nil {
			return nil, fmt.Errorf("班次 %s 开始时间异常: %w", s.ShiftID, err)
		}
		end, err := clock.ParseTimeOfDay(s.EndTime)
		if err != nil {
			return nil, fmt.Errorf("班次 %s 结束时间异常: %w", s.ShiftID, err)
		}
		slots = append(slots, newSlot(date, start, end, SlotTypeBusy, SlotSourceShift, s.ShiftID, s.LocationID, s.ShiftType))
	}

	// 2. 周期模式发生
	for i := range patterns {
		p := &patterns[i]
		seq, err := a.expander.Expand(p, from, to)
		if err != nil {
			return nil, fmt.Errorf("模式 %s: %w", p.PatternID, err)
		}
		for occ := range seq {
			if _, ok := overridden[overrideKey(occ.PatternID, occ.Date)]; ok {
				continue
			}
			start, _ := clock.ParseTimeOfDay(occ.StartTime)
			end, _ := clock.ParseTimeOfDay(occ.EndTime)
			slots = append(slots, newSlot(occ.Date, start, end, SlotTypeBusy, SlotSourcePattern, occ.PatternID, occ.LocationID, occ.ShiftType))
		}
	}

	// 3. 已批准请假，按天拆分并裁剪到查询区间
	for i := range timeOff {
		r := &timeOff[i]
		if r.Status != model.TimeOffStatusApproved {
			continue
		}
		start, end := 0, clock.EndOfDay
		if !r.IsAllDay {
			if r.StartTime == nil || r.EndTime == nil {
				return nil, fmt.Errorf("请假 %s 缺少时段", r.TimeOffRequestID)
			}
			var err error
			if start, err = clock.ParseTimeOfDay(*r.StartTime); err != nil {
				return nil, fmt.Errorf("请假 %s 开始时间异常: %w", r.TimeOffRequestID, err)
			}
			if end, err = clock.ParseTimeOfDay(*r.EndTime); err != nil {
				return nil, fmt.Errorf("请假 %s 结束时间异常: %w", r.TimeOffRequestID, err)
			}
		}
		first, last := clock.DateOf(r.StartDate), clock.DateOf(r.EndDate)
		if first.Before(from) {
			first = from
		}
		if last.After(to) {
			last = to
		}
		for d := first; !d.After(last); d = clock.AddDays(d, 1) {
			slot := newSlot(d, start, end, SlotTypeUnavailable, SlotSourceTimeOff, r.TimeOffRequestID, nil, "")
			slot.AllDay = r.IsAllDay
			slots = append(slots, slot)
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		x, y := slots[i], slots[j]
		if !x.Date.Equal(y.Date) {
			return x.Date.Before(y.Date)
		}
		if x.start != y.start {
			return x.start < y.start
		}
		if rx, ry := slotSourceRank[x.Source], slotSourceRank[y.Source]; rx != ry {
			return rx < ry
		}
		if x.end != y.end {
			return x.end < y.end
		}
		return x.ReferenceID < y.ReferenceID
	})
	return slots, nil
}

func newSlot(date time.Time, start, end int, typ, source, refID string, locationID *string, shiftType string) AvailabilitySlot {
	return AvailabilitySlot{
		Date:        date,
		StartTime:   clock.FormatTimeOfDay(start),
		EndTime:     clock.FormatTimeOfDay(end),
		Type:        typ,
		Source:      source,
		ReferenceID: refID,
		LocationID:  locationID,
		ShiftType:   shiftType,
		start:       start,
		end:         end,
	}
}

func overrideKey(patternID string, date time.Time) string {
	return patternID + "|" + clock.FormatDate(date)
}
