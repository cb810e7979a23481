package service

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"salon-staff/internal/model"
	"salon-staff/pkg/clock"
)

// ErrInvalidPattern 周期规则无法解析
var ErrInvalidPattern = errors.New("周期规则无效")

// RecurrenceRule 解析后的重复规则
// 日期均为 UTC 零点
type RecurrenceRule interface {
	Matches(date time.Time) bool
	// Between 返回 [from, to] 内命中的日期，升序且不重复
	Between(from, to time.Time) []time.Time
}

// RuleParser 规则引擎入口，anchor 为模式起始日期
type RuleParser interface {
	ParseRule(rule string, anchor time.Time) (RecurrenceRule, error)
}

// ═══════════════════════════════════════════════════════════
// RRULE 规则引擎（RFC 5545）
// ═══════════════════════════════════════════════════════════

type rruleParser struct{}

// NewRRuleParser 基于 rrule-go 的规则解析器
func NewRRuleParser() RuleParser {
	return rruleParser{}
}

func (rruleParser) ParseRule(rule string, anchor time.Time) (RecurrenceRule, error) {
	body := strings.ToUpper(strings.TrimSpace(rule))
	body = strings.TrimPrefix(body, "RRULE:")
	if body == "" || strings.ContainsAny(body, "\r\n") {
		return nil, ErrInvalidPattern
	}

	keys, err := ruleKeys(body)
	if err != nil {
		return nil, err
	}

	opt, err := rrule.StrToROption(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	// rrule-go 把 INTERVAL=0 当作 1、COUNT<=0 当作不限次数，这里按 RFC 5545 拒绝
	if keys["INTERVAL"] && opt.Interval < 1 {
		return nil, fmt.Errorf("%w: INTERVAL 必须为正整数", ErrInvalidPattern)
	}
	if keys["COUNT"] && opt.Count < 1 {
		return nil, fmt.Errorf("%w: COUNT 必须为正整数", ErrInvalidPattern)
	}
	switch opt.Freq {
	case rrule.HOURLY, rrule.MINUTELY, rrule.SECONDLY:
		// 班次按天排，不支持日内重复
		return nil, fmt.Errorf("%w: 不支持的频率 %v", ErrInvalidPattern, opt.Freq)
	}
	opt.Dtstart = clock.DateOf(anchor)

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return &rruleRule{r: r}, nil
}

// ruleKeys 返回规则体中出现的属性名
// 起始日期由模式自身决定，规则体内的 DTSTART/TZID 会被引擎静默忽略，因此直接拒绝
func ruleKeys(body string) (map[string]bool, error) {
	keys := make(map[string]bool)
	for _, part := range strings.Split(body, ";") {
		key, _, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: 无法识别的片段 %q", ErrInvalidPattern, part)
		}
		switch key {
		case "DTSTART", "TZID":
			return nil, fmt.Errorf("%w: 规则中不能包含 %s", ErrInvalidPattern, key)
		}
		if keys[key] {
			return nil, fmt.Errorf("%w: 属性 %s 重复", ErrInvalidPattern, key)
		}
		keys[key] = true
	}
	return keys, nil
}

type rruleRule struct {
	r *rrule.RRule
}

func (x *rruleRule) Matches(date time.Time) bool {
	d := clock.DateOf(date)
	return len(x.Between(d, d)) > 0
}

func (x *rruleRule) Between(from, to time.Time) []time.Time {
	from = clock.DateOf(from)
	// 覆盖 to 当天的全部时刻
	end := clock.AddDays(to, 1).Add(-time.Nanosecond)

	var dates []time.Time
	for _, t := range x.r.Between(from, end, true) {
		d := clock.DateOf(t)
		if n := len(dates); n > 0 && dates[n-1].Equal(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// ═══════════════════════════════════════════════════════════
// Expander 周期模式展开
// ═══════════════════════════════════════════════════════════

// Occurrence 周期模式在某一天生成的具体班次
type Occurrence struct {
	PatternID     string
	StaffMemberID string
	LocationID    *string
	Date          time.Time
	StartTime     string // HH:mm
	EndTime       string // HH:mm
	ShiftType     string
}

// Expander 将周期模式展开为具体日期
type Expander struct {
	parser RuleParser
}

// NewExpander 创建 Expander
func NewExpander(parser RuleParser) *Expander {
	return &Expander{parser: parser}
}

// Validate 校验规则与时间窗口是否合法
func (e *Expander) Validate(p *model.RecurringShiftPattern) error {
	_, _, _, err := e.prepare(p)
	return err
}

// Expand 返回模式在 [rangeStart, rangeEnd] 内的发生序列
//
// 只输出同时满足以下条件的日期，按日期升序：
//   - 规则命中
//   - 位于 [StartDate, EndDate 或 +∞]
//   - 位于查询区间
//
// 停用的模式返回空序列。序列只依赖入参快照，可重复遍历。
func (e *Expander) Expand(p *model.RecurringShiftPattern, rangeStart, rangeEnd time.Time) (iter.Seq[Occurrence], error) {
	rule, startTime, endTime, err := e.prepare(p)
	if err != nil {
		return nil, err
	}

	from := clock.DateOf(rangeStart)
	if start := clock.DateOf(p.StartDate); start.After(from) {
		from = start
	}
	to := clock.DateOf(rangeEnd)
	if p.EndDate != nil {
		if end := clock.DateOf(*p.EndDate); end.Before(to) {
			to = end
		}
	}

	if !p.IsActive || from.After(to) {
		return func(func(Occurrence) bool) {}, nil
	}

	tmpl := Occurrence{
		PatternID:     p.PatternID,
		StaffMemberID: p.StaffMemberID,
		StartTime:     startTime,
		EndTime:       endTime,
		ShiftType:     p.ShiftType,
	}
	if p.LocationID != nil {
		loc := *p.LocationID
		tmpl.LocationID = &loc
	}

	return func(yield func(Occurrence) bool) {
		for _, d := range rule.Between(from, to) {
			occ := tmpl
			occ.Date = d
			if !yield(occ) {
				return
			}
		}
	}, nil
}

func (e *Expander) prepare(p *model.RecurringShiftPattern) (RecurrenceRule, string, string, error) {
	rule, err := e.parser.ParseRule(p.RecurrenceRule, p.StartDate)
	if err != nil {
		return nil, "", "", err
	}
	start, err := clock.ParseTimeOfDay(p.StartTime)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	end, err := clock.ParseTimeOfDay(p.EndTime)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	if start >= end {
		return nil, "", "", fmt.Errorf("%w: 开始时间必须早于结束时间", ErrInvalidPattern)
	}
	return rule, clock.FormatTimeOfDay(start), clock.FormatTimeOfDay(end), nil
}
