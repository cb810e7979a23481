// Package clock 处理门店本地的日期与时刻（无时区）。
//
// 日期统一表示为 UTC 零点的 time.Time，时刻表示为当天的分钟数。
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout 对外日期格式 yyyy-MM-dd
const DateLayout = "2006-01-02"

// EndOfDay 全天请假在可用性中使用的结束时刻 23:59
const EndOfDay = 23*60 + 59

var (
	ErrInvalidDate = errors.New("日期格式无效，应为 yyyy-MM-dd")
	ErrInvalidTime = errors.New("时间格式无效，应为 HH:mm")
)

// ParseDate 解析 yyyy-MM-dd
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate 输出 yyyy-MM-dd
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf 截断为同一日历日的 UTC 零点
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays 日期加减天数
func AddDays(t time.Time, days int) time.Time {
	return DateOf(t).AddDate(0, 0, days)
}

// DaysBetween 返回 to - from 的天数（同为日期时精确）
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// ParseTimeOfDay 解析 "HH:mm" 或数据库返回的 "HH:mm:ss"，返回当天分钟数
func ParseTimeOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) > 2 || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}
	return h*60 + m, nil
}

// FormatTimeOfDay 分钟数 → "HH:mm"
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeTime 统一为 "HH:mm"
func NormalizeTime(s string) (string, error) {
	m, err := ParseTimeOfDay(s)
	if err != nil {
		return "", err
	}
	return FormatTimeOfDay(m), nil
}

// Overlaps 半开区间 [aStart, aEnd) 与 [bStart, bEnd) 是否相交，首尾相接不算
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
