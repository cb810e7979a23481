package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"salon-staff/internal/dto"
	"salon-staff/internal/model"
	"salon-staff/internal/repository"
	"salon-staff/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	icsProductID      = "-//salon-staff//schedule//CN"
	icsFloatingLayout = "20060102T150405"
	icsDateLayout     = "20060102"
)

// ExportService 导出业务接口
//
// 导出内容以 bytes.Buffer 返回，由 Handler 层设置响应头后写入。
type ExportService interface {
	// ExportRoster 区间内全员排班表 (.xlsx)，包含具体班次与未被覆盖的周期发生日
	ExportRoster(ctx context.Context, businessID string, req *dto.ExportShiftsRequest) (*bytes.Buffer, string, error)
	// ExportStaffCalendar 单个员工的日程 (.ics)
	ExportStaffCalendar(ctx context.Context, businessID, staffMemberID string, req *dto.DateRangeRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo       *repository.Repository
	expander   *Expander
	aggregator *AvailabilityAggregator
	maxDays    int
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, expander *Expander, aggregator *AvailabilityAggregator, maxDays int, logger *zap.Logger) ExportService {
	return &exportService{
		repo:       repo,
		expander:   expander,
		aggregator: aggregator,
		maxDays:    maxDays,
		logger:     logger,
	}
}

// rosterRow 排班表中的一行
type rosterRow struct {
	date      time.Time
	staffID   string
	staffName string
	location  string
	start     string
	end       string
	shiftType string
	status    string
	source    string
	notes     string
}

// ═══════════════════════════════════════════════════════════
// ExportRoster 排班表 Excel
// ═══════════════════════════════════════════════════════════
//
// Sheet "排班表"：按 日期 → 开始时间 → 员工 排序，一行一个班次
// Sheet "工时汇总"：每名员工区间内的班次数与总工时（已取消/已拒绝不计）

func (s *exportService) ExportRoster(ctx context.Context, businessID string, req *dto.ExportShiftsRequest) (*bytes.Buffer, string, error) {
	from, to, err := parseDateRange(req.From, req.To, s.maxDays)
	if err != nil {
		return nil, "", err
	}

	// 1. 员工姓名索引
	members, _, err := s.repo.StaffMember.List(ctx, businessID, repository.StaffMemberFilter{}, 0, -1)
	if err != nil {
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, "", err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.StaffMemberID] = m.FullName()
	}

	// 2. 具体班次（含已取消，用于识别覆盖）
	shifts, err := s.repo.Shift.ListInRange(ctx, businessID, from, to, "")
	if err != nil {
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, "", err
	}
	overridden := make(map[string]struct{})
	var rows []rosterRow
	for _, sh := range shifts {
		if sh.RecurringPatternID != nil {
			overridden[overrideKey(*sh.RecurringPatternID, sh.Date)] = struct{}{}
		}
		if !sh.IsActive() || !matchLocation(sh.LocationID, req.LocationID) {
			continue
		}
		name := names[sh.StaffMemberID]
		if sh.StaffMember != nil {
			name = sh.StaffMember.FullName()
		}
		rows = append(rows, rosterRow{
			date:      sh.Date,
			staffID:   sh.StaffMemberID,
			staffName: name,
			location:  derefString(sh.LocationID),
			start:     displayTime(sh.StartTime),
			end:       displayTime(sh.EndTime),
			shiftType: sh.ShiftType,
			status:    sh.Status,
			source:    SlotSourceShift,
			notes:     sh.Notes,
		})
	}

	// 3. 周期模式发生日
	patterns, err := s.repo.Pattern.List(ctx, businessID, "", false)
	if err != nil {
		s.logger.Error("查询周期模式失败", zap.Error(err))
		return nil, "", err
	}
	for i := range patterns {
		p := &patterns[i]
		if !matchLocation(p.LocationID, req.LocationID) {
			continue
		}
		seq, err := s.expander.Expand(p, from, to)
		if err != nil {
			s.logger.Warn("周期模式无法展开，已跳过", zap.String("pattern_id", p.PatternID), zap.Error(err))
			continue
		}
		for occ := range seq {
			if _, ok := overridden[overrideKey(p.PatternID, occ.Date)]; ok {
				continue
			}
			rows = append(rows, rosterRow{
				date:      occ.Date,
				staffID:   p.StaffMemberID,
				staffName: names[p.StaffMemberID],
				location:  derefString(occ.LocationID),
				start:     occ.StartTime,
				end:       occ.EndTime,
				shiftType: occ.ShiftType,
				status:    model.ShiftStatusScheduled,
				source:    SlotSourcePattern,
				notes:     p.Notes,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].date.Equal(rows[j].date) {
			return rows[i].date.Before(rows[j].date)
		}
		if rows[i].start != rows[j].start {
			return rows[i].start < rows[j].start
		}
		return rows[i].staffName < rows[j].staffName
	})

	buf, err := s.writeRoster(rows, from, to)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	filename := fmt.Sprintf("排班表_%s_%s.xlsx", clock.FormatDate(from), clock.FormatDate(to))
	return buf, filename, nil
}

func (s *exportService) writeRoster(rows []rosterRow, from, to time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "排班表"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"日期", "星期", "员工", "门店", "开始", "结束", "班次类型", "状态", "来源", "备注"}
	widths := []float64{12, 8, 18, 38, 8, 8, 10, 10, 18, 30}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("排班表 %s ~ %s", clock.FormatDate(from), clock.FormatDate(to)))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	// 汇总按员工 ID 归并，同名员工分开统计
	type summary struct {
		staffID string
		name    string
		shifts  int
		minutes int
	}
	totals := make(map[string]*summary)
	var staffOrder []*summary

	row := 3
	for _, r := range rows {
		values := []interface{}{
			clock.FormatDate(r.date), weekdayNames[r.date.Weekday()], r.staffName, r.location,
			r.start, r.end, r.shiftType, r.status, r.source, r.notes,
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++

		sum, ok := totals[r.staffID]
		if !ok {
			sum = &summary{staffID: r.staffID, name: r.staffName}
			totals[r.staffID] = sum
			staffOrder = append(staffOrder, sum)
		}
		start, err1 := clock.ParseTimeOfDay(r.start)
		end, err2 := clock.ParseTimeOfDay(r.end)
		if err1 == nil && err2 == nil {
			sum.shifts++
			sum.minutes += end - start
		}
	}

	// 工时汇总
	summarySheet := "工时汇总"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	f.SetColWidth(summarySheet, "A", "A", 18)
	f.SetColWidth(summarySheet, "B", "C", 12)
	f.SetColWidth(summarySheet, "D", "D", 38)
	f.SetCellValue(summarySheet, "A1", "员工")
	f.SetCellValue(summarySheet, "B1", "班次数")
	f.SetCellValue(summarySheet, "C1", "总工时")
	f.SetCellValue(summarySheet, "D1", "员工编号")
	f.SetCellStyle(summarySheet, "A1", "D1", headerStyle)
	sort.Slice(staffOrder, func(i, j int) bool {
		if staffOrder[i].name != staffOrder[j].name {
			return staffOrder[i].name < staffOrder[j].name
		}
		return staffOrder[i].staffID < staffOrder[j].staffID
	})
	for i, sum := range staffOrder {
		f.SetCellValue(summarySheet, cell("A", i+2), sum.name)
		f.SetCellValue(summarySheet, cell("B", i+2), sum.shifts)
		f.SetCellValue(summarySheet, cell("C", i+2), formatMinutes(sum.minutes))
		f.SetCellValue(summarySheet, cell("D", i+2), sum.staffID)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ═══════════════════════════════════════════════════════════
// ExportStaffCalendar 员工日程 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 事件来源与可用性一致：具体班次、未被覆盖的周期发生日、已批准请假。
// 时间为门店本地时间，按浮动时间输出（不带 TZID）；全天请假输出 VALUE=DATE。

func (s *exportService) ExportStaffCalendar(ctx context.Context, businessID, staffMemberID string, req *dto.DateRangeRequest) (*bytes.Buffer, string, error) {
	from, to, err := parseDateRange(req.From, req.To, s.maxDays)
	if err != nil {
		return nil, "", err
	}
	member, err := s.repo.StaffMember.GetByID(ctx, businessID, staffMemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, "", err
	}

	shifts, err := s.repo.Shift.ListByStaffInRange(ctx, businessID, staffMemberID, from, to)
	if err != nil {
		s.logger.Error("查询班次失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, "", err
	}
	patterns, err := s.repo.Pattern.ListActiveByStaff(ctx, businessID, staffMemberID)
	if err != nil {
		s.logger.Error("查询周期模式失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, "", err
	}
	timeOff, err := s.repo.TimeOff.ListApprovedInRange(ctx, businessID, staffMemberID, from, to)
	if err != nil {
		s.logger.Error("查询请假失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, "", err
	}

	slots, err := s.aggregator.Aggregate(shifts, patterns, timeOff, from, to)
	if err != nil {
		s.logger.Error("聚合日程失败", zap.String("staff_member_id", staffMemberID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(member.FullName() + " 排班")

	stamp := time.Now().UTC()
	for _, slot := range slots {
		uid := fmt.Sprintf("%s-%s-%s@salon-staff", slot.Source, slot.ReferenceID, slot.Date.Format(icsDateLayout))
		event := cal.AddEvent(uid)
		event.SetDtStampTime(stamp)

		if slot.AllDay {
			event.SetProperty(ics.ComponentPropertyDtStart, slot.Date.Format(icsDateLayout), ics.WithValue(string(ics.ValueDataTypeDate)))
			event.SetProperty(ics.ComponentPropertyDtEnd, clock.AddDays(slot.Date, 1).Format(icsDateLayout), ics.WithValue(string(ics.ValueDataTypeDate)))
		} else {
			event.SetProperty(ics.ComponentPropertyDtStart, slot.Date.Add(time.Duration(slot.start)*time.Minute).Format(icsFloatingLayout))
			event.SetProperty(ics.ComponentPropertyDtEnd, slot.Date.Add(time.Duration(slot.end)*time.Minute).Format(icsFloatingLayout))
		}

		switch slot.Source {
		case SlotSourceTimeOff:
			event.SetSummary("请假")
			event.SetStatus(ics.ObjectStatusConfirmed)
		default:
			event.SetSummary(fmt.Sprintf("班次 %s-%s (%s)", slot.StartTime, slot.EndTime, slot.ShiftType))
			if slot.LocationID != nil {
				event.SetLocation(*slot.LocationID)
			}
		}
		if slot.Source == SlotSourcePattern {
			event.SetDescription("周期排班")
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("schedule_%s_%s.ics", staffMemberID, clock.FormatDate(from))
	return buf, filename, nil
}

// ── 辅助函数 ──

var weekdayNames = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

func matchLocation(locationID *string, filter string) bool {
	return filter == "" || (locationID != nil && *locationID == filter)
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
