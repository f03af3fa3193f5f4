package garage

import (
	"math"
	"sort"
	"time"
)

// Status 车辆保养状态（按 nextServiceDate 与当前时间推导）。
type Status string

const (
	StatusNone      Status = "none"      // 未安排下次保养
	StatusOverdue   Status = "overdue"   // 已逾期（严格早于 now）
	StatusDueSoon   Status = "due_soon"  // 30 天窗口内到期
	StatusScheduled Status = "scheduled" // 已安排，窗口之外
)

// DueSoonWindow "即将到期" 的固定前向窗口。
const DueSoonWindow = 30 * 24 * time.Hour

// StatusFor 推导单辆车的保养状态。
// 边界约定：nextServiceDate 恰好等于 now 不算逾期（逾期判断为严格小于）。
// 同一次渲染应只取一次 now，避免同屏状态不一致。
func StatusFor(v Vehicle, now time.Time) Status {
	if v.NextServiceDate == nil {
		return StatusNone
	}
	d := *v.NextServiceDate
	if d.Before(now) {
		return StatusOverdue
	}
	if d.Before(now.Add(DueSoonWindow)) {
		return StatusDueSoon
	}
	return StatusScheduled
}

// Counts 车队级状态统计。
type Counts struct {
	Total   int `json:"total"`
	Overdue int `json:"overdue"`
	DueSoon int `json:"dueSoon"`
}

// FleetCounts 对每辆车应用 StatusFor 并计数。
func FleetCounts(vehicles []Vehicle, now time.Time) Counts {
	c := Counts{Total: len(vehicles)}
	for _, v := range vehicles {
		switch StatusFor(v, now) {
		case StatusOverdue:
			c.Overdue++
		case StatusDueSoon:
			c.DueSoon++
		}
	}
	return c
}

// ProgressToNextService 返回里程进度百分比 round(min(1, cur/next)*100)。
// 任一里程缺失或 next 为 0 时 ok=false（除零按“未定义”处理，不向上游暴露 Inf/NaN）。
func ProgressToNextService(v Vehicle) (int, bool) {
	if v.CurrentMileage == nil || v.NextServiceMileage == nil {
		return 0, false
	}
	next := *v.NextServiceMileage
	if next == 0 {
		return 0, false
	}
	ratio := float64(*v.CurrentMileage) / float64(next)
	if ratio > 1 {
		ratio = 1
	}
	return int(math.Round(ratio * 100)), true
}

// TotalMaintenanceCost 保养总花费，空集合为 0。
func TotalMaintenanceCost(records []ServiceRecord) float64 {
	var sum float64
	for _, r := range records {
		sum += r.Cost
	}
	return sum
}

// MostRecentService 返回日期最大的记录；日期相同取先出现的一条（原始顺序稳定）。
func MostRecentService(records []ServiceRecord) (ServiceRecord, bool) {
	if len(records) == 0 {
		return ServiceRecord{}, false
	}
	latest := records[0]
	for _, r := range records[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}
	return latest, true
}

// UpcomingReminders 未逾期且已安排保养的车辆，按日期升序。
func UpcomingReminders(vehicles []Vehicle, now time.Time) []Vehicle {
	out := make([]Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		switch StatusFor(v, now) {
		case StatusDueSoon, StatusScheduled:
			out = append(out, v)
		}
	}
	sortByNextService(out)
	return out
}

// PastDueReminders 已逾期的车辆，按日期升序（最久未保养在前）。
func PastDueReminders(vehicles []Vehicle, now time.Time) []Vehicle {
	out := make([]Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if StatusFor(v, now) == StatusOverdue {
			out = append(out, v)
		}
	}
	sortByNextService(out)
	return out
}

func sortByNextService(vs []Vehicle) {
	sort.SliceStable(vs, func(i, j int) bool {
		return vs[i].NextServiceDate.Before(*vs[j].NextServiceDate)
	})
}

// ServiceDate 日历视图里的一条保养安排。
type ServiceDate struct {
	Date    time.Time `json:"date"`
	Vehicle Vehicle   `json:"vehicle"`
}

// ServiceDatesIn 列出指定年月内安排了下次保养的车辆，按日期升序。
func ServiceDatesIn(vehicles []Vehicle, year int, month time.Month) []ServiceDate {
	out := make([]ServiceDate, 0)
	for _, v := range vehicles {
		if v.NextServiceDate == nil {
			continue
		}
		d := *v.NextServiceDate
		if d.Year() == year && d.Month() == month {
			out = append(out, ServiceDate{Date: d, Vehicle: v})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Stats 仪表盘聚合，一次推导取同一个 now。
type Stats struct {
	TotalVehicles        int        `json:"totalVehicles"`
	TotalServiceRecords  int        `json:"totalServiceRecords"`
	UpcomingServices     int        `json:"upcomingServices"`
	OverdueServices      int        `json:"overdueServices"`
	TotalMaintenanceCost float64    `json:"totalMaintenanceCost"`
	LastServiceDate      *time.Time `json:"lastServiceDate,omitempty"`
}

// DashboardStats 仪表盘统计：车辆/记录总数、30 天内到期数、逾期数、总花费、最近一次保养日期。
func DashboardStats(vehicles []Vehicle, records []ServiceRecord, now time.Time) Stats {
	counts := FleetCounts(vehicles, now)
	s := Stats{
		TotalVehicles:        counts.Total,
		TotalServiceRecords:  len(records),
		UpcomingServices:     counts.DueSoon,
		OverdueServices:      counts.Overdue,
		TotalMaintenanceCost: TotalMaintenanceCost(records),
	}
	if latest, ok := MostRecentService(records); ok {
		d := latest.Date
		s.LastServiceDate = &d
	}
	return s
}
