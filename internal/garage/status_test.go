package garage

import (
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

func vehicleDueAt(d *time.Time) Vehicle {
	return Vehicle{ID: "v", Make: "Toyota", Model: "Camry", Year: 2018, LicensePlate: "ABC-1234", NextServiceDate: d}
}

func TestStatusFor(t *testing.T) {
	if got := StatusFor(vehicleDueAt(nil), testNow); got != StatusNone {
		t.Fatalf("expected none, got %s", got)
	}

	yesterday := testNow.Add(-24 * time.Hour)
	if got := StatusFor(vehicleDueAt(&yesterday), testNow); got != StatusOverdue {
		t.Fatalf("expected overdue, got %s", got)
	}

	in10 := testNow.Add(10 * 24 * time.Hour)
	if got := StatusFor(vehicleDueAt(&in10), testNow); got != StatusDueSoon {
		t.Fatalf("expected due_soon, got %s", got)
	}

	in40 := testNow.Add(40 * 24 * time.Hour)
	if got := StatusFor(vehicleDueAt(&in40), testNow); got != StatusScheduled {
		t.Fatalf("expected scheduled, got %s", got)
	}
}

func TestStatusForExactNowIsNotOverdue(t *testing.T) {
	// 边界：恰好等于 now 不算逾期（判定为严格小于）。
	at := testNow
	if got := StatusFor(vehicleDueAt(&at), testNow); got == StatusOverdue {
		t.Fatalf("date equal to now must not be overdue, got %s", got)
	}
	if got := StatusFor(vehicleDueAt(&at), testNow); got != StatusDueSoon {
		t.Fatalf("date equal to now falls in the 30-day window, got %s", got)
	}
}

func TestFleetCounts(t *testing.T) {
	if got := (Counts{}); FleetCounts(nil, testNow) != got {
		t.Fatalf("empty fleet must count zero, got %+v", FleetCounts(nil, testNow))
	}

	past := testNow.Add(-48 * time.Hour)
	soon := testNow.Add(5 * 24 * time.Hour)
	later := testNow.Add(90 * 24 * time.Hour)
	fleet := []Vehicle{
		vehicleDueAt(&past),
		vehicleDueAt(&soon),
		vehicleDueAt(&later),
		vehicleDueAt(nil),
	}
	c := FleetCounts(fleet, testNow)
	if c.Total != 4 || c.Overdue != 1 || c.DueSoon != 1 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

func TestProgressToNextService(t *testing.T) {
	v := Vehicle{CurrentMileage: intPtr(52345), NextServiceMileage: intPtr(60000)}
	got, ok := ProgressToNextService(v)
	if !ok || got != 87 {
		t.Fatalf("expected 87, got %d ok=%v", got, ok)
	}

	v = Vehicle{CurrentMileage: intPtr(70000), NextServiceMileage: intPtr(60000)}
	got, ok = ProgressToNextService(v)
	if !ok || got != 100 {
		t.Fatalf("progress caps at 100, got %d ok=%v", got, ok)
	}

	// next 里程为 0：未定义，不得出现 Inf/NaN。
	v = Vehicle{CurrentMileage: intPtr(100), NextServiceMileage: intPtr(0)}
	if _, ok := ProgressToNextService(v); ok {
		t.Fatalf("zero next-service mileage must be undefined")
	}
	if _, ok := ProgressToNextService(Vehicle{}); ok {
		t.Fatalf("missing mileage fields must be undefined")
	}
}

func TestTotalMaintenanceCost(t *testing.T) {
	if got := TotalMaintenanceCost(nil); got != 0 {
		t.Fatalf("empty records must cost 0, got %v", got)
	}
	records := []ServiceRecord{
		{Cost: 65.99},
		{Cost: 260.50},
		{Cost: 29.99},
	}
	if got := TotalMaintenanceCost(records); math.Abs(got-356.48) > 1e-9 {
		t.Fatalf("expected 356.48, got %v", got)
	}
}

func TestMostRecentService(t *testing.T) {
	if _, ok := MostRecentService(nil); ok {
		t.Fatalf("empty records must have no recent service")
	}

	d1 := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	records := []ServiceRecord{
		{ID: "a", Date: d1},
		{ID: "b", Date: d2},
		{ID: "c", Date: d2}, // 日期并列，取先出现的一条
	}
	latest, ok := MostRecentService(records)
	if !ok || latest.ID != "b" {
		t.Fatalf("expected record b, got %s ok=%v", latest.ID, ok)
	}
}

func TestReminderLists(t *testing.T) {
	past := testNow.Add(-24 * time.Hour)
	soon := testNow.Add(3 * 24 * time.Hour)
	later := testNow.Add(60 * 24 * time.Hour)
	fleet := []Vehicle{
		vehicleDueAt(&later),
		vehicleDueAt(&past),
		vehicleDueAt(&soon),
		vehicleDueAt(nil),
	}

	up := UpcomingReminders(fleet, testNow)
	if len(up) != 2 {
		t.Fatalf("expected 2 upcoming, got %d", len(up))
	}
	if !up[0].NextServiceDate.Equal(soon) || !up[1].NextServiceDate.Equal(later) {
		t.Fatalf("upcoming not sorted by date")
	}

	due := PastDueReminders(fleet, testNow)
	if len(due) != 1 || !due[0].NextServiceDate.Equal(past) {
		t.Fatalf("unexpected past-due list: %+v", due)
	}
}

func TestServiceDatesIn(t *testing.T) {
	june := datePtr(2025, time.June, 15)
	july := datePtr(2025, time.July, 10)
	fleet := []Vehicle{vehicleDueAt(july), vehicleDueAt(june), vehicleDueAt(nil)}

	got := ServiceDatesIn(fleet, 2025, time.June)
	if len(got) != 1 || !got[0].Date.Equal(*june) {
		t.Fatalf("unexpected june entries: %+v", got)
	}
	if entries := ServiceDatesIn(fleet, 2025, time.March); len(entries) != 0 {
		t.Fatalf("expected no march entries")
	}
}

func TestDashboardStats(t *testing.T) {
	past := testNow.Add(-24 * time.Hour)
	soon := testNow.Add(10 * 24 * time.Hour)
	fleet := []Vehicle{vehicleDueAt(&past), vehicleDueAt(&soon)}
	records := []ServiceRecord{
		{ID: "a", Date: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), Cost: 65.99},
		{ID: "b", Date: time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC), Cost: 29.99},
	}

	s := DashboardStats(fleet, records, testNow)
	if s.TotalVehicles != 2 || s.TotalServiceRecords != 2 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.OverdueServices != 1 || s.UpcomingServices != 1 {
		t.Fatalf("unexpected status tallies: %+v", s)
	}
	if math.Abs(s.TotalMaintenanceCost-95.98) > 1e-9 {
		t.Fatalf("unexpected cost: %v", s.TotalMaintenanceCost)
	}
	if s.LastServiceDate == nil || s.LastServiceDate.Month() != time.February {
		t.Fatalf("unexpected last service date: %v", s.LastServiceDate)
	}

	empty := DashboardStats(nil, nil, testNow)
	if empty.TotalVehicles != 0 || empty.LastServiceDate != nil {
		t.Fatalf("unexpected empty stats: %+v", empty)
	}
}
