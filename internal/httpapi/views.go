package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/GarageDrive/GarageDrive/internal/garage"
)

// handleDashboard 仪表盘统计。全部派生值出自 garage.DashboardStats，
// 保证与各页面的阈值一致。
func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	writeJSON(w, http.StatusOK, garage.DashboardStats(a.store.Vehicles(), a.store.ServiceRecords(), now))
}

// handleReminders 提醒页：未到期与已逾期两个列表，按下次保养日期升序。
func (a *API) handleReminders(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	vehicles := a.store.Vehicles()

	toViews := func(vs []garage.Vehicle) []vehicleView {
		out := make([]vehicleView, 0, len(vs))
		for _, v := range vs {
			out = append(out, vehicleViewOf(v, now))
		}
		return out
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upcoming": toViews(garage.UpcomingReminders(vehicles, now)),
		"pastDue":  toViews(garage.PastDueReminders(vehicles, now)),
		"settings": a.store.ReminderSettings(),
	})
}

func (a *API) handleGetReminderSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.ReminderSettings())
}

func (a *API) handleUpdateReminderSettings(w http.ResponseWriter, r *http.Request) {
	var rs garage.ReminderSettings
	if err := decodeJSON(r, &rs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.store.UpdateReminderSettings(rs))
}

// handleTestReminder 仅回执，不做真实投递（邮件/短信/推送只是 UI 开关）。
func (a *API) handleTestReminder(w http.ResponseWriter, r *http.Request) {
	u, ok := a.store.User()
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if a.log != nil {
		a.log.WithField("email", u.Email).Info("test reminder requested")
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "test notification sent"})
}

// handleCalendar 某年某月里安排了下次保养的车辆。缺省取当前年月。
func (a *API) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	year := now.Year()
	month := now.Month()

	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(n)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":         year,
		"month":        int(month),
		"serviceDates": garage.ServiceDatesIn(a.store.Vehicles(), year, month),
	})
}

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := a.store.User()
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var form struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := a.store.UpdateProfile(form.Name, form.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"darkMode":  a.store.DarkMode(),
		"reminders": a.store.ReminderSettings(),
	})
}

func (a *API) handleToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"darkMode": a.store.ToggleDarkMode()})
}
