package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GarageDrive/GarageDrive/internal/common/config"
	"github.com/GarageDrive/GarageDrive/internal/garage"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 固定时钟：示例数据里 5/20 已逾期、6/15 在 30 天窗口内、7/10 在窗口外。
var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	api    *API
	router *mux.Router
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := garage.NewStore(garage.DemoAccount{
		Name:     "Demo User",
		Email:    "demo@example.com",
		Password: "demo1234",
	}, nil)
	require.NoError(t, err)

	authCfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "garagedrive",
		Audience:  "garagedrive",
	}
	api := New(store, authCfg, nil)
	api.now = func() time.Time { return fixedNow }

	router := mux.NewRouter()
	require.NoError(t, api.Register(router))

	return &testEnv{api: api, router: router}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "demo@example.com",
		"password": "demo1234",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	e.token = resp.AccessToken
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "x@x.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.api.store.IsAuthenticated())

	env.login(t)
	assert.True(t, env.api.store.IsAuthenticated())
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/vehicles", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.login(t)
	rec = env.do(t, http.MethodGet, "/api/vehicles", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// 伪造 token 直接拒绝。
	good := env.token
	env.token = "garbage"
	rec = env.do(t, http.MethodGet, "/api/vehicles", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env.token = good

	// 登出后旧 token 失效。
	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/vehicles", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "", "email": "a@b.c", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp sessionResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.NotEmpty(t, resp.User.ID)
}

func TestVehicleListCarriesDerivedStatus(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/vehicles", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []vehicleView
	decodeBody(t, rec, &views)
	require.Len(t, views, 3)

	byID := map[string]vehicleView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Equal(t, garage.StatusDueSoon, byID["vehicle-1"].Status)
	assert.Equal(t, garage.StatusScheduled, byID["vehicle-2"].Status)
	assert.Equal(t, garage.StatusOverdue, byID["vehicle-3"].Status)

	require.NotNil(t, byID["vehicle-1"].Progress)
	assert.Equal(t, 87, *byID["vehicle-1"].Progress)
}

func TestAddVehicleValidation(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/vehicles", map[string]interface{}{
		"make": "", "model": "3", "year": 1899, "licensePlate": "",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.Errors, "make")
	assert.Contains(t, resp.Errors, "year")
	assert.Contains(t, resp.Errors, "licensePlate")

	// 校验失败不得触达 Store。
	assert.Len(t, env.api.store.Vehicles(), 3)
}

func TestVehicleCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/vehicles", map[string]interface{}{
		"make": "Mazda", "model": "3", "year": 2021, "licensePlate": "MZD-0003",
		"nextServiceDate": "2025-06-20",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created vehicleView
	decodeBody(t, rec, &created)
	assert.Equal(t, garage.StatusDueSoon, created.Status)

	rec = env.do(t, http.MethodPut, "/api/vehicles/"+created.ID, map[string]interface{}{
		"color": "Red",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated vehicleView
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Red", updated.Color)
	assert.Equal(t, "Mazda", updated.Make)

	rec = env.do(t, http.MethodDelete, "/api/vehicles/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/vehicles/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteVehicleCascadesOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodDelete, "/api/vehicles/vehicle-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/records", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []garage.ServiceRecord
	decodeBody(t, rec, &records)
	for _, r := range records {
		assert.NotEqual(t, "vehicle-1", r.VehicleID)
	}
}

func TestAddRecordRejectsUnknownVehicle(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/records", map[string]interface{}{
		"vehicleId": "missing", "date": "2024-03-01", "serviceType": "Oil Change",
		"description": "oil", "cost": 10, "mileage": 100, "serviceCenter": "Shop",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.Errors, "vehicleId")
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats garage.Stats
	decodeBody(t, rec, &stats)
	assert.Equal(t, 3, stats.TotalVehicles)
	assert.Equal(t, 3, stats.TotalServiceRecords)
	assert.Equal(t, 1, stats.UpcomingServices)
	assert.Equal(t, 1, stats.OverdueServices)
	assert.InDelta(t, 356.48, stats.TotalMaintenanceCost, 1e-9)
	require.NotNil(t, stats.LastServiceDate)
	assert.Equal(t, time.February, stats.LastServiceDate.Month())
}

func TestRemindersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Upcoming []vehicleView           `json:"upcoming"`
		PastDue  []vehicleView           `json:"pastDue"`
		Settings garage.ReminderSettings `json:"settings"`
	}
	decodeBody(t, rec, &resp)

	require.Len(t, resp.Upcoming, 2)
	assert.Equal(t, "vehicle-1", resp.Upcoming[0].ID) // 6/15 在 7/10 之前
	assert.Equal(t, "vehicle-2", resp.Upcoming[1].ID)
	require.Len(t, resp.PastDue, 1)
	assert.Equal(t, "vehicle-3", resp.PastDue[0].ID)
	assert.Equal(t, 14, resp.Settings.AdvanceNoticeDays)
}

func TestCalendarEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/calendar?year=2025&month=6", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Year         int                  `json:"year"`
		Month        int                  `json:"month"`
		ServiceDates []garage.ServiceDate `json:"serviceDates"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 2025, resp.Year)
	require.Len(t, resp.ServiceDates, 1)
	assert.Equal(t, "vehicle-1", resp.ServiceDates[0].Vehicle.ID)

	rec = env.do(t, http.MethodGet, "/api/calendar?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/settings/dark-mode", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dm map[string]bool
	decodeBody(t, rec, &dm)
	assert.True(t, dm["darkMode"])

	rec = env.do(t, http.MethodPut, "/api/reminders/settings", garage.ReminderSettings{
		Email: false, SMS: true, Push: true, AdvanceNoticeDays: 7,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var rs garage.ReminderSettings
	decodeBody(t, rec, &rs)
	assert.True(t, rs.SMS)
	assert.Equal(t, 7, rs.AdvanceNoticeDays)

	rec = env.do(t, http.MethodPost, "/api/reminders/test", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var u garage.User
	decodeBody(t, rec, &u)
	assert.Equal(t, "demo@example.com", u.Email)

	rec = env.do(t, http.MethodPut, "/api/profile", map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &u)
	assert.Equal(t, "Renamed", u.Name)
}

func TestVehicleStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/vehicles/vehicle-1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status        garage.Status         `json:"status"`
		Progress      *int                  `json:"progressToNextService"`
		RecentService *garage.ServiceRecord `json:"recentService"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, garage.StatusDueSoon, resp.Status)
	require.NotNil(t, resp.Progress)
	assert.Equal(t, 87, *resp.Progress)
	require.NotNil(t, resp.RecentService)
	assert.Equal(t, "service-101", resp.RecentService.ID)
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)

	// 滑动窗口 20 次/分钟：第 21 次直接 429，不再进入认证逻辑。
	for i := 0; i < 20; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "x@x.com", "password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i)
	}
	rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "x@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClearNextServiceDateOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPut, "/api/vehicles/vehicle-1", map[string]interface{}{
		"nextServiceDate": "",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var v vehicleView
	decodeBody(t, rec, &v)
	assert.Nil(t, v.NextServiceDate)
	assert.Equal(t, garage.StatusNone, v.Status)
}

func TestUpdateRecordRejectionIsAtomicOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPut, "/api/records/service-101", map[string]interface{}{
		"vehicleId": "vehicle-2", "cost": -5,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/vehicles/vehicle-1/records", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []garage.ServiceRecord
	decodeBody(t, rec, &records)
	found := false
	for _, r := range records {
		if r.ID == "service-101" {
			found = true
		}
	}
	assert.True(t, found, "service-101 must still belong to vehicle-1")
}
