// Package httpapi 把维保跟踪应用以 JSON/HTTP API 的形式对外暴露。
// 状态徽标、计数、进度等派生值一律来自 garage 包的推导函数，
// handler 不得用别的阈值重算；每个请求只读一次时钟。
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/GarageDrive/GarageDrive/internal/common/auth"
	"github.com/GarageDrive/GarageDrive/internal/common/config"
	"github.com/GarageDrive/GarageDrive/internal/common/logger"
	"github.com/GarageDrive/GarageDrive/internal/common/middleware"
	"github.com/GarageDrive/GarageDrive/internal/garage"
	"github.com/gorilla/mux"
)

// API 业务路由的装配单元。
type API struct {
	store   *garage.Store
	authCfg config.AuthConfig
	log     logger.Logger

	// 登录/注册单独走滑动窗口限流，防爆破。
	authLimiter middleware.RateLimiter

	// now 可注入，测试用；默认 time.Now。
	now func() time.Time
}

func New(store *garage.Store, authCfg config.AuthConfig, log logger.Logger) *API {
	return &API{
		store:       store,
		authCfg:     authCfg,
		log:         log,
		authLimiter: middleware.NewSlidingWindow(time.Minute, 20),
		now:         time.Now,
	}
}

// Register 挂载全部业务路由。
func (a *API) Register(r *mux.Router) error {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(a.authMiddleware)

	api.HandleFunc("/auth/login", middleware.RateLimitHandler(a.authLimiter, a.handleLogin)).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", middleware.RateLimitHandler(a.authLimiter, a.handleSignup)).Methods(http.MethodPost)
	api.HandleFunc("/auth/forgot-password", a.handleForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", a.handleLogout).Methods(http.MethodPost)

	api.HandleFunc("/vehicles", a.handleListVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", a.handleAddVehicle).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}", a.handleGetVehicle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", a.handleUpdateVehicle).Methods(http.MethodPut)
	api.HandleFunc("/vehicles/{id}", a.handleDeleteVehicle).Methods(http.MethodDelete)
	api.HandleFunc("/vehicles/{id}/records", a.handleVehicleRecords).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}/status", a.handleVehicleStatus).Methods(http.MethodGet)

	api.HandleFunc("/records", a.handleListRecords).Methods(http.MethodGet)
	api.HandleFunc("/records", a.handleAddRecord).Methods(http.MethodPost)
	api.HandleFunc("/records/types", a.handleServiceTypes).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", a.handleUpdateRecord).Methods(http.MethodPut)
	api.HandleFunc("/records/{id}", a.handleDeleteRecord).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard", a.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/reminders", a.handleReminders).Methods(http.MethodGet)
	api.HandleFunc("/reminders/settings", a.handleGetReminderSettings).Methods(http.MethodGet)
	api.HandleFunc("/reminders/settings", a.handleUpdateReminderSettings).Methods(http.MethodPut)
	api.HandleFunc("/reminders/test", a.handleTestReminder).Methods(http.MethodPost)
	api.HandleFunc("/calendar", a.handleCalendar).Methods(http.MethodGet)

	api.HandleFunc("/profile", a.handleGetProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile", a.handleUpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/settings", a.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/dark-mode", a.handleToggleDarkMode).Methods(http.MethodPost)

	return nil
}

// 免鉴权路径（未登录用户只能访问这些；对应前端的登录/注册/忘记密码页）。
var defaultPublicPaths = []string{
	"/api/auth/login",
	"/api/auth/signup",
	"/api/auth/forgot-password",
}

func (a *API) isPublicPath(path string) bool {
	paths := a.authCfg.PublicPaths
	if len(paths) == 0 {
		paths = defaultPublicPaths
	}
	for _, p := range paths {
		if strings.TrimSpace(p) == path {
			return true
		}
	}
	return false
}

// authMiddleware 校验 Bearer token，且要求 Store 里仍存在活跃会话
// （登出后即使 token 未过期也拒绝）。未登录访问受保护路径返回 401，
// 对应 SPA 里“未登录重定向到登录页”的路由规则。
func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.authCfg.Enabled || a.isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			raw = strings.TrimSpace(raw[len("bearer "):])
		}
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization")
			return
		}

		claims, err := auth.ParseAccessToken(a.authCfg, raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		// token 必须对应当前会话的用户；登出重登后旧 token 作废。
		u, ok := a.store.User()
		if !ok || u.ID != claims.Subject {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}
