package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GarageDrive/GarageDrive/internal/common/config"
	"github.com/GarageDrive/GarageDrive/internal/common/discovery"
	"github.com/GarageDrive/GarageDrive/internal/common/logger"
	"github.com/GarageDrive/GarageDrive/internal/common/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// HTTPRegisterFunc 用于注册业务路由。
type HTTPRegisterFunc func(r *mux.Router) error

type RunHTTPOptions struct {
	ShutdownTimeout time.Duration
	RateLimit       *middleware.TokenBucket
	Breaker         *middleware.CircuitBreaker
}

func defaultRunHTTPOptions() RunHTTPOptions {
	return RunHTTPOptions{
		ShutdownTimeout: 5 * time.Second,
		RateLimit:       middleware.NewTokenBucket(200, 100),
		Breaker:         middleware.NewCircuitBreaker("http", 10, 30*time.Second),
	}
}

// RunHTTPServer 统一的 HTTP 服务启动模板：
// - 初始化 router + 中间件链（recovery / tracing / 访问日志 / 限流 / 熔断）
// - 注册 /healthz
// - 注册业务路由
// - 注册到 Consul（HTTP check）
// - 优雅退出
func RunHTTPServer(cfg *config.Config, log logger.Logger, register HTTPRegisterFunc, opts ...func(*RunHTTPOptions)) error {
	if cfg == nil {
		return fmt.Errorf("cfg is nil")
	}
	if log == nil {
		return fmt.Errorf("log is nil")
	}

	o := defaultRunHTTPOptions()
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	// 初始化 Consul 客户端（失败不阻塞服务启动）
	consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Warnf("failed to connect to Consul: %v", err)
		consulClient = nil
	}

	r := mux.NewRouter()
	r.StrictSlash(true)

	// 中间件链（按顺序执行）
	r.Use(
		RecoveryMiddleware(log),                       // 异常恢复，避免服务崩溃
		TracingMiddleware(cfg.Server.Name),            // 链路追踪
		AccessLogMiddleware(log),                      // 访问日志
		JSONContentTypeMiddleware,                     // 统一 Content-Type
		middleware.RateLimitMiddleware(o.RateLimit), // 全局限流
		middleware.BreakerMiddleware(o.Breaker),     // 熔断
	)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	if register != nil {
		if err := register(r); err != nil {
			return fmt.Errorf("failed to register http routes: %w", err)
		}
	}

	// 注册到 Consul（成功才 defer 注销）
	if consulClient != nil {
		serviceID := fmt.Sprintf("%s-%s", cfg.Server.Name, uuid.New().String())
		registry := discovery.NewServiceRegistry(
			consulClient,
			serviceID,
			cfg.Server.Name,
			cfg.Server.Host,
			cfg.Server.HTTPPort,
			[]string{"http"},
		)
		if err := registry.Register(); err != nil {
			log.Warnf("failed to register service to Consul: %v", err)
		} else {
			log.Infof("Service registered to Consul: %s", serviceID)
			defer func() {
				if err := registry.Deregister(); err != nil {
					log.Warnf("failed to deregister service from Consul: %v", err)
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Infof("%s starting on %s", cfg.Server.Name, srv.Addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("received signal %v, shutting down...", sig)
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http serve failed: %w", err)
		}
		return nil
	}

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("http shutdown timeout, forcing close: %v", err)
		_ = srv.Close()
		return nil
	}
	log.Info("http server stopped gracefully")
	return nil
}

// WithShutdownTimeout 修改优雅退出等待时间。
func WithShutdownTimeout(d time.Duration) func(*RunHTTPOptions) {
	return func(o *RunHTTPOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithRateLimit 替换全局限流器（nil 表示关闭）。
func WithRateLimit(tb *middleware.TokenBucket) func(*RunHTTPOptions) {
	return func(o *RunHTTPOptions) {
		o.RateLimit = tb
	}
}

// WithBreaker 替换熔断器（nil 表示关闭）。
func WithBreaker(cb *middleware.CircuitBreaker) func(*RunHTTPOptions) {
	return func(o *RunHTTPOptions) {
		o.Breaker = cb
	}
}
