package main

import (
	"flag"
	"fmt"

	"github.com/GarageDrive/GarageDrive/internal/common/config"
	"github.com/GarageDrive/GarageDrive/internal/common/logger"
	"github.com/GarageDrive/GarageDrive/internal/common/server"
	"github.com/GarageDrive/GarageDrive/internal/common/tracing"
	"github.com/GarageDrive/GarageDrive/internal/garage"
	"github.com/GarageDrive/GarageDrive/internal/httpapi"
	"github.com/gorilla/mux"
)

var (
	configPath   = flag.String("config", "configs/garage-service.json", "配置文件路径")
	consulAddr   = flag.String("consul-addr", "localhost:8500", "Consul 地址 host:port")
	consulKVPath = flag.String("consul-config-key", "", "从 Consul KV 读取配置的 key；为空时读本地文件")
)

func main() {
	flag.Parse()

	// 加载配置：指定了 KV key 时优先走 Consul，否则读本地文件
	var (
		cfg *config.Config
		err error
	)
	if *consulKVPath != "" {
		cfg, err = config.LoadConfigFromConsulKV(*consulAddr, *consulKVPath)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Backend, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 会话级内存 Store，重启即清空
	store, err := garage.NewStore(garage.DemoAccount{
		Name:     cfg.Demo.Name,
		Email:    cfg.Demo.Email,
		Password: cfg.Demo.Password,
	}, log)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	api := httpapi.New(store, cfg.Auth, log)

	// 启动统一的 HTTP 服务模板
	if err := server.RunHTTPServer(cfg, log, func(r *mux.Router) error {
		return api.Register(r)
	}); err != nil {
		log.Fatalf("garage-service exited with error: %v", err)
	}
}
