// Package main 是本地开发后端的入口，提供与助手后端相同的 HTTP 接口。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cfs-assistant-go/internal/config"
	"cfs-assistant-go/internal/handler"
	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/log"
	"cfs-assistant-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	// 3. 初始化 Repository
	accounts, err := repository.NewAccountRepository(cfg.DevServer.Users)
	if err != nil {
		log.Fatal("初始化演示用户失败", err)
	}
	statements := repository.NewStatementRepository(cfg.DevServer.DocumentsDir)
	if cfg.DevServer.JWTSecret == "" {
		log.Warnf("devserver.jwt_secret 为空，token 签名不安全")
	}

	// 4. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.DevServer.Mode)
	r := handler.NewRouter(handler.Dependencies{
		Accounts:   accounts,
		Statements: statements,
		Blacklist:  repository.NewTokenBlacklist(),
		JWTManager: token.NewJWTManager(cfg.DevServer.JWTSecret, cfg.DevServer.TokenExpireHours),
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.DevServer.Port),
		Handler: r,
	}

	go func() {
		log.Infof("开发后端启动于 %s，账单目录 %s", srv.Addr, cfg.DevServer.DocumentsDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
