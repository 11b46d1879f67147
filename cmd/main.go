package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/3Eeeecho/go-cloudbox/cmd/server"
	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env 只在本地开发时存在，找不到不影响启动
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置出错: %v", err)
	}

	//初始化日志系统，日志目录由 logger 创建
	logger.InitLogger(cfg.Log.OutputPath, cfg.Log.ErrorPath, cfg.Log.Level)
	defer logger.Sync() // 确保在应用退出时刷新所有缓冲的日志条目

	logger.Info("启动云盘程序...")

	// 创建并构建应用服务器实例
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("无法启动应用程序", zap.Error(err))
	}

	// 创建一个通道用于接收停止信号
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	srv.Run(context.Background(), stopChan)

	logger.Info("云盘程序已退出。")
}
