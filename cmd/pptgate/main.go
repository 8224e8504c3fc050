package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pptgate/internal"
	"pptgate/internal/pkg"
)

// syncLog 安全地同步日志，忽略与标准输出相关的错误
func syncLog(log *zap.Logger) {
	// Windows平台上同步标准输出会报"The handle is invalid"，
	// 这是zap的已知问题，可以安全忽略
	err := log.Sync()
	if err != nil && !strings.Contains(err.Error(), "The handle is invalid") {
		log.Error("程序退出时同步日志失败", zap.Error(err))
	}
}

func main() {

	// 1. 初始化common yaml
	config, err := pkg.InitCommon("yaml")
	if err != nil {
		fmt.Printf("[main] 加载配置失败: %s", err)
		return
	}

	// 2. 初始化log
	log := pkg.NewLogger(&config.Log)

	log.Info("程序启动", zap.String("version", config.Version))
	log.Info("配置信息", zap.Any("common", config))
	log.Info("==== 初始化流程开始 ====")

	// 3. 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 10) // 全局错误通道
	ctx = pkg.WithErrChan(ctx, errChan)
	ctx = pkg.WithConfig(ctx, config)
	ctx = pkg.WithLogger(ctx, log)

	pipeline, err := internal.NewPipeline(ctx)
	if err != nil {
		log.Error("创建管道失败", zap.Error(err))
		cancel()
		return
	}
	printStartupLogo()

	// 4. 启动管道
	if err = pipeline.Start(ctx); err != nil {
		log.Error("启动管道失败", zap.Error(err))
		cancel()
		return
	}

	// 5. 主线程监听终止信号
	si := make(chan os.Signal, 1)
	signal.Notify(si, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case <-si:
			log.Info("收到退出信号, 正在关闭...")
			cancel()
			_ = pipeline.Stop()
			time.Sleep(1 * time.Second) // 给其他协程时间处理取消
			syncLog(log)
			os.Exit(0)
		case bad := <-errChan:
			log.Error("Error occurred", zap.Error(bad))
			cancel()
			_ = pipeline.Stop()
			// 等待其他可能的错误
			go func() {
				for err := range errChan {
					log.Error("Error occurred before shutdown", zap.Error(err))
				}
			}()
			time.Sleep(1 * time.Second)
			syncLog(log)
			os.Exit(1)
		}
	}
}

func printStartupLogo() {
	logo := `
		 ________  ________  _________  ________  ________  _________  _______
		|\   __  \|\   __  \|\___   ___\\   ____\|\   __  \|\___   ___\\  ___ \
		\ \  \|\  \ \  \|\  \|___ \  \_\ \  \___|\ \  \|\  \|___ \  \_\ \   __/|
		 \ \   ____\ \   ____\   \ \  \ \ \  \  __\ \   __  \   \ \  \ \ \  \_|/__
		  \ \  \___|\ \  \___|    \ \  \ \ \  \|\  \ \  \ \  \   \ \  \ \ \  \_|\ \
		   \ \__\    \ \__\        \ \__\ \ \_______\ \__\ \__\   \ \__\ \ \_______\
		    \|__|     \|__|         \|__|  \|_______|\|__|\|__|    \|__|  \|_______|

`
	fmt.Print(logo)
}
