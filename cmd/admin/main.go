package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pptgate/internal/admin/db"
	"pptgate/internal/admin/router"
	"pptgate/internal/pkg"
)

// 缺省配置
const (
	defaultMongoURI = "mongodb://localhost:27017"
	defaultDBName   = "pptgate_admin"
	defaultPort     = 8081
)

func main() {
	// 加载配置，管理面允许无配置目录启动
	mongoURI := defaultMongoURI
	dbName := defaultDBName
	port := defaultPort
	if config, err := pkg.InitCommon("yaml"); err == nil {
		if config.Admin.MongoURI != "" {
			mongoURI = config.Admin.MongoURI
		}
		if config.Admin.MongoDB != "" {
			dbName = config.Admin.MongoDB
		}
		if config.Admin.Port != 0 {
			port = config.Admin.Port
		}
	} else {
		log.Printf("加载配置失败, 使用缺省配置: %v\n", err)
	}

	// 初始化 MongoDB 连接
	if err := db.InitMongoDB(mongoURI, dbName); err != nil {
		log.Fatalf("无法初始化 MongoDB: %v", err)
	}
	defer db.CloseMongoDB()

	// 初始化 Gin 引擎
	r := router.SetupRouter()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	// 优雅地启动和关闭服务器
	go func() {
		fmt.Printf("管理后台服务启动于 http://localhost:%d\n", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器 ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器关闭失败:", err)
	}

	log.Println("服务器已退出")
}
