package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var ( // 包变量持有数据库连接
	MongoClient *mongo.Client
	AdminDB     *mongo.Database
)

// InitMongoDB 初始化 MongoDB 连接
func InitMongoDB(connectionString, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(connectionString)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("连接 MongoDB 失败: %w", err)
	}

	// 检查连接
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping MongoDB 失败: %w", err)
	}

	MongoClient = client
	AdminDB = client.Database(dbName)
	return nil
}

// CloseMongoDB 关闭 MongoDB 连接
func CloseMongoDB() {
	if MongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := MongoClient.Disconnect(ctx); err != nil {
			log.Printf("关闭 MongoDB 连接失败: %v\n", err)
		}
	}
}

// deviceCollection 获取设备集合
func deviceCollection() *mongo.Collection {
	if AdminDB == nil {
		log.Fatal("MongoDB 数据库未初始化！")
	}
	return AdminDB.Collection("devices")
}
