package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Device 模型 ---

// Device 表示一台受管的高压调制器设备。
// json 标签与前端/API 规范一致，bson 标签用于 MongoDB
type Device struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name" binding:"required"`
	Address     string             `bson:"address" json:"address" binding:"required"` // host:port
	Profiles    []string           `bson:"profiles" json:"profiles"`                  // 解码该设备帧使用的 profile 列表
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt   primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}

// ProfileSummary 列表页用的 profile 概要
type ProfileSummary struct {
	ID         string `json:"id"`
	FieldCount int    `json:"fieldCount"`
}

// ProfileFieldInfo 单个字段的展示信息
type ProfileFieldInfo struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Scale  string `json:"scale"`
	Unit   string `json:"unit,omitempty"`
}

// ProfileDetail 完整的 profile 字段表
type ProfileDetail struct {
	ID        string             `json:"id"`
	FrameSize int                `json:"frameSize"`
	Fields    []ProfileFieldInfo `json:"fields"`
}
