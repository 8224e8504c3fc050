package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pptgate/internal/admin/model"
)

// ErrDeviceNotFound 指定 ID 的设备不存在
var ErrDeviceNotFound = errors.New("未找到设备")

// GetAllDevices 获取全部设备
func GetAllDevices() ([]model.Device, error) {
	collection := deviceCollection()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var devices []model.Device
	if err = cursor.All(ctx, &devices); err != nil {
		return nil, err
	}
	// 没有文档时返回空切片而不是错误
	if devices == nil {
		devices = []model.Device{}
	}
	return devices, nil
}

// GetDeviceByID 根据 ID 获取设备
func GetDeviceByID(id string) (*model.Device, error) {
	collection := deviceCollection()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("无效的设备 ID 格式")
	}

	var device model.Device
	err = collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&device)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &device, nil
}

// CreateDevice 创建新设备，设备名唯一
func CreateDevice(device *model.Device) (*model.Device, error) {
	collection := deviceCollection()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := collection.CountDocuments(ctx, bson.M{"name": device.Name})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("设备名 %s 已存在", device.Name)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	device.CreatedAt = now
	device.UpdatedAt = now
	// ID 置空，由 MongoDB 生成
	device.ID = primitive.NilObjectID

	result, err := collection.InsertOne(ctx, device)
	if err != nil {
		return nil, err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		device.ID = oid
		return device, nil
	}
	return nil, errors.New("无法获取插入的设备 ID")
}

// UpdateDevice 更新设备信息
func UpdateDevice(id string, updateData *model.Device) (*model.Device, error) {
	collection := deviceCollection()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("无效的设备 ID 格式")
	}

	update := bson.M{
		"$set": bson.M{
			"name":        updateData.Name,
			"address":     updateData.Address,
			"profiles":    updateData.Profiles,
			"description": updateData.Description,
			"updatedAt":   primitive.NewDateTimeFromTime(time.Now()),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updatedDevice model.Device
	err = collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&updatedDevice)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &updatedDevice, nil
}

// DeleteDevice 删除设备
func DeleteDevice(id string) error {
	collection := deviceCollection()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("无效的设备 ID 格式")
	}

	result, err := collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("删除设备失败: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrDeviceNotFound
	}
	return nil
}
