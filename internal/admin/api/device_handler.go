package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pptgate/internal/admin/db"
	"pptgate/internal/admin/model"
	"pptgate/internal/decode"
)

// validateProfiles 检查设备引用的 profile 是否都已注册。
// 配置错误在写入时就拒绝，不留到运行期
func validateProfiles(profiles []string) error {
	for _, id := range profiles {
		if _, err := decode.Fields(id); err != nil {
			return fmt.Errorf("profile %s 未注册", id)
		}
	}
	return nil
}

// GetDevices 获取全部设备
func GetDevices(c *gin.Context) {
	devices, err := db.GetAllDevices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取设备列表失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetDeviceByID 根据 ID 获取设备
func GetDeviceByID(c *gin.Context) {
	device, err := db.GetDeviceByID(c.Param("deviceId"))
	if err != nil {
		if errors.Is(err, db.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, device)
}

// CreateDevice 创建新设备
func CreateDevice(c *gin.Context) {
	var device model.Device
	if err := c.ShouldBindJSON(&device); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	if err := validateProfiles(device.Profiles); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := db.CreateDevice(&device)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建设备失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateDevice 更新设备信息
func UpdateDevice(c *gin.Context) {
	var device model.Device
	if err := c.ShouldBindJSON(&device); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	if err := validateProfiles(device.Profiles); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := db.UpdateDevice(c.Param("deviceId"), &device)
	if err != nil {
		if errors.Is(err, db.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新设备失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteDevice 删除设备
func DeleteDevice(c *gin.Context) {
	if err := db.DeleteDevice(c.Param("deviceId")); err != nil {
		if errors.Is(err, db.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除设备失败: " + err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
