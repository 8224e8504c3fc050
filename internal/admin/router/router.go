package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pptgate/internal/admin/api"
)

// SetupRouter 配置 Gin 路由
func SetupRouter() *gin.Engine {
	r := gin.Default()

	// 配置 CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"} // 允许所有来源，生产环境应配置具体来源
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// API v1 分组
	apiV1 := r.Group("/api/v1")
	{
		// profile 相关路由，只读，字段表编译进二进制
		profiles := apiV1.Group("/profiles")
		{
			profiles.GET("", api.GetProfiles)                           // GET /api/v1/profiles
			profiles.GET("/:profileId", api.GetProfileByID)             // GET /api/v1/profiles/:profileId
			profiles.GET("/:profileId/export", api.ExportProfileYaml)   // GET /api/v1/profiles/:profileId/export
		}

		// 设备相关路由
		devices := apiV1.Group("/devices")
		{
			devices.GET("", api.GetDevices)                 // GET /api/v1/devices
			devices.POST("", api.CreateDevice)              // POST /api/v1/devices
			devices.GET("/:deviceId", api.GetDeviceByID)    // GET /api/v1/devices/:deviceId
			devices.PUT("/:deviceId", api.UpdateDevice)     // PUT /api/v1/devices/:deviceId
			devices.DELETE("/:deviceId", api.DeleteDevice)  // DELETE /api/v1/devices/:deviceId
		}

		// 测试路由
		testGroup := apiV1.Group("/test")
		{
			testGroup.POST("/decode", api.TestDecodeHandler) // POST /api/v1/test/decode
		}
	}

	return r
}
