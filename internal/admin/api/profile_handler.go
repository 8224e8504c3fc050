package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"pptgate/internal/admin/model"
	"pptgate/internal/decode"
)

// GetProfiles 返回全部已注册 profile 的概要
func GetProfiles(c *gin.Context) {
	ids := decode.Profiles()
	summaries := make([]model.ProfileSummary, 0, len(ids))
	for _, id := range ids {
		fields, err := decode.Fields(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		summaries = append(summaries, model.ProfileSummary{
			ID:         id,
			FieldCount: len(fields),
		})
	}
	c.JSON(http.StatusOK, summaries)
}

// GetProfileByID 返回单个 profile 的完整字段表
func GetProfileByID(c *gin.Context) {
	id := c.Param("profileId")
	fields, err := decode.Fields(id)
	if err != nil {
		if errors.Is(err, decode.ErrUnknownProfile) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	detail := model.ProfileDetail{
		ID:        id,
		FrameSize: decode.FrameSize,
		Fields:    make([]model.ProfileFieldInfo, 0, len(fields)),
	}
	for _, f := range fields {
		detail.Fields = append(detail.Fields, model.ProfileFieldInfo{
			Name:   f.Name,
			Offset: f.Offset,
			Scale:  f.Scale.String(),
			Unit:   f.Unit,
		})
	}
	c.JSON(http.StatusOK, detail)
}

// ExportProfileYaml 把 profile 字段表导出为 YAML 文件，
// 供现场工程师离线核对帧布局
func ExportProfileYaml(c *gin.Context) {
	id := c.Param("profileId")
	fields, err := decode.Fields(id)
	if err != nil {
		if errors.Is(err, decode.ErrUnknownProfile) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type yamlField struct {
		Name   string `yaml:"name"`
		Offset int    `yaml:"offset"`
		Scale  string `yaml:"scale"`
		Unit   string `yaml:"unit,omitempty"`
	}
	exportData := map[string]interface{}{
		"profile":   id,
		"frameSize": decode.FrameSize,
		"fields":    make([]yamlField, 0, len(fields)),
	}
	yamlFields := exportData["fields"].([]yamlField)
	for _, f := range fields {
		yamlFields = append(yamlFields, yamlField{
			Name:   f.Name,
			Offset: f.Offset,
			Scale:  f.Scale.String(),
			Unit:   f.Unit,
		})
	}
	exportData["fields"] = yamlFields

	yamlData, err := yaml.Marshal(exportData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成 YAML 失败: " + err.Error()})
		return
	}

	yamlHeader := fmt.Sprintf("# Profile: %s\n# Generated At: %s\n---\n",
		id, time.Now().Format("2006-01-02 15:04:05"))
	finalYaml := yamlHeader + string(yamlData)
	fileName := fmt.Sprintf("%s-fields.yaml", id)

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Header("Content-Type", "application/x-yaml")
	c.Header("Content-Length", fmt.Sprintf("%d", len(finalYaml)))
	c.Header("Cache-Control", "no-cache")

	c.Writer.Write([]byte(finalYaml))
}
