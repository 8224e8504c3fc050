package pkg

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig 日志相关配置
type LogConfig struct {
	LogPath    string `mapstructure:"log_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"`
}

// ConnectorConfig 连接器配置，Para 为各连接器类型的专属配置项
type ConnectorConfig struct {
	Type string                 `mapstructure:"type"`
	Para map[string]interface{} `mapstructure:"config"`
}

// ParserConfig 解析器配置
// Profiles 为本网关启用的解码 profile 列表，每个到达的帧都会按
// 列表中的每个 profile 各解码一次
// Derived 为派生字段: 字段名 -> expr 表达式，基于解码结果计算
type ParserConfig struct {
	Profiles      []string          `mapstructure:"profiles"`
	DefaultDevice string            `mapstructure:"defaultDevice"`
	Derived       map[string]string `mapstructure:"derived"`
}

// SinkConfig 发送策略配置
type SinkConfig struct {
	Type   string                 `mapstructure:"type"`    // 策略类型
	Enable bool                   `mapstructure:"enable"`  // 是否启用
	Filter []string               `mapstructure:"filter"`  // 设备名正则过滤
	Para   map[string]interface{} `mapstructure:",remain"` // 自定义配置项
}

// AdminConfig 管理面 API 配置
type AdminConfig struct {
	Port     int           `mapstructure:"port"`
	MongoURI string        `mapstructure:"mongoURI"`
	MongoDB  string        `mapstructure:"mongoDB"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Config 全局配置
type Config struct {
	Version   string          `mapstructure:"version"`
	Log       LogConfig       `mapstructure:"log"`
	Connector ConnectorConfig `mapstructure:"connector"`
	Parser    ParserConfig    `mapstructure:"parser"`
	Sink      []SinkConfig    `mapstructure:"sink"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

// derivedBlock 只取出 parser::derived 块，派生字段名保留原始大小写
type derivedBlock struct {
	Parser struct {
		Derived map[string]string `yaml:"derived"`
	} `yaml:"parser"`
}

// InitCommon 从配置目录加载并合并所有 yaml 配置
func InitCommon(configDir string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::")) // 默认的 . 分隔符会和 IP 地址冲突
	v.AddConfigPath(configDir)
	v.AutomaticEnv() // 读取环境变量
	// viper 会把所有键转成小写，派生字段名由用户自定义，
	// 需要直接从原始文件按同样的合并顺序收集
	derived := make(map[string]string)
	// 遍历配置目录及其子目录中的所有文件，依次合并
	err := filepath.WalkDir(configDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("访问路径 %s 失败: %w", filePath, err)
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(filePath)
		if ext == ".yaml" || ext == ".yml" {
			v.SetConfigFile(filePath)
			if err := v.MergeInConfig(); err != nil {
				return fmt.Errorf("读取配置文件失败 %s: %w", filePath, err)
			}
			raw, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("读取配置文件失败 %s: %w", filePath, err)
			}
			var block derivedBlock
			if err := yaml.Unmarshal(raw, &block); err != nil {
				return fmt.Errorf("读取配置文件失败 %s: %w", filePath, err)
			}
			for name, source := range block.Parser.Derived {
				derived[name] = source
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var common Config
	if err := v.Unmarshal(&common); err != nil {
		return nil, fmt.Errorf("反序列化配置失败: %w", err)
	}
	if len(derived) > 0 {
		common.Parser.Derived = derived
	}
	return &common, nil
}
