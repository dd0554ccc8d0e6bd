package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/25smoking/parascope/internal/embedded"
	"gopkg.in/yaml.v3"
)

// DefaultFile 当前目录下默认读取的配置文件名
const DefaultFile = "parascope.yaml"

// ========== Config ==========

type Config struct {
	Scan       ScanConfig       `yaml:"scan"`
	Decompiler DecompilerConfig `yaml:"decompiler"`
	Log        LogConfig        `yaml:"log"`
}

type ScanConfig struct {
	DisplayContext int           `yaml:"display_context"`
	Workers        int           `yaml:"workers"` // 0 表示按 CPU 数
	MatchTimeout   time.Duration `yaml:"match_timeout"`
}

// DecompilerConfig 外部导出命令，参数中的 {input} 替换为目标路径
type DecompilerConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // 天
	Compress   bool   `yaml:"compress"`
}

// ========== Loader Functions ==========

func loadConfigData(configPath string) ([]byte, error) {
	// 1. 显式指定的路径必须存在
	if configPath != "" {
		return os.ReadFile(configPath)
	}

	// 2. 当前目录下的 parascope.yaml
	if _, err := os.Stat(DefaultFile); err == nil {
		return os.ReadFile(DefaultFile)
	}

	// 3. 回退到内嵌配置
	// 注意: embed总是使用正斜杠
	return embedded.Content.ReadFile("config/" + DefaultFile)
}

// Load 读取配置。未出现的字段保留内嵌默认值。
func Load(configPath string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := loadConfigData(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Default 内嵌的默认配置
func Default() (*Config, error) {
	data, err := embedded.Content.ReadFile("config/" + DefaultFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return &cfg, nil
}
