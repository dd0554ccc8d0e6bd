package embedded

import (
	"embed"
)

// Content 包含内嵌的默认配置和示例规则
// 当工作目录下没有配置文件时使用。
//
//go:embed config/*.yaml
//go:embed rules
var Content embed.FS
