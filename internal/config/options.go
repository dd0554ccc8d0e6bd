package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/filter"
)

// StdoutOutput --output 取该值时 JSONL 写到标准输出
const StdoutOutput = "-"

var (
	ErrNoOutput              = errors.New("no display or reporting options set")
	ErrDisplayAndSummary     = errors.New("--display and --summary cannot be used together")
	ErrContextWithoutDisplay = errors.New("--display-context requires --display")
	ErrNoRulesPath           = errors.New("no rule file/directory specified")
	ErrNoInput               = errors.New("no input file/directory specified")
)

// Options 一次扫描的命令行选项
type Options struct {
	Mode        string
	PathFilters []string

	Display        bool
	DisplayContext int
	// ContextSet 用户是否显式给出了 --display-context
	ContextSet bool
	Summary    bool

	Rules  string
	Input  string
	Output string
	HTML   string
	CSV    string

	Workers int
}

// Validate 在任何扫描开始前检查选项组合
func (o *Options) Validate() error {
	if _, err := core.ParseMode(o.Mode); err != nil {
		return err
	}
	if o.Display && o.Summary {
		return ErrDisplayAndSummary
	}
	if o.ContextSet && !o.Display {
		return ErrContextWithoutDisplay
	}
	if o.DisplayContext < 0 {
		return fmt.Errorf("invalid display context %d", o.DisplayContext)
	}
	if o.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", o.Workers)
	}
	if !o.Display && !o.Summary && o.Output == "" && o.HTML == "" && o.CSV == "" {
		return ErrNoOutput
	}

	if _, err := o.Filter(); err != nil {
		return err
	}

	if o.Rules == "" {
		return ErrNoRulesPath
	}
	if _, err := os.Stat(o.Rules); err != nil {
		return fmt.Errorf("rule file/directory does not exist: %s", o.Rules)
	}
	if o.Input == "" {
		return ErrNoInput
	}
	if _, err := os.Stat(o.Input); err != nil {
		return fmt.Errorf("input file/directory does not exist: %s", o.Input)
	}
	return nil
}

// ScanMode 返回已校验的模式
func (o *Options) ScanMode() core.Mode {
	m, _ := core.ParseMode(o.Mode)
	return m
}

// Filter 编译路径过滤器
func (o *Options) Filter() (*filter.Filter, error) {
	m, err := core.ParseMode(o.Mode)
	if err != nil {
		return nil, err
	}
	f, err := filter.New(m, o.PathFilters)
	if err != nil {
		return nil, fmt.Errorf("invalid path filter(s): %w", err)
	}
	return f, nil
}

// OutputIsStdout JSONL 是否占用标准输出
func (o *Options) OutputIsStdout() bool {
	return o.Output == StdoutOutput
}

// ApplyDefaults 用配置文件补全命令行没有给出的值
func (o *Options) ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if !o.ContextSet && cfg.Scan.DisplayContext > 0 {
		o.DisplayContext = cfg.Scan.DisplayContext
	}
	if o.Workers == 0 {
		o.Workers = cfg.Scan.Workers
	}
}
