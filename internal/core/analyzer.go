package core

import (
	"context"
	"errors"

	"github.com/25smoking/parascope/internal/rules"
)

// 单个扫描目标的致命错误。多目标扫描时只影响该目标。
var (
	ErrCannotOpen            = errors.New("cannot open scan target")
	ErrDecompilerUnavailable = errors.New("decompiler is not available")
	ErrInvalidRules          = errors.New("cannot construct rule matcher")
	ErrMatchFailed           = errors.New("cannot perform rule matching")
)

// Analyzer 是所有分析模式必须实现的接口。
// 返回的分组都至少包含一个匹配。
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, path string, rs *rules.RuleSet) ([]ResultGroup, error)
}
