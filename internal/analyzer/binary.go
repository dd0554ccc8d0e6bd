// Package analyzer 实现二进制 (反编译伪代码) 与源码两种分析模式
package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/decompiler"
	"github.com/25smoking/parascope/internal/matcher"
	"github.com/25smoking/parascope/internal/rules"
)

// Binary 逐函数反编译并匹配伪代码
type Binary struct {
	Opener     decompiler.Opener
	NewMatcher matcher.Factory
	Log        *zap.SugaredLogger
}

func (b *Binary) Name() string {
	return "binary"
}

// Analyze 返回所有至少有一个命中的函数分组。
// 单个函数反编译或匹配失败时直接跳过，不影响其余函数。
func (b *Binary) Analyze(ctx context.Context, path string, rs *rules.RuleSet) ([]core.ResultGroup, error) {
	log := b.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	db, err := b.Opener.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCannotOpen, err)
	}
	defer db.Close()

	if !db.DecompilerAvailable() {
		return nil, core.ErrDecompilerUnavailable
	}

	m, err := b.NewMatcher(rs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidRules, err)
	}

	var groups []core.ResultGroup
	for _, f := range db.Functions() {
		code, ok := db.Decompile(f)
		if !ok {
			log.Debugw("skipping function without pseudocode", "target", path, "function", f.Name)
			continue
		}

		matches, err := m.Matches(code, rules.LanguagePseudocode)
		if err != nil {
			log.Debugw("skipping function after match failure", "target", path, "function", f.Name, "error", err)
			continue
		}
		if len(matches) == 0 {
			continue
		}

		groups = append(groups, core.NewFunctionGroup(f.Name, f.Address, code, matches))
	}
	return groups, nil
}
