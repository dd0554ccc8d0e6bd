package analyzer

import (
	"context"
	"fmt"
	"os"

	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/matcher"
	"github.com/25smoking/parascope/internal/rules"
)

// Source 将整个源文件作为一个实体匹配
type Source struct {
	NewMatcher matcher.Factory
	CXX        bool
}

func (s *Source) Name() string {
	if s.CXX {
		return "cxx"
	}
	return "c"
}

// AnalyzeFile 返回文件的唯一分组，可能没有任何命中
func (s *Source) AnalyzeFile(path string, rs *rules.RuleSet) (core.ResultGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.ResultGroup{}, fmt.Errorf("%w: %w", core.ErrCannotOpen, err)
	}
	body := string(data)

	m, err := s.NewMatcher(rs)
	if err != nil {
		return core.ResultGroup{}, fmt.Errorf("%w: %w", core.ErrInvalidRules, err)
	}

	matches, err := m.Matches(body, matcher.GrammarFor(s.CXX))
	if err != nil {
		return core.ResultGroup{}, fmt.Errorf("%w: %w", core.ErrMatchFailed, err)
	}
	return core.NewSourceGroup(body, matches), nil
}

// Analyze 与二进制模式保持一致，丢弃没有命中的分组
func (s *Source) Analyze(_ context.Context, path string, rs *rules.RuleSet) ([]core.ResultGroup, error) {
	g, err := s.AnalyzeFile(path, rs)
	if err != nil {
		return nil, err
	}
	if g.Empty() {
		return nil, nil
	}
	return []core.ResultGroup{g}, nil
}
