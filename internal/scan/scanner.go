// Package scan 编排一次扫描：单个文件同步分析，目录则交给并行流水线。
package scan

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/pipeline"
	"github.com/25smoking/parascope/internal/rules"
)

// TargetFilter 判断路径是否需要扫描
type TargetFilter interface {
	IsCandidate(path string) bool
}

// Reporter 接收分析结果。只会被串行调用。
type Reporter interface {
	Report(path string, groups []core.ResultGroup) error
	ReportFailure(path string, err error)
}

// Stats 一次扫描的计数
type Stats struct {
	Targets int
	Failed  int
	Groups  int
	Skipped bool
}

type Scanner struct {
	Input    string
	Rules    *rules.RuleSet
	Filter   TargetFilter
	Analyzer core.Analyzer
	Reporter Reporter
	Workers  int
	Log      *zap.SugaredLogger
}

// Run 根据输入是文件还是目录选择扫描路径，选定后不再改变。
// 单文件的分析错误直接返回；目录扫描只返回流水线级别的错误。
func (s *Scanner) Run(ctx context.Context) (Stats, error) {
	if s.Log == nil {
		s.Log = zap.NewNop().Sugar()
	}
	if s.Rules.IsEmpty() {
		return Stats{}, rules.ErrNoRules
	}

	info, err := os.Stat(s.Input)
	if err != nil {
		return Stats{}, fmt.Errorf("input file/directory does not exist: %w", err)
	}

	ctx = core.WithLogger(ctx, s.Log)
	start := time.Now()

	var stats Stats
	if info.IsDir() {
		stats, err = s.scanMany(ctx)
	} else {
		stats, err = s.scanOne(ctx)
	}

	s.Log.Infow("scan finished",
		"input", s.Input,
		"analyzer", s.Analyzer.Name(),
		"targets", stats.Targets,
		"failed", stats.Failed,
		"groups", stats.Groups,
		"elapsed", time.Since(start).String(),
	)
	return stats, err
}

func (s *Scanner) scanOne(ctx context.Context) (Stats, error) {
	if !s.Filter.IsCandidate(s.Input) {
		s.Log.Infow("input excluded by path filter", "input", s.Input)
		return Stats{Skipped: true}, nil
	}

	stats := Stats{Targets: 1}
	groups, err := core.SafeAnalyze(ctx, s.Analyzer, s.Input, s.Rules)
	if err != nil {
		stats.Failed = 1
		return stats, err
	}

	stats.Groups = countNonEmpty(groups)
	return stats, s.Reporter.Report(s.Input, groups)
}

func (s *Scanner) scanMany(ctx context.Context) (Stats, error) {
	src := pipeline.NewDirectorySource(s.Input, s.Filter.IsCandidate)
	defer src.Close()

	// 每个任务使用规则集的独立副本和自己的分析状态
	proc := pipeline.ProcessorFunc[[]core.ResultGroup](func(ctx context.Context, task pipeline.Task) ([]core.ResultGroup, error) {
		groups, err := core.SafeAnalyze(ctx, s.Analyzer, task.Path, s.Rules.Clone())
		if err != nil {
			return nil, &pipeline.TaskError{Path: task.Path, Message: err.Error()}
		}
		return groups, nil
	})

	var stats Stats
	sink := pipeline.SinkFunc[[]core.ResultGroup](func(task pipeline.Task, groups []core.ResultGroup, err error) error {
		stats.Targets++
		if err != nil {
			stats.Failed++
			s.Reporter.ReportFailure(task.Path, err)
			return nil
		}
		s.Log.Debugw("target analysed", "task", task.ID.String(), "target", task.Path, "groups", len(groups))
		stats.Groups += countNonEmpty(groups)
		return s.Reporter.Report(task.Path, groups)
	})

	workers := s.Workers
	if workers <= 0 {
		workers = pipeline.DefaultWorkers()
	}
	err := pipeline.Run[[]core.ResultGroup](ctx, src, proc, sink, workers)
	return stats, err
}

func countNonEmpty(groups []core.ResultGroup) int {
	n := 0
	for _, g := range groups {
		if !g.Empty() {
			n++
		}
	}
	return n
}
