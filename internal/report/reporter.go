// Package report 将分析结果渲染到控制台、汇总表和 JSONL 等输出通道
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/rules"
)

// Options 各输出通道的开关。Display 与 Summary 互斥由上游配置校验保证。
type Options struct {
	Display        bool
	DisplayContext int
	Summary        bool
	// Highlight 控制台输出是否使用颜色
	Highlight bool

	// OutputIsStdout 为真时 JSONL 独占标准输出，控制台渲染全部关闭
	OutputIsStdout bool
	JSONL          io.Writer

	HTMLPath string
	CSVPath  string
}

// Reporter 是唯一写输出的组件，只能被串行调用
type Reporter struct {
	rules   *rules.RuleSet
	opts    Options
	console io.Writer
	log     *zap.SugaredLogger

	jsonl   *json.Encoder
	rows    []Row
	records []core.GroupRecord
	stats   Stats
}

func New(rs *rules.RuleSet, opts Options, console io.Writer, log *zap.SugaredLogger) *Reporter {
	if console == nil {
		console = os.Stdout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := &Reporter{
		rules:   rs,
		opts:    opts,
		console: console,
		log:     log,
	}
	if opts.JSONL != nil {
		r.jsonl = json.NewEncoder(opts.JSONL)
		r.jsonl.SetEscapeHTML(false)
	}
	return r
}

func (r *Reporter) consoleEnabled() bool {
	return !r.opts.OutputIsStdout
}

// Report 处理一个目标的全部分组，空分组直接忽略
func (r *Reporter) Report(path string, groups []core.ResultGroup) error {
	for _, g := range groups {
		if g.Empty() {
			continue
		}

		findings, err := g.Resolve(r.rules)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, f := range findings {
			r.stats.Add(f.Rule.Severity)
		}

		if r.opts.Display && r.consoleEnabled() {
			displayPretty(r.console, path, g, findings, r.opts.DisplayContext, r.opts.Highlight)
		}
		if (r.opts.Summary && r.consoleEnabled()) || r.opts.CSVPath != "" {
			r.rows = append(r.rows, rowsFor(path, g, findings)...)
		}

		if r.jsonl == nil && r.opts.HTMLPath == "" {
			continue
		}
		rec, err := core.NewGroupRecord(r.rules, path, g)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if r.jsonl != nil {
			if err := r.jsonl.Encode(rec); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
		if r.opts.HTMLPath != "" {
			r.records = append(r.records, rec)
		}
	}
	return nil
}

// ReportFailure 输出单个目标的失败信息，扫描继续
func (r *Reporter) ReportFailure(path string, err error) {
	r.log.Warnw("target analysis failed", "target", path, "error", err)
	if r.consoleEnabled() {
		fmt.Fprintf(r.console, "failed to analyse %s: %v\n", path, err)
	}
}

// Stats 返回目前为止的命中统计
func (r *Reporter) Stats() Stats {
	return r.stats
}

// Close 输出需要累积的通道 (汇总表、CSV、HTML) 并刷新 JSONL
func (r *Reporter) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if r.opts.Summary && r.consoleEnabled() {
		keep(renderTable(r.console, r.rows))
	}
	if r.opts.CSVPath != "" {
		err := saveCSV(r.rows, r.opts.CSVPath)
		if err == nil {
			r.log.Infof("CSV 汇总已保存: %s", r.opts.CSVPath)
		}
		keep(err)
	}
	if r.opts.HTMLPath != "" {
		err := GenerateHTML(r.records, r.stats, r.opts.HTMLPath)
		if err == nil {
			r.log.Infof("HTML 报告已生成: %s", r.opts.HTMLPath)
		}
		keep(err)
	}
	if f, ok := r.opts.JSONL.(interface{ Flush() error }); ok {
		keep(f.Flush())
	}
	return firstErr
}
