package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/25smoking/parascope/internal/analyzer"
	"github.com/25smoking/parascope/internal/config"
	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/decompiler"
	"github.com/25smoking/parascope/internal/logging"
	"github.com/25smoking/parascope/internal/matcher"
	"github.com/25smoking/parascope/internal/report"
	"github.com/25smoking/parascope/internal/rules"
	"github.com/25smoking/parascope/internal/scan"
)

var (
	opts config.Options

	configPath string
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "parascope [flags] INPUT",
	Short: "parascope - 基于规则的二进制与 C/C++ 源码漏洞模式扫描器",
	Long: `parascope 对反编译得到的伪代码或 C/C++ 源码运行模式规则，
INPUT 为单个文件时同步分析，为目录时递归并行扫描所有候选目标。`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts.Input = args[0]
		opts.ContextSet = cmd.Flags().Changed("display-context")
		return runScan(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&opts.Mode, "mode", "m", string(core.ModeBinary), "分析模式 (binary, c, cxx)")
	f.StringArrayVar(&opts.PathFilters, "path-filter", nil, "目标路径过滤正则，可重复，替代模式默认值")
	f.BoolVar(&opts.Display, "display", false, "逐条输出命中及其上下文")
	f.IntVar(&opts.DisplayContext, "display-context", 5, "命中前后显示的行数 (需要 --display)")
	f.BoolVar(&opts.Summary, "summary", false, "扫描结束后输出汇总表")
	f.StringVarP(&opts.Rules, "rules", "r", "", "规则文件或目录")
	f.StringVarP(&opts.Output, "output", "o", "", "JSONL 结果文件 (追加写入，- 表示标准输出)")
	f.StringVar(&opts.HTML, "html", "", "生成 HTML 报告")
	f.StringVar(&opts.CSV, "csv", "", "导出 CSV 汇总")
	f.IntVar(&opts.Workers, "workers", 0, "并行分析的 worker 数 (默认按 CPU 数)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件 (默认 ./parascope.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "日志文件，按大小轮转")

	_ = rootCmd.MarkFlagRequired("rules")
	rootCmd.MarkFlagsMutuallyExclusive("display", "summary")

	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger() (*zap.SugaredLogger, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return log, cfg, nil
}

func runScan(ctx context.Context, stdout io.Writer) error {
	log, cfg, err := setupLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	opts.ApplyDefaults(cfg)
	if err := opts.Validate(); err != nil {
		return err
	}
	logHostInfo(log)

	rs, err := rules.Load(opts.Rules, log)
	if err != nil {
		if errors.Is(err, rules.ErrNoRules) {
			return err
		}
		return fmt.Errorf("could not parse rules: %w", err)
	}
	log.Infof("已加载 %d 条规则: %s", rs.Len(), opts.Rules)

	targets, err := opts.Filter()
	if err != nil {
		return err
	}

	jsonl, closeOutput, err := openOutput(opts.Output, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	rep := report.New(rs, report.Options{
		Display:        opts.Display,
		DisplayContext: opts.DisplayContext,
		Summary:        opts.Summary,
		Highlight:      !opts.OutputIsStdout() && isTerminal(os.Stdout),
		OutputIsStdout: opts.OutputIsStdout(),
		JSONL:          jsonl,
		HTMLPath:       opts.HTML,
		CSVPath:        opts.CSV,
	}, stdout, log)

	s := &scan.Scanner{
		Input:    opts.Input,
		Rules:    rs,
		Filter:   targets,
		Analyzer: newAnalyzer(opts.ScanMode(), cfg, log),
		Reporter: rep,
		Workers:  opts.Workers,
		Log:      log,
	}

	_, err = s.Run(ctx)
	if cerr := rep.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	st := rep.Stats()
	log.Infow("findings",
		"critical", st.Critical,
		"high", st.High,
		"medium", st.Medium,
		"low", st.Low,
		"info", st.Info,
	)
	return nil
}

func newAnalyzer(mode core.Mode, cfg *config.Config, log *zap.SugaredLogger) core.Analyzer {
	factory := matcher.PatternFactory(cfg.Scan.MatchTimeout)
	switch mode {
	case core.ModeC:
		return &analyzer.Source{NewMatcher: factory}
	case core.ModeCXX:
		return &analyzer.Source{NewMatcher: factory, CXX: true}
	}
	return &analyzer.Binary{
		Opener: &decompiler.CommandOpener{
			Command: cfg.Decompiler.Command,
			Timeout: cfg.Decompiler.Timeout,
			Log:     log,
		},
		NewMatcher: factory,
		Log:        log,
	}
}

// openOutput 打开 JSONL 输出。文件以追加方式打开，多次扫描的记录累积在同一文件中。
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	switch path {
	case "":
		return nil, func() {}, nil
	case config.StdoutOutput:
		return bufio.NewWriter(stdout), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open output file: %w", err)
	}
	return bufio.NewWriter(f), func() { f.Close() }, nil
}

func logHostInfo(log *zap.SugaredLogger) {
	info, err := host.Info()
	if err != nil {
		log.Debugf("无法获取主机信息: %v", err)
		return
	}
	log.Debugw("host",
		"hostname", info.Hostname,
		"platform", info.Platform,
		"version", info.PlatformVersion,
		"kernel", info.KernelVersion,
		"arch", info.KernelArch,
		"terminal", describeTerminal(),
	)
}
