package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/rules"
)

// ANSI 颜色代码
const (
	ColorReset   = "\033[0m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorWhite   = "\033[37m"
	ColorBold    = "\033[1m"
	ColorDim     = "\033[2m"
)

func levelColor(s rules.Severity) string {
	switch s {
	case rules.SeverityCritical:
		return ColorRed + ColorBold
	case rules.SeverityHigh:
		return ColorRed
	case rules.SeverityMedium:
		return ColorYellow
	case rules.SeverityLow:
		return ColorCyan
	default:
		return ColorWhite
	}
}

// header 单条命中的标题行
func header(f core.Finding, path string, g core.ResultGroup, color bool) string {
	var sb strings.Builder

	level := "[" + f.Rule.Severity.String() + "]"
	if color {
		level = levelColor(f.Rule.Severity) + level + ColorReset
	}
	fmt.Fprintf(&sb, "%s rule %s, check %s triggered for %s", level, f.Rule.ID, f.Checker.Name, path)

	if g.FunctionName != nil {
		fmt.Fprintf(&sb, " in %s", *g.FunctionName)
	}
	if g.FunctionAddress != nil {
		fmt.Fprintf(&sb, " @ %#x", *g.FunctionAddress)
	}
	return sb.String()
}

// displayPretty 逐条输出命中及其上下文
func displayPretty(w io.Writer, path string, g core.ResultGroup, findings []core.Finding, context int, color bool) {
	for _, f := range findings {
		fmt.Fprintln(w, header(f, path, g, color))
		if f.Match.Result != nil {
			fmt.Fprintln(w, f.Match.Result.Display(g.Body, context, context, color))
		}
		fmt.Fprintln(w)
	}
}

// Stats 按严重级别统计命中数
type Stats struct {
	Critical int
	High     int
	Medium   int
	Low      int
	Info     int
}

func (s *Stats) Add(sev rules.Severity) {
	switch sev {
	case rules.SeverityCritical:
		s.Critical++
	case rules.SeverityHigh:
		s.High++
	case rules.SeverityMedium:
		s.Medium++
	case rules.SeverityLow:
		s.Low++
	default:
		s.Info++
	}
}

func (s Stats) Total() int {
	return s.Critical + s.High + s.Medium + s.Low + s.Info
}
