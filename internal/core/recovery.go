package core

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/25smoking/parascope/internal/rules"
)

type loggerKey struct{}

// WithLogger 将日志器放入 context，供 SafeAnalyze 记录 panic 堆栈
func WithLogger(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// SafeAnalyze 安全执行分析器，捕获外部组件 (反编译器、匹配器) 的 panic 并转换为错误
func SafeAnalyze(ctx context.Context, a Analyzer, path string, rs *rules.RuleSet) (groups []ResultGroup, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			err = fmt.Errorf("%s analyzer panicked: %v", a.Name(), r)
			groups = nil

			if log, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
				log.Errorw("分析器执行 panic",
					"analyzer", a.Name(),
					"target", path,
					"panic", r,
					"stack", stack,
				)
			}
		}
	}()

	return a.Analyze(ctx, path, rs)
}
