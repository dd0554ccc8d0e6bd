package decompiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// InputPlaceholder 命令参数中的占位符，替换为扫描目标路径
const InputPlaceholder = "{input}"

// CommandOpener 调用外部反编译导出工具 (例如 headless IDA 脚本)，解析其 JSON Lines 输出
type CommandOpener struct {
	Command []string
	Timeout time.Duration
	Log     *zap.SugaredLogger
}

// Open 执行导出命令并构建数据库
func (o *CommandOpener) Open(ctx context.Context, path string) (Database, error) {
	if len(o.Command) == 0 {
		return nil, errors.New("no decompiler command configured")
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	args := make([]string, len(o.Command))
	for i, a := range o.Command {
		args[i] = strings.ReplaceAll(a, InputPlaceholder, path)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if o.Log != nil {
		o.Log.Debugw("running decompiler exporter", "target", path, "command", args)
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("exporter failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("exporter failed: %w", err)
	}

	return Decode(&stdout)
}
