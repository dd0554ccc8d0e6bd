package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/25smoking/parascope/internal/embedded"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "写出默认配置和示例规则",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runInit(dir)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "覆盖已存在的文件")
}

// runInit 将内嵌的 parascope.yaml 与 rules/ 写到 dir 下
func runInit(dir string) error {
	log, _, err := setupLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	written := 0
	err = fs.WalkDir(embedded.Content, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		// config/parascope.yaml 放在根目录，规则保持 rules/ 子目录
		rel := path
		if filepath.Dir(filepath.FromSlash(path)) == "config" {
			rel = filepath.Base(path)
		}
		target := filepath.Join(dir, filepath.FromSlash(rel))

		if _, err := os.Stat(target); err == nil && !initForce {
			log.Warnf("跳过已存在的文件: %s", target)
			return nil
		}

		data, err := embedded.Content.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("无法写出 %s: %w", target, err)
		}
		written++
		log.Infof("已写出: %s", target)
		return nil
	})
	if err != nil {
		return err
	}

	log.Infof("共写出 %d 个文件，可使用 parascope -r %s ... 开始扫描", written, filepath.Join(dir, "rules"))
	return nil
}
