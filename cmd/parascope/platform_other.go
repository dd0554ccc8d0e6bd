//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package main

import "os"

// 无法判断终端的平台上不输出颜色
func isTerminal(*os.File) bool {
	return false
}

func describeTerminal() string {
	return "unknown"
}
