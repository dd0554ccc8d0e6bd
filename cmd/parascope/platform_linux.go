//go:build linux

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

func isTerminal(f *os.File) bool {
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	return err == nil
}

func describeTerminal() string {
	if isTerminal(os.Stdout) {
		return "tty"
	}
	return "pipe"
}
