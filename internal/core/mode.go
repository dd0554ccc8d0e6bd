package core

import "fmt"

// Mode 分析模式，决定使用的分析器和默认过滤规则
type Mode string

const (
	ModeBinary Mode = "binary"
	ModeC      Mode = "c"
	ModeCXX    Mode = "cxx"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeBinary, ModeC, ModeCXX:
		return m, nil
	}
	return "", fmt.Errorf("invalid mode %q (expected binary, c or cxx)", s)
}

func (m Mode) IsSource() bool {
	return m == ModeC || m == ModeCXX
}
