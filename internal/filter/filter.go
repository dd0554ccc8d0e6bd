// Package filter 决定某个路径是否属于扫描目标
package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/decompiler"
)

// 各模式的默认扩展名，只在首次使用时编译
var defaultPatterns = sync.OnceValue(func() map[core.Mode][]*regexp.Regexp {
	return map[core.Mode][]*regexp.Regexp{
		core.ModeC:   {regexp.MustCompile(`\.(c|h)$`)},
		core.ModeCXX: {regexp.MustCompile(`\.(C|cc|cxx|cpp|H|hh|hxx|hpp|h)$`)},
	}
})

// DefaultPatterns 返回模式对应的默认过滤正则，二进制模式为空 (接受全部)
func DefaultPatterns(mode core.Mode) []*regexp.Regexp {
	return defaultPatterns()[mode]
}

type Filter struct {
	mode     core.Mode
	patterns []*regexp.Regexp
}

// New 编译用户提供的过滤正则。非空时完全替代模式默认值，多个正则之间为或关系。
func New(mode core.Mode, patterns []string) (*Filter, error) {
	f := &Filter{mode: mode}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path filter %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	if len(f.patterns) == 0 {
		f.patterns = DefaultPatterns(mode)
	}
	return f, nil
}

// IsCandidate 判断路径是否需要扫描。只依赖路径和文件系统中的同名数据库是否存在。
func (f *Filter) IsCandidate(path string) bool {
	if !f.matches(path) {
		return false
	}
	if f.mode == core.ModeBinary {
		return binaryCandidate(path)
	}
	return true
}

func (f *Filter) matches(path string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// binaryCandidate 已有反编译数据库的二进制只扫描数据库本身
func binaryCandidate(path string) bool {
	ext := filepath.Ext(path)
	if strings.TrimPrefix(ext, ".") == decompiler.DatabaseExt {
		return true
	}
	for _, sibling := range DatabaseSiblings(path) {
		if _, err := os.Stat(sibling); err == nil {
			return false
		}
	}
	return true
}

// DatabaseSiblings 返回 path 可能对应的数据库文件：foo.bin.i64 与 foo.i64
func DatabaseSiblings(path string) []string {
	siblings := []string{path + "." + decompiler.DatabaseExt}
	if ext := filepath.Ext(path); ext != "" {
		siblings = append(siblings, strings.TrimSuffix(path, ext)+"."+decompiler.DatabaseExt)
	}
	return siblings
}
