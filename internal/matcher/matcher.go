// Package matcher 定义规则匹配能力的窄接口，以及一个基于正则的默认实现。
package matcher

import (
	"github.com/25smoking/parascope/internal/rules"
)

// Result 单次匹配的不透明载荷，可独立序列化为 JSON
type Result interface {
	// Display 以 body 为原文渲染匹配位置，前后各保留若干行上下文
	Display(body string, before, after int, highlight bool) string
}

// Match 一次命中。下标只对产生它的 RuleSet 有意义。
type Match struct {
	Rule    int
	Checker int
	Result  Result
}

// Matcher 对一段文本按指定语法执行规则匹配
type Matcher interface {
	Matches(text string, grammar rules.Language) ([]Match, error)
}

// Factory 由规则集构造匹配器，每个扫描任务各自调用
type Factory func(rs *rules.RuleSet) (Matcher, error)

// GrammarFor 源码模式下根据 cxx 开关选择语法
func GrammarFor(cxx bool) rules.Language {
	if cxx {
		return rules.LanguageCXX
	}
	return rules.LanguageC
}
