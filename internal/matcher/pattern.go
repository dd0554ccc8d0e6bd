package matcher

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/25smoking/parascope/internal/rules"
)

// DefaultMatchTimeout 单个检查器在一段文本上的匹配时限
const DefaultMatchTimeout = 5 * time.Second

type compiledChecker struct {
	rule    int
	checker int
	def     rules.Checker
	re      *regexp2.Regexp
}

// PatternMatcher 将每个检查器的 pattern 编译为 regexp2 正则并逐一匹配。
// 实例不是并发安全的，每个任务应自行构造。
type PatternMatcher struct {
	checkers []compiledChecker
}

// NewPatternMatcher 编译规则集内全部检查器
func NewPatternMatcher(rs *rules.RuleSet, timeout time.Duration) (*PatternMatcher, error) {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}

	m := &PatternMatcher{}
	for i, r := range rs.Rules() {
		for j, c := range r.Checkers {
			re, err := regexp2.Compile(c.Pattern, regexp2.Multiline)
			if err != nil {
				return nil, fmt.Errorf("rule %s, checker %s: %w", r.ID, c.Name, err)
			}
			re.MatchTimeout = timeout
			m.checkers = append(m.checkers, compiledChecker{rule: i, checker: j, def: c, re: re})
		}
	}
	return m, nil
}

// PatternFactory 返回构造 PatternMatcher 的 Factory
func PatternFactory(timeout time.Duration) Factory {
	return func(rs *rules.RuleSet) (Matcher, error) {
		return NewPatternMatcher(rs, timeout)
	}
}

// Matches 按规则、检查器、位置的顺序返回所有命中
func (m *PatternMatcher) Matches(text string, grammar rules.Language) ([]Match, error) {
	var (
		matches []Match
		idx     *offsetIndex
	)

	for _, cc := range m.checkers {
		if !cc.def.AppliesTo(grammar) {
			continue
		}

		found, err := cc.re.FindStringMatch(text)
		for ; err == nil && found != nil; found, err = cc.re.FindNextMatch(found) {
			if found.Length == 0 {
				continue
			}
			if idx == nil {
				idx = newOffsetIndex(text)
			}
			matches = append(matches, Match{
				Rule:    cc.rule,
				Checker: cc.checker,
				Result:  newQueryResult(text, idx, found),
			})
		}
		if err != nil {
			return nil, fmt.Errorf("checker %s: %w", cc.def.Name, err)
		}
	}
	return matches, nil
}

// offsetIndex 将 regexp2 的字符下标换算为字节偏移
type offsetIndex struct {
	bytes []int
}

func newOffsetIndex(text string) *offsetIndex {
	idx := &offsetIndex{bytes: make([]int, 0, len(text)+1)}
	for i := range text {
		idx.bytes = append(idx.bytes, i)
	}
	idx.bytes = append(idx.bytes, len(text))
	return idx
}

func (o *offsetIndex) byteOffset(runeIndex int) int {
	if runeIndex >= len(o.bytes) {
		return o.bytes[len(o.bytes)-1]
	}
	return o.bytes[runeIndex]
}

func newQueryResult(text string, idx *offsetIndex, m *regexp2.Match) *QueryResult {
	start := idx.byteOffset(m.Index)
	end := idx.byteOffset(m.Index + m.Length)
	line, col := position(text, start)

	qr := &QueryResult{
		Start:  start,
		End:    end,
		Line:   line,
		Column: col,
		Text:   text[start:end],
	}
	for _, g := range m.Groups() {
		if _, err := strconv.Atoi(g.Name); err == nil || len(g.Captures) == 0 {
			continue
		}
		if qr.Captures == nil {
			qr.Captures = make(map[string]string)
		}
		qr.Captures[g.Name] = g.String()
	}
	return qr
}
