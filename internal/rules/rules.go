package rules

import "errors"

// Language 检查器适用的代码类型
type Language string

const (
	LanguageC          Language = "c"
	LanguageCXX        Language = "cxx"
	LanguagePseudocode Language = "pseudocode"
)

// ErrNoRules 规则集为空时返回，扫描开始前即拒绝
var ErrNoRules = errors.New("no viable rules available at the path specified")

// Checker 规则下的一个具名子检查
type Checker struct {
	Name      string     `yaml:"name"`
	Pattern   string     `yaml:"pattern"`
	Languages []Language `yaml:"languages,omitempty"`
}

// AppliesTo 未声明 languages 时适用于所有类型
func (c Checker) AppliesTo(lang Language) bool {
	if len(c.Languages) == 0 {
		return true
	}
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

type Rule struct {
	ID          string    `yaml:"id"`
	Severity    Severity  `yaml:"severity"`
	Description string    `yaml:"description,omitempty"`
	Checkers    []Checker `yaml:"checkers"`
}

// RuleSet 有序规则集合。加载后只读，匹配结果通过下标引用其中的规则和检查器。
type RuleSet struct {
	rules []Rule
}

// New 直接由规则列表构造，主要用于测试和内嵌规则
func New(rules ...Rule) *RuleSet {
	return &RuleSet{rules: rules}
}

func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

func (rs *RuleSet) IsEmpty() bool {
	return rs.Len() == 0
}

// Rules 返回规则切片，调用方不得修改
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

// Rule 按下标查找规则
func (rs *RuleSet) Rule(i int) (*Rule, bool) {
	if i < 0 || i >= rs.Len() {
		return nil, false
	}
	return &rs.rules[i], true
}

// Checker 按规则下标和检查器下标查找
func (rs *RuleSet) Checker(rule, checker int) (*Rule, *Checker, bool) {
	r, ok := rs.Rule(rule)
	if !ok || checker < 0 || checker >= len(r.Checkers) {
		return nil, nil, false
	}
	return r, &r.Checkers[checker], true
}

// Clone 浅拷贝，与原集合共享规则数据。每个扫描任务持有自己的副本。
func (rs *RuleSet) Clone() *RuleSet {
	if rs == nil {
		return nil
	}
	return &RuleSet{rules: rs.rules[:len(rs.rules):len(rs.rules)]}
}
