package core

import (
	"encoding/json"
	"fmt"

	"github.com/25smoking/parascope/internal/matcher"
	"github.com/25smoking/parascope/internal/rules"
)

// ResultGroup 一个扫描实体 (二进制模式下的函数，源码模式下的整个文件) 的全部命中。
// 名称和地址相互独立，任一都可能缺失。
type ResultGroup struct {
	Body            string
	FunctionName    *string
	FunctionAddress *uint64
	Matches         []matcher.Match
}

func NewFunctionGroup(name string, address uint64, body string, matches []matcher.Match) ResultGroup {
	return ResultGroup{
		Body:            body,
		FunctionName:    &name,
		FunctionAddress: &address,
		Matches:         matches,
	}
}

func NewSourceGroup(body string, matches []matcher.Match) ResultGroup {
	return ResultGroup{Body: body, Matches: matches}
}

func (g ResultGroup) Empty() bool {
	return len(g.Matches) == 0
}

// Finding 下标已解析的单个命中
type Finding struct {
	Rule    *rules.Rule
	Checker *rules.Checker
	Match   matcher.Match
}

// Resolve 按产生分组的规则集解析每个命中的规则和检查器
func (g ResultGroup) Resolve(rs *rules.RuleSet) ([]Finding, error) {
	findings := make([]Finding, 0, len(g.Matches))
	for _, m := range g.Matches {
		r, c, ok := rs.Checker(m.Rule, m.Checker)
		if !ok {
			return nil, fmt.Errorf("match references unknown rule %d / checker %d", m.Rule, m.Checker)
		}
		findings = append(findings, Finding{Rule: r, Checker: c, Match: m})
	}
	return findings, nil
}

// MatchRecord 持久化的单个命中，规则和检查器以名称记录
type MatchRecord struct {
	Rule     string          `json:"rule"`
	Checker  string          `json:"checker"`
	Severity rules.Severity  `json:"severity"`
	Result   json.RawMessage `json:"result"`
}

// GroupRecord ResultGroup 的 JSONL 投影，与规则集的布局解耦
type GroupRecord struct {
	Path            string        `json:"path"`
	Source          string        `json:"source"`
	FunctionName    *string       `json:"function_name,omitempty"`
	FunctionAddress *uint64       `json:"function_address,omitempty"`
	Results         []MatchRecord `json:"results"`
}

// NewGroupRecord 在序列化之前解析所有下标
func NewGroupRecord(rs *rules.RuleSet, path string, g ResultGroup) (GroupRecord, error) {
	findings, err := g.Resolve(rs)
	if err != nil {
		return GroupRecord{}, err
	}

	rec := GroupRecord{
		Path:            path,
		Source:          g.Body,
		FunctionName:    g.FunctionName,
		FunctionAddress: g.FunctionAddress,
		Results:         make([]MatchRecord, 0, len(findings)),
	}
	for _, f := range findings {
		payload, err := json.Marshal(f.Match.Result)
		if err != nil {
			return GroupRecord{}, fmt.Errorf("cannot serialize match for rule %s: %w", f.Rule.ID, err)
		}
		rec.Results = append(rec.Results, MatchRecord{
			Rule:     f.Rule.ID,
			Checker:  f.Checker.Name,
			Severity: f.Rule.Severity,
			Result:   payload,
		})
	}
	return rec, nil
}
