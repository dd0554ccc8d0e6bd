package rules

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ruleFile 规则文件的顶层结构
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load 从文件或目录加载规则集
func Load(path string, log *zap.SugaredLogger) (*RuleSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("rule file/directory does not exist: %w", err)
	}

	var rs *RuleSet
	if info.IsDir() {
		rs, err = LoadDirectory(path, log)
	} else {
		rs, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if rs.IsEmpty() {
		return nil, ErrNoRules
	}
	return rs, nil
}

// LoadFile 解析单个规则文件，任何错误都视为失败
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return Parse(path, data)
}

// Parse 解析内存中的规则文件内容，name 只用于错误信息
func Parse(name string, data []byte) (*RuleSet, error) {
	rules, err := parseAny(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules %s: %w", name, err)
	}
	rs := New(rules...)
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules %s: %w", name, err)
	}
	return rs, nil
}

// LoadDirectory 递归加载目录下的所有 .yaml/.yml/.yar 文件。
// 无法解析的文件会被跳过并记录警告。
func LoadDirectory(dir string, log *zap.SugaredLogger) (*RuleSet, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".yar":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk rule directory: %w", err)
	}
	sort.Strings(paths)

	var all []Rule
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("跳过规则文件 %s: %v", path, err)
			continue
		}
		rules, err := parseAny(path, data)
		if err != nil {
			log.Warnf("跳过规则文件 %s: %v", path, err)
			continue
		}
		if err := New(rules...).Validate(); err != nil {
			log.Warnf("跳过规则文件 %s: %v", path, err)
			continue
		}
		all = append(all, rules...)
	}

	rs := New(all...)
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules in %s: %w", dir, err)
	}
	return rs, nil
}

// parseAny 按扩展名选择 YAML 或 .yar 语法
func parseAny(name string, data []byte) ([]Rule, error) {
	if isYar(name) {
		return parseYar(data)
	}
	return parse(data)
}

func parse(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Rules, nil
}

// Validate 检查规则 id 唯一且每条规则至少有一个具名检查器
func (rs *RuleSet) Validate() error {
	seen := make(map[string]bool, rs.Len())
	for i, r := range rs.rules {
		if r.ID == "" {
			return fmt.Errorf("rule #%d has no id", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true

		if len(r.Checkers) == 0 {
			return fmt.Errorf("rule %q has no checkers", r.ID)
		}
		for j, c := range r.Checkers {
			if c.Name == "" {
				return fmt.Errorf("rule %q: checker #%d has no name", r.ID, j)
			}
			if c.Pattern == "" {
				return fmt.Errorf("rule %q: checker %q has no pattern", r.ID, c.Name)
			}
			for _, l := range c.Languages {
				switch l {
				case LanguageC, LanguageCXX, LanguagePseudocode:
				default:
					return fmt.Errorf("rule %q: checker %q: unknown language %q", r.ID, c.Name, l)
				}
			}
		}
	}
	return nil
}
