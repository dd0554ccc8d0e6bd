package rules

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// .yar 文件的简化 YARA 语法：
//
//	rule UnsafeCopy {
//	    meta:
//	        severity = "high"
//	        description = "..."
//	    strings:
//	        $strcpy = "strcpy(" nocase
//	        $sprintf = /\bsprintf\s*\(/
//	    condition:
//	        any of them
//	}
//
// 每个字符串成为一个检查器，condition 被忽略 (任意检查器命中即报告)。

var (
	// rule RuleName {
	reRuleStart = regexp.MustCompile(`^rule\s+([\w_]+)`)
	// $s = "string" [nocase]
	reString = regexp.MustCompile(`^\s*\$([\w_]+)\s*=\s*(.*)`)
	// key = "value"
	reMeta = regexp.MustCompile(`^([\w_]+)\s*=\s*"(.*)"$`)
)

func isYar(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".yar")
}

// parseYar 解析 .yar 文件内容
func parseYar(data []byte) ([]Rule, error) {
	var rules []Rule
	var current *Rule
	section := ""

	flush := func() {
		if current != nil {
			rules = append(rules, *current)
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		// 1. 发现新规则
		if match := reRuleStart.FindStringSubmatch(line); len(match) > 1 {
			flush()
			current = &Rule{ID: match[1], Severity: SeverityMedium}
			section = ""
			continue
		}
		if current == nil {
			continue
		}

		switch line {
		case "meta:", "strings:", "condition:":
			section = strings.TrimSuffix(line, ":")
			continue
		case "}":
			continue
		}

		switch section {
		case "meta":
			match := reMeta.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			switch match[1] {
			case "severity":
				sev, err := ParseSeverity(match[2])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				current.Severity = sev
			case "description":
				current.Description = match[2]
			}

		// 2. 解析字符串
		case "strings":
			match := reString.FindStringSubmatch(line)
			if match == nil {
				return nil, fmt.Errorf("line %d: malformed string definition", lineNo)
			}
			pattern, err := yarPattern(match[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current.Checkers = append(current.Checkers, Checker{Name: match[1], Pattern: pattern})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return rules, nil
}

// yarPattern 将 "文本" 或 /正则/ 转为检查器模式，支持 nocase 修饰
func yarPattern(raw string) (string, error) {
	nocase := strings.Contains(strings.ToLower(raw), "nocase")

	var pattern string
	switch {
	case strings.HasPrefix(raw, `"`):
		end := strings.LastIndex(raw, `"`)
		if end <= 0 {
			return "", fmt.Errorf("unterminated string %s", raw)
		}
		pattern = regexp2.Escape(raw[1:end])
	case strings.HasPrefix(raw, "/"):
		end := strings.LastIndex(raw, "/")
		if end <= 0 {
			return "", fmt.Errorf("unterminated regex %s", raw)
		}
		pattern = raw[1:end]
	default:
		return "", fmt.Errorf("unsupported string %s", raw)
	}

	if nocase {
		pattern = "(?i)" + pattern
	}
	return pattern, nil
}
