package matcher

import (
	"fmt"
	"strings"
)

const (
	highlightOn  = "\033[1;31m"
	highlightOff = "\033[0m"
)

// QueryResult 一次正则命中的位置信息。偏移为字节偏移，行列号从 1 开始。
type QueryResult struct {
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Line     int               `json:"line"`
	Column   int               `json:"column"`
	Text     string            `json:"text"`
	Captures map[string]string `json:"captures,omitempty"`
}

func position(text string, offset int) (line, col int) {
	prefix := text[:offset]
	line = strings.Count(prefix, "\n") + 1
	col = offset - (strings.LastIndexByte(prefix, '\n') + 1) + 1
	return line, col
}

// Display 渲染命中所在的行以及前后 before/after 行上下文，带行号。
func (q *QueryResult) Display(body string, before, after int, highlight bool) string {
	start, end := clamp(q.Start, len(body)), clamp(q.End, len(body))
	if end < start {
		end = start
	}

	lines := strings.SplitAfter(body, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	firstLine, _ := position(body, start)
	lastLine := firstLine
	if end > start {
		lastLine, _ = position(body, end-1)
	}

	from := max(firstLine-before, 1)
	to := min(lastLine+after, len(lines))
	width := len(fmt.Sprint(to))

	var sb strings.Builder
	offset := 0
	for n := 1; n <= to; n++ {
		line := lines[n-1]
		lineStart := offset
		offset += len(line)
		if n < from {
			continue
		}

		text := strings.TrimRight(line, "\r\n")
		if highlight && n >= firstLine && n <= lastLine {
			text = highlightSpan(text, start-lineStart, end-lineStart)
		}

		marker := ' '
		if n >= firstLine && n <= lastLine {
			marker = '>'
		}
		fmt.Fprintf(&sb, "%c %*d | %s\n", marker, width, n, text)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func highlightSpan(line string, start, end int) string {
	start, end = clamp(start, len(line)), clamp(end, len(line))
	if start >= end {
		return line
	}
	return line[:start] + highlightOn + line[start:end] + highlightOff + line[end:]
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
