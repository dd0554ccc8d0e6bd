package report

import (
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/rules"
)

const reportTemplate = `
<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>parascope 扫描报告</title>
    <style>
        :root {
            --bg-color: #f8f9fa;
            --card-bg: #ffffff;
            --text-color: #333;
            --critical: #dc3545;
            --high: #fd7e14;
            --medium: #ffc107;
            --low: #28a745;
            --info: #6c757d;
            --border-color: #dee2e6;
        }
        body { font-family: 'Segoe UI', sans-serif; background: var(--bg-color); color: var(--text-color); margin: 0; padding: 20px; }
        .container { max-width: 1200px; margin: 0 auto; }
        .header { text-align: center; margin-bottom: 30px; }
        .stats { display: flex; gap: 20px; margin-bottom: 20px; }
        .stat-card { flex: 1; background: var(--card-bg); padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); text-align: center; }
        .stat-num { font-size: 2em; font-weight: bold; }
        .critical { color: var(--critical); }
        .high { color: var(--high); }
        .medium { color: var(--medium); }
        .low { color: var(--low); }
        .info { color: var(--info); }

        .finding-card { background: var(--card-bg); border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); margin-bottom: 15px; border-left: 5px solid #ccc; overflow: hidden; }
        .finding-header { padding: 15px; background: rgba(0,0,0,0.02); display: flex; justify-content: space-between; align-items: center; cursor: pointer; }
        .finding-title { font-weight: bold; display: flex; align-items: center; gap: 10px; }
        .badge { padding: 4px 8px; border-radius: 4px; color: white; font-size: 0.8em; text-transform: uppercase; }
        .bg-critical { background: var(--critical); }
        .bg-high { background: var(--high); }
        .bg-medium { background: var(--medium); color: black; }
        .bg-low { background: var(--low); }
        .bg-info { background: var(--info); }

        .finding-body { padding: 15px; display: none; border-top: 1px solid var(--border-color); }
        .finding-body.open { display: block; }
        .detail-row { margin-bottom: 10px; }
        .label { font-weight: bold; color: #666; }
        code { background: #eee; padding: 2px 5px; border-radius: 3px; word-break: break-all; }
        pre { background: #f4f4f4; padding: 10px; overflow-x: auto; max-height: 400px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>parascope 扫描报告</h1>
            <p>生成时间: {{ .GeneratedAt }}</p>
        </div>

        <div class="stats">
            <div class="stat-card"><div class="stat-num critical">{{ .Stats.Critical }}</div><div>Critical</div></div>
            <div class="stat-card"><div class="stat-num high">{{ .Stats.High }}</div><div>High</div></div>
            <div class="stat-card"><div class="stat-num medium">{{ .Stats.Medium }}</div><div>Medium</div></div>
            <div class="stat-card"><div class="stat-num low">{{ .Stats.Low }}</div><div>Low</div></div>
            <div class="stat-card"><div class="stat-num info">{{ .Stats.Info }}</div><div>Info</div></div>
        </div>

        <div id="findings">
            {{ range .Records }}
            <div class="finding-card">
                <div class="finding-header" onclick="this.nextElementSibling.classList.toggle('open')">
                    <div class="finding-title">
                        <code>{{ .Path }}</code>
                        {{ if .FunctionName }}{{ deref .FunctionName }}{{ end }}
                        {{ if .FunctionAddress }}@ {{ hex .FunctionAddress }}{{ end }}
                    </div>
                    <div>▼</div>
                </div>
                <div class="finding-body">
                    {{ range .Results }}
                    <div class="detail-row">
                        <span class="badge bg-{{ level .Severity }}">{{ .Severity }}</span>
                        <span class="label">{{ .Rule }}</span> / {{ .Checker }}
                        <code>{{ printf "%s" .Result }}</code>
                    </div>
                    {{ end }}
                    <pre>{{ .Source }}</pre>
                </div>
            </div>
            {{ else }}
            <div style="text-align: center; padding: 40px; color: #666;">
                未发现任何命中
            </div>
            {{ end }}
        </div>
    </div>
</body>
</html>
`

type ReportData struct {
	GeneratedAt string
	Stats       Stats
	Records     []core.GroupRecord
}

var reportFuncs = template.FuncMap{
	"hex": func(addr *uint64) string {
		if addr == nil {
			return ""
		}
		return fmt.Sprintf("%#x", *addr)
	},
	"deref": func(name *string) string {
		if name == nil {
			return ""
		}
		return *name
	},
	"level": func(s rules.Severity) string {
		return strings.ToLower(s.String())
	},
}

// GenerateHTML 将全部记录渲染为单个 HTML 报告
func GenerateHTML(records []core.GroupRecord, stats Stats, filename string) error {
	data := ReportData{
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Stats:       stats,
		Records:     records,
	}

	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(reportTemplate)
	if err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}
