package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"

	"github.com/25smoking/parascope/internal/core"
)

var tableHeaders = []string{"File", "Function name", "Function address", "Rule", "Checker", "Severity"}

// Row 汇总表中的一行，对应一个命中
type Row struct {
	File     string
	Function string
	Address  string
	Rule     string
	Checker  string
	Severity string
}

func (r Row) cells() []string {
	return []string{r.File, r.Function, r.Address, r.Rule, r.Checker, r.Severity}
}

func rowsFor(path string, g core.ResultGroup, findings []core.Finding) []Row {
	function, address := "-", "-"
	if g.FunctionName != nil {
		function = *g.FunctionName
	}
	if g.FunctionAddress != nil {
		address = fmt.Sprintf("%#x", *g.FunctionAddress)
	}

	rows := make([]Row, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, Row{
			File:     path,
			Function: function,
			Address:  address,
			Rule:     f.Rule.ID,
			Checker:  f.Checker.Name,
			Severity: f.Rule.Severity.String(),
		})
	}
	return rows
}

// renderTable 使用 pterm 将所有行渲染为一张表
func renderTable(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tableData := pterm.TableData{tableHeaders}
	for _, r := range rows {
		tableData = append(tableData, r.cells())
	}

	out, err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithData(tableData).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// saveCSV 导出汇总表
func saveCSV(rows []Row, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	// 写入 BOM 以防止 Excel 打开中文乱码
	if _, err := f.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(tableHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.cells()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
