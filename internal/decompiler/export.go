package decompiler

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// 外部导出工具输出 JSON Lines：
//
//	{"decompiler": true}
//	{"name": "main", "address": 4198400, "pseudocode": "int main() { ... }"}
//	{"name": "sub_401200", "address": 4198912, "pseudocode": null}
type exportHeader struct {
	Decompiler *bool  `json:"decompiler"`
	Error      string `json:"error,omitempty"`
}

type exportFunction struct {
	Name       string  `json:"name"`
	Address    uint64  `json:"address"`
	Pseudocode *string `json:"pseudocode"`
}

const maxExportLine = 64 * 1024 * 1024

// ExportDatabase 由导出结果构建的内存数据库
type ExportDatabase struct {
	available  bool
	functions  []Function
	pseudocode map[Function]string
}

// Decode 解析导出流。头部缺失或格式错误视为打开失败。
func Decode(r io.Reader) (*ExportDatabase, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxExportLine)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read export header: %w", err)
		}
		return nil, errors.New("empty export")
	}

	var hdr exportHeader
	if err := json.Unmarshal(sc.Bytes(), &hdr); err != nil {
		return nil, fmt.Errorf("failed to parse export header: %w", err)
	}
	if hdr.Error != "" {
		return nil, fmt.Errorf("exporter: %s", hdr.Error)
	}
	if hdr.Decompiler == nil {
		return nil, errors.New("export header has no decompiler field")
	}

	db := &ExportDatabase{
		available:  *hdr.Decompiler,
		pseudocode: make(map[Function]string),
	}

	for line := 2; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var ef exportFunction
		if err := json.Unmarshal(sc.Bytes(), &ef); err != nil {
			return nil, fmt.Errorf("export line %d: %w", line, err)
		}
		f := Function{Name: ef.Name, Address: ef.Address}
		db.functions = append(db.functions, f)
		if ef.Pseudocode != nil {
			db.pseudocode[f] = *ef.Pseudocode
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return db, nil
}

func (db *ExportDatabase) Functions() []Function {
	return db.functions
}

func (db *ExportDatabase) Decompile(f Function) (string, bool) {
	if !db.available {
		return "", false
	}
	code, ok := db.pseudocode[f]
	return code, ok
}

func (db *ExportDatabase) DecompilerAvailable() bool {
	return db.available
}

func (db *ExportDatabase) Close() error {
	return nil
}
