package scan

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/25smoking/parascope/internal/analyzer"
	"github.com/25smoking/parascope/internal/core"
	"github.com/25smoking/parascope/internal/decompiler"
	"github.com/25smoking/parascope/internal/filter"
	"github.com/25smoking/parascope/internal/matcher"
	"github.com/25smoking/parascope/internal/report"
	"github.com/25smoking/parascope/internal/rules"
)

type fakeDB struct {
	available bool
	code      map[string]string
}

func (db *fakeDB) Functions() []decompiler.Function {
	var names []string
	for name := range db.code {
		names = append(names, name)
	}
	sort.Strings(names)

	funcs := make([]decompiler.Function, 0, len(names))
	for i, name := range names {
		funcs = append(funcs, decompiler.Function{Name: name, Address: uint64(0x1000 * (i + 1))})
	}
	return funcs
}

func (db *fakeDB) Decompile(f decompiler.Function) (string, bool) {
	code, ok := db.code[f.Name]
	return code, ok
}

func (db *fakeDB) DecompilerAvailable() bool { return db.available }
func (db *fakeDB) Close() error              { return nil }

func scanRules() *rules.RuleSet {
	return rules.New(rules.Rule{
		ID:       "unsafe-copy",
		Severity: rules.SeverityHigh,
		Checkers: []rules.Checker{{Name: "strcpy", Pattern: `\bstrcpy\s*\(`}},
	})
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// binaryOpener 根据目标文件内容构造数据库：内容为 "nodecompiler" 时反编译器不可用
func binaryOpener() decompiler.Opener {
	return decompiler.OpenerFunc(func(_ context.Context, path string) (decompiler.Database, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if string(data) == "nodecompiler" {
			return &fakeDB{available: false}, nil
		}
		return &fakeDB{available: true, code: map[string]string{
			"main":   "int main() { return 0; }",
			"vuln":   "void vuln(char *s) { char b[4]; strcpy(b, s); }",
			"broken": "",
		}}, nil
	})
}

func readRecords(t *testing.T, buf *bytes.Buffer) []core.GroupRecord {
	t.Helper()
	var out []core.GroupRecord
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec core.GroupRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	return out
}

func newScanner(t *testing.T, input string, mode core.Mode, a core.Analyzer, rep Reporter, patterns ...string) *Scanner {
	t.Helper()
	f, err := filter.New(mode, patterns)
	require.NoError(t, err)
	return &Scanner{
		Input:    input,
		Rules:    scanRules(),
		Filter:   f,
		Analyzer: a,
		Reporter: rep,
		Workers:  3,
	}
}

func TestMultiTargetBinaryIsolatesFailures(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"target1.bin": "ok",
		"target2.bin": "nodecompiler",
		"target3.bin": "ok",
	})

	var console, jsonl bytes.Buffer
	rs := scanRules()
	rep := report.New(rs, report.Options{JSONL: &jsonl}, &console, nil)
	a := &analyzer.Binary{Opener: binaryOpener(), NewMatcher: matcher.PatternFactory(0)}

	s := newScanner(t, root, core.ModeBinary, a, rep)
	s.Rules = rs
	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, rep.Close())

	assert.Equal(t, 3, stats.Targets)
	assert.Equal(t, 1, stats.Failed)

	diag := strings.Split(strings.TrimSpace(console.String()), "\n")
	require.Len(t, diag, 1)
	assert.True(t, strings.HasPrefix(diag[0], "failed to analyse "+filepath.Join(root, "target2.bin")+": "))
	assert.Contains(t, diag[0], core.ErrDecompilerUnavailable.Error())

	records := readRecords(t, &jsonl)
	var paths []string
	for _, rec := range records {
		paths = append(paths, filepath.Base(rec.Path))
		require.NotNil(t, rec.FunctionName)
		assert.Equal(t, "vuln", *rec.FunctionName)
		assert.Equal(t, "unsafe-copy", rec.Results[0].Rule)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"target1.bin", "target3.bin"}, paths)
}

func TestMultiTargetSkipsBinariesWithDatabases(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"foo.bin":     "ok",
		"foo.bin.i64": "ok",
		"bar.bin":     "ok",
	})

	var jsonl bytes.Buffer
	rs := scanRules()
	rep := report.New(rs, report.Options{JSONL: &jsonl}, &bytes.Buffer{}, nil)
	a := &analyzer.Binary{Opener: binaryOpener(), NewMatcher: matcher.PatternFactory(0)}

	s := newScanner(t, root, core.ModeBinary, a, rep)
	s.Rules = rs
	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Targets)

	var paths []string
	for _, rec := range readRecords(t, &jsonl) {
		paths = append(paths, filepath.Base(rec.Path))
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"bar.bin", "foo.bin.i64"}, paths)
}

func TestSourceDirectoryAccountsForEveryCandidate(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.c":          "void a(char *s){ char b[2]; strcpy(b, s); }",
		"b.c":          "int b(void){ return 1; }",
		"inc/c.h":      "#define COPY(d, s) strcpy(d, s)",
		"notes.txt":    "strcpy(",
		"lib/d.cpp":    "strcpy(x, y);",
		"lib/deep/e.c": "strcpy(p, q);",
	})
	unreadable := filepath.Join(root, "lib", "deep", "e.c")

	var console, jsonl bytes.Buffer
	rs := scanRules()
	rep := report.New(rs, report.Options{JSONL: &jsonl}, &console, nil)

	base := &analyzer.Source{NewMatcher: matcher.PatternFactory(0)}
	a := failingFor{Analyzer: base, path: unreadable}

	s := newScanner(t, root, core.ModeC, a, rep)
	s.Rules = rs
	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	// a.c, b.c, c.h, e.c 符合默认扩展名
	assert.Equal(t, 4, stats.Targets)
	assert.Equal(t, 1, stats.Failed)

	records := readRecords(t, &jsonl)
	var paths []string
	for _, rec := range records {
		paths = append(paths, filepath.Base(rec.Path))
		assert.Nil(t, rec.FunctionName)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"a.c", "c.h"}, paths)
	assert.Equal(t, 1, strings.Count(console.String(), "failed to analyse"))
}

type failingFor struct {
	core.Analyzer
	path string
}

func (f failingFor) Analyze(ctx context.Context, path string, rs *rules.RuleSet) ([]core.ResultGroup, error) {
	if path == f.path {
		return nil, core.ErrCannotOpen
	}
	return f.Analyzer.Analyze(ctx, path, rs)
}

func TestSingleTargetPropagatesError(t *testing.T) {
	root := writeFiles(t, map[string]string{"fw.bin": "nodecompiler"})

	var console bytes.Buffer
	rs := scanRules()
	rep := report.New(rs, report.Options{Display: true}, &console, nil)
	a := &analyzer.Binary{Opener: binaryOpener(), NewMatcher: matcher.PatternFactory(0)}

	s := newScanner(t, filepath.Join(root, "fw.bin"), core.ModeBinary, a, rep)
	s.Rules = rs
	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, core.ErrDecompilerUnavailable)
	assert.Empty(t, console.String())
}

func TestSingleTargetDisplay(t *testing.T) {
	root := writeFiles(t, map[string]string{"main.c": "int main(){\n  strcpy(a, b);\n}\n"})

	var console bytes.Buffer
	rs := scanRules()
	rep := report.New(rs, report.Options{Display: true, DisplayContext: 1}, &console, nil)

	s := newScanner(t, filepath.Join(root, "main.c"), core.ModeC, &analyzer.Source{NewMatcher: matcher.PatternFactory(0)}, rep)
	s.Rules = rs
	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Groups)
	assert.Contains(t, console.String(), "[High] rule unsafe-copy, check strcpy triggered for "+filepath.Join(root, "main.c"))
}

type recordingReporter struct {
	reports  int
	failures int
}

func (r *recordingReporter) Report(string, []core.ResultGroup) error { r.reports++; return nil }
func (r *recordingReporter) ReportFailure(string, error)           { r.failures++ }

type countingAnalyzer struct{ calls int }

func (a *countingAnalyzer) Name() string { return "counting" }
func (a *countingAnalyzer) Analyze(context.Context, string, *rules.RuleSet) ([]core.ResultGroup, error) {
	a.calls++
	return nil, nil
}

func TestSingleTargetExcludedByFilterIsNoop(t *testing.T) {
	root := writeFiles(t, map[string]string{"notes.txt": "strcpy("})
	rep := &recordingReporter{}
	a := &countingAnalyzer{}

	s := newScanner(t, filepath.Join(root, "notes.txt"), core.ModeC, a, rep)
	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 0, rep.reports)
}

func TestEmptyRuleSetRefusedBeforeIO(t *testing.T) {
	a := &countingAnalyzer{}
	s := &Scanner{
		Input:    filepath.Join(t.TempDir(), "does-not-exist"),
		Rules:    rules.New(),
		Analyzer: a,
		Reporter: &recordingReporter{},
	}
	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, rules.ErrNoRules)
	assert.Equal(t, 0, a.calls)
}

func TestMissingInput(t *testing.T) {
	s := newScanner(t, filepath.Join(t.TempDir(), "missing"), core.ModeC, &countingAnalyzer{}, &recordingReporter{})
	_, err := s.Run(context.Background())
	assert.Error(t, err)
}

type errReporter struct{ recordingReporter }

func (r *errReporter) Report(string, []core.ResultGroup) error { return errors.New("disk full") }

func TestMultiTargetSinkErrorIsFatal(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.c": "x", "b.c": "y"})
	s := newScanner(t, root, core.ModeC, &countingAnalyzer{}, &errReporter{})
	_, err := s.Run(context.Background())
	assert.EqualError(t, err, "disk full")
}
