package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(f), 0o644))
	}
	return root
}

type collectSink struct {
	ok     []string
	failed []string
	active int32
	maxPar int32
	err    error
}

func (s *collectSink) OnResult(task Task, out string, err error) error {
	n := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	if n > s.maxPar {
		s.maxPar = n
	}

	if err != nil {
		s.failed = append(s.failed, filepath.Base(task.Path)+": "+err.Error())
		return nil
	}
	s.ok = append(s.ok, out)
	return s.err
}

func TestRunProcessesEveryAcceptedFile(t *testing.T) {
	root := makeTree(t, "a.c", "b.c", "sub/c.c", "sub/deeper/d.c", "skip.txt")
	src := NewDirectorySource(root, func(p string) bool { return strings.HasSuffix(p, ".c") })

	var calls int32
	proc := ProcessorFunc[string](func(_ context.Context, task Task) (string, error) {
		atomic.AddInt32(&calls, 1)
		assert.NotEqual(t, [16]byte{}, [16]byte(task.ID))
		if filepath.Base(task.Path) == "b.c" {
			return "", &TaskError{Path: task.Path, Message: "cannot open"}
		}
		return filepath.Base(task.Path), nil
	})

	sink := &collectSink{}
	require.NoError(t, Run[string](context.Background(), src, proc, sink, 4))

	sort.Strings(sink.ok)
	assert.Equal(t, []string{"a.c", "c.c", "d.c"}, sink.ok)
	assert.Equal(t, []string{"b.c: cannot open"}, sink.failed)
	assert.Equal(t, int32(4), calls)
	assert.Equal(t, int32(1), sink.maxPar)
}

func TestRunSinkErrorAbortsPipeline(t *testing.T) {
	root := makeTree(t, "a", "b", "c", "d", "e", "f")
	src := NewDirectorySource(root, nil)
	defer src.Close()

	proc := ProcessorFunc[string](func(_ context.Context, task Task) (string, error) {
		return task.Path, nil
	})
	sinkErr := errors.New("disk full")
	sink := &collectSink{err: sinkErr}

	err := Run[string](context.Background(), src, proc, sink, 2)
	assert.ErrorIs(t, err, sinkErr)
	assert.Len(t, sink.ok, 1)
}

func TestRunMissingRoot(t *testing.T) {
	src := NewDirectorySource(filepath.Join(t.TempDir(), "missing"), nil)
	proc := ProcessorFunc[string](func(context.Context, Task) (string, error) { return "", nil })

	err := Run[string](context.Background(), src, proc, &collectSink{}, 1)
	assert.Error(t, err)
}

func TestRunEmptyDirectory(t *testing.T) {
	src := NewDirectorySource(t.TempDir(), nil)
	proc := ProcessorFunc[string](func(context.Context, Task) (string, error) { return "x", nil })
	sink := &collectSink{}

	require.NoError(t, Run[string](context.Background(), src, proc, sink, 0))
	assert.Empty(t, sink.ok)
}

func TestDirectorySourceCancelledContext(t *testing.T) {
	src := NewDirectorySource(makeTree(t, "a"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := src.Next(ctx)
	// 两个分支都可能先就绪
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ok)
	}
	src.Close()
	src.Close()
}

func TestDefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}
