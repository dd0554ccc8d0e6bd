package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
)

// DirectorySource 递归遍历目录，按需产出被 accept 接受的普通文件。
// 遍历在后台 goroutine 中进行，与任务消费同步推进。
type DirectorySource struct {
	root   string
	accept func(path string) bool

	once     sync.Once
	stopOnce sync.Once
	tasks    chan Task
	stop     chan struct{}
	err      error
}

func NewDirectorySource(root string, accept func(path string) bool) *DirectorySource {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &DirectorySource{
		root:   root,
		accept: accept,
		tasks:  make(chan Task),
		stop:   make(chan struct{}),
	}
}

func (s *DirectorySource) walk() {
	defer close(s.tasks)

	s.err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// 根目录不可读是致命错误，其余不可读的条目直接跳过
			if path == s.root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.accept(path) {
			return nil
		}

		select {
		case s.tasks <- NewTask(path):
			return nil
		case <-s.stop:
			return fs.SkipAll
		}
	})
}

// Next 返回下一个目标，遍历结束后返回 false 以及遍历错误 (如有)
func (s *DirectorySource) Next(ctx context.Context) (Task, bool, error) {
	s.once.Do(func() { go s.walk() })

	select {
	case task, ok := <-s.tasks:
		if !ok {
			return Task{}, false, s.err
		}
		return task, true, nil
	case <-ctx.Done():
		s.Close()
		return Task{}, false, ctx.Err()
	}
}

// Close 提前结束遍历
func (s *DirectorySource) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
