// Package pipeline 并行执行扫描任务：Source 产生任务，多个 worker 调用 Processor，
// 结果由单个 Sink 串行消费。
package pipeline

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

// Task 一个待处理的扫描目标
type Task struct {
	ID   uuid.UUID
	Path string
}

func NewTask(path string) Task {
	return Task{ID: uuid.New(), Path: path}
}

// Source 依次产生任务，返回 false 表示已无任务
type Source interface {
	Next(ctx context.Context) (Task, bool, error)
}

// Processor 处理单个任务。返回的错误只属于该任务，不会中断流水线。
type Processor[O any] interface {
	Process(ctx context.Context, task Task) (O, error)
}

// ProcessorFunc 函数适配为 Processor
type ProcessorFunc[O any] func(ctx context.Context, task Task) (O, error)

func (f ProcessorFunc[O]) Process(ctx context.Context, task Task) (O, error) {
	return f(ctx, task)
}

// Sink 串行接收每个任务的结果。返回错误会终止整个流水线。
type Sink[O any] interface {
	OnResult(task Task, out O, err error) error
}

// SinkFunc 函数适配为 Sink
type SinkFunc[O any] func(task Task, out O, err error) error

func (f SinkFunc[O]) OnResult(task Task, out O, err error) error {
	return f(task, out, err)
}

// TaskError 单个目标的失败信息
type TaskError struct {
	Path    string
	Message string
}

func (e *TaskError) Error() string {
	return e.Message
}

type taskResult[O any] struct {
	task Task
	out  O
	err  error
}

// Run 驱动整个流水线直到 Source 耗尽。只返回流水线级别的错误
// (Source 遍历失败、Sink 写入失败、ctx 取消)。
func Run[O any](ctx context.Context, src Source, proc Processor[O], sink Sink[O], workers int) error {
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan Task, workers)
	results := make(chan taskResult[O], workers)

	g.Go(func() error {
		defer close(tasks)
		for {
			task, ok, err := src.Next(gctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			select {
			case tasks <- task:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for task := range tasks {
				out, err := proc.Process(gctx, task)
				select {
				case results <- taskResult[O]{task: task, out: out, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	var sinkErr error
	for r := range results {
		if sinkErr != nil {
			continue
		}
		if err := sink.OnResult(r.task, r.out, r.err); err != nil {
			sinkErr = err
			cancel()
		}
	}

	runErr := <-done
	if sinkErr != nil {
		return sinkErr
	}
	return runErr
}

// DefaultWorkers 默认 worker 数为逻辑 CPU 数
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
