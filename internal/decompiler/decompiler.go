// Package decompiler 抽象反编译数据库。真正的反编译由外部工具完成，
// 这里只约定扫描需要的最小接口。
package decompiler

import "context"

// DatabaseExt 反编译数据库文件扩展名 (不含点)
const DatabaseExt = "i64"

// Function 数据库中的一个函数
type Function struct {
	Name    string
	Address uint64
}

type Database interface {
	Functions() []Function
	// Decompile 返回函数伪代码，失败时 ok 为 false
	Decompile(f Function) (pseudocode string, ok bool)
	DecompilerAvailable() bool
	Close() error
}

// Opener 为扫描目标打开 (或创建) 反编译数据库
type Opener interface {
	Open(ctx context.Context, path string) (Database, error)
}

// OpenerFunc 函数适配为 Opener
type OpenerFunc func(ctx context.Context, path string) (Database, error)

func (f OpenerFunc) Open(ctx context.Context, path string) (Database, error) {
	return f(ctx, path)
}
