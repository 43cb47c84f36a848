// persistence/interface.go
package persistence

import (
	"context"
	"fmt"
)

// Reader 有序键值存储的只读接口
type Reader interface {
	// Get returns ErrRecordNotFound when the key is absent.
	Get(ctx context.Context, key Key) ([]byte, error)
	GetOptional(ctx context.Context, key Key) ([]byte, bool, error)
	// ListKeys returns the keys of a collection in ascending order,
	// restricted to keys whose leading parts equal prefix.
	ListKeys(ctx context.Context, collection string, prefix ...string) ([]Key, error)
}

// Store 有序键值存储
type Store interface {
	Reader
	// View runs fn against a consistent snapshot.
	View(ctx context.Context, fn func(r Reader) error) error
	Put(ctx context.Context, key Key, value []byte) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
