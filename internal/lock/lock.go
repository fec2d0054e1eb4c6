// Package lock 提供按键串行化的互斥锁。
package lock

import (
	"context"
	"sync"
)

// Locker 对同一个 key 的调用串行执行，不同 key 之间互不阻塞
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Local 是进程内的按键互斥锁
type Local struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewLocal 构造 Local
func NewLocal() *Local {
	return &Local{entries: make(map[string]*entry)}
}

// Lock 等待获取 key 对应的锁，ctx 取消时放弃等待
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

// size 返回当前持有或等待中的 key 数量
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
