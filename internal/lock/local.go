package lock

import (
	"context"
	"sync"
)

// LocalLocker 进程内锁，单实例部署和测试使用
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker 创建进程内锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

// NewMutex 同名 Mutex 共享同一把锁
func (l *LocalLocker) NewMutex(name string) Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.locks[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[name] = ch
	}
	return &localMutex{ch: ch}
}

type localMutex struct {
	ch   chan struct{}
	mu   sync.Mutex
	held bool
}

func (m *localMutex) Lock(ctx context.Context) error {
	if m.IsHeld() {
		return ErrAlreadyHeld
	}
	if ctx.Err() != nil {
		return ErrInterrupted
	}
	select {
	case m.ch <- struct{}{}:
		m.mu.Lock()
		m.held = true
		m.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ErrInterrupted
	}
}

func (m *localMutex) Unlock(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.held {
		return ErrNotHeld
	}
	m.held = false
	<-m.ch
	return nil
}

func (m *localMutex) IsHeld() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}
