package lock

import (
	"context"
	"errors"
)

var (
	// ErrInterrupted 等锁期间 ctx 被取消
	ErrInterrupted = errors.New("lock: interrupted while waiting")
	// ErrNotHeld 当前持有者并不持有该锁（未加锁或租约已丢失）
	ErrNotHeld = errors.New("lock: not held")
	// ErrAlreadyHeld 同一个 Mutex 不可重入
	ErrAlreadyHeld = errors.New("lock: already held by this mutex")
)

// Locker 按名称创建集群范围的互斥锁
type Locker interface {
	NewMutex(name string) Mutex
}

// Mutex 命名互斥锁，一个 Mutex 代表一个持有者
type Mutex interface {
	// Lock 阻塞直到获得锁，ctx 取消时返回 ErrInterrupted
	Lock(ctx context.Context) error
	// Unlock 释放锁，未持有时返回 ErrNotHeld
	Unlock(ctx context.Context) error
	// IsHeld 当前持有者是否持有锁
	IsHeld() bool
}
