package repository

import (
	"sync"
	"time"
)

// TokenBlacklist 记录已注销的 token，直到它们自然过期。
type TokenBlacklist interface {
	Revoke(tokenID string, expiresAt time.Time)
	IsRevoked(tokenID string) bool
}

type memoryTokenBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewTokenBlacklist 创建一个内存 token 黑名单。
func NewTokenBlacklist() TokenBlacklist {
	return &memoryTokenBlacklist{revoked: make(map[string]time.Time), now: time.Now}
}

func (b *memoryTokenBlacklist) Revoke(tokenID string, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeLocked()
	b.revoked[tokenID] = expiresAt
}

func (b *memoryTokenBlacklist) IsRevoked(tokenID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[tokenID]
	return ok
}

// purgeLocked 清理已经过期的条目，过期的 token 本身就无法通过校验。
func (b *memoryTokenBlacklist) purgeLocked() {
	now := b.now()
	for id, exp := range b.revoked {
		if now.After(exp) {
			delete(b.revoked, id)
		}
	}
}
