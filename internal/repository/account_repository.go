package repository

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"cfs-assistant-go/internal/config"
	"cfs-assistant-go/pkg/hash"
)

// ErrAccountNotFound 表示用户名不存在。
var ErrAccountNotFound = errors.New("account not found")

// Account 是开发后端中的一个演示账户。
type Account struct {
	Username     string
	PasswordHash string
	AccountID    string
	Balance      float64
}

// AccountRepository 是开发后端的用户目录。
type AccountRepository interface {
	FindByUsername(username string) (*Account, error)
}

type memoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewAccountRepository 用配置中的演示用户构建用户目录，明文密码在此处被 bcrypt 哈希。
func NewAccountRepository(users []config.DevUserConfig) (AccountRepository, error) {
	r := &memoryAccountRepository{accounts: make(map[string]Account, len(users))}
	for _, u := range users {
		if u.Username == "" || u.AccountID == "" {
			return nil, fmt.Errorf("invalid demo user %q: username and account_id are required", u.Username)
		}
		hashed, err := hash.HashPassword(u.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.Username, err)
		}
		r.accounts[u.Username] = Account{
			Username:     u.Username,
			PasswordHash: hashed,
			AccountID:    u.AccountID,
			Balance:      u.Balance,
		}
	}
	return r, nil
}

func (r *memoryAccountRepository) FindByUsername(username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

// MaskAccountID 只保留账号的后四位，其余替换为 '*'。
func MaskAccountID(accountID string) string {
	if len(accountID) <= 4 {
		return accountID
	}
	return strings.Repeat("*", len(accountID)-4) + accountID[len(accountID)-4:]
}
