package service

import (
	"errors"
	"fmt"
)

// 面向用户的固定文案。
const (
	FallbackWelcomeText    = "Hi, I am your banking assistant. How can I help you today?"
	SessionExpiredText     = "Your session has expired. Please login again."
	ChatConnectionText     = "Error connecting to server. Please try again."
	LoginConnectionText    = "Connection error. Please try again."
	InvalidCredentialsText = "Invalid username or password"
)

var (
	// ErrAuthorizationExpired 表示聊天时后端返回 401，会话将被强制注销。
	ErrAuthorizationExpired = errors.New("authorization expired")
	// ErrBackendUnavailable 表示欢迎语获取失败；只用于日志，不会返回给调用方。
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotAuthenticated 表示当前没有已认证的会话。
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAlreadyAuthenticated 表示在已登录状态下再次登录。
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrLoginInProgress 表示已有一个登录请求正在进行。
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrEmptyMessage 表示消息内容为空白。
	ErrEmptyMessage = errors.New("message is empty")
	// ErrEmptyDocumentName 表示下载时没有给出文件名。
	ErrEmptyDocumentName = errors.New("document name is empty")
)

// AuthError 表示凭证被拒绝，Message 可直接展示给用户。
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ConnectionError 表示网络或解析失败，Message 可直接展示给用户。
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
