// Package backend 提供了与银行助手后端 HTTP 接口交互的客户端。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cfs-assistant-go/internal/config"
	"cfs-assistant-go/internal/model"
)

// DefaultTimeout 是未配置超时时每个请求的默认超时时间。
const DefaultTimeout = 15 * time.Second

var (
	// ErrUnauthorized 表示后端拒绝了会话令牌（HTTP 401）。
	ErrUnauthorized = errors.New("backend: session token rejected")
	// ErrMalformedResponse 表示响应体无法解析或缺少必需字段。
	ErrMalformedResponse = errors.New("backend: malformed response")
)

// StatusError 表示后端返回了非 2xx 状态码。
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}

// Client 定义了客户端使用的全部后端接口。
type Client interface {
	Welcome(ctx context.Context) (string, error)
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Chat(ctx context.Context, message, token string) (*ChatResponse, error)
	// DownloadURL 只拼接地址，不发起请求。
	DownloadURL(filename, token string) string
}

// LoginResponse 是 /login 成功时的响应体。
type LoginResponse struct {
	Token           string `json:"token"`
	Username        string `json:"username"`
	AccountID       string `json:"accountId"`
	MaskedAccountID string `json:"maskedAccountId"`
}

// ChatResponse 是 /chat 成功时的响应体。
type ChatResponse struct {
	Response  string           `json:"response"`
	Documents []model.Document `json:"documents"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type logoutRequest struct {
	Token string `json:"token"`
}

type chatRequest struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type welcomeResponse struct {
	Message string `json:"message"`
}

// errorResponse 对应后端的 {"detail": ...}；detail 可能是字符串也可能是校验错误数组。
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewClient 根据配置创建后端客户端。
func NewClient(cfg config.BackendConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Welcome 获取欢迎语，不需要认证。
func (c *httpClient) Welcome(ctx context.Context) (string, error) {
	var out welcomeResponse
	if err := c.do(ctx, http.MethodGet, "/welcome", nil, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		return "", fmt.Errorf("%w: empty welcome message", ErrMalformedResponse)
	}
	return out.Message, nil
}

// Login 提交用户名和密码。非 2xx 时返回 *StatusError。
func (c *httpClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login response without token", ErrMalformedResponse)
	}
	return &out, nil
}

// Logout 通知后端注销令牌，不关心响应体。
func (c *httpClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", logoutRequest{Token: token}, nil)
}

// Chat 发送一条聊天消息。HTTP 401 映射为 ErrUnauthorized。
func (c *httpClient) Chat(ctx context.Context, message, token string) (*ChatResponse, error) {
	var raw struct {
		Response  *string          `json:"response"`
		Documents []model.Document `json:"documents"`
	}
	err := c.do(ctx, http.MethodPost, "/chat", chatRequest{Message: message, Token: token}, &raw)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, se.Detail)
		}
		return nil, err
	}
	if raw.Response == nil {
		return nil, fmt.Errorf("%w: chat response without text", ErrMalformedResponse)
	}
	return &ChatResponse{Response: *raw.Response, Documents: raw.Documents}, nil
}

// DownloadURL 拼接 /api/download/{filename}?token=... 形式的下载地址。
func (c *httpClient) DownloadURL(filename, token string) string {
	q := url.Values{}
	q.Set("token", token)
	return c.baseURL + "/api/download/" + url.PathEscape(filename) + "?" + q.Encode()
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

// parseDetail 提取 {"detail": "..."}；detail 不是字符串时返回其原始 JSON。
func parseDetail(data []byte) string {
	var er errorResponse
	if err := json.Unmarshal(data, &er); err != nil || len(er.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(er.Detail, &s); err == nil {
		return s
	}
	return string(er.Detail)
}
