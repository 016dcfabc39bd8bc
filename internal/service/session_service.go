// Package service 包含了客户端的会话控制与消息交换逻辑。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cfs-assistant-go/internal/model"
	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/backend"
	"cfs-assistant-go/pkg/kafka"
	"cfs-assistant-go/pkg/log"
)

// State 是会话状态机的状态。
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionService 负责登录、登出与会话恢复，是会话状态的唯一写入方。
type SessionService interface {
	Restore(ctx context.Context) (model.Session, bool)
	Login(ctx context.Context, username, password string) (model.Session, error)
	// Logout 永远在本地成功，可重复调用。
	Logout(ctx context.Context)
	// EndSession 仅当当前会话仍持有 token 时才注销，用于延迟执行的强制注销。
	EndSession(ctx context.Context, token string)
	// MarkExpired 将持有 token 的会话标记为已过期并清除存储，返回本次调用是否完成了标记。
	MarkExpired(ctx context.Context, token string) bool
	Expired() bool
	State() State
	Current() (model.Session, bool)
}

type sessionService struct {
	client       backend.Client
	store        repository.SessionRepository
	conversation repository.ConversationRepository
	events       kafka.Publisher

	mu      sync.Mutex
	state   State
	session model.Session
	expired bool
}

// NewSessionService 创建一个新的 SessionService 实例，初始状态为 Anonymous。
func NewSessionService(client backend.Client, store repository.SessionRepository, conversation repository.ConversationRepository, events kafka.Publisher) SessionService {
	if events == nil {
		events = kafka.NewNopPublisher()
	}
	return &sessionService{
		client:       client,
		store:        store,
		conversation: conversation,
		events:       events,
	}
}

// Restore 从存储中恢复会话。只有四个字段都非空时才恢复；
// 否则返回 false 且不修改存储（不修补残缺会话）。
func (s *sessionService) Restore(ctx context.Context) (model.Session, bool) {
	s.mu.Lock()
	if s.state == StateAuthenticated {
		current := s.session
		s.mu.Unlock()
		return current, true
	}
	if s.state == StateAuthenticating {
		s.mu.Unlock()
		return model.Session{}, false
	}
	s.mu.Unlock()

	saved, err := s.store.Load(ctx)
	if err != nil {
		log.Warnf("[SessionService] 读取会话存储失败: %v", err)
		return model.Session{}, false
	}
	if !saved.Complete() {
		log.Debugf("[SessionService] 存储中没有完整的会话，保持匿名状态")
		return model.Session{}, false
	}

	s.mu.Lock()
	if s.state != StateAnonymous {
		s.mu.Unlock()
		return model.Session{}, false
	}
	s.session = saved
	s.state = StateAuthenticated
	s.expired = false
	s.mu.Unlock()

	s.conversation.Reset()
	log.Infof("Session restored for user '%s'", saved.Username)
	s.publish(ctx, kafka.SessionEvent{Type: kafka.EventRestored, Username: saved.Username, MaskedAccountID: saved.MaskedAccountID})
	return saved, true
}

// Login 使用用户名和密码登录。
func (s *sessionService) Login(ctx context.Context, username, password string) (model.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return model.Session{}, &AuthError{Message: InvalidCredentialsText}
	}

	s.mu.Lock()
	switch s.state {
	case StateAuthenticated:
		s.mu.Unlock()
		return model.Session{}, ErrAlreadyAuthenticated
	case StateAuthenticating:
		s.mu.Unlock()
		return model.Session{}, ErrLoginInProgress
	}
	s.state = StateAuthenticating
	s.mu.Unlock()

	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.setState(StateAnonymous)
		loginErr := classifyLoginError(err)
		log.Warnf("Login: User authentication failed for '%s', error: %v", username, err)
		s.publish(ctx, kafka.SessionEvent{Type: kafka.EventLoginFailed, Username: username, Reason: loginErr.Error()})
		return model.Session{}, loginErr
	}

	session := model.Session{
		Username:        resp.Username,
		Token:           resp.Token,
		AccountID:       resp.AccountID,
		MaskedAccountID: resp.MaskedAccountID,
	}
	if session.Username == "" {
		session.Username = username
	}
	// 四个字段要么全部存在，要么登录失败
	if !session.Complete() {
		s.setState(StateAnonymous)
		loginErr := &ConnectionError{Message: LoginConnectionText, Err: fmt.Errorf("%w: login response is missing account fields", backend.ErrMalformedResponse)}
		log.Warnf("Login: incomplete login response for '%s'", username)
		s.publish(ctx, kafka.SessionEvent{Type: kafka.EventLoginFailed, Username: username, Reason: loginErr.Error()})
		return model.Session{}, loginErr
	}

	s.mu.Lock()
	s.session = session
	s.state = StateAuthenticated
	s.expired = false
	s.mu.Unlock()

	// 持久化失败不影响本次登录，只是下次启动可能无法恢复
	if err := s.store.Save(ctx, session); err != nil {
		log.Errorf("[SessionService] 保存会话失败, username: %s, error: %v", session.Username, err)
	}
	s.conversation.Reset()

	log.Infof("User '%s' logged in successfully, account: %s", session.Username, session.MaskedAccountID)
	s.publish(ctx, kafka.SessionEvent{Type: kafka.EventLoggedIn, Username: session.Username, MaskedAccountID: session.MaskedAccountID})
	return session, nil
}

// classifyLoginError 将后端错误映射为 AuthError 或 ConnectionError。
func classifyLoginError(err error) error {
	var se *backend.StatusError
	if errors.As(err, &se) {
		msg := se.Detail
		if msg == "" {
			msg = InvalidCredentialsText
		}
		return &AuthError{Message: msg}
	}
	return &ConnectionError{Message: LoginConnectionText, Err: err}
}

func (s *sessionService) Logout(ctx context.Context) {
	s.endSession(ctx, "", false)
}

func (s *sessionService) EndSession(ctx context.Context, token string) {
	s.endSession(ctx, token, true)
}

// endSession 清空本地状态、对话日志和存储；通知后端是尽力而为的。
// guarded 为 true 时只有当前会话令牌与 token 一致才执行。
func (s *sessionService) endSession(ctx context.Context, token string, guarded bool) {
	s.mu.Lock()
	if guarded && (s.state != StateAuthenticated || s.session.Token != token) {
		s.mu.Unlock()
		log.Debugf("[SessionService] 会话已变更，跳过延迟注销")
		return
	}
	previous := s.session
	wasExpired := s.expired
	s.session = model.Session{}
	s.expired = false
	if s.state == StateAuthenticated {
		s.state = StateAnonymous
	}
	s.mu.Unlock()

	if previous.Token != "" {
		if err := s.client.Logout(ctx, previous.Token); err != nil {
			log.Warnf("Logout: 通知后端失败 (已忽略): %v", err)
		}
	}
	if err := s.store.Clear(ctx); err != nil {
		log.Errorf("[SessionService] 清除会话存储失败: %v", err)
	}
	s.conversation.Reset()

	if previous.Username != "" {
		reason := ""
		if wasExpired {
			reason = "authorization expired"
		}
		log.Infof("User '%s' logged out", previous.Username)
		s.publish(ctx, kafka.SessionEvent{Type: kafka.EventLoggedOut, Username: previous.Username, MaskedAccountID: previous.MaskedAccountID, Reason: reason})
	}
}

func (s *sessionService) MarkExpired(ctx context.Context, token string) bool {
	s.mu.Lock()
	if s.state != StateAuthenticated || s.session.Token != token || s.expired {
		s.mu.Unlock()
		return false
	}
	s.expired = true
	session := s.session
	s.mu.Unlock()

	// 被拒绝的凭证立即从持久化存储中删除，内存中的会话保留到延迟注销执行
	if err := s.store.Clear(ctx); err != nil {
		log.Errorf("[SessionService] 清除过期会话存储失败: %v", err)
	}

	log.Warnf("Session for user '%s' rejected by backend, scheduling logout", session.Username)
	s.publish(ctx, kafka.SessionEvent{Type: kafka.EventExpired, Username: session.Username, MaskedAccountID: session.MaskedAccountID})
	return true
}

func (s *sessionService) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

func (s *sessionService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *sessionService) Current() (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		return model.Session{}, false
	}
	return s.session, true
}

func (s *sessionService) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *sessionService) publish(ctx context.Context, event kafka.SessionEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		log.Warnf("[SessionService] 发布会话事件 %s 失败: %v", event.Type, err)
	}
}
