package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cfs-assistant-go/internal/model"
	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/backend"
	"cfs-assistant-go/pkg/log"
	"cfs-assistant-go/pkg/tasks"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// InsightDelimiter 分隔回复正文与洞察邀请；分隔符及其后的内容不展示。
const InsightDelimiter = "\n\n---\n"

// 洞察提示的两个固定回复。
const (
	QuickReplyYes = "Yes"
	QuickReplyNo  = "No"
)

// DefaultLogoutDelay 是 401 之后到强制注销之间的默认延迟，让用户先看到过期提示。
const DefaultLogoutDelay = 2 * time.Second

// ChatService 定义了消息交换的操作。
type ChatService interface {
	// FetchWelcome 永远返回一条消息，失败时使用固定欢迎语。
	FetchWelcome(ctx context.Context) model.ChatMessage
	Send(ctx context.Context, text string) (model.ChatMessage, error)
	SendQuickReply(ctx context.Context, reply string) (model.ChatMessage, error)
	ResolveDownloadLink(documentName string) (string, error)
	Messages() []model.ChatMessage
}

type chatService struct {
	client       backend.Client
	sessions     SessionService
	conversation repository.ConversationRepository
	scheduler    tasks.Scheduler
	logoutDelay  time.Duration
	// 同一时间只允许一个请求在途，保证消息按发送顺序追加
	inflight *semaphore.Weighted
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(client backend.Client, sessions SessionService, conversation repository.ConversationRepository, scheduler tasks.Scheduler, logoutDelay time.Duration) ChatService {
	if scheduler == nil {
		scheduler = tasks.NewTimerScheduler()
	}
	if logoutDelay <= 0 {
		logoutDelay = DefaultLogoutDelay
	}
	return &chatService{
		client:       client,
		sessions:     sessions,
		conversation: conversation,
		scheduler:    scheduler,
		logoutDelay:  logoutDelay,
		inflight:     semaphore.NewWeighted(1),
	}
}

func (s *chatService) FetchWelcome(ctx context.Context) model.ChatMessage {
	if err := s.inflight.Acquire(ctx, 1); err != nil {
		return newMessage(model.RoleAssistant, FallbackWelcomeText)
	}
	defer s.inflight.Release(1)

	if existing := s.conversation.List(); len(existing) > 0 {
		return existing[0]
	}

	text, err := s.client.Welcome(ctx)
	if err != nil {
		log.Warnf("[ChatService] 获取欢迎语失败，使用默认文案: %v", fmt.Errorf("%w: %v", ErrBackendUnavailable, err))
		text = FallbackWelcomeText
	}
	msg := newMessage(model.RoleAssistant, text)

	// 请求期间会话可能已被注销，此时不再写入日志
	if _, ok := s.sessions.Current(); ok {
		s.conversation.Append(msg)
	}
	return msg
}

// Send 发送一条用户消息并返回追加的助手消息。
// 除前置条件错误外，返回的消息都已写入对话日志。
func (s *chatService) Send(ctx context.Context, text string) (model.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}
	if err := s.inflight.Acquire(ctx, 1); err != nil {
		return model.ChatMessage{}, err
	}
	defer s.inflight.Release(1)

	session, ok := s.sessions.Current()
	if !ok {
		return model.ChatMessage{}, ErrNotAuthenticated
	}
	// 已收到 401、正在等待注销时不再发起请求
	if s.sessions.Expired() {
		return model.ChatMessage{}, ErrAuthorizationExpired
	}

	// 洞察提示只对最新的助手消息有效
	s.conversation.DeactivatePrompts()
	s.conversation.Append(newMessage(model.RoleUser, text))

	resp, err := s.client.Chat(ctx, text, session.Token)

	if current, ok := s.sessions.Current(); !ok || current.Token != session.Token {
		log.Infof("[ChatService] 会话在请求期间已变更，丢弃回复")
		return model.ChatMessage{}, ErrNotAuthenticated
	}

	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return s.handleExpired(ctx, session), ErrAuthorizationExpired
		}
		log.Errorf("[ChatService] 聊天请求失败: %v", err)
		msg := newMessage(model.RoleAssistant, ChatConnectionText)
		s.conversation.Append(msg)
		return msg, &ConnectionError{Message: ChatConnectionText, Err: err}
	}

	display, hasInsight := splitInsight(resp.Response)
	msg := newMessage(model.RoleAssistant, display)
	msg.ShowInsightPrompt = hasInsight
	if len(resp.Documents) > 0 {
		msg.Documents = append([]model.Document(nil), resp.Documents...)
	}
	s.conversation.Append(msg)
	return msg, nil
}

// SendQuickReply 与 Send 相同，只是文本来自洞察提示的固定按钮。
func (s *chatService) SendQuickReply(ctx context.Context, reply string) (model.ChatMessage, error) {
	return s.Send(ctx, reply)
}

// handleExpired 追加过期提示，并在延迟之后注销会话。
func (s *chatService) handleExpired(ctx context.Context, session model.Session) model.ChatMessage {
	msg := newMessage(model.RoleAssistant, SessionExpiredText)
	s.conversation.Append(msg)

	if s.sessions.MarkExpired(ctx, session.Token) {
		token := session.Token
		s.scheduler.AfterFunc(s.logoutDelay, func() {
			s.sessions.EndSession(context.Background(), token)
		})
	}
	return msg
}

func (s *chatService) ResolveDownloadLink(documentName string) (string, error) {
	if strings.TrimSpace(documentName) == "" {
		return "", ErrEmptyDocumentName
	}
	session, ok := s.sessions.Current()
	if !ok {
		return "", ErrNotAuthenticated
	}
	return s.client.DownloadURL(documentName, session.Token), nil
}

func (s *chatService) Messages() []model.ChatMessage {
	return s.conversation.List()
}

// splitInsight 在分隔符处切分回复，返回展示文本以及是否带有洞察邀请。
func splitInsight(response string) (string, bool) {
	display, _, found := strings.Cut(response, InsightDelimiter)
	return display, found
}

func newMessage(role model.Role, text string) model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
