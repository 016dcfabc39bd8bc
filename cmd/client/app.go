package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cfs-assistant-go/internal/config"
	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/internal/service"
	"cfs-assistant-go/pkg/backend"
	"cfs-assistant-go/pkg/database"
	"cfs-assistant-go/pkg/kafka"
	"cfs-assistant-go/pkg/log"
	"cfs-assistant-go/pkg/tasks"

	"golang.org/x/term"
)

// app 把客户端的各个组件装配在一起。
type app struct {
	sessions service.SessionService
	chat     service.ChatService
	events   kafka.Publisher
	closers  []func() error

	// 为 true 时从终端无回显地读取密码
	secretFromTerminal bool
}

// newApp 按配置打开会话存储并装配服务。
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := assemble(cfg, store, kafka.NewPublisher(cfg.Kafka), tasks.NewTimerScheduler())
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	a.secretFromTerminal = term.IsTerminal(int(os.Stdin.Fd()))
	return a, nil
}

func assemble(cfg config.Config, store repository.SessionRepository, events kafka.Publisher, scheduler tasks.Scheduler) *app {
	client := backend.NewClient(cfg.Backend)
	conversation := repository.NewConversationRepository()
	sessions := service.NewSessionService(client, store, conversation, events)
	return &app{
		sessions: sessions,
		chat:     service.NewChatService(client, sessions, conversation, scheduler, cfg.Session.LogoutDelay),
		events:   events,
		closers:  []func() error{events.Close},
	}
}

func openSessionStore(ctx context.Context, cfg config.Config) (repository.SessionRepository, func() error, error) {
	switch strings.ToLower(cfg.Session.Store) {
	case "memory":
		return repository.NewMemorySessionRepository(), nil, nil
	case "redis":
		rdb, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSessionRepository(rdb, cfg.Redis.KeyPrefix), rdb.Close, nil
	case "sqlite", "":
		db, err := database.OpenSQLite(cfg.Session.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewSQLiteSessionRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q (want memory, sqlite or redis)", cfg.Session.Store)
	}
}

// Close 释放资源。仍在等待延迟注销的过期会话在退出前立即注销。
func (a *app) Close() {
	if a.sessions.Expired() {
		if session, ok := a.sessions.Current(); ok {
			a.sessions.EndSession(context.Background(), session.Token)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warnf("关闭资源失败: %v", err)
		}
	}
}

// readLine 读取一行并去掉行尾换行。输入结束且没有内容时返回 io.EOF。
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) readSecret(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if a.secretFromTerminal {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		return string(b), err
	}
	return readLine(in)
}

// promptLogin 交互式地询问用户名和密码，直到登录成功或输入结束。
func (a *app) promptLogin(ctx context.Context, in *bufio.Reader, out io.Writer) error {
	for {
		fmt.Fprint(out, "Username: ")
		username, err := readLine(in)
		if err != nil {
			return err
		}
		password, err := a.readSecret(in, out, "Password: ")
		if err != nil {
			return err
		}
		session, err := a.sessions.Login(ctx, username, password)
		if err == nil {
			fmt.Fprintf(out, "Logged in as %s (account %s)\n", session.Username, session.MaskedAccountID)
			return nil
		}
		fmt.Fprintln(out, errorStyle.Render(userMessage(err)))
	}
}

// userMessage 返回可以直接展示给用户的错误描述。
func userMessage(err error) string {
	var authErr *service.AuthError
	var connErr *service.ConnectionError
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &connErr):
		return connErr.Message
	default:
		return err.Error()
	}
}
