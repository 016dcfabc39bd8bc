package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cfs-assistant-go/internal/model"
	"cfs-assistant-go/internal/service"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant",
	Long: `Start an interactive chat. Without a stored session you are asked to log in.
Type :help inside the chat for the available commands.`,
	RunE: runChat,
}

var downloadURLCmd = &cobra.Command{
	Use:   "download-url <document>",
	Short: "Print the download link of a document for the current session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.sessions.Restore(cmd.Context())
		link, err := a.chat.ResolveDownloadLink(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.repl(cmd.Context(), bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
}

// repl 运行交互式聊天，输入结束或 :quit 时返回。
func (a *app) repl(ctx context.Context, in *bufio.Reader, out io.Writer) error {
	a.sessions.Restore(ctx)
	for {
		if _, ok := a.sessions.Current(); !ok {
			if err := a.promptLogin(ctx, in, out); err != nil {
				return ignoreEOF(err)
			}
		}
		renderMessage(out, a.chat.FetchWelcome(ctx))
		renderHelp(out)

		quit, err := a.converse(ctx, in, out)
		if err != nil || quit {
			return ignoreEOF(err)
		}
	}
}

// converse 处理一个会话内的输入，会话结束时返回 false，用户退出时返回 true。
func (a *app) converse(ctx context.Context, in *bufio.Reader, out io.Writer) (bool, error) {
	for {
		if a.sessions.State() != service.StateAuthenticated {
			fmt.Fprintln(out, errorStyle.Render("Please login again."))
			return false, nil
		}

		fmt.Fprint(out, userStyle.Render("> "))
		line, err := readLine(in)
		if err != nil {
			return true, err
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == ":quit", line == ":exit":
			return true, nil
		case line == ":help":
			renderHelp(out)
			continue
		case line == ":logout":
			a.sessions.Logout(ctx)
			fmt.Fprintln(out, "Logged out.")
			return false, nil
		case strings.HasPrefix(line, ":download"):
			name := strings.TrimSpace(strings.TrimPrefix(line, ":download"))
			link, err := a.chat.ResolveDownloadLink(name)
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
				continue
			}
			fmt.Fprintln(out, documentStyle.Render(link))
			continue
		case line == ":yes", line == ":no":
			if !a.insightPromptActive() {
				fmt.Fprintln(out, hintStyle.Render("There is no question to answer."))
				continue
			}
			reply := service.QuickReplyYes
			if line == ":no" {
				reply = service.QuickReplyNo
			}
			msg, err := a.chat.SendQuickReply(ctx, reply)
			a.show(out, msg, err)
		default:
			msg, err := a.chat.Send(ctx, line)
			a.show(out, msg, err)
		}
	}
}

// show 输出 Send 的结果。失败时写入日志的提示消息同样会被输出。
func (a *app) show(out io.Writer, msg model.ChatMessage, err error) {
	if msg.ID != "" {
		renderMessage(out, msg)
		return
	}
	switch {
	case err == nil, errors.Is(err, service.ErrEmptyMessage):
	case errors.Is(err, service.ErrAuthorizationExpired):
		fmt.Fprintln(out, errorStyle.Render(service.SessionExpiredText))
	default:
		fmt.Fprintln(out, errorStyle.Render(userMessage(err)))
	}
}

func (a *app) insightPromptActive() bool {
	messages := a.chat.Messages()
	return len(messages) > 0 && messages[len(messages)-1].ShowInsightPrompt
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
