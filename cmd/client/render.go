package main

import (
	"fmt"
	"io"

	"cfs-assistant-go/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	documentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle      = lipgloss.NewStyle().Faint(true)
)

// renderMessage 输出一条消息，以及它携带的文件列表和洞察提示。
func renderMessage(out io.Writer, m model.ChatMessage) {
	label := assistantStyle.Render("Assistant")
	if m.Role == model.RoleUser {
		label = userStyle.Render("You")
	}
	fmt.Fprintf(out, "%s: %s\n", label, m.Text)

	for _, d := range m.Documents {
		fmt.Fprintf(out, "  %s %s (%s, %s)\n", documentStyle.Render("[doc]"), d.Name, d.Type, d.SizeLabel())
	}
	if len(m.Documents) > 0 {
		fmt.Fprintln(out, hintStyle.Render("  :download <name> prints a download link"))
	}
	if m.ShowInsightPrompt {
		fmt.Fprintln(out, promptStyle.Render("Would you like insights? Reply with :yes or :no"))
	}
}

func renderHelp(out io.Writer) {
	fmt.Fprintln(out, hintStyle.Render(`Commands:
  :yes / :no        answer the insight prompt
  :download <name>  print the download link of a document
  :logout           end the session
  :quit             leave the chat, keeping the session`))
}
