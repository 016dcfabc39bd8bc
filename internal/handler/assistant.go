package handler

import (
	"fmt"
	"regexp"
	"strings"

	"cfs-assistant-go/internal/model"
	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/log"
)

// 开发后端使用的固定文案。
const (
	WelcomeText       = "Hi, I am your banking assistant. How can I help you today?"
	InsightInvitation = "\n\n---\n💡 **Would you like insights on your account by comparing to market trends on how to improve your profit and investment?**"
	OffTopicText      = "I'm a banking assistant and can only help with banking-related queries such as account balances, transactions, and statements. Please ask me about your banking needs."
	DeclineText       = "No problem. Is there anything else I can help you with?"
	InsightsText      = "Compared with similar customers, keeping a steady monthly deposit and moving idle balance into a savings product would improve your returns."
	HelpText          = "I can help you with your account balance, transactions and statements. What would you like to know?"
)

var bankingKeywords = []string{
	"account", "balance", "transaction", "deposit", "withdraw",
	"statement", "payment", "transfer", "money", "banking",
	"credit", "debit", "funds", "spending", "savings",
}

// 8 到 12 位的数字视为账号
var accountNumberPattern = regexp.MustCompile(`\b\d{8,12}\b`)

// reply 是开发后端的一次回答。
type reply struct {
	Text      string
	Documents []model.Document
}

// assistant 用关键字规则模拟助手，回答中出现的账号一律被掩码。
type assistant struct {
	statements repository.StatementRepository
}

func (a *assistant) answer(account *repository.Account, message string) reply {
	masked := repository.MaskAccountID(account.AccountID)
	lower := strings.ToLower(strings.TrimSpace(message))

	switch lower {
	case "yes":
		return reply{Text: InsightsText}
	case "no":
		return reply{Text: DeclineText}
	}

	for _, mentioned := range accountNumberPattern.FindAllString(message, -1) {
		if mentioned != account.AccountID {
			return reply{Text: fmt.Sprintf("Access denied. You can only view information for your account (%s). You cannot access account %s.", masked, mentioned)}
		}
	}

	if !containsAny(lower, bankingKeywords) {
		return reply{Text: OffTopicText}
	}

	switch {
	case strings.Contains(lower, "statement"):
		return a.statementReply(account, lower, masked)
	case strings.Contains(lower, "balance"):
		text := fmt.Sprintf("The current balance of account %s is $%.2f.", account.AccountID, account.Balance)
		return reply{Text: maskAccount(text, account.AccountID, masked) + InsightInvitation}
	default:
		return reply{Text: HelpText}
	}
}

func (a *assistant) statementReply(account *repository.Account, lower, masked string) reply {
	kind := repository.StatementAll
	switch {
	case strings.Contains(lower, "annual"), strings.Contains(lower, "yearly"):
		kind = repository.StatementAnnual
	case strings.Contains(lower, "month"):
		kind = repository.StatementMonthly
	}

	docs, err := a.statements.FindByAccount(account.AccountID, kind)
	if err != nil {
		log.Error("assistant: failed to find statements", err)
	}
	text := fmt.Sprintf("Here are the statements for account %s.", masked)
	if len(docs) == 0 {
		return reply{Text: text + "\n\n⚠️ I couldn't find any statement documents in our system. Please contact support if you believe this is an error."}
	}
	s := ""
	if len(docs) != 1 {
		s = "s"
	}
	text += fmt.Sprintf("\n\n📄 I found %d document%s for you. Click the download button%s below to access your statement%s.", len(docs), s, s, s)
	return reply{Text: text, Documents: docs}
}

func maskAccount(text, accountID, masked string) string {
	return strings.ReplaceAll(text, accountID, masked)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
