package handler

import (
	"net/http"

	"cfs-assistant-go/internal/middleware"
	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ChatHandler 负责欢迎语和聊天接口。
type ChatHandler struct {
	accounts  repository.AccountRepository
	assistant *assistant
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(accounts repository.AccountRepository, statements repository.StatementRepository) *ChatHandler {
	return &ChatHandler{accounts: accounts, assistant: &assistant{statements: statements}}
}

// Welcome 返回欢迎语，无需认证。
func (h *ChatHandler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": WelcomeText, "status": "ready"})
}

// ChatRequest 定义了聊天 API 的请求体结构。
type ChatRequest struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Chat 处理一条聊天消息。token 已经由 TokenAuth 校验。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid chat request"})
		return
	}

	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": middleware.InvalidSessionDetail})
		return
	}
	account, err := h.accounts.FindByUsername(claims.Username)
	if err != nil || account.AccountID != claims.AccountID {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": middleware.InvalidSessionDetail})
		return
	}

	r := h.assistant.answer(account, req.Message)
	log.Infow("chat answered",
		"username", account.Username,
		"account", repository.MaskAccountID(account.AccountID),
		"documents", len(r.Documents),
	)

	// 没有文件时 documents 为 null
	var documents interface{}
	if len(r.Documents) > 0 {
		documents = r.Documents
	}
	c.JSON(http.StatusOK, gin.H{"response": r.Text, "documents": documents})
}
