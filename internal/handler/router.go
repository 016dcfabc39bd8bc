package handler

import (
	"cfs-assistant-go/internal/middleware"
	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// Dependencies 汇总了开发后端路由所需的组件。
type Dependencies struct {
	Accounts   repository.AccountRepository
	Statements repository.StatementRepository
	Blacklist  repository.TokenBlacklist
	JWTManager *token.JWTManager
}

// NewRouter 注册开发后端的全部路由。
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	authHandler := NewAuthHandler(deps.Accounts, deps.JWTManager, deps.Blacklist)
	chatHandler := NewChatHandler(deps.Accounts, deps.Statements)
	documentHandler := NewDocumentHandler(deps.Statements)

	// 无需认证的路由
	r.GET("/welcome", chatHandler.Welcome)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	authed := r.Group("/")
	authed.Use(middleware.TokenAuth(deps.JWTManager, deps.Blacklist))
	{
		authed.POST("/chat", chatHandler.Chat)
		authed.GET("/api/download/:filename", documentHandler.Download)
	}
	return r
}
