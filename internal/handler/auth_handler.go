// Package handler 包含了开发后端处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strings"

	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/hash"
	"cfs-assistant-go/pkg/log"
	"cfs-assistant-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// InvalidCredentialsDetail 是登录失败时的提示。
const InvalidCredentialsDetail = "Invalid credentials"

// AuthHandler 负责登录与注销。
type AuthHandler struct {
	accounts   repository.AccountRepository
	jwtManager *token.JWTManager
	blacklist  repository.TokenBlacklist
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(accounts repository.AccountRepository, jwtManager *token.JWTManager, blacklist repository.TokenBlacklist) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwtManager: jwtManager, blacklist: blacklist}
}

// LoginRequest 定义了登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 是登录成功后的响应体。
type LoginResponse struct {
	Token           string `json:"token"`
	Username        string `json:"username"`
	AccountID       string `json:"accountId"`
	MaskedAccountID string `json:"maskedAccountId"`
}

// Login 处理用户登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	account, err := h.accounts.FindByUsername(strings.TrimSpace(req.Username))
	if err != nil || !hash.CheckPasswordHash(req.Password, account.PasswordHash) {
		log.Warnf("Login: authentication failed for '%s'", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": InvalidCredentialsDetail})
		return
	}

	signed, _, err := h.jwtManager.GenerateToken(account.Username, account.AccountID)
	if err != nil {
		log.Error("Login: failed to sign token", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create session"})
		return
	}

	log.Infof("User '%s' logged in successfully", account.Username)
	c.JSON(http.StatusOK, LoginResponse{
		Token:           signed,
		Username:        account.Username,
		AccountID:       account.AccountID,
		MaskedAccountID: repository.MaskAccountID(account.AccountID),
	})
}

type logoutRequest struct {
	Token string `json:"token"`
}

// Logout 注销 token。无论 token 是否有效都返回成功，注销是幂等的。
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		var req logoutRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err == nil {
			tokenString = req.Token
		}
	}

	if claims, err := h.jwtManager.VerifyToken(tokenString); err == nil {
		h.blacklist.Revoke(claims.ID, claims.ExpiresAt.Time)
		log.Infof("User '%s' logged out", claims.Username)
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
