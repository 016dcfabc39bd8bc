package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"cfs-assistant-go/internal/middleware"
	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责账单文件下载。
type DocumentHandler struct {
	statements repository.StatementRepository
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(statements repository.StatementRepository) *DocumentHandler {
	return &DocumentHandler{statements: statements}
}

// Download 以附件形式返回账单 PDF，只允许下载属于当前账户的文件。
func (h *DocumentHandler) Download(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": middleware.InvalidSessionDetail})
		return
	}

	filename := c.Param("filename")
	path, err := h.statements.Resolve(claims.AccountID, filename)
	switch {
	case errors.Is(err, repository.ErrStatementForbidden):
		log.Warnf("Download: '%s' requested a file of another account", claims.Username)
		c.JSON(http.StatusForbidden, gin.H{"detail": "Access denied. You can only download your own documents."})
		return
	case errors.Is(err, repository.ErrStatementNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "File not found"})
		return
	case errors.Is(err, repository.ErrStatementInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid file"})
		return
	case err != nil:
		log.Error("Download: failed to resolve statement", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to read file"})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, filepath.Base(path))
}
