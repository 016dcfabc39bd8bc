package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cfs-assistant-go/internal/model"
)

// 账单类型。
const (
	StatementAll     = "all"
	StatementMonthly = "monthly"
	StatementAnnual  = "annual"
)

var (
	ErrStatementNotFound  = errors.New("statement not found")
	ErrStatementForbidden = errors.New("statement does not belong to account")
	ErrStatementInvalid   = errors.New("invalid statement file")
)

// StatementRepository 在本地目录中查找账户的账单 PDF。
type StatementRepository interface {
	FindByAccount(accountID, kind string) ([]model.Document, error)
	// Resolve 校验文件归属并返回其绝对路径。
	Resolve(accountID, filename string) (string, error)
}

type fsStatementRepository struct {
	dir string
}

// NewStatementRepository 创建一个基于目录的账单仓库。
func NewStatementRepository(dir string) StatementRepository {
	return &fsStatementRepository{dir: dir}
}

func (r *fsStatementRepository) FindByAccount(accountID, kind string) ([]model.Document, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}

	var docs []model.Document
	for _, e := range entries {
		name := e.Name()
		lower := strings.ToLower(name)
		if e.IsDir() || !strings.HasSuffix(lower, ".pdf") || !strings.Contains(name, accountID) {
			continue
		}
		docType := classifyStatement(lower)
		if kind == StatementMonthly && docType != StatementMonthly {
			continue
		}
		if kind == StatementAnnual && docType != StatementAnnual {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, model.Document{Name: name, Type: docType, SizeBytes: info.Size()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (r *fsStatementRepository) Resolve(accountID, filename string) (string, error) {
	// 只取文件名部分，防止目录穿越
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) || base == ".." {
		return "", ErrStatementInvalid
	}
	if !strings.Contains(base, accountID) {
		return "", ErrStatementForbidden
	}
	path := filepath.Join(r.dir, base)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrStatementNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat statement: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", ErrStatementInvalid
	}
	return path, nil
}

func classifyStatement(lowerName string) string {
	switch {
	case strings.Contains(lowerName, "month") && !strings.Contains(lowerName, "annual"):
		return StatementMonthly
	case strings.Contains(lowerName, "annual"), strings.Contains(lowerName, "year"):
		return StatementAnnual
	case strings.Contains(lowerName, "statement"):
		return "statement"
	default:
		return "document"
	}
}
