package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatementDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"monthly_statement_100200300400_2024_02.pdf": "feb",
		"monthly_statement_100200300400_2024_01.pdf": "january",
		"annual_statement_100200300400_2023.pdf":     "annual",
		"statement_100200300400.PDF":                 "s",
		"letter_100200300400.pdf":                    "l",
		"monthly_statement_500600700800_2024_01.pdf": "other",
		"readme_100200300400.txt":                    "txt",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive_100200300400.pdf"), 0o755))
	return dir
}

func TestStatementRepositoryFindByAccount(t *testing.T) {
	repo := NewStatementRepository(newStatementDir(t))

	all, err := repo.FindByAccount("100200300400", StatementAll)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "annual_statement_100200300400_2023.pdf", all[0].Name)
	assert.Equal(t, StatementAnnual, all[0].Type)

	types := map[string]string{}
	for _, d := range all {
		types[d.Name] = d.Type
	}
	assert.Equal(t, "document", types["letter_100200300400.pdf"])
	assert.Equal(t, "statement", types["statement_100200300400.PDF"])

	monthly, err := repo.FindByAccount("100200300400", StatementMonthly)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "monthly_statement_100200300400_2024_01.pdf", monthly[0].Name)
	assert.Equal(t, int64(len("january")), monthly[0].SizeBytes)

	annual, err := repo.FindByAccount("100200300400", StatementAnnual)
	require.NoError(t, err)
	assert.Len(t, annual, 1)
}

func TestStatementRepositoryMissingDirectory(t *testing.T) {
	repo := NewStatementRepository(filepath.Join(t.TempDir(), "missing"))
	docs, err := repo.FindByAccount("100200300400", StatementAll)
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStatementRepositoryResolve(t *testing.T) {
	dir := newStatementDir(t)
	repo := NewStatementRepository(dir)

	path, err := repo.Resolve("100200300400", "annual_statement_100200300400_2023.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "annual_statement_100200300400_2023.pdf"), path)

	// 目录部分被丢弃
	path, err = repo.Resolve("100200300400", "../../annual_statement_100200300400_2023.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "annual_statement_100200300400_2023.pdf"), path)

	_, err = repo.Resolve("100200300400", "monthly_statement_500600700800_2024_01.pdf")
	assert.ErrorIs(t, err, ErrStatementForbidden)

	_, err = repo.Resolve("100200300400", "missing_100200300400.pdf")
	assert.ErrorIs(t, err, ErrStatementNotFound)

	_, err = repo.Resolve("100200300400", "archive_100200300400.pdf")
	assert.ErrorIs(t, err, ErrStatementInvalid)
}
