// Package database 提供会话存储所用的数据库连接。
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"cfs-assistant-go/pkg/log"

	_ "modernc.org/sqlite"
)

// OpenSQLite 打开（必要时创建）本地 SQLite 数据库文件。
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// 单个本地文件，串行写入即可，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log.Debugf("SQLite database opened: %s", path)
	return db, nil
}
