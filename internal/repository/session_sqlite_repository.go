package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cfs-assistant-go/internal/model"
)

const sessionTable = `
CREATE TABLE IF NOT EXISTS session_store (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteSessionRepository 将会话保存在本地 SQLite 文件中，进程重启后仍可恢复。
type SQLiteSessionRepository struct {
	db *sql.DB
}

// NewSQLiteSessionRepository 创建表（若不存在）并返回仓库实例。
func NewSQLiteSessionRepository(db *sql.DB) (*SQLiteSessionRepository, error) {
	if _, err := db.Exec(sessionTable); err != nil {
		return nil, fmt.Errorf("failed to create session table: %w", err)
	}
	return &SQLiteSessionRepository{db: db}, nil
}

// Load 读取全部已知键；表中不存在的键保持为空。
func (r *SQLiteSessionRepository) Load(ctx context.Context) (model.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM session_store`)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	rec := make(map[string]string, len(model.SessionKeys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return model.Session{}, fmt.Errorf("failed to scan session row: %w", err)
		}
		rec[k] = v
	}
	if err := rows.Err(); err != nil {
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return model.SessionFromRecord(rec), nil
}

// Save 在一个事务中写入四行。
func (r *SQLiteSessionRepository) Save(ctx context.Context, session model.Session) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		rec := session.Record()
		for _, k := range model.SessionKeys {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_store (key, value) VALUES (?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, rec[k]); err != nil {
				return fmt.Errorf("failed to save %s: %w", k, err)
			}
		}
		return nil
	})
}

// Clear 在一个事务中删除四个键。
func (r *SQLiteSessionRepository) Clear(ctx context.Context) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, k := range model.SessionKeys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM session_store WHERE key = ?`, k); err != nil {
				return fmt.Errorf("failed to clear %s: %w", k, err)
			}
		}
		return nil
	})
}

// Put 单独写入一个键，仅用于模拟旧版客户端逐字段写入留下的残缺会话。
func (r *SQLiteSessionRepository) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_store (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (r *SQLiteSessionRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
