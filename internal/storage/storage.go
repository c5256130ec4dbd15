package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound 没有对应的存档
var ErrNotFound = errors.New("snapshot not found")

// SnapshotInfo 存档元信息
type SnapshotInfo struct {
	SessionID string    `json:"session_id"`
	Key       string    `json:"key"`
	Revision  string    `json:"revision"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storer 存档读写接口：Storage（sqlite）用于生产，MemStore用于测试
type Storer interface {
	PutSnapshot(sessionID, key string, body []byte) error
	GetSnapshot(sessionID, key string) ([]byte, error)
	DeleteSnapshot(sessionID, key string) error
	ListSnapshots() ([]SnapshotInfo, error)
	Close() error
}

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 单连接：写入后立刻读回一定一致
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据库结构失败: %w", err)
	}

	return s, nil
}

func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		session_id TEXT NOT NULL,
		save_key TEXT NOT NULL,
		body TEXT NOT NULL, -- JSON document
		revision TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (session_id, save_key)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_updated ON snapshots(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// PutSnapshot 整体覆盖写入一份存档，每次写入生成新的revision
func (s *Storage) PutSnapshot(sessionID, key string, body []byte) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO snapshots (session_id, save_key, body, revision, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, key, string(body), uuid.New().String(), time.Now())

	return err
}

func (s *Storage) GetSnapshot(sessionID, key string) ([]byte, error) {
	var body string
	err := s.db.QueryRow(`
		SELECT body FROM snapshots WHERE session_id = ? AND save_key = ?
	`, sessionID, key).Scan(&body)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return []byte(body), nil
}

func (s *Storage) DeleteSnapshot(sessionID, key string) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE session_id = ? AND save_key = ?`, sessionID, key)
	return err
}

// ListSnapshots 列出所有存档（最近更新的在前）
func (s *Storage) ListSnapshots() ([]SnapshotInfo, error) {
	rows, err := s.db.Query(`
		SELECT session_id, save_key, revision, length(body), updated_at
		FROM snapshots
		ORDER BY updated_at DESC
	`)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.SessionID, &info.Key, &info.Revision, &info.Size, &info.UpdatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}
