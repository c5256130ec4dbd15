package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore 内存实现，测试用
type MemStore struct {
	mu        sync.RWMutex
	snapshots map[string]memSnapshot
}

type memSnapshot struct {
	info SnapshotInfo
	body []byte
}

func NewMemStore() *MemStore {
	return &MemStore{snapshots: make(map[string]memSnapshot)}
}

func memKey(sessionID, key string) string {
	return sessionID + "\x00" + key
}

func (m *MemStore) PutSnapshot(sessionID, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[memKey(sessionID, key)] = memSnapshot{
		info: SnapshotInfo{
			SessionID: sessionID,
			Key:       key,
			Revision:  uuid.New().String(),
			Size:      len(body),
			UpdatedAt: time.Now(),
		},
		body: append([]byte(nil), body...),
	}
	return nil
}

func (m *MemStore) GetSnapshot(sessionID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[memKey(sessionID, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), snap.body...), nil
}

func (m *MemStore) DeleteSnapshot(sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, memKey(sessionID, key))
	return nil
}

func (m *MemStore) ListSnapshots() ([]SnapshotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]SnapshotInfo, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		infos = append(infos, snap.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// Close 内存实现无需关闭
func (m *MemStore) Close() error {
	return nil
}
