package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/aiwuxian/neon-panels/internal/models"
	"github.com/aiwuxian/neon-panels/internal/storage"
	"github.com/google/uuid"
)

// SessionView 一次请求后返回给展示层的全部内容
type SessionView struct {
	SessionID  string        `json:"session_id"`
	Panel      PanelView     `json:"panel"`
	State      *models.State `json:"state"`
	Notices    []string      `json:"notices,omitempty"`
	Directives []Directive   `json:"directives,omitempty"`
}

// session 内存中唯一的一份进度，所有读写都在mu下进行
type session struct {
	mu    sync.Mutex
	state *models.State
}

type StoryService struct {
	storage storage.Storer
	engine  *Engine

	mu       sync.Mutex
	sessions map[string]*session
}

func NewStoryService(storage storage.Storer, engine *Engine) *StoryService {
	return &StoryService{
		storage:  storage,
		engine:   engine,
		sessions: make(map[string]*session),
	}
}

// Engine 返回面板状态机
func (ss *StoryService) Engine() *Engine {
	return ss.engine
}

// NewSession 创建新会话并写入默认进度
func (ss *StoryService) NewSession() (*SessionView, error) {
	id := uuid.New().String()
	return ss.View(id)
}

func (ss *StoryService) acquire(sessionID string) *session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[sessionID]
	if !ok {
		s = &session{}
		ss.sessions[sessionID] = s
	}
	return s
}

// load 首次访问时从存档恢复，存档缺失或损坏时使用默认值（调用方持有s.mu）
func (ss *StoryService) load(sessionID string, s *session) error {
	if s.state != nil {
		return nil
	}
	raw, err := ss.storage.GetSnapshot(sessionID, models.SaveKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.state = ss.engine.NewState()
		return nil
	}
	if err != nil {
		return fmt.Errorf("读取存档失败: %w", err)
	}
	st, defaulted := DecodeState(raw, ss.engine.game)
	if len(defaulted) > 0 {
		log.Printf("⚠️ [读档] 会话 %s 的字段 %v 已使用默认值\n", sessionID, defaulted)
	}
	s.state = st
	return nil
}

func (ss *StoryService) persist(sessionID string, st *models.State) error {
	body, err := EncodeState(st)
	if err != nil {
		return fmt.Errorf("序列化进度失败: %w", err)
	}
	if err := ss.storage.PutSnapshot(sessionID, models.SaveKey, body); err != nil {
		return fmt.Errorf("保存进度失败: %w", err)
	}
	return nil
}

// render 渲染并保存（渲染会记录当前幕等信息）。保存失败时会话进度保持不变。
func (ss *StoryService) render(sessionID string, s *session) (*SessionView, error) {
	work := cloneState(s.state)
	view, notices := ss.engine.Render(work)
	if err := ss.persist(sessionID, work); err != nil {
		return nil, err
	}
	s.state = work
	return &SessionView{
		SessionID: sessionID,
		Panel:     view,
		State:     cloneState(s.state),
		Notices:   notices,
	}, nil
}

// View 渲染当前面板
func (ss *StoryService) View(sessionID string) (*SessionView, error) {
	s := ss.acquire(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ss.load(sessionID, s); err != nil {
		return nil, err
	}
	return ss.render(sessionID, s)
}

// Execute 处理一条玩家指令：加载→处理→执行副作用→渲染→保存
func (ss *StoryService) Execute(sessionID string, cmd Command) (*SessionView, error) {
	s := ss.acquire(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ss.load(sessionID, s); err != nil {
		return nil, err
	}

	// 指令在副本上执行，写入成功后才替换会话进度
	out := ss.engine.Handle(cloneState(s.state), cmd)
	if out.Has(DirectiveReset) {
		if err := ss.storage.DeleteSnapshot(sessionID, models.SaveKey); err != nil {
			return nil, fmt.Errorf("删除存档失败: %w", err)
		}
	}
	if out.Has(DirectivePersist) {
		if err := ss.persist(sessionID, out.State); err != nil {
			return nil, err
		}
	}
	s.state = out.State

	view, err := ss.render(sessionID, s)
	if err != nil {
		return nil, err
	}
	view.Notices = append(out.Notices(), view.Notices...)
	view.Directives = out.Directives
	return view, nil
}

// Restart 重新开始
func (ss *StoryService) Restart(sessionID string) (*SessionView, error) {
	return ss.Execute(sessionID, Command{Type: CmdRestart})
}

// Export 导出当前进度（格式化JSON）
func (ss *StoryService) Export(sessionID string) ([]byte, error) {
	s := ss.acquire(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ss.load(sessionID, s); err != nil {
		return nil, err
	}
	return ExportState(s.state)
}

// Import 用上传的存档原样覆盖当前存档并重新加载，重新加载时的渲染结果随即保存。
// 无法解析时返回ErrInvalidSave，原存档保持不变。
func (ss *StoryService) Import(sessionID string, data []byte) (*SessionView, error) {
	if err := ValidateSave(data); err != nil {
		return nil, err
	}

	s := ss.acquire(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ss.storage.PutSnapshot(sessionID, models.SaveKey, data); err != nil {
		return nil, fmt.Errorf("写入导入存档失败: %w", err)
	}
	s.state = nil
	if err := ss.load(sessionID, s); err != nil {
		return nil, err
	}
	log.Printf("📂 [导入] 会话 %s 已导入存档 (%d 字节)\n", sessionID, len(data))

	return ss.render(sessionID, s)
}

// ListSaves 列出所有存档
func (ss *StoryService) ListSaves() ([]storage.SnapshotInfo, error) {
	return ss.storage.ListSnapshots()
}

// Snapshot 在锁内渲染并复制一份当前视图，供耗时的只读操作（如旁白回顾）在锁外使用
func (ss *StoryService) Snapshot(ctx context.Context, sessionID string) (*SessionView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := ss.acquire(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ss.load(sessionID, s); err != nil {
		return nil, err
	}
	copied := cloneState(s.state)
	view, _ := ss.engine.Render(copied)
	return &SessionView{SessionID: sessionID, Panel: view, State: copied}, nil
}
