// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/gamingpool/monitor"
	"github.com/wfunc/gamingpool/network"
)

// 会话数据键, 由服务端在处理查询时写入
const (
	DataGamer     = "gamer"      // 最近一次查询的玩家地址
	DataRequestID = "request_id" // 最近一次查询的请求 ID
)

// Session 一个 websocket 查询连接
type Session struct {
	ID         string
	Conn       network.Connection
	Data       map[string]interface{} // 自定义数据
	CreatedAt  time.Time
	lastActive time.Time
	queries    int64
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
		Data:       make(map[string]interface{}),
	}
}

func (s *Session) Set(key string, value interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Data[key] = value
}

func (s *Session) Get(key string) interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Data[key]
}

// GetString 返回字符串类型的会话数据, 不存在或类型不符时返回空串
func (s *Session) GetString(key string) string {
	v, _ := s.Get(key).(string)
	return v
}

// Touch 记录一次活动, query 为 true 时计入查询次数
func (s *Session) Touch(query bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
	if query {
		s.queries++
	}
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) QueryCount() int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.queries
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch(false)
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	monitor  *monitor.Monitor
	mutex    sync.RWMutex
}

// NewManager 创建管理器, m 可以为 nil
func NewManager(m *monitor.Monitor) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		monitor:  m,
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.sessions[session.ID]; !exists {
		m.monitor.IncOpenSessions()
	}
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.sessions[sessionID]; exists {
		delete(m.sessions, sessionID)
		m.monitor.DecOpenSessions()
	}
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// All 返回当前所有会话的快照
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// CloseAll 关闭所有连接, 读循环退出后各自从管理器中移除
func (m *Manager) CloseAll() {
	for _, session := range m.All() {
		session.Close()
	}
}
