// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/gamingpool/logger"
	"github.com/wfunc/gamingpool/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToAll(msgID uint16, data []byte) int
}

// 基于会话管理器的广播器
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{sessionManager: sessionManager}
}

// BroadcastToAll 返回成功发送的会话数
func (b *SessionBroadcaster) BroadcastToAll(msgID uint16, data []byte) int {
	return b.send(b.sessionManager.All(), msgID, data)
}

func (b *SessionBroadcaster) send(sessions []*session.Session, msgID uint16, data []byte) int {
	sent := 0
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			// 连接已断开的会话由读循环负责移除
			logger.Log.Debugf("Broadcast to session %s failed: %v", s.GetID(), err)
			continue
		}
		sent++
	}
	return sent
}
