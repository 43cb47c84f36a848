package broadcast

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/gamingpool/network"
	"github.com/wfunc/gamingpool/session"
)

type mockConnection struct {
	mutex sync.Mutex
	sent  []uint16
	fail  bool
}

func (m *mockConnection) Send(msgID uint16, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.fail {
		return errors.New("broken pipe")
	}
	m.sent = append(m.sent, msgID)
	return nil
}

func (m *mockConnection) Close() error                         { return nil }
func (m *mockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *mockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *mockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestSessionBroadcaster(t *testing.T) {
	manager := session.NewManager(nil)
	ok1, ok2, broken := &mockConnection{}, &mockConnection{}, &mockConnection{fail: true}
	manager.Add(session.NewSession("s1", ok1))
	manager.Add(session.NewSession("s2", ok2))
	manager.Add(session.NewSession("s3", broken))

	b := NewSessionBroadcaster(manager)
	if sent := b.BroadcastToAll(network.MsgTypeServerNotice, nil); sent != 2 {
		t.Errorf("Expected 2 successful sends, got %d", sent)
	}
	if sent := b.BroadcastToAll(network.MsgTypeServerNotice, nil); sent != 2 {
		t.Errorf("Expected 2 successful sends on the second broadcast, got %d", sent)
	}

	if len(ok1.sent) != 2 || len(ok2.sent) != 2 {
		t.Errorf("Unexpected sends: s1=%v s2=%v", ok1.sent, ok2.sent)
	}
}
