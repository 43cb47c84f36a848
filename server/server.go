package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/gamingpool/broadcast"
	"github.com/wfunc/gamingpool/logger"
	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/monitor"
	"github.com/wfunc/gamingpool/network"
	gamingpool_rpc "github.com/wfunc/gamingpool/rpc"
	"github.com/wfunc/gamingpool/services"
	"github.com/wfunc/gamingpool/session"
)

type Options struct {
	Addr              string
	RPCAddr           string // 为空时不启动 RPC 服务
	HeartbeatInterval time.Duration
	QueryTimeout      time.Duration
}

type PoolServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	queries        *services.PoolQueryService
	monitor        *monitor.Monitor
	rpcServer      *gamingpool_rpc.Server
	httpServer     *http.Server
	mutex          sync.Mutex
	wg             sync.WaitGroup
	shutdownChan   chan struct{}
}

func NewPoolServer(opts Options, queries *services.PoolQueryService, m *monitor.Monitor) (*PoolServer, error) {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = gamingpool_rpc.DefaultTimeout
	}
	s := &PoolServer{
		opts:           opts,
		sessionManager: session.NewManager(m),
		queries:        queries,
		monitor:        m,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewSessionBroadcaster(s.sessionManager)

	// 初始化RPC服务器
	if opts.RPCAddr != "" {
		rpcServer, err := gamingpool_rpc.NewServer(opts.RPCAddr, queries)
		if err != nil {
			return nil, err
		}
		s.rpcServer = rpcServer
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler serves /ws and, when a monitor is set, /metrics.
func (s *PoolServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.monitor != nil {
		mux.Handle("/metrics", s.monitor.Handler())
	}
	return mux
}

// Start blocks until the server is shut down.
func (s *PoolServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	logger.Log.Infof("Pool query server listening on %s", s.opts.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *PoolServer) Shutdown(ctx context.Context) error {
	s.mutex.Lock()
	select {
	case <-s.shutdownChan:
		s.mutex.Unlock()
		return nil
	default:
		close(s.shutdownChan)
	}
	s.mutex.Unlock()

	err := s.httpServer.Shutdown(ctx)
	if notice, merr := json.Marshal(network.Notice{Event: network.NoticeShuttingDown}); merr == nil {
		sent := s.broadcaster.BroadcastToAll(network.MsgTypeServerNotice, notice)
		logger.Log.Infof("Shutdown notice sent to %d sessions", sent)
	}
	s.sessionManager.CloseAll()
	s.wg.Wait()
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	return err
}

func (s *PoolServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	// Add 与 Shutdown 关闭 shutdownChan 共用一把锁, 关闭之后不会再有 Add
	s.mutex.Lock()
	select {
	case <-s.shutdownChan:
		s.mutex.Unlock()
		conn.Close()
		return
	default:
	}
	s.wg.Add(1)
	s.mutex.Unlock()
	defer s.wg.Done()
	s.handleConnection(conn)
}

func (s *PoolServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	select {
	case <-s.shutdownChan:
		s.sessionManager.Remove(sess.GetID())
		wsConn.Close()
		return
	default:
	}
	if s.opts.HeartbeatInterval > 0 {
		wsConn.SetHeartbeat(s.opts.HeartbeatInterval)
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s, queries: %d, last gamer: %q",
			wsConn.RemoteAddr(), sess.GetID(), sess.QueryCount(), sess.GetString(session.DataGamer))
		s.sessionManager.Remove(sess.GetID())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *PoolServer) handlePacket(sess *session.Session, packet *network.Packet) {
	if packet.MsgID == network.MsgTypeHeartbeat {
		sess.Touch(false)
		sess.Send(network.MsgTypeHeartbeat, nil)
		return
	}

	name := network.QueryName(packet.MsgID)
	if name == "" {
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.reply(sess, network.MsgTypeError, network.QueryResponse{
			Code:  network.CodeUnknownMessage,
			Error: "unknown message type",
		})
		return
	}
	sess.Touch(true)

	var req network.QueryRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.reply(sess, packet.MsgID, network.QueryResponse{Code: network.CodeBadRequest, Error: err.Error()})
			return
		}
	}

	sess.Set(session.DataRequestID, req.RequestID)
	if req.Gamer != "" {
		sess.Set(session.DataGamer, req.Gamer)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.QueryTimeout)
	defer cancel()

	resp := network.QueryResponse{RequestID: req.RequestID}
	result, err := s.dispatch(ctx, packet.MsgID, &req)
	if err == nil {
		resp.Result, err = json.Marshal(result)
	}
	resp.Code = models.ErrorCode(err)
	if err != nil {
		resp.Error = err.Error()
		resp.Result = nil
		if resp.Code == "internal" {
			logger.Log.Errorf("Query %s (request %s) for session %s failed: %v",
				name, sess.GetString(session.DataRequestID), sess.GetID(), err)
		}
	}
	s.reply(sess, packet.MsgID, resp)
}

func (s *PoolServer) reply(sess *session.Session, msgID uint16, resp network.QueryResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Errorf("Failed to encode reply for session %s: %v", sess.GetID(), err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		if errors.Is(err, network.ErrPacketTooLarge) {
			data, _ = json.Marshal(network.QueryResponse{
				RequestID: resp.RequestID,
				Code:      "internal",
				Error:     err.Error(),
			})
			sess.Send(msgID, data)
			return
		}
		logger.Log.Infof("Failed to send reply to session %s: %v", sess.GetID(), err)
	}
}

func (s *PoolServer) dispatch(ctx context.Context, msgID uint16, req *network.QueryRequest) (interface{}, error) {
	q := s.queries
	switch msgID {
	case network.MsgTypeFeeWallet:
		return q.FeeWallet(ctx)
	case network.MsgTypePoolTypeDetails:
		return q.PoolTypeDetails(ctx, req.PoolType)
	case network.MsgTypeAllPoolTypes:
		return q.AllPoolTypeDetails(ctx)
	case network.MsgTypeTotalFees:
		return q.TotalFees(ctx, req.Amount)
	case network.MsgTypePoolTeamDetails:
		return q.PoolTeamDetails(ctx, req.PoolID, req.Gamer)
	case network.MsgTypeAllTeams:
		return q.AllTeams(ctx, req.Gamers)
	case network.MsgTypeReward:
		return q.Reward(ctx, req.Gamer)
	case network.MsgTypeRefund:
		return q.Refund(ctx, req.Gamer)
	case network.MsgTypeGameResult:
		return q.GameResult(ctx, req.Gamer, req.PoolID, req.TeamID)
	case network.MsgTypePoolDetails:
		return q.PoolDetails(ctx, req.PoolID)
	case network.MsgTypeTeamCount:
		return q.TeamCountForUserInPoolType(ctx, req.Gamer, req.GameID, req.PoolType)
	case network.MsgTypeGameDetails:
		return q.GameDetails(ctx)
	case network.MsgTypeTeamDetails:
		return q.TeamDetails(ctx, req.PoolID, req.TeamID, req.Gamer)
	case network.MsgTypeAllPoolsInGame:
		return q.AllPoolsInGame(ctx)
	case network.MsgTypePoolCollection:
		return q.PoolCollection(ctx, req.PoolID)
	case network.MsgTypeSwapDataForPool:
		return q.SwapDataForPool(ctx, req.PoolID)
	}
	return nil, errors.New("unknown query")
}
