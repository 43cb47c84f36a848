package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"strings"
	"sync"
	"time"

	"github.com/wfunc/gamingpool/logger"
	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/services"
)

// ServiceName is the prefix of every RPC method, e.g. "PoolQuery.Reward".
const ServiceName = "PoolQuery"

// DefaultTimeout bounds a single RPC query.
const DefaultTimeout = 10 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
	conns    map[net.Conn]struct{}
	mutex    sync.Mutex
	wg       sync.WaitGroup
}

// NewServer listens on addr and registers the pool query methods.
func NewServer(addr string, svc *services.PoolQueryService) (*Server, error) {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(ServiceName, NewPoolQuery(svc)); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpcServer,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Addr is the address the listener is bound to.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}

		s.mutex.Lock()
		s.conns[conn] = struct{}{}
		s.mutex.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.rpc.ServeConn(conn)
			s.mutex.Lock()
			delete(s.conns, conn)
			s.mutex.Unlock()
		}()
	}
}

// Stop closes the RPC listener and any open client connections.
func (s *Server) Stop() {
	if s.listener == nil {
		return
	}
	logger.Log.Info("Stopping RPC server.")
	s.listener.Close()

	s.mutex.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mutex.Unlock()
	s.wg.Wait()
}

// PoolQuery is the struct that exposes RPC methods.
// Methods must follow the net/rpc signature: exported method, exported
// arguments, second argument is a pointer, return type is error.
type PoolQuery struct {
	svc     *services.PoolQueryService
	timeout time.Duration
}

func NewPoolQuery(svc *services.PoolQueryService) *PoolQuery {
	return &PoolQuery{svc: svc, timeout: DefaultTimeout}
}

func (q *PoolQuery) newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), q.timeout)
}

// Error kinds do not survive gob, so the code is carried as a prefix of
// the message, e.g. "not_found: ...". See ErrorCodeOf.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(models.ErrorCode(err) + ": " + err.Error())
}

type NoArgs struct{}

type GamerArgs struct {
	Gamer string
}

type GamersArgs struct {
	Gamers []string
}

type PoolArgs struct {
	PoolID string
}

type PoolTypeArgs struct {
	PoolType string
}

type PoolTeamArgs struct {
	PoolID string
	Gamer  string
}

type TeamArgs struct {
	PoolID string
	TeamID string
	Gamer  string
}

type TeamCountArgs struct {
	Gamer    string
	GameID   string
	PoolType string
}

type AmountArgs struct {
	Amount uint64
}

type AmountReply struct {
	Amount uint64
}

type CountReply struct {
	Count uint32
}

type WalletReply struct {
	Wallet string
}

func (q *PoolQuery) FeeWallet(_ *NoArgs, reply *WalletReply) error {
	ctx, cancel := q.newContext()
	defer cancel()
	wallet, err := q.svc.FeeWallet(ctx)
	reply.Wallet = wallet
	return wrapError(err)
}

func (q *PoolQuery) PoolTypeDetails(args *PoolTypeArgs, reply *models.PoolTypeDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	details, err := q.svc.PoolTypeDetails(ctx, args.PoolType)
	*reply = details
	return wrapError(err)
}

func (q *PoolQuery) AllPoolTypeDetails(_ *NoArgs, reply *[]models.PoolTypeDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	all, err := q.svc.AllPoolTypeDetails(ctx)
	*reply = all
	return wrapError(err)
}

func (q *PoolQuery) TotalFees(args *AmountArgs, reply *models.FeeDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	fees, err := q.svc.TotalFees(ctx, args.Amount)
	*reply = fees
	return wrapError(err)
}

func (q *PoolQuery) PoolTeamDetails(args *PoolTeamArgs, reply *[]models.PoolTeamDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	teams, err := q.svc.PoolTeamDetails(ctx, args.PoolID, args.Gamer)
	*reply = teams
	return wrapError(err)
}

func (q *PoolQuery) AllTeams(args *GamersArgs, reply *[]models.PoolTeamDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	teams, err := q.svc.AllTeams(ctx, args.Gamers)
	*reply = teams
	return wrapError(err)
}

func (q *PoolQuery) Reward(args *GamerArgs, reply *AmountReply) error {
	ctx, cancel := q.newContext()
	defer cancel()
	amount, err := q.svc.Reward(ctx, args.Gamer)
	reply.Amount = amount
	return wrapError(err)
}

func (q *PoolQuery) Refund(args *GamerArgs, reply *AmountReply) error {
	ctx, cancel := q.newContext()
	defer cancel()
	amount, err := q.svc.Refund(ctx, args.Gamer)
	reply.Amount = amount
	return wrapError(err)
}

func (q *PoolQuery) GameResult(args *TeamArgs, reply *models.GameResult) error {
	ctx, cancel := q.newContext()
	defer cancel()
	result, err := q.svc.GameResult(ctx, args.Gamer, args.PoolID, args.TeamID)
	*reply = result
	return wrapError(err)
}

func (q *PoolQuery) PoolDetails(args *PoolArgs, reply *models.PoolDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	pool, err := q.svc.PoolDetails(ctx, args.PoolID)
	*reply = pool
	return wrapError(err)
}

func (q *PoolQuery) TeamCountForUserInPoolType(args *TeamCountArgs, reply *CountReply) error {
	ctx, cancel := q.newContext()
	defer cancel()
	count, err := q.svc.TeamCountForUserInPoolType(ctx, args.Gamer, args.GameID, args.PoolType)
	reply.Count = count
	return wrapError(err)
}

func (q *PoolQuery) GameDetails(_ *NoArgs, reply *models.GameDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	game, err := q.svc.GameDetails(ctx)
	*reply = game
	return wrapError(err)
}

func (q *PoolQuery) TeamDetails(args *TeamArgs, reply *models.PoolTeamDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	team, err := q.svc.TeamDetails(ctx, args.PoolID, args.TeamID, args.Gamer)
	*reply = team
	return wrapError(err)
}

func (q *PoolQuery) AllPoolsInGame(_ *NoArgs, reply *[]models.PoolDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	pools, err := q.svc.AllPoolsInGame(ctx)
	*reply = pools
	return wrapError(err)
}

func (q *PoolQuery) PoolCollection(args *PoolArgs, reply *AmountReply) error {
	ctx, cancel := q.newContext()
	defer cancel()
	amount, err := q.svc.PoolCollection(ctx, args.PoolID)
	reply.Amount = amount
	return wrapError(err)
}

func (q *PoolQuery) SwapDataForPool(args *PoolArgs, reply *models.SwapBalanceDetails) error {
	ctx, cancel := q.newContext()
	defer cancel()
	swap, err := q.svc.SwapDataForPool(ctx, args.PoolID)
	*reply = swap
	return wrapError(err)
}

// ErrorCodeOf extracts the code from an error returned by a PoolQuery call.
func ErrorCodeOf(err error) string {
	if err == nil {
		return models.ErrorCode(nil)
	}
	if code, _, found := strings.Cut(err.Error(), ":"); found {
		return code
	}
	return models.ErrorCode(err)
}
