// Package client is a websocket client for the pool query server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/network"
)

// QueryError is a failed reply. It matches the models error kinds with
// errors.Is, so callers handle remote and local failures the same way.
type QueryError struct {
	Code    string
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *QueryError) Is(target error) bool {
	switch e.Code {
	case "not_found":
		return target == models.ErrNotFound
	case "invalid_address":
		return target == models.ErrInvalidAddress
	case "overflow":
		return target == models.ErrOverflow
	case "invalid_fee_config":
		return target == models.ErrInvalidFeeConfig
	}
	return false
}

// Client sends one query at a time and waits for its reply.
type Client struct {
	conn  *network.WSConnection
	mutex sync.Mutex
}

// Dial connects to a server, e.g. "ws://localhost:8080/ws".
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return &Client{conn: network.NewWSConnection(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Query sends req as msgID and decodes the result into out, which may be
// nil or a *json.RawMessage.
func (c *Client) Query(ctx context.Context, msgID uint16, req network.QueryRequest, out interface{}) error {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}
	if err := c.conn.Send(msgID, body); err != nil {
		return err
	}

	for {
		packet, err := c.conn.ReadPacket()
		if err != nil {
			return err
		}
		if packet.MsgID == network.MsgTypeHeartbeat || packet.MsgID == network.MsgTypeServerNotice {
			continue
		}

		var resp network.QueryResponse
		if err := json.Unmarshal(packet.Data, &resp); err != nil {
			return fmt.Errorf("decode reply: %w", err)
		}
		if resp.RequestID != "" && resp.RequestID != req.RequestID {
			continue
		}
		if resp.Code != models.ErrorCode(nil) {
			return &QueryError{Code: resp.Code, Message: resp.Error}
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		return json.Unmarshal(resp.Result, out)
	}
}

// Heartbeat sends a heartbeat and waits for the echo.
func (c *Client) Heartbeat(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}
	if err := c.conn.Send(network.MsgTypeHeartbeat, nil); err != nil {
		return err
	}
	for {
		packet, err := c.conn.ReadPacket()
		if err != nil {
			return err
		}
		switch packet.MsgID {
		case network.MsgTypeHeartbeat:
			return nil
		case network.MsgTypeServerNotice:
			continue
		default:
			return errors.New("unexpected reply to heartbeat")
		}
	}
}

func (c *Client) Reward(ctx context.Context, gamer string) (uint64, error) {
	var amount uint64
	err := c.Query(ctx, network.MsgTypeReward, network.QueryRequest{Gamer: gamer}, &amount)
	return amount, err
}

func (c *Client) Refund(ctx context.Context, gamer string) (uint64, error) {
	var amount uint64
	err := c.Query(ctx, network.MsgTypeRefund, network.QueryRequest{Gamer: gamer}, &amount)
	return amount, err
}

func (c *Client) PoolDetails(ctx context.Context, poolID string) (models.PoolDetails, error) {
	var pool models.PoolDetails
	err := c.Query(ctx, network.MsgTypePoolDetails, network.QueryRequest{PoolID: poolID}, &pool)
	return pool, err
}

func (c *Client) GameResult(ctx context.Context, gamer, poolID, teamID string) (models.GameResult, error) {
	var result models.GameResult
	req := network.QueryRequest{Gamer: gamer, PoolID: poolID, TeamID: teamID}
	err := c.Query(ctx, network.MsgTypeGameResult, req, &result)
	return result, err
}
