package network

import "encoding/json"

const (
	MsgTypeHeartbeat    = 1
	MsgTypeError        = 2
	MsgTypeServerNotice = 3 // 服务端主动推送, 例如停机通知

	MsgTypeFeeWallet       = 101
	MsgTypePoolTypeDetails = 102
	MsgTypeAllPoolTypes    = 103
	MsgTypeTotalFees       = 104
	MsgTypePoolTeamDetails = 105
	MsgTypeAllTeams        = 106
	MsgTypeReward          = 107
	MsgTypeRefund          = 108
	MsgTypeGameResult      = 109
	MsgTypePoolDetails     = 110
	MsgTypeTeamCount       = 111
	MsgTypeGameDetails     = 112
	MsgTypeTeamDetails     = 113
	MsgTypeAllPoolsInGame  = 114
	MsgTypePoolCollection  = 115
	MsgTypeSwapDataForPool = 116
)

var queryNames = map[uint16]string{
	MsgTypeFeeWallet:       "fee_wallet",
	MsgTypePoolTypeDetails: "pool_type_details",
	MsgTypeAllPoolTypes:    "all_pool_types",
	MsgTypeTotalFees:       "total_fees",
	MsgTypePoolTeamDetails: "pool_team_details",
	MsgTypeAllTeams:        "all_teams",
	MsgTypeReward:          "reward",
	MsgTypeRefund:          "refund",
	MsgTypeGameResult:      "game_result",
	MsgTypePoolDetails:     "pool_details",
	MsgTypeTeamCount:       "team_count",
	MsgTypeGameDetails:     "game_details",
	MsgTypeTeamDetails:     "team_details",
	MsgTypeAllPoolsInGame:  "all_pools_in_game",
	MsgTypePoolCollection:  "pool_collection",
	MsgTypeSwapDataForPool: "swap_data_for_pool",
}

// QueryName returns the name of a query message, or "" for other types.
func QueryName(msgID uint16) string {
	return queryNames[msgID]
}

// QueryMsgID looks a query message up by name.
func QueryMsgID(name string) (uint16, bool) {
	for id, n := range queryNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// QueryNames lists every query name.
func QueryNames() []string {
	names := make([]string, 0, len(queryNames))
	for _, n := range queryNames {
		names = append(names, n)
	}
	return names
}

// QueryRequest 查询请求体, 每种查询只读取自己需要的字段
type QueryRequest struct {
	RequestID string   `json:"request_id,omitempty"`
	Gamer     string   `json:"gamer,omitempty"`
	Gamers    []string `json:"gamers,omitempty"`
	PoolID    string   `json:"pool_id,omitempty"`
	TeamID    string   `json:"team_id,omitempty"`
	GameID    string   `json:"game_id,omitempty"`
	PoolType  string   `json:"pool_type,omitempty"`
	Amount    uint64   `json:"amount,omitempty"`
}

// QueryResponse 查询响应体, Code 为 "ok" 时 Result 有效
type QueryResponse struct {
	RequestID string          `json:"request_id,omitempty"`
	Code      string          `json:"code"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// Notice 为 MsgTypeServerNotice 的消息体
type Notice struct {
	Event string `json:"event"`
}

const NoticeShuttingDown = "shutting_down"

// Transport level codes, in addition to models.ErrorCode.
const (
	CodeUnknownMessage = "unknown_message"
	CodeBadRequest     = "bad_request"
)
