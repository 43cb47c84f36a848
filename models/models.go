// models/models.go
package models

import (
	"encoding/json"
	"fmt"
)

// ClaimStatus 团队奖励/退款的领取状态
type ClaimStatus uint8

const (
	Unclaimed ClaimStatus = iota
	Claimed
)

func (c ClaimStatus) String() string {
	switch c {
	case Unclaimed:
		return "unclaimed"
	case Claimed:
		return "claimed"
	default:
		return fmt.Sprintf("ClaimStatus(%d)", uint8(c))
	}
}

func (c ClaimStatus) MarshalJSON() ([]byte, error) {
	if c != Unclaimed && c != Claimed {
		return nil, fmt.Errorf("invalid claim status %d", uint8(c))
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the string form and the legacy boolean form,
// where true means claimed.
func (c *ClaimStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return c.parse(s)
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("invalid claim status %s", string(data))
	}
	if b {
		*c = Claimed
	} else {
		*c = Unclaimed
	}
	return nil
}

// UnmarshalYAML lets seed files use the same spelling as JSON.
func (c *ClaimStatus) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return c.parse(s)
}

func (c *ClaimStatus) parse(s string) error {
	switch s {
	case "", "unclaimed", "false":
		*c = Unclaimed
	case "claimed", "true":
		*c = Claimed
	default:
		return fmt.Errorf("invalid claim status %q", s)
	}
	return nil
}

// WalletPercentage 奖池分成钱包
type WalletPercentage struct {
	WalletAddress string `json:"wallet_address" yaml:"wallet_address"`
	WalletName    string `json:"wallet_name" yaml:"wallet_name"`
	Percentage    uint32 `json:"percentage" yaml:"percentage"`
}

// PoolTypeDetails 奖池类型配置
type PoolTypeDetails struct {
	PoolType          string             `json:"pool_type" yaml:"pool_type"`
	PoolFee           uint64             `json:"pool_fee" yaml:"pool_fee"`
	MinTeamsForPool   uint32             `json:"min_teams_for_pool" yaml:"min_teams_for_pool"`
	MaxTeamsForPool   uint32             `json:"max_teams_for_pool" yaml:"max_teams_for_pool"`
	MaxTeamsForGamer  uint32             `json:"max_teams_for_gamer" yaml:"max_teams_for_gamer"`
	WalletPercentages []WalletPercentage `json:"wallet_percentages" yaml:"wallet_percentages"`
}

// PoolDetails 奖池信息
type PoolDetails struct {
	GameID             string `json:"game_id" yaml:"game_id"`
	PoolID             string `json:"pool_id" yaml:"pool_id"`
	PoolType           string `json:"pool_type" yaml:"pool_type"`
	CurrentTeamsCount  uint32 `json:"current_teams_count" yaml:"current_teams_count"`
	RewardsDistributed bool   `json:"rewards_distributed" yaml:"rewards_distributed"`
	PoolRefundStatus   bool   `json:"pool_refund_status" yaml:"pool_refund_status"`
}

// PoolTeamDetails 玩家在奖池中的一支队伍
type PoolTeamDetails struct {
	TeamID        string      `json:"team_id" yaml:"team_id"`
	GameID        string      `json:"game_id" yaml:"game_id"`
	PoolID        string      `json:"pool_id" yaml:"pool_id"`
	PoolType      string      `json:"pool_type" yaml:"pool_type"`
	GamerAddress  string      `json:"gamer_address" yaml:"gamer_address"`
	TeamRank      uint64      `json:"team_rank" yaml:"team_rank"`
	TeamPoints    uint64      `json:"team_points" yaml:"team_points"`
	RewardAmount  uint64      `json:"reward_amount" yaml:"reward_amount"`
	RefundAmount  uint64      `json:"refund_amount" yaml:"refund_amount"`
	ClaimedReward ClaimStatus `json:"claimed_reward" yaml:"claimed_reward"`
	ClaimedRefund ClaimStatus `json:"claimed_refund" yaml:"claimed_refund"`
}

// GameDetails 游戏信息
type GameDetails struct {
	GameID     string `json:"game_id" yaml:"game_id"`
	GameStatus uint64 `json:"game_status" yaml:"game_status"`
}

// GameResult 游戏结果视图
type GameResult struct {
	GamerAddress string `json:"gamer_address" yaml:"gamer_address"`
	GameID       string `json:"game_id" yaml:"game_id"`
	TeamID       string `json:"team_id" yaml:"team_id"`
	TeamRank     uint64 `json:"team_rank" yaml:"team_rank"`
	TeamPoints   uint64 `json:"team_points" yaml:"team_points"`
	RewardAmount uint64 `json:"reward_amount" yaml:"reward_amount"`
	RefundAmount uint64 `json:"refund_amount" yaml:"refund_amount"`
}

// Config is the process-wide settlement configuration. Fees are whole
// percentages.
type Config struct {
	AdminAddress   string `json:"admin_address" yaml:"admin_address"`
	GameID         string `json:"game_id" yaml:"game_id"`
	PlatformFee    uint64 `json:"platform_fee" yaml:"platform_fee"`
	TransactionFee uint64 `json:"transaction_fee" yaml:"transaction_fee"`
}

// FeeDetails is derived from a gross amount and never persisted.
type FeeDetails struct {
	PlatformFeeAmount    uint64 `json:"platform_fee_amount"`
	TransactionFeeAmount uint64 `json:"transaction_fee_amount"`
	NetAmount            uint64 `json:"net_amount"`
}

// SwapBalanceDetails 奖池兑换余额
type SwapBalanceDetails struct {
	PoolID        string `json:"pool_id" yaml:"pool_id"`
	SourceDenom   string `json:"source_denom" yaml:"source_denom"`
	SourceAmount  uint64 `json:"source_amount" yaml:"source_amount"`
	SwappedDenom  string `json:"swapped_denom" yaml:"swapped_denom"`
	SwappedAmount uint64 `json:"swapped_amount" yaml:"swapped_amount"`
	ExchangeRate  string `json:"exchange_rate" yaml:"exchange_rate"`
}
