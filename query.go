package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfunc/gamingpool/client"
	"github.com/wfunc/gamingpool/network"
)

func queryCommand() *cobra.Command {
	var (
		url     string
		timeout time.Duration
		req     network.QueryRequest
	)
	names := network.QueryNames()
	sort.Strings(names)

	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Send one query to a running server and print the JSON result",
		Long:  "Queries: " + strings.Join(names, ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgID, ok := network.QueryMsgID(args[0])
			if !ok {
				return fmt.Errorf("unknown query %q", args[0])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c, err := client.Dial(ctx, url)
			if err != nil {
				return err
			}
			defer c.Close()

			var result json.RawMessage
			if err := c.Query(ctx, msgID, req, &result); err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&url, "url", "ws://localhost:8080/ws", "server websocket url")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "query timeout")
	flags.StringVar(&req.Gamer, "gamer", "", "gamer address")
	flags.StringSliceVar(&req.Gamers, "gamers", nil, "gamer addresses for all_teams")
	flags.StringVar(&req.PoolID, "pool", "", "pool id")
	flags.StringVar(&req.TeamID, "team", "", "team id")
	flags.StringVar(&req.GameID, "game", "", "game id")
	flags.StringVar(&req.PoolType, "pool-type", "", "pool type")
	flags.Uint64Var(&req.Amount, "amount", 0, "amount for total_fees")
	return cmd
}
