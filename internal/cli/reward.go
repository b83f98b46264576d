package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	rewardUser   string
	rewardToken  string
	rewardChains []string
)

var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Show the unclaimed reward for a user and token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rewardUser == "" || rewardToken == "" {
			return fmt.Errorf("--user and --token are required")
		}

		status, err := getApp().FetchRewardStatus(cmd.Context(), rewardUser, rewardToken, rewardChains)
		if err != nil {
			return err
		}
		if !status.Found {
			fmt.Println("no reward found")
			return nil
		}

		source := "api"
		if status.OnChainRead {
			source = "on-chain"
		}
		fmt.Printf("token:     %s\n", status.TokenSymbol)
		fmt.Printf("unclaimed: %s (%s fiat)\n", status.DisplayAmount, status.FiatDisplay)
		fmt.Printf("claimed source: %s\n", source)
		return nil
	},
}

func init() {
	rewardCmd.Flags().StringVar(&rewardUser, "user", "", "User address")
	rewardCmd.Flags().StringVar(&rewardToken, "token", "", "Reward token address")
	rewardCmd.Flags().StringSliceVar(&rewardChains, "chain", nil, "Hex chain ids to query (default: claim chain)")
}
