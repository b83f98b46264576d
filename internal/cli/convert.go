package cli

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"musd-rewards-watcher/internal/conversion"
)

var (
	convertAccount string
	convertAmount  string
	convertSymbol  string
	convertChain   string
	convertSkipEdu bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Start a stablecoin conversion",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, ok := new(big.Int).SetString(convertAmount, 10)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("--amount must be a positive base-unit integer")
		}

		opts := conversion.StartOptions{
			Account:       convertAccount,
			Amount:        amount,
			SkipEducation: convertSkipEdu,
		}
		if convertSymbol != "" {
			opts.SourceToken = &conversion.PaymentToken{
				Symbol:  convertSymbol,
				ChainID: convertChain,
			}
		}

		return getApp().StartConversion(cmd.Context(), opts)
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertAccount, "account", "", "Selected account address")
	convertCmd.Flags().StringVar(&convertAmount, "amount", "", "Amount in base units")
	convertCmd.Flags().StringVar(&convertSymbol, "source-token", "", "Preferred source token symbol")
	convertCmd.Flags().StringVar(&convertChain, "source-chain", "", "Source token hex chain id")
	convertCmd.Flags().BoolVar(&convertSkipEdu, "skip-education", false, "Skip the education screen")
}
