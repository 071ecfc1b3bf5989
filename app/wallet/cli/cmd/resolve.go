package cmd

import (
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openwager/wagerchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	resolveMarketID string
	resolveWinner   string
)

// resolveCmd submits a RESOLVE_MARKET transaction declaring the winner.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a market with the winning outcome",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		payload := database.ResolveMarket{
			MarketID: resolveMarketID,
			Winner:   database.Option(resolveWinner),
		}

		signAndSubmit(privateKey, database.TxResolveMarket, payload)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveMarketID, "market", "m", "", "Id of the market to resolve.")
	resolveCmd.Flags().StringVarP(&resolveWinner, "winner", "w", "", "Winning outcome, A or B.")
	resolveCmd.MarkFlagRequired("market")
	resolveCmd.MarkFlagRequired("winner")
}
