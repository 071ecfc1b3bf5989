package cmd

import (
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openwager/wagerchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	betMarketID string
	betOption   string
	betAmount   uint64
)

// betCmd submits a PLACE_BET transaction against an open market.
var betCmd = &cobra.Command{
	Use:   "bet",
	Short: "Place a bet on a market outcome",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		payload := database.PlaceBet{
			MarketID: betMarketID,
			Option:   database.Option(betOption),
			Amount:   betAmount,
		}

		signAndSubmit(privateKey, database.TxPlaceBet, payload)
	},
}

func init() {
	rootCmd.AddCommand(betCmd)
	betCmd.Flags().StringVarP(&betMarketID, "market", "m", "", "Id of the market to bet on.")
	betCmd.Flags().StringVarP(&betOption, "option", "o", "", "Outcome to back, A or B.")
	betCmd.Flags().Uint64VarP(&betAmount, "amount", "v", 0, "Amount to stake.")
	betCmd.MarkFlagRequired("market")
	betCmd.MarkFlagRequired("option")
	betCmd.MarkFlagRequired("amount")
}
