package cmd

import (
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openwager/wagerchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	marketID string
	question string
	optionA  string
	optionB  string
	endTime  uint64
)

// marketCmd submits a CREATE_MARKET transaction for a new binary market.
var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Create a new prediction market",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		payload := database.CreateMarket{
			MarketID: marketID,
			Question: question,
			OptionA:  optionA,
			OptionB:  optionB,
			EndTime:  endTime,
		}

		signAndSubmit(privateKey, database.TxCreateMarket, payload)
	},
}

func init() {
	rootCmd.AddCommand(marketCmd)
	marketCmd.Flags().StringVarP(&marketID, "market", "m", "", "Unique id for the market.")
	marketCmd.Flags().StringVarP(&question, "question", "q", "", "The question being bet on.")
	marketCmd.Flags().StringVar(&optionA, "option-a", "", "Label for outcome A.")
	marketCmd.Flags().StringVar(&optionB, "option-b", "", "Label for outcome B.")
	marketCmd.Flags().Uint64VarP(&endTime, "end", "e", 0, "Unix time after which bets are rejected.")
	marketCmd.MarkFlagRequired("market")
	marketCmd.MarkFlagRequired("question")
	marketCmd.MarkFlagRequired("end")
}
