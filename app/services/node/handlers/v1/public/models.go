package public

import (
	"github.com/openwager/wagerchain/foundation/blockchain/database"
)

// tx represents the view of a transaction for API responses.
type tx struct {
	FromAccount database.AccountID `json:"from"`
	FromName    string             `json:"from_name"`
	Type        string             `json:"type"`
	Data        any                `json:"data"`
	TimeStamp   uint64             `json:"timestamp"`
	Sig         string             `json:"sig"`
}

// block represents the view of a block for API responses.
type block struct {
	Number        uint64             `json:"number"`
	PrevBlockHash string             `json:"prev_block_hash"`
	TimeStamp     uint64             `json:"timestamp"`
	Beneficiary   database.AccountID `json:"beneficiary"`
	Difficulty    uint16             `json:"difficulty"`
	Nonce         uint64             `json:"nonce"`
	TransRoot     string             `json:"trans_root"`
	Hash          string             `json:"hash"`
	Transactions  []tx               `json:"txs"`
}

// account represents the view of a registered account.
type account struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
}

// actInfo is the response for the accounts listing.
type actInfo struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Accounts    []account `json:"accounts"`
}

// market represents the view of a market in the derived state.
type market struct {
	MarketID string             `json:"market_id"`
	Question string             `json:"question"`
	OptionA  string             `json:"option_a"`
	OptionB  string             `json:"option_b"`
	EndTime  uint64             `json:"end_time"`
	Resolved bool               `json:"resolved"`
	Winner   database.Option    `json:"winner,omitempty"`
	Creator  database.AccountID `json:"creator"`
	Name     string             `json:"creator_name"`
}

// stake represents one bettor's cumulative stake on a side.
type stake struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Amount  uint64             `json:"amount"`
}

// betLedger is the response for the bets listing.
type betLedger struct {
	MarketID string  `json:"market_id"`
	OptionA  []stake `json:"A"`
	OptionB  []stake `json:"B"`
}

// payout represents one winner's payout. The exact value is the rational
// number as a fraction string, the amount is its float approximation.
type payout struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Exact   string             `json:"exact"`
	Amount  float64            `json:"amount"`
}

// payoutInfo is the response for the payouts query.
type payoutInfo struct {
	MarketID string          `json:"market_id"`
	Winner   database.Option `json:"winner"`
	Payouts  []payout        `json:"payouts"`
}
