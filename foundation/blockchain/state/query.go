package state

import (
	"math/big"

	"github.com/openwager/wagerchain/foundation/blockchain/database"
	"github.com/openwager/wagerchain/foundation/blockchain/genesis"
)

// QueryLastest represents to query the latest block in the chain.
const QueryLastest = ^uint64(0) >> 1

// =============================================================================

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy of the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns a copy of the mempool in arrival order.
func (s *State) RetrieveMempool() []database.BlockTx {
	return s.mempool.Copy()
}

// RetrieveAccounts returns a copy of the registered accounts.
func (s *State) RetrieveAccounts() map[database.AccountID]string {
	return s.db.CopyAccounts()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryMarkets returns a copy of the markets in the derived state.
func (s *State) QueryMarkets() map[string]database.Market {
	return s.db.CopyMarkets()
}

// QueryMarket returns a copy of the specified market.
func (s *State) QueryMarket(marketID string) (database.Market, error) {
	return s.db.GetMarket(marketID)
}

// QueryBets returns a copy of the bet ledger for the specified market.
func (s *State) QueryBets(marketID string) (database.Bets, error) {
	return s.db.GetBets(marketID)
}

// QueryPayouts computes the proportional payouts for the winning side of
// the specified resolved market.
func (s *State) QueryPayouts(marketID string) (map[database.AccountID]*big.Rat, error) {
	return s.db.CalculatePayouts(marketID)
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	if from == QueryLastest {
		from = s.db.LatestBlock().Header.Number
		to = from
	}
	if to == QueryLastest {
		to = s.db.LatestBlock().Header.Number
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByNumber: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}
