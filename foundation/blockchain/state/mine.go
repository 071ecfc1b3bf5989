package state

import (
	"context"
	"errors"

	"github.com/openwager/wagerchain/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no transactions in the mempool.
var ErrNoTransactions = errors.New("no transactions in mempool")

// ReplayReport describes what happened when a freshly mined block's
// transactions were applied to the derived market state. Skipped
// transactions are committed history that failed a state precondition.
type ReplayReport struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The mempool is snapshotted before the
// POW search and only cleared of the mined transactions after the block has
// been appended, so a cancelled or failed search leaves the pool intact.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, ReplayReport, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ReplayReport{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Drain the mempool by value, order preserved. The pool itself is not
	// touched until the block is committed.
	trans := s.mempool.Copy()

	// Attempt to create a new block by solving the POW puzzle. The search
	// runs outside the state lock so submissions are never blocked by
	// mining. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		BeneficiaryID: s.beneficiaryID,
		Difficulty:    s.genesis.Difficulty,
		MiningCap:     s.genesis.MiningCap,
		PrevBlock:     s.db.LatestBlock(),
		Trans:         trans,
		EvHandler:     s.evHandler,
	})
	if err != nil {
		return database.Block{}, ReplayReport{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ReplayReport{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	report, err := s.updateLocalState(block)
	if err != nil {
		return database.Block{}, ReplayReport{}, err
	}

	return block, report, nil
}

// =============================================================================

// updateLocalState commits the block to storage and replays its
// transactions, in order, through the state machine. Replay failures are
// skips, the block is already immutable history at this point, so they are
// reported through the event handler and never abort the commit.
func (s *State) updateLocalState(block database.Block) (ReplayReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateLocalState: write block to storage")

	if err := s.db.Write(block); err != nil {
		return ReplayReport{}, err
	}
	s.db.UpdateLatestBlock(block)

	s.evHandler("state: updateLocalState: apply transactions to market state")

	var report ReplayReport
	for _, tx := range block.Trans {
		s.evHandler("state: updateLocalState: tx[%s] apply and remove", tx)

		if err := s.db.ApplyTransaction(block, tx); err != nil {
			s.evHandler("state: updateLocalState: SKIP: tx[%s]: %s", tx, err)
			report.Skipped++
		} else {
			report.Applied++
		}

		// Remove this transaction from the mempool.
		s.mempool.Delete(tx)
	}

	return report, nil
}
