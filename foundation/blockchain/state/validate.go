package state

import (
	"fmt"

	"github.com/openwager/wagerchain/foundation/blockchain/database"
)

// Validate walks the chain from block 1 and re-checks every block: the
// stored hash must equal the recomputation from the block's fields, the
// parent link must match, the difficulty target must be satisfied, and the
// transaction root must match the transactions. The returned error names
// the first failing block; a nil error means the chain is intact.
func (s *State) Validate() error {
	s.evHandler("state: Validate: started")
	defer s.evHandler("state: Validate: completed")

	var previousBlock database.Block

	iter := s.db.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return fmt.Errorf("reading block from storage: %w", err)
		}

		block := database.ToBlock(blockData)

		// The hash recorded in storage must match the hash recomputed
		// from the block's current fields.
		if blockData.Hash != block.Hash() {
			return fmt.Errorf("block %d: stored hash does not match recomputation, got %s, exp %s", block.Header.Number, blockData.Hash, block.Hash())
		}

		if err := block.ValidateBlock(previousBlock, s.evHandler); err != nil {
			return fmt.Errorf("block %d: %w", block.Header.Number, err)
		}

		previousBlock = block
	}

	return nil
}
