package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openwager/wagerchain/foundation/blockchain/signature"
)

// ErrMiningCapReached is returned from POW when the configured number of
// nonce attempts have been tried without solving the puzzle.
var ErrMiningCapReached = errors.New("mining attempt cap reached")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64    `json:"number"`          // Block number in the chain, genesis is 0.
	PrevBlockHash string    `json:"prev_block_hash"` // Hash of the previous block in the chain.
	TimeStamp     uint64    `json:"timestamp"`       // Time the block was constructed. Constant during the nonce search.
	BeneficiaryID AccountID `json:"beneficiary"`     // The account that mined this block.
	Difficulty    uint16    `json:"difficulty"`      // Number of leading 0's needed to solve the hash solution.
	Nonce         uint64    `json:"nonce"`           // Value identified to solve the hash solution.
	TransRoot     string    `json:"trans_root"`      // Hash over the ordered transaction hashes in this block.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  []BlockTx
}

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	BeneficiaryID AccountID
	Difficulty    uint16
	MiningCap     uint64
	PrevBlock     Block
	Trans         []BlockTx
	EvHandler     func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {

	// When mining the first block, the previous block's hash will be zero.
	prevBlockHash := signature.ZeroHash
	if args.PrevBlock.Header.Number > 0 {
		prevBlockHash = args.PrevBlock.Hash()
	}

	// Construct the block to be mined. The timestamp is captured here,
	// before the nonce search, and is not updated while mining runs.
	nb := Block{
		Header: BlockHeader{
			Number:        args.PrevBlock.Header.Number + 1,
			PrevBlockHash: prevBlockHash,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			BeneficiaryID: args.BeneficiaryID,
			Difficulty:    args.Difficulty,
			Nonce:         0, // Will be identified by the POW algorithm.
			TransRoot:     TransRoot(args.Trans),
		},
		Trans: args.Trans,
	}

	// Perform the proof of work mining operation.
	if err := nb.performPOW(ctx, args.MiningCap, args.EvHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, cap uint64, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: difficulty[%d]", b.Header.Difficulty)
	defer ev("database: PerformPOW: MINING: completed")

	for _, tx := range b.Trans {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	// Increment the nonce from zero until a solution is found or the
	// search is cancelled or capped.
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		if cap != 0 && attempts > cap {
			ev("database: PerformPOW: MINING: CAP REACHED: attempts[%d]", attempts)
			return ErrMiningCapReached
		}

		// Did the caller cancel the mining operation.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// Hash returns the unique hash for the Block. The hash covers every header
// field including the transaction root, so any change to the block's
// contents produces a different hash.
func (b Block) Hash() string {
	if b.Header.Number == 0 {
		return signature.ZeroHash
	}

	return signature.Hash(b.Header)
}

// ValidateBlock takes a block and validates it to be included into
// the blockchain.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: blk[%d]: check: block hash has been solved", b.Header.Number)

	hash := b.Hash()
	if !isHashSolved(b.Header.Difficulty, hash) {
		return fmt.Errorf("%s invalid block hash", hash)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash())
	}

	if previousBlock.Header.TimeStamp > 0 {
		evHandler("database: ValidateBlock: blk[%d]: check: block's timestamp is not before the parent block's timestamp", b.Header.Number)

		// Blocks can be mined within the same second, so the timestamp
		// only needs to be not earlier than the parent's.
		if b.Header.TimeStamp < previousBlock.Header.TimeStamp {
			return fmt.Errorf("block timestamp is before parent block, parent %d, block %d", previousBlock.Header.TimeStamp, b.Header.TimeStamp)
		}
	}

	evHandler("database: ValidateBlock: blk[%d]: check: transaction root does match transactions", b.Header.Number)

	if root := TransRoot(b.Trans); b.Header.TransRoot != root {
		return fmt.Errorf("transaction root does not match transactions, got %s, exp %s", root, b.Header.TransRoot)
	}

	return nil
}

// TransRoot computes the hash that commits a block to its transactions.
// The hash is taken over the ordered list of transaction hashes, so both
// the contents and the order of the transactions are covered.
func TransRoot(trans []BlockTx) string {
	hashes := make([]string, len(trans))
	for i, tx := range trans {
		hashes[i] = tx.Hash()
	}

	return signature.Hash(hashes)
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	const match = "0x00000000000000000"

	if len(hash) != 66 {
		return false
	}

	return hash[:2+difficulty] == match[:2+difficulty]
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []BlockTx   `json:"trans"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	blockData := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans,
	}

	return blockData
}

// ToBlock converts a storage block into a database block.
func ToBlock(blockData BlockData) Block {
	block := Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
	}

	return block
}
