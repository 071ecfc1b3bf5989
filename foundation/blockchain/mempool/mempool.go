// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/openwager/wagerchain/foundation/blockchain/database"
)

// Mempool represents the queue of validated transactions waiting to be
// mined. Transactions leave in the same order they arrived, so the drain
// order into a block matches submission order.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.BlockTx
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Append adds a transaction to the end of the pool.
func (mp *Mempool) Append(tx database.BlockTx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Delete removes a transaction from the pool by its hash.
func (mp *Mempool) Delete(tx database.BlockTx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	hash := tx.Hash()
	for i, ptx := range mp.pool {
		if ptx.Hash() == hash {
			mp.pool = append(mp.pool[:i], mp.pool[i+1:]...)
			return
		}
	}
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// Copy returns a snapshot of the pool in arrival order.
func (mp *Mempool) Copy() []database.BlockTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.BlockTx, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}
