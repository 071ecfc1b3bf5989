// Package database handles all the lower level support for maintaining the
// blockchain on disk and maintaining the derived market state in memory.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/openwager/wagerchain/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the committed blocks and the market state derived from
// replaying their transactions in chain order. Pending transactions never
// touch this state.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	accounts    map[AccountID]string
	markets     map[string]Market
	bets        map[string]Bets

	storage Storage
}

// New constructs a new database, registers the genesis accounts, and
// rebuilds the derived state by replaying any blocks found in storage.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis:  gen,
		accounts: make(map[AccountID]string),
		markets:  make(map[string]Market),
		bets:     make(map[string]Bets),
		storage:  storage,
	}

	// Authorize the accounts named in the genesis file.
	for accountStr, name := range gen.Accounts {
		accountID, err := ToAccountID(accountStr)
		if err != nil {
			return nil, err
		}
		db.accounts[accountID] = name
	}

	// Read the blocks from storage, validate the chain linkage, and replay
	// every transaction in block order to rebuild the derived state.
	iter := db.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block := ToBlock(blockData)
		if err := block.ValidateBlock(db.latestBlock, evHandler); err != nil {
			return nil, err
		}

		for _, tx := range block.Trans {
			if err := db.ApplyTransaction(block, tx); err != nil {
				evHandler("database: New: replay: blk[%d]: tx[%s]: SKIP: %s", block.Header.Number, tx, err)
			}
		}

		db.latestBlock = block
	}

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() {
	db.storage.Close()
}

// Reset re-initializes the database back to the genesis state.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.latestBlock = Block{}
	db.markets = make(map[string]Market)
	db.bets = make(map[string]Bets)

	db.accounts = make(map[AccountID]string)
	for accountStr, name := range db.genesis.Accounts {
		accountID, err := ToAccountID(accountStr)
		if err != nil {
			return err
		}
		db.accounts[accountID] = name
	}

	return nil
}

// =============================================================================
// Account registry

// RegisterAccount authorizes an account to submit transactions.
func (db *Database) RegisterAccount(accountID AccountID, name string) error {
	if !accountID.IsAccountID() {
		return errors.New("invalid account format")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.accounts[accountID] = name

	return nil
}

// IsRegistered reports whether the account has been authorized.
func (db *Database) IsRegistered(accountID AccountID) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.accounts[accountID]
	return exists
}

// CopyAccounts makes a copy of the registered accounts and their names.
func (db *Database) CopyAccounts() map[AccountID]string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	accounts := make(map[AccountID]string, len(db.accounts))
	for accountID, name := range db.accounts {
		accounts[accountID] = name
	}
	return accounts
}

// =============================================================================
// State machine

// ApplyTransaction performs the business logic for applying a committed
// transaction to the derived market state. The returned errors represent
// skip conditions: during block replay the caller reports them and moves
// on, since the block itself is already immutable history.
func (db *Database) ApplyTransaction(block Block, tx BlockTx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	switch tx.Type {
	case TxCreateMarket:
		var payload CreateMarket
		if err := json.Unmarshal(tx.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal create market: %w", err)
		}
		return db.applyCreateMarket(tx, payload)

	case TxPlaceBet:
		var payload PlaceBet
		if err := json.Unmarshal(tx.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal place bet: %w", err)
		}
		return db.applyPlaceBet(tx, payload)

	case TxResolveMarket:
		var payload ResolveMarket
		if err := json.Unmarshal(tx.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal resolve market: %w", err)
		}
		return db.applyResolveMarket(tx, payload)
	}

	return fmt.Errorf("%w: %q", ErrUnknownTxType, tx.Type)
}

// applyCreateMarket records a new market with an empty bet ledger.
func (db *Database) applyCreateMarket(tx BlockTx, payload CreateMarket) error {
	if _, exists := db.markets[payload.MarketID]; exists {
		return fmt.Errorf("%w: %q", ErrMarketExists, payload.MarketID)
	}

	db.markets[payload.MarketID] = Market{
		MarketID:  payload.MarketID,
		Question:  payload.Question,
		OptionA:   payload.OptionA,
		OptionB:   payload.OptionB,
		EndTime:   payload.EndTime,
		CreatorID: tx.FromID,
	}
	db.bets[payload.MarketID] = newBets()

	return nil
}

// applyPlaceBet accumulates a stake on one side of an open market. The
// transaction's own timestamp decides expiry so that replaying the chain
// from storage reproduces identical state.
func (db *Database) applyPlaceBet(tx BlockTx, payload PlaceBet) error {
	market, exists := db.markets[payload.MarketID]
	if !exists {
		return fmt.Errorf("%w: %q", ErrMarketNotFound, payload.MarketID)
	}

	if tx.TimeStamp > market.EndTime {
		return fmt.Errorf("%w: %q", ErrMarketExpired, payload.MarketID)
	}

	if market.Resolved {
		return fmt.Errorf("%w: %q", ErrMarketResolved, payload.MarketID)
	}

	if !payload.Option.IsOption() {
		return fmt.Errorf("invalid option %q for market %q", payload.Option, payload.MarketID)
	}

	side := db.bets[payload.MarketID].ForOption(payload.Option)
	side[tx.FromID] += payload.Amount

	return nil
}

// applyResolveMarket settles a market on its winning side. Resolution is
// monotonic, a resolved market never changes its winner.
func (db *Database) applyResolveMarket(tx BlockTx, payload ResolveMarket) error {
	market, exists := db.markets[payload.MarketID]
	if !exists {
		return fmt.Errorf("%w: %q", ErrMarketNotFound, payload.MarketID)
	}

	if market.Resolved {
		return fmt.Errorf("%w: %q", ErrMarketResolved, payload.MarketID)
	}

	if !payload.Winner.IsOption() {
		return fmt.Errorf("invalid winner %q for market %q", payload.Winner, payload.MarketID)
	}

	market.Resolved = true
	market.Winner = payload.Winner
	db.markets[payload.MarketID] = market

	return nil
}

// =============================================================================
// Queries

// GetMarket returns a copy of the specified market.
func (db *Database) GetMarket(marketID string) (Market, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	market, exists := db.markets[marketID]
	if !exists {
		return Market{}, fmt.Errorf("%w: %q", ErrMarketNotFound, marketID)
	}

	return market, nil
}

// GetBets returns a copy of the bet ledger for the specified market.
func (db *Database) GetBets(marketID string) (Bets, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	bets, exists := db.bets[marketID]
	if !exists {
		return Bets{}, fmt.Errorf("%w: %q", ErrMarketNotFound, marketID)
	}

	return copyBets(bets), nil
}

// CopyMarkets makes a copy of the current markets in the database.
func (db *Database) CopyMarkets() map[string]Market {
	db.mu.RLock()
	defer db.mu.RUnlock()

	markets := make(map[string]Market, len(db.markets))
	for marketID, market := range db.markets {
		markets[marketID] = market
	}
	return markets
}

// CalculatePayouts reads the resolved market and its bet ledger and
// computes the proportional payouts for the winning side.
func (db *Database) CalculatePayouts(marketID string) (map[AccountID]*big.Rat, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	market, exists := db.markets[marketID]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrMarketNotFound, marketID)
	}

	return Payouts(market, db.bets[marketID])
}

// =============================================================================
// Blocks

// UpdateLatestBlock provides safe access to update the latest block.
func (db *Database) UpdateLatestBlock(block Block) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.latestBlock = block
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Write adds a new block to the chain.
func (db *Database) Write(block Block) error {
	return db.storage.Write(NewBlockData(block))
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (db *Database) ForEach() Iterator {
	return db.storage.ForEach()
}

// GetBlock searches the blockchain in storage to locate and return the
// contents of the specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}
	return ToBlock(blockData), nil
}
