package database

import (
	"errors"
	"math/big"
)

// Set of errors returned when applying transactions or querying markets.
// During block replay these are skip conditions, not failures.
var (
	ErrMarketExists      = errors.New("market already exists")
	ErrMarketNotFound    = errors.New("market not found")
	ErrMarketExpired     = errors.New("market no longer accepts bets")
	ErrMarketResolved    = errors.New("market already resolved")
	ErrMarketNotResolved = errors.New("market not resolved")
	ErrUnknownTxType     = errors.New("unknown transaction type")
)

// Market represents a binary-outcome market recorded in the derived state.
// It is created once by a CREATE_MARKET transaction and mutated only by a
// RESOLVE_MARKET transaction.
type Market struct {
	MarketID  string    `json:"market_id"`
	Question  string    `json:"question"`
	OptionA   string    `json:"option_a"`
	OptionB   string    `json:"option_b"`
	EndTime   uint64    `json:"end_time"`
	Resolved  bool      `json:"resolved"`
	Winner    Option    `json:"winner,omitempty"`
	CreatorID AccountID `json:"creator"`
}

// Bets holds the cumulative stake per bettor for both sides of a market.
// Repeated bets by the same account on the same side accumulate.
type Bets struct {
	A map[AccountID]uint64 `json:"A"`
	B map[AccountID]uint64 `json:"B"`
}

// newBets constructs the empty bet ledger created alongside a market.
func newBets() Bets {
	return Bets{
		A: make(map[AccountID]uint64),
		B: make(map[AccountID]uint64),
	}
}

// ForOption returns the stake mapping for the specified side.
func (b Bets) ForOption(option Option) map[AccountID]uint64 {
	if option == OptionA {
		return b.A
	}
	return b.B
}

// Total returns the sum staked on the specified side.
func (b Bets) Total(option Option) uint64 {
	var total uint64
	for _, amount := range b.ForOption(option) {
		total += amount
	}
	return total
}

// copyBets makes a deep copy of the bet ledger.
func copyBets(bets Bets) Bets {
	cpy := newBets()
	for accountID, amount := range bets.A {
		cpy.A[accountID] = amount
	}
	for accountID, amount := range bets.B {
		cpy.B[accountID] = amount
	}
	return cpy
}

// =============================================================================

// Payouts computes the proportional payout for every bettor on the winning
// side of a resolved market. Each winner receives their stake back plus
// their proportional share of the losing pool. Rational arithmetic is used
// so the division is exact. Losing bettors have no entry.
func Payouts(market Market, bets Bets) (map[AccountID]*big.Rat, error) {
	if !market.Resolved {
		return nil, ErrMarketNotResolved
	}

	loser := OptionB
	if market.Winner == OptionB {
		loser = OptionA
	}

	winnerBets := bets.ForOption(market.Winner)
	totalWinning := bets.Total(market.Winner)
	totalLosing := bets.Total(loser)

	payouts := make(map[AccountID]*big.Rat, len(winnerBets))
	for accountID, amount := range winnerBets {
		payout := new(big.Rat).SetUint64(amount)
		if totalWinning > 0 {
			share := new(big.Rat).SetFrac64(int64(amount), int64(totalWinning))
			share.Mul(share, new(big.Rat).SetUint64(totalLosing))
			payout.Add(payout, share)
		}
		payouts[accountID] = payout
	}

	return payouts, nil
}
