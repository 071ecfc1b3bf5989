package database

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/openwager/wagerchain/foundation/blockchain/signature"
)

// Set of transaction types the state machine knows how to apply.
const (
	TxCreateMarket  = "CREATE_MARKET"
	TxPlaceBet      = "PLACE_BET"
	TxResolveMarket = "RESOLVE_MARKET"
)

// Option identifies one of the two sides of a binary market.
type Option string

// Set of market options.
const (
	OptionA Option = "A"
	OptionB Option = "B"
)

// IsOption verifies the underlying data represents one of the two sides.
func (o Option) IsOption() bool {
	return o == OptionA || o == OptionB
}

// =============================================================================

// CreateMarket is the payload for opening a new binary market.
type CreateMarket struct {
	MarketID string `json:"market_id" validate:"required"`
	Question string `json:"question" validate:"required"`
	OptionA  string `json:"option_a" validate:"required"`
	OptionB  string `json:"option_b" validate:"required"`
	EndTime  uint64 `json:"end_time" validate:"required"`
}

// PlaceBet is the payload for staking an amount on one side of a market.
type PlaceBet struct {
	MarketID string `json:"market_id" validate:"required"`
	Option   Option `json:"option" validate:"required,oneof=A B"`
	Amount   uint64 `json:"amount" validate:"required,gt=0"`
}

// ResolveMarket is the payload for settling a market on its winning side.
type ResolveMarket struct {
	MarketID string `json:"market_id" validate:"required"`
	Winner   Option `json:"winner" validate:"required,oneof=A B"`
}

// =============================================================================

// Tx is the transactional information submitted by a market participant.
// Once constructed a Tx is never mutated, which keeps its hash and
// signature reproducible.
type Tx struct {
	ChainID uint16          `json:"chain_id"` // The chain id inside the genesis file.
	Type    string          `json:"type"`     // CREATE_MARKET, PLACE_BET or RESOLVE_MARKET.
	FromID  AccountID       `json:"from"`     // Account submitting the transaction.
	Data    json.RawMessage `json:"data"`     // Payload whose shape depends on Type.
}

// NewTx constructs a new transaction, marshaling the payload into the
// canonical encoding that is signed and hashed.
func NewTx(chainID uint16, txType string, fromID AccountID, payload any) (Tx, error) {
	if !fromID.IsAccountID() {
		return Tx{}, fmt.Errorf("from account is not properly formatted")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Tx{}, fmt.Errorf("marshal payload: %w", err)
	}

	tx := Tx{
		ChainID: chainID,
		Type:    txType,
		FromID:  fromID,
		Data:    data,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// Sign the transaction with the private key to produce a signature.
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	// Construct the signed transaction by adding the signature
	// in the [R|S|V] format.
	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the blockchain.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Recovery identifier, either 31 or 32 with wagerID.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the transaction has a proper signature that conforms to
// our standards and that the signer is the account the transaction claims
// to come from.
func (tx SignedTx) Validate(chainID uint16) error {
	if tx.ChainID != chainID {
		return fmt.Errorf("invalid chain id, got %d, exp %d", tx.ChainID, chainID)
	}

	if !tx.FromID.IsAccountID() {
		return errors.New("invalid account for from account")
	}

	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	if err != nil {
		return err
	}

	if address != string(tx.FromID) {
		return errors.New("signature address doesn't match from address")
	}

	return nil
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%s", tx.FromID, tx.Type)
}

// =============================================================================

// BlockTx represents the transaction as it's recorded inside a block. The
// timestamp is captured when the node accepts the transaction and never
// changes afterwards.
type BlockTx struct {
	SignedTx
	TimeStamp uint64 `json:"timestamp"` // The time the transaction was received.
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}
}

// Hash returns a unique string for the block transaction.
func (tx BlockTx) Hash() string {
	return signature.Hash(tx)
}

// Created returns the timestamp as time.Time.
func (tx BlockTx) Created() time.Time {
	return time.Unix(int64(tx.TimeStamp), 0)
}
