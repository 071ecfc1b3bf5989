package state

import (
	"errors"
	"fmt"

	"github.com/openwager/wagerchain/foundation/blockchain/database"
)

// Set of errors returned when a transaction fails submission validation.
// These are fatal to the submit call, nothing is enqueued.
var (
	ErrUnknownSender    = errors.New("unknown sender, account not registered")
	ErrInvalidSignature = errors.New("invalid signature")
)

// SubmitWalletTransaction accepts a transaction from a wallet for inclusion
// into the blockchain. The signature must verify against the claimed sender
// and the sender must be a registered account. On success the transaction
// joins the back of the mempool, no derived state changes.
func (s *State) SubmitWalletTransaction(signedTx database.SignedTx) error {
	s.evHandler("state: SubmitWalletTransaction: validate [%s]", signedTx)

	if err := s.validateTransaction(signedTx); err != nil {
		return err
	}

	tx := database.NewBlockTx(signedTx)
	n := s.mempool.Append(tx)
	s.evHandler("state: SubmitWalletTransaction: mempool[%d]", n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// =============================================================================

// validateTransaction takes the signed transaction and validates that the
// signature authenticates the payload and that the signer is known.
func (s *State) validateTransaction(signedTx database.SignedTx) error {
	if !s.db.IsRegistered(signedTx.FromID) {
		return fmt.Errorf("%w: %s", ErrUnknownSender, signedTx.FromID)
	}

	if err := signedTx.Validate(s.genesis.ChainID); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return nil
}
