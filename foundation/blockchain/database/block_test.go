package database_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openwager/wagerchain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// The chain id used for all the signing in these tests.
const chainID = 1

// noopEv drops all mining and validation events.
func noopEv(v string, args ...any) {}

// newBlockTx signs the payload with the private key and wraps it in a block
// transaction carrying the specified timestamp.
func newBlockTx(t *testing.T, privateKey *ecdsa.PrivateKey, txType string, payload any, timeStamp uint64) database.BlockTx {
	t.Helper()

	fromID := database.PublicKeyToAccountID(privateKey.PublicKey)

	tx, err := database.NewTx(chainID, txType, fromID, payload)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign a transaction: %v", failed, err)
	}

	return database.BlockTx{
		SignedTx:  signedTx,
		TimeStamp: timeStamp,
	}
}

// =============================================================================

func Test_POW(t *testing.T) {
	t.Log("Given the need to mine a block with a valid proof of work.")
	{
		t.Logf("\tTest 0:\tWhen mining a block at difficulty one.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a private key: %v", failed, err)
			}

			trans := []database.BlockTx{
				newBlockTx(t, privateKey, database.TxCreateMarket, database.CreateMarket{
					MarketID: "btc-100k",
					Question: "Will BTC close above 100k this year?",
					OptionA:  "Yes",
					OptionB:  "No",
					EndTime:  1900000000,
				}, 100),
			}

			block, err := database.POW(context.Background(), database.POWArgs{
				BeneficiaryID: database.PublicKeyToAccountID(privateKey.PublicKey),
				Difficulty:    1,
				PrevBlock:     database.Block{},
				Trans:         trans,
				EvHandler:     noopEv,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine a block.", success)

			if block.Header.Number != 1 {
				t.Errorf("\t%s\tTest 0:\tShould have block number 1: got %d", failed, block.Header.Number)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have block number 1.", success)
			}

			hash := block.Hash()
			if hash[:3] != "0x0" {
				t.Errorf("\t%s\tTest 0:\tShould have a hash that satisfies the difficulty: %s", failed, hash)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have a hash that satisfies the difficulty.", success)
			}

			if err := block.ValidateBlock(database.Block{}, noopEv); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould validate against the genesis block: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould validate against the genesis block.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen tampering with a mined block.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a private key: %v", failed, err)
			}

			trans := []database.BlockTx{
				newBlockTx(t, privateKey, database.TxPlaceBet, database.PlaceBet{
					MarketID: "btc-100k",
					Option:   database.OptionA,
					Amount:   100,
				}, 100),
			}

			block, err := database.POW(context.Background(), database.POWArgs{
				BeneficiaryID: database.PublicKeyToAccountID(privateKey.PublicKey),
				Difficulty:    1,
				PrevBlock:     database.Block{},
				Trans:         trans,
				EvHandler:     noopEv,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mine a block: %v", failed, err)
			}

			tampered := block
			tampered.Trans = []database.BlockTx{
				newBlockTx(t, privateKey, database.TxPlaceBet, database.PlaceBet{
					MarketID: "btc-100k",
					Option:   database.OptionA,
					Amount:   100000,
				}, 100),
			}

			if err := tampered.ValidateBlock(database.Block{}, noopEv); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a block whose transactions were swapped.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a block whose transactions were swapped.", success)
			}

			tampered = block
			tampered.Header.Number++

			if err := tampered.ValidateBlock(database.Block{}, noopEv); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a block whose header was altered.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a block whose header was altered.", success)
			}
		}
	}
}

func Test_POWLimits(t *testing.T) {
	t.Log("Given the need to bound and cancel the mining operation.")
	{
		t.Logf("\tTest 0:\tWhen the attempt cap is reached before a solution.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a private key: %v", failed, err)
			}

			trans := []database.BlockTx{
				newBlockTx(t, privateKey, database.TxResolveMarket, database.ResolveMarket{
					MarketID: "btc-100k",
					Winner:   database.OptionA,
				}, 100),
			}

			_, err = database.POW(context.Background(), database.POWArgs{
				BeneficiaryID: database.PublicKeyToAccountID(privateKey.PublicKey),
				Difficulty:    16,
				MiningCap:     10,
				PrevBlock:     database.Block{},
				Trans:         trans,
				EvHandler:     noopEv,
			})
			if !errors.Is(err, database.ErrMiningCapReached) {
				t.Errorf("\t%s\tTest 0:\tShould get ErrMiningCapReached: got %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould get ErrMiningCapReached.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the context is cancelled.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a private key: %v", failed, err)
			}

			trans := []database.BlockTx{
				newBlockTx(t, privateKey, database.TxResolveMarket, database.ResolveMarket{
					MarketID: "btc-100k",
					Winner:   database.OptionB,
				}, 100),
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err = database.POW(ctx, database.POWArgs{
				BeneficiaryID: database.PublicKeyToAccountID(privateKey.PublicKey),
				Difficulty:    16,
				PrevBlock:     database.Block{},
				Trans:         trans,
				EvHandler:     noopEv,
			})
			if !errors.Is(err, context.Canceled) {
				t.Errorf("\t%s\tTest 1:\tShould get context.Canceled: got %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould get context.Canceled.", success)
			}
		}
	}
}

func Test_TransRoot(t *testing.T) {
	t.Log("Given the need to commit a block to its transaction order.")
	{
		t.Logf("\tTest 0:\tWhen reordering the transactions of a block.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a private key: %v", failed, err)
			}

			tx1 := newBlockTx(t, privateKey, database.TxPlaceBet, database.PlaceBet{MarketID: "btc-100k", Option: database.OptionA, Amount: 100}, 100)
			tx2 := newBlockTx(t, privateKey, database.TxPlaceBet, database.PlaceBet{MarketID: "btc-100k", Option: database.OptionB, Amount: 200}, 101)

			root := database.TransRoot([]database.BlockTx{tx1, tx2})
			reordered := database.TransRoot([]database.BlockTx{tx2, tx1})

			if root == reordered {
				t.Errorf("\t%s\tTest 0:\tShould get a different root for a different order.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould get a different root for a different order.", success)
			}
		}
	}
}
