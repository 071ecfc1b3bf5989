package mempool_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openwager/wagerchain/foundation/blockchain/database"
	"github.com/openwager/wagerchain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newBlockTx(t *testing.T, privateKey *ecdsa.PrivateKey, amount uint64) database.BlockTx {
	t.Helper()

	fromID := database.PublicKeyToAccountID(privateKey.PublicKey)

	tx, err := database.NewTx(1, database.TxPlaceBet, fromID, database.PlaceBet{
		MarketID: "btc-100k",
		Option:   database.OptionA,
		Amount:   amount,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign a transaction: %v", failed, err)
	}

	return database.NewBlockTx(signedTx)
}

// =============================================================================

func Test_Mempool(t *testing.T) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
	}

	tx1 := newBlockTx(t, privateKey, 100)
	tx2 := newBlockTx(t, privateKey, 200)
	tx3 := newBlockTx(t, privateKey, 300)

	t.Log("Given the need to queue transactions in arrival order.")
	{
		t.Logf("\tTest 0:\tWhen appending and draining transactions.")
		{
			mp := mempool.New()

			mp.Append(tx1)
			mp.Append(tx2)
			n := mp.Append(tx3)

			if n != 3 || mp.Count() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould have three transactions in the pool: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould have three transactions in the pool.", success)

			cpy := mp.Copy()
			if cpy[0].Hash() != tx1.Hash() || cpy[1].Hash() != tx2.Hash() || cpy[2].Hash() != tx3.Hash() {
				t.Errorf("\t%s\tTest 0:\tShould preserve arrival order in the copy.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould preserve arrival order in the copy.", success)
			}

			cpy[0] = tx3
			if mp.Copy()[0].Hash() != tx1.Hash() {
				t.Errorf("\t%s\tTest 0:\tShould not share memory with the caller.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould not share memory with the caller.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen deleting a transaction from the middle.")
		{
			mp := mempool.New()

			mp.Append(tx1)
			mp.Append(tx2)
			mp.Append(tx3)

			mp.Delete(tx2)

			cpy := mp.Copy()
			if len(cpy) != 2 || cpy[0].Hash() != tx1.Hash() || cpy[1].Hash() != tx3.Hash() {
				t.Errorf("\t%s\tTest 1:\tShould keep the remaining transactions in order.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould keep the remaining transactions in order.", success)
			}

			mp.Delete(tx2)
			if mp.Count() != 2 {
				t.Errorf("\t%s\tTest 1:\tShould ignore deleting a missing transaction.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould ignore deleting a missing transaction.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen truncating the pool.")
		{
			mp := mempool.New()

			mp.Append(tx1)
			mp.Append(tx2)

			mp.Truncate()

			if mp.Count() != 0 {
				t.Errorf("\t%s\tTest 2:\tShould have an empty pool: got %d", failed, mp.Count())
			} else {
				t.Logf("\t%s\tTest 2:\tShould have an empty pool.", success)
			}
		}
	}
}
