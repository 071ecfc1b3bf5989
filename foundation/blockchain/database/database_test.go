package database_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openwager/wagerchain/foundation/blockchain/database"
	"github.com/openwager/wagerchain/foundation/blockchain/database/storage/memory"
	"github.com/openwager/wagerchain/foundation/blockchain/genesis"
)

func newDatabase(t *testing.T, gen genesis.Genesis) *database.Database {
	t.Helper()

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create storage: %v", failed, err)
	}

	db, err := database.New(gen, storage, noopEv)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %v", failed, err)
	}

	return db
}

// =============================================================================

func Test_MarketLifecycle(t *testing.T) {
	aliceKey, _ := crypto.GenerateKey()
	bobKey, _ := crypto.GenerateKey()
	charlieKey, _ := crypto.GenerateKey()

	alice := database.PublicKeyToAccountID(aliceKey.PublicKey)
	bob := database.PublicKeyToAccountID(bobKey.PublicKey)
	charlie := database.PublicKeyToAccountID(charlieKey.PublicKey)

	const marketID = "btc-100k"
	const endTime = uint64(500)

	create := database.CreateMarket{
		MarketID: marketID,
		Question: "Will BTC close above 100k this year?",
		OptionA:  "Yes",
		OptionB:  "No",
		EndTime:  endTime,
	}

	db := newDatabase(t, genesis.Genesis{ChainID: chainID})
	block := database.Block{}

	t.Log("Given the need to derive market state from transactions.")
	{
		t.Logf("\tTest 0:\tWhen creating a market.")
		{
			tx := newBlockTx(t, aliceKey, database.TxCreateMarket, create, 100)
			if err := db.ApplyTransaction(block, tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create a market: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to create a market.", success)

			market, err := db.GetMarket(marketID)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to query the market: %v", failed, err)
			}

			if market.CreatorID != alice || market.Resolved {
				t.Errorf("\t%s\tTest 0:\tShould have an open market created by alice.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have an open market created by alice.", success)
			}

			dup := newBlockTx(t, bobKey, database.TxCreateMarket, create, 101)
			if err := db.ApplyTransaction(block, dup); !errors.Is(err, database.ErrMarketExists) {
				t.Errorf("\t%s\tTest 0:\tShould skip a duplicate market id: got %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould skip a duplicate market id.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen placing bets on an open market.")
		{
			bets := []database.BlockTx{
				newBlockTx(t, aliceKey, database.TxPlaceBet, database.PlaceBet{MarketID: marketID, Option: database.OptionA, Amount: 100}, 200),
				newBlockTx(t, aliceKey, database.TxPlaceBet, database.PlaceBet{MarketID: marketID, Option: database.OptionA, Amount: 150}, 201),
				newBlockTx(t, charlieKey, database.TxPlaceBet, database.PlaceBet{MarketID: marketID, Option: database.OptionA, Amount: 250}, 202),
				newBlockTx(t, bobKey, database.TxPlaceBet, database.PlaceBet{MarketID: marketID, Option: database.OptionB, Amount: 500}, 203),
			}

			for _, tx := range bets {
				if err := db.ApplyTransaction(block, tx); err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to place a bet: %v", failed, err)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould be able to place bets.", success)

			ledger, err := db.GetBets(marketID)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to query the bets: %v", failed, err)
			}

			if ledger.A[alice] != 250 {
				t.Errorf("\t%s\tTest 1:\tShould accumulate repeated bets: got %d, exp 250", failed, ledger.A[alice])
			} else {
				t.Logf("\t%s\tTest 1:\tShould accumulate repeated bets.", success)
			}

			if ledger.Total(database.OptionA) != 500 || ledger.Total(database.OptionB) != 500 {
				t.Errorf("\t%s\tTest 1:\tShould have 500 staked on each side: got A %d, B %d", failed, ledger.Total(database.OptionA), ledger.Total(database.OptionB))
			} else {
				t.Logf("\t%s\tTest 1:\tShould have 500 staked on each side.", success)
			}

			missing := newBlockTx(t, bobKey, database.TxPlaceBet, database.PlaceBet{MarketID: "no-such", Option: database.OptionA, Amount: 10}, 204)
			if err := db.ApplyTransaction(block, missing); !errors.Is(err, database.ErrMarketNotFound) {
				t.Errorf("\t%s\tTest 1:\tShould skip a bet on a missing market: got %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould skip a bet on a missing market.", success)
			}

			late := newBlockTx(t, bobKey, database.TxPlaceBet, database.PlaceBet{MarketID: marketID, Option: database.OptionB, Amount: 10}, endTime+1)
			if err := db.ApplyTransaction(block, late); !errors.Is(err, database.ErrMarketExpired) {
				t.Errorf("\t%s\tTest 1:\tShould skip a bet after the end time: got %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould skip a bet after the end time.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen resolving the market.")
		{
			if _, err := db.CalculatePayouts(marketID); !errors.Is(err, database.ErrMarketNotResolved) {
				t.Errorf("\t%s\tTest 2:\tShould not pay out an unresolved market: got %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould not pay out an unresolved market.", success)
			}

			resolve := newBlockTx(t, aliceKey, database.TxResolveMarket, database.ResolveMarket{MarketID: marketID, Winner: database.OptionA}, 300)
			if err := db.ApplyTransaction(block, resolve); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to resolve the market: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould be able to resolve the market.", success)

			again := newBlockTx(t, aliceKey, database.TxResolveMarket, database.ResolveMarket{MarketID: marketID, Winner: database.OptionB}, 301)
			if err := db.ApplyTransaction(block, again); !errors.Is(err, database.ErrMarketResolved) {
				t.Errorf("\t%s\tTest 2:\tShould skip a second resolution: got %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould skip a second resolution.", success)
			}

			market, err := db.GetMarket(marketID)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to query the market: %v", failed, err)
			}

			if market.Winner != database.OptionA {
				t.Errorf("\t%s\tTest 2:\tShould keep the first winner: got %s", failed, market.Winner)
			} else {
				t.Logf("\t%s\tTest 2:\tShould keep the first winner.", success)
			}

			afterResolve := newBlockTx(t, bobKey, database.TxPlaceBet, database.PlaceBet{MarketID: marketID, Option: database.OptionA, Amount: 10}, 302)
			if err := db.ApplyTransaction(block, afterResolve); !errors.Is(err, database.ErrMarketResolved) {
				t.Errorf("\t%s\tTest 2:\tShould skip a bet after resolution: got %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould skip a bet after resolution.", success)
			}
		}

		t.Logf("\tTest 3:\tWhen computing payouts for the winning side.")
		{
			payouts, err := db.CalculatePayouts(marketID)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to compute payouts: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould be able to compute payouts.", success)

			// Winning pool is 500 (alice 250, charlie 250), losing pool is
			// 500, so each winner doubles their stake.
			exp := map[database.AccountID]*big.Rat{
				alice:   big.NewRat(500, 1),
				charlie: big.NewRat(500, 1),
			}

			if len(payouts) != len(exp) {
				t.Fatalf("\t%s\tTest 3:\tShould only pay the winning side: got %d payouts, exp %d", failed, len(payouts), len(exp))
			}
			t.Logf("\t%s\tTest 3:\tShould only pay the winning side.", success)

			for accountID, expAmount := range exp {
				got, exists := payouts[accountID]
				if !exists || got.Cmp(expAmount) != 0 {
					t.Errorf("\t%s\tTest 3:\tShould pay %s exactly %s: got %v", failed, accountID, expAmount.RatString(), got)
				} else {
					t.Logf("\t%s\tTest 3:\tShould pay %s exactly %s.", success, accountID, expAmount.RatString())
				}
			}

			if _, exists := payouts[bob]; exists {
				t.Errorf("\t%s\tTest 3:\tShould not pay the losing side.", failed)
			} else {
				t.Logf("\t%s\tTest 3:\tShould not pay the losing side.", success)
			}
		}
	}
}

func Test_Payouts(t *testing.T) {
	aliceKey, _ := crypto.GenerateKey()
	bobKey, _ := crypto.GenerateKey()
	charlieKey, _ := crypto.GenerateKey()

	alice := database.PublicKeyToAccountID(aliceKey.PublicKey)
	bob := database.PublicKeyToAccountID(bobKey.PublicKey)
	charlie := database.PublicKeyToAccountID(charlieKey.PublicKey)

	type table struct {
		name   string
		winner database.Option
		a      map[database.AccountID]uint64
		b      map[database.AccountID]uint64
		exp    map[database.AccountID]*big.Rat
	}

	tt := []table{
		{
			name:   "proportional",
			winner: database.OptionA,
			a:      map[database.AccountID]uint64{alice: 100, charlie: 200},
			b:      map[database.AccountID]uint64{bob: 150},
			exp: map[database.AccountID]*big.Rat{
				alice:   big.NewRat(150, 1),
				charlie: big.NewRat(300, 1),
			},
		},
		{
			name:   "fractional",
			winner: database.OptionA,
			a:      map[database.AccountID]uint64{alice: 1, charlie: 2},
			b:      map[database.AccountID]uint64{bob: 1},
			exp: map[database.AccountID]*big.Rat{
				alice:   big.NewRat(4, 3),
				charlie: big.NewRat(8, 3),
			},
		},
		{
			name:   "no losers",
			winner: database.OptionB,
			a:      map[database.AccountID]uint64{},
			b:      map[database.AccountID]uint64{bob: 75},
			exp: map[database.AccountID]*big.Rat{
				bob: big.NewRat(75, 1),
			},
		},
		{
			name:   "no winners",
			winner: database.OptionA,
			a:      map[database.AccountID]uint64{},
			b:      map[database.AccountID]uint64{bob: 75},
			exp:    map[database.AccountID]*big.Rat{},
		},
	}

	t.Log("Given the need to split the losing pool proportionally.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen settling the %s scenario.", testID, tst.name)
			{
				f := func(t *testing.T) {
					market := database.Market{
						MarketID: "m1",
						Resolved: true,
						Winner:   tst.winner,
					}
					bets := database.Bets{A: tst.a, B: tst.b}

					payouts, err := database.Payouts(market, bets)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to compute payouts: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to compute payouts.", success, testID)

					if len(payouts) != len(tst.exp) {
						t.Fatalf("\t%s\tTest %d:\tShould have %d payouts: got %d", failed, testID, len(tst.exp), len(payouts))
					}

					for accountID, expAmount := range tst.exp {
						got, exists := payouts[accountID]
						if !exists || got.Cmp(expAmount) != 0 {
							t.Errorf("\t%s\tTest %d:\tShould pay %s exactly %s: got %v", failed, testID, accountID, expAmount.RatString(), got)
						} else {
							t.Logf("\t%s\tTest %d:\tShould pay %s exactly %s.", success, testID, accountID, expAmount.RatString())
						}
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_AccountRegistry(t *testing.T) {
	aliceKey, _ := crypto.GenerateKey()
	bobKey, _ := crypto.GenerateKey()

	alice := database.PublicKeyToAccountID(aliceKey.PublicKey)
	bob := database.PublicKeyToAccountID(bobKey.PublicKey)

	t.Log("Given the need to authorize accounts from the genesis file.")
	{
		t.Logf("\tTest 0:\tWhen loading genesis accounts.")
		{
			gen := genesis.Genesis{
				ChainID: chainID,
				Accounts: map[string]string{
					string(alice): "alice",
				},
			}

			db := newDatabase(t, gen)

			if !db.IsRegistered(alice) {
				t.Errorf("\t%s\tTest 0:\tShould have alice registered.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have alice registered.", success)
			}

			if db.IsRegistered(bob) {
				t.Errorf("\t%s\tTest 0:\tShould not have bob registered.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould not have bob registered.", success)
			}

			if err := db.RegisterAccount(bob, "bob"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to register bob: %v", failed, err)
			}

			if !db.IsRegistered(bob) {
				t.Errorf("\t%s\tTest 0:\tShould have bob registered after the fact.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have bob registered after the fact.", success)
			}

			if err := db.RegisterAccount("not-an-account", "mallory"); err == nil {
				t.Errorf("\t%s\tTest 0:\tShould reject a malformed account id.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould reject a malformed account id.", success)
			}
		}
	}
}
