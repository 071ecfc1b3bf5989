package signature_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openwager/wagerchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Hash(t *testing.T) {
	t.Log("Given the need to produce deterministic hashes.")
	{
		t.Logf("\tTest 0:\tWhen hashing the same value twice.")
		{
			value := struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			}{
				Name:  "market",
				Count: 10,
			}

			h1 := signature.Hash(value)
			h2 := signature.Hash(value)

			if h1 != h2 {
				t.Errorf("\t%s\tTest 0:\tShould get the same hash: got %s and %s", failed, h1, h2)
			} else {
				t.Logf("\t%s\tTest 0:\tShould get the same hash.", success)
			}

			if len(h1) != 66 || h1[:2] != "0x" {
				t.Errorf("\t%s\tTest 0:\tShould get a 0x prefixed 32 byte hash: %s", failed, h1)
			} else {
				t.Logf("\t%s\tTest 0:\tShould get a 0x prefixed 32 byte hash.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen hashing maps built in different orders.")
		{
			m1 := map[string]uint64{"alice": 100, "bob": 200, "carol": 300}

			m2 := make(map[string]uint64)
			m2["carol"] = 300
			m2["bob"] = 200
			m2["alice"] = 100

			if signature.Hash(m1) != signature.Hash(m2) {
				t.Errorf("\t%s\tTest 1:\tShould get the same hash regardless of insertion order.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould get the same hash regardless of insertion order.", success)
			}
		}
	}
}

func Test_SignVerify(t *testing.T) {
	value := struct {
		MarketID string `json:"market_id"`
		Amount   uint64 `json:"amount"`
	}{
		MarketID: "btc-100k",
		Amount:   250,
	}

	t.Log("Given the need to sign data and recover the signer.")
	{
		t.Logf("\tTest 0:\tWhen signing with a generated private key.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a private key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to generate a private key.", success)

			v, r, s, err := signature.Sign(value, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the data: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to sign the data.", success)

			if err := signature.VerifySignature(v, r, s); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould have a valid signature: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have a valid signature.", success)
			}

			address, err := signature.FromAddress(value, v, r, s)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to recover an address: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to recover an address.", success)

			exp := crypto.PubkeyToAddress(privateKey.PublicKey).String()
			if address != exp {
				t.Errorf("\t%s\tTest 0:\tShould recover the signer's address: got %s, exp %s", failed, address, exp)
			} else {
				t.Logf("\t%s\tTest 0:\tShould recover the signer's address.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen checking a recovery id outside the chain stamp.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a private key: %v", failed, err)
			}

			_, r, s, err := signature.Sign(value, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign the data: %v", failed, err)
			}

			if err := signature.VerifySignature(big.NewInt(29), r, s); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a recovery id from another chain.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a recovery id from another chain.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen recovering the signer from different data.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to generate a private key: %v", failed, err)
			}

			v, r, s, err := signature.Sign(value, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to sign the data: %v", failed, err)
			}

			other := struct {
				MarketID string `json:"market_id"`
				Amount   uint64 `json:"amount"`
			}{
				MarketID: "btc-100k",
				Amount:   251,
			}

			address, err := signature.FromAddress(other, v, r, s)
			if err == nil && address == crypto.PubkeyToAddress(privateKey.PublicKey).String() {
				t.Errorf("\t%s\tTest 2:\tShould not recover the signer for tampered data.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould not recover the signer for tampered data.", success)
			}
		}
	}
}
