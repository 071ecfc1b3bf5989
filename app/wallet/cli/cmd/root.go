// Package cmd contains the wallet commands.
package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/openwager/wagerchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	url         string
	chainID     uint16
)

const (
	keyExtension = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	rootCmd.PersistentFlags().Uint16VarP(&chainID, "chain", "c", 1, "Chain id the transaction is bound to.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet for signing prediction market transactions",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(accountPath, accountName)
}

// signAndSubmit builds the transaction for the payload, signs it with the
// wallet's private key and posts it to the node.
func signAndSubmit(privateKey *ecdsa.PrivateKey, txType string, payload any) {
	fromID := database.PublicKeyToAccountID(privateKey.PublicKey)

	tx, err := database.NewTx(chainID, txType, fromID, payload)
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(signedTx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	fmt.Println(resp.Status)
}
