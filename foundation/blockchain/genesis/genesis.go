// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time         `json:"date"`
	ChainID    uint16            `json:"chain_id"`   // An unique id for this running instance.
	Difficulty uint16            `json:"difficulty"` // Number of leading 0's needed to solve the work problem.
	MiningCap  uint64            `json:"mining_cap"` // Maximum number of nonce attempts for a block, 0 is unbounded.
	Accounts   map[string]string `json:"accounts"`   // Account id to name for accounts authorized at chain start.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
