// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Genesis represents the genesis file. The difficulty value is the single
// process-wide proof of work parameter: the number of leading zero bits a
// block hash must carry. It is shared by genesis construction, mining and
// validation so it can be adjusted without recompilation.
type Genesis struct {
	Date          time.Time `json:"date"`
	ChainID       uint16    `json:"chain_id"`        // A unique id for this running instance.
	Difficulty    uint16    `json:"difficulty"`      // Number of leading zero bits required of a block hash.
	TransPerBlock uint16    `json:"trans_per_block"` // The maximum number of transactions that can be in a block.
}

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

	if genesis.Difficulty >= 256 {
		return Genesis{}, fmt.Errorf("difficulty %d out of range [0,256)", genesis.Difficulty)
	}

	return genesis, nil
}

// Save writes the genesis information to the specified path.
func (g Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
