// Package mempool maintains the pool of transactions waiting to be mined
// into a block.
package mempool

import (
	"fmt"
	"sync"

	"github.com/powchain/powchain/foundation/blockchain/database"
)

// Mempool represents a cache of transactions keyed by account:nonce. The
// pool preserves arrival order: the order transactions are picked in is the
// order they entered the pool, which matters because content order changes
// the merkle root.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.BlockTx
	order []string
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.BlockTx),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool. A replacement keeps
// its original position in the arrival order.
func (mp *Mempool) Upsert(tx database.BlockTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return 0, err
	}

	if _, exists := mp.pool[key]; !exists {
		mp.order = append(mp.order, key)
	}
	mp.pool[key] = tx

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.BlockTx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return err
	}

	if _, exists := mp.pool[key]; !exists {
		return nil
	}

	delete(mp.pool, key)
	for i, k := range mp.order {
		if k == key {
			mp.order = append(mp.order[:i], mp.order[i+1:]...)
			break
		}
	}

	return nil
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.BlockTx)
	mp.order = nil
}

// Pick returns up to howMany transactions in arrival order. Passing -1
// returns the entire pool.
func (mp *Mempool) Pick(howMany int) []database.BlockTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany == -1 || howMany > len(mp.order) {
		howMany = len(mp.order)
	}

	txs := make([]database.BlockTx, 0, howMany)
	for _, key := range mp.order[:howMany] {
		txs = append(txs, mp.pool[key])
	}

	return txs
}

// =============================================================================

// mapKey is used to identify a transaction in the pool by the account that
// signed it and the account's nonce.
func mapKey(tx database.BlockTx) (string, error) {
	account, err := tx.FromAccount()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s:%d", account, tx.Nonce), nil
}
