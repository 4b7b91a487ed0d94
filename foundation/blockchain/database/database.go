// Package database maintains the canonical block representation for the
// blockchain and the lower level support for storing blocks on disk.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/powchain/powchain/foundation/blockchain/genesis"
	"github.com/powchain/powchain/foundation/blockchain/signature"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the in-memory view of the chain over the configured
// storage. Access is safe for use by multiple goroutines.
type Database struct {
	mu          sync.RWMutex
	genesis     genesis.Genesis
	latestBlock Block
	storage     Storage
}

// New constructs a new database, seeds the chain with the genesis block and
// replays any blocks found in storage, validating each one against its
// parent as it goes.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis:     gen,
		latestBlock: Genesis(uint(gen.Difficulty)),
		storage:     storage,
	}

	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := block.ValidateBlock(db.latestBlock, evHandler); err != nil {
			return nil, fmt.Errorf("block %d invalid on load: %w", block.Index, err)
		}

		db.latestBlock = block
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Reset clears the storage and re-seeds the in-memory view with genesis.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.latestBlock = Genesis(uint(db.genesis.Difficulty))
	return nil
}

// Write stores the specified block to storage.
func (db *Database) Write(block Block) error {
	return db.storage.Write(NewBlockData(block))
}

// UpdateLatestBlock provides safe access to update the latest block.
func (db *Database) UpdateLatestBlock(block Block) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.latestBlock = block
}

// LatestBlock returns the latest block known to the chain. Before any block
// has been mined this is the genesis block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// GetBlock reads the block with the specified index from storage.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData), nil
}

// ForEach returns an iterator to walk through all the blocks in storage
// starting with block number 1.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.storage.ForEach()}
}

// =============================================================================

// DatabaseIterator provides support to iterate over blocks in storage,
// converting the persisted form back into blocks.
type DatabaseIterator struct {
	iterator Iterator
}

// Next retrieves the next block from storage.
func (di DatabaseIterator) Next() (Block, error) {
	blockData, err := di.iterator.Next()
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData), nil
}

// Done returns the end of chain value.
func (di DatabaseIterator) Done() bool {
	return di.iterator.Done()
}

// =============================================================================

// BlockData represents what is serialized to storage and across the wire:
// the cached hash and chain position followed by the header and the ordered
// transactions, field for field in a stable order.
type BlockData struct {
	Hash   signature.Hash256 `json:"hash"`
	Index  uint64            `json:"index"`
	Header BlockHeader       `json:"header"`
	Trans  []BlockTx         `json:"trans"`
}

// NewBlockData constructs the value to serialize from a block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash,
		Index:  block.Index,
		Header: block.Header,
		Trans:  block.Content.Trans,
	}
}

// ToBlock converts a persisted BlockData back into a Block. The cached hash
// travels with the data and is not recomputed; use VerifyHash at trust
// boundaries.
func ToBlock(blockData BlockData) Block {
	return Block{
		Hash:    blockData.Hash,
		Index:   blockData.Index,
		Header:  blockData.Header,
		Content: NewContentWith(blockData.Trans),
	}
}

// =============================================================================

// ValidateBlock takes a block received at a trust boundary and validates it
// to be the next block in the chain after the specified previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block hash matches header", b.Index)

	if !b.VerifyHash() {
		return fmt.Errorf("block hash %s doesn't match header hash %s", b.Hash, b.Header.Hash())
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Index)

	if b.Hash.Compare(b.Header.Difficulty) > 0 {
		return fmt.Errorf("%s does not satisfy the difficulty threshold %s", b.Hash, b.Header.Difficulty)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block difficulty is the same or harder than parent", b.Index)

	if b.Header.Difficulty.Compare(previousBlock.Header.Difficulty) > 0 {
		return errors.New("block difficulty threshold is weaker than previous block")
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Index)

	if b.Index != previousBlock.Index+1 {
		return fmt.Errorf("this block is not the next index, got %d, exp %d", b.Index, previousBlock.Index+1)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if b.Header.Parent != previousBlock.Hash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.Parent, previousBlock.Hash)
	}

	if previousBlock.Header.Timestamp > 0 {
		ev("database: ValidateBlock: validate: blk[%d]: check: block's timestamp is greater than parent's", b.Index)

		if b.Header.Timestamp <= previousBlock.Header.Timestamp {
			return fmt.Errorf("block timestamp %d is not after parent block %d", b.Header.Timestamp, previousBlock.Header.Timestamp)
		}
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Index)

	if !b.Header.VerifyMerkle(b.Content) {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", b.Content.MerkleRoot(), b.Header.MerkleRoot)
	}

	return nil
}
