// Package state is the core API for the blockchain node and implements the
// business rules for accepting transactions and extending the chain.
package state

import (
	"sync"

	"github.com/powchain/powchain/foundation/blockchain/database"
	"github.com/powchain/powchain/foundation/blockchain/genesis"
	"github.com/powchain/powchain/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of mining and persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the blockchain node.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Storage
	EvHandler EventHandler
}

// State manages the blockchain database, the mempool and the mining
// workflow for a single node.
type State struct {
	mu sync.Mutex

	allowMining bool
	evHandler   EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new blockchain state for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Access the database for the blockchain. Any blocks already in
	// storage are replayed and validated.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		allowMining: true,
		evHandler:   ev,
		genesis:     cfg.Genesis,
		mempool:     mempool.New(),
		db:          db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer s.db.Close()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// IsMiningAllowed identifies if we are allowed to mine blocks. This
// might be turned off if the blockchain needs to be re-synced.
func (s *State) IsMiningAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allowMining
}

// TurnMiningOn sets the allowMining flag back to true.
func (s *State) TurnMiningOn() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.allowMining = true
}

// TurnMiningOff sets the allowMining flag to false, preventing any new
// mining operations from starting.
func (s *State) TurnMiningOff() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.allowMining = false
}
