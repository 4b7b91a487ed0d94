package state

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/powchain/powchain/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no transactions in the mempool.
var ErrNoTransactions = errors.New("no transactions in mempool")

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The operation can be cancelled
// through the context.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Take a snapshot of the transactions going into this block. The
	// header commits to this exact sequence through the merkle root.
	trans := s.mempool.Pick(int(s.genesis.TransPerBlock))
	content := database.NewContentWith(trans)

	parent := s.db.LatestBlock()

	// Construct the header to be mined. Only the nonce changes from here;
	// the merkle root is fixed to the content snapshot taken above.
	header := database.NewBlockHeader(
		parent.Hash,
		0,
		uint64(time.Now().UTC().Unix()),
		database.DifficultyThreshold(uint(s.genesis.Difficulty)),
		content.MerkleRoot(),
	)

	block, err := performPOW(ctx, header, content, parent.Index+1, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update local state")

	// The block was mined locally but runs through the same trust boundary
	// checks a received block would.
	if err := block.ValidateBlock(parent, s.evHandler); err != nil {
		return database.Block{}, err
	}

	if err := s.updateLocalState(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// updateLocalState writes the block to storage, advances the latest block
// and removes the mined transactions from the mempool.
func (s *State) updateLocalState(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateLocalState: write block to storage")

	if err := s.db.Write(block); err != nil {
		return err
	}
	s.db.UpdateLatestBlock(block)

	s.evHandler("state: updateLocalState: remove txs from mempool")

	for _, tx := range block.Content.Trans {
		s.evHandler("state: updateLocalState: tx[%s] remove", tx)
		s.mempool.Delete(tx)
	}

	return nil
}

// =============================================================================

// performPOW searches the nonce space for a header hash that satisfies the
// difficulty threshold carried in the header. Pointer semantics are at work
// inside the loop since the header's nonce is being mutated in place.
func performPOW(ctx context.Context, header database.BlockHeader, content database.Content, index uint64, ev EventHandler) (database.Block, error) {
	ev("state: performPOW: MINING: started")
	defer ev("state: performPOW: MINING: completed")

	for _, tx := range content.Trans {
		ev("state: performPOW: MINING: tx[%s]", tx)
	}

	// Choose a random starting point for the nonce. After this, the nonce
	// is advanced by one until a solution is found by us or another node.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxUint32))
	if err != nil {
		return database.Block{}, err
	}
	header.Nonce = uint32(nBig.Uint64())

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("state: performPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("state: performPOW: MINING: CANCELLED")
			return database.Block{}, ctx.Err()
		}

		// Hash the header and check if we have solved the puzzle.
		hash := header.Hash()
		if hash.Compare(header.Difficulty) > 0 {
			header.ChangeNonce()
			continue
		}

		ev("state: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", header.Parent, hash)
		ev("state: performPOW: MINING: attempts[%d]", attempts)

		block := database.NewBlock(header, content)
		block.Index = index

		return block, nil
	}
}
