package state

import (
	"github.com/powchain/powchain/foundation/blockchain/database"
)

// UpsertWalletTransaction accepts a transaction from a wallet for inclusion
// into a future block. The signature is verified here, at the trust
// boundary; the block core never re-checks it.
func (s *State) UpsertWalletTransaction(signedTx database.SignedTx) error {

	// Check the signed transaction has a proper signature, the from
	// matches the signature, and the to account is properly formatted.
	if err := signedTx.Validate(); err != nil {
		return err
	}

	tx := database.NewBlockTx(signedTx)
	if _, err := s.mempool.Upsert(tx); err != nil {
		return err
	}

	s.Worker.SignalStartMining()

	return nil
}
