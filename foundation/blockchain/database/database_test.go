package database_test

import (
	"testing"
	"time"

	"github.com/powchain/powchain/foundation/blockchain/database"
	"github.com/powchain/powchain/foundation/blockchain/database/storage"
	"github.com/powchain/powchain/foundation/blockchain/genesis"
	"github.com/powchain/powchain/foundation/blockchain/signature"
)

// The tests mine with a difficulty of 1 leading zero bit so proof of work
// completes in a handful of nonce attempts.
const testDifficulty = 1

// =============================================================================

func Test_ValidateBlock(t *testing.T) {
	gen := database.Genesis(testDifficulty)
	block1 := mineBlock(t, gen, testTxs(t, 2), 1_000)

	t.Log("Given the need to validate a block against its parent.")
	{
		if err := block1.ValidateBlock(gen, nil); err != nil {
			t.Fatalf("\t%s\tShould accept a well formed next block: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a well formed next block.", success)

		tampered := block1
		tampered.Hash = signature.Digest([]byte("tampered"))
		if err := tampered.ValidateBlock(gen, nil); err == nil {
			t.Errorf("\t%s\tShould reject a block whose hash doesn't match the header.", failed)
		} else {
			t.Logf("\t%s\tShould reject a block whose hash doesn't match the header.", success)
		}

		wrongIndex := block1
		wrongIndex.Index = 5
		if err := wrongIndex.ValidateBlock(gen, nil); err == nil {
			t.Errorf("\t%s\tShould reject a block with the wrong index.", failed)
		} else {
			t.Logf("\t%s\tShould reject a block with the wrong index.", success)
		}

		orphan := block1
		orphan.Header.Parent = signature.Digest([]byte("unknown"))
		orphan.Hash = orphan.Header.Hash()
		if err := orphan.ValidateBlock(gen, nil); err == nil {
			t.Errorf("\t%s\tShould reject a block with an unknown parent.", failed)
		} else {
			t.Logf("\t%s\tShould reject a block with an unknown parent.", success)
		}

		weaker := block1
		weaker.Header.Difficulty = database.DifficultyThreshold(0)
		weaker.Hash = weaker.Header.Hash()
		if err := weaker.ValidateBlock(gen, nil); err == nil {
			t.Errorf("\t%s\tShould reject a block with a weaker difficulty than its parent.", failed)
		} else {
			t.Logf("\t%s\tShould reject a block with a weaker difficulty than its parent.", success)
		}

		badContent := block1
		badContent.Content = database.NewContentWith(testTxs(t, 1))
		if err := badContent.ValidateBlock(gen, nil); err == nil {
			t.Errorf("\t%s\tShould reject a block whose content doesn't match the merkle root.", failed)
		} else {
			t.Logf("\t%s\tShould reject a block whose content doesn't match the merkle root.", success)
		}
	}

	t.Log("Given the need to validate block timestamps.")
	{
		stale := mineBlock(t, block1, nil, block1.Header.Timestamp)
		if err := stale.ValidateBlock(block1, nil); err == nil {
			t.Errorf("\t%s\tShould reject a block not after its parent in time.", failed)
		} else {
			t.Logf("\t%s\tShould reject a block not after its parent in time.", success)
		}

		fresh := mineBlock(t, block1, nil, block1.Header.Timestamp+1)
		if err := fresh.ValidateBlock(block1, nil); err != nil {
			t.Errorf("\t%s\tShould accept a block after its parent in time: %s", failed, err)
		} else {
			t.Logf("\t%s\tShould accept a block after its parent in time.", success)
		}
	}
}

func Test_DatabaseReplay(t *testing.T) {
	gen := genesis.Genesis{
		Date:          time.Now(),
		ChainID:       1,
		Difficulty:    testDifficulty,
		TransPerBlock: 10,
	}

	mem := storage.NewMemory()

	t.Log("Given the need to replay a stored chain on startup.")
	{
		db, err := database.New(gen, mem, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open an empty database: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to open an empty database.", success)

		if latest := db.LatestBlock(); latest.Index != 0 || !latest.Hash.IsZero() {
			t.Fatalf("\t%s\tShould start at the genesis block.", failed)
		}
		t.Logf("\t%s\tShould start at the genesis block.", success)

		block1 := mineBlock(t, db.LatestBlock(), testTxs(t, 2), 1_000)
		block2 := mineBlock(t, block1, testTxs(t, 1), 2_000)

		for _, block := range []database.Block{block1, block2} {
			if err := db.Write(block); err != nil {
				t.Fatalf("\t%s\tShould be able to write a block: %s", failed, err)
			}
			db.UpdateLatestBlock(block)
		}
		t.Logf("\t%s\tShould be able to write blocks.", success)

		reopened, err := database.New(gen, mem, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to replay the stored chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to replay the stored chain.", success)

		if latest := reopened.LatestBlock(); latest.Hash != block2.Hash || latest.Index != 2 {
			t.Errorf("\t%s\tShould land on the last stored block after replay.", failed)
		} else {
			t.Logf("\t%s\tShould land on the last stored block after replay.", success)
		}

		got, err := reopened.GetBlock(1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read a block by number: %s", failed, err)
		}
		if got.Hash != block1.Hash {
			t.Errorf("\t%s\tShould read back the stored block.", failed)
		} else {
			t.Logf("\t%s\tShould read back the stored block.", success)
		}
	}

	t.Log("Given the need to reject a corrupted chain on startup.")
	{
		bad := mineBlock(t, mineBlock(t, database.Genesis(testDifficulty), nil, 1_000), nil, 2_000)
		bad.Index = 9

		mem := storage.NewMemory()
		if err := mem.Write(database.NewBlockData(bad)); err != nil {
			t.Fatalf("\t%s\tShould be able to write the bad block: %s", failed, err)
		}

		if _, err := database.New(gen, mem, nil); err == nil {
			t.Errorf("\t%s\tShould refuse to load a chain that doesn't validate.", failed)
		} else {
			t.Logf("\t%s\tShould refuse to load a chain that doesn't validate.", success)
		}
	}
}

func Test_DatabaseReset(t *testing.T) {
	gen := genesis.Genesis{
		Date:          time.Now(),
		ChainID:       1,
		Difficulty:    testDifficulty,
		TransPerBlock: 10,
	}

	mem := storage.NewMemory()

	db, err := database.New(gen, mem, nil)
	if err != nil {
		t.Fatalf("unable to open database: %s", err)
	}

	block1 := mineBlock(t, db.LatestBlock(), testTxs(t, 1), 1_000)
	if err := db.Write(block1); err != nil {
		t.Fatalf("unable to write block: %s", err)
	}
	db.UpdateLatestBlock(block1)

	t.Log("Given the need to reset the chain back to genesis.")
	{
		if err := db.Reset(); err != nil {
			t.Fatalf("\t%s\tShould be able to reset the database: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to reset the database.", success)

		if latest := db.LatestBlock(); latest.Index != 0 || !latest.Hash.IsZero() {
			t.Errorf("\t%s\tShould be back at the genesis block.", failed)
		} else {
			t.Logf("\t%s\tShould be back at the genesis block.", success)
		}

		iter := db.ForEach()
		if _, err := iter.Next(); !iter.Done() && err == nil {
			t.Errorf("\t%s\tShould have no blocks in storage.", failed)
		} else {
			t.Logf("\t%s\tShould have no blocks in storage.", success)
		}
	}
}

// =============================================================================

// mineBlock performs the nonce search for a block that extends the parent
// with the parent's difficulty.
func mineBlock(t *testing.T, parent database.Block, txs []database.BlockTx, timestamp uint64) database.Block {
	t.Helper()

	content := database.NewContentWith(txs)
	header := database.NewBlockHeader(parent.Hash, 0, timestamp, parent.Header.Difficulty, content.MerkleRoot())

	for header.Hash().Compare(header.Difficulty) > 0 {
		header.ChangeNonce()
	}

	block := database.NewBlock(header, content)
	block.Index = parent.Index + 1
	return block
}
