package database

import (
	"encoding/binary"
	"fmt"

	"github.com/powchain/powchain/foundation/blockchain/merkle"
	"github.com/powchain/powchain/foundation/blockchain/signature"
)

// headerSize is the width of the byte layout hashed to produce a block's
// identity: parent(32) + nonce(4) + difficulty(32) + timestamp(16) +
// merkle root(32).
const headerSize = 116

// DifficultyThreshold converts a leading zero bit count d into the 256 bit
// big-endian threshold 2^(256-d) - 1: the top d bits are zero and every
// remaining bit is one. A header hash, read as a big-endian unsigned
// integer, must not exceed this value to constitute valid proof of work, so
// a smaller d means a larger threshold and an easier puzzle.
//
// d must be in [0, 256). Passing a value out of range is a programming
// error and panics.
func DifficultyThreshold(d uint) signature.Hash256 {
	if d >= 256 {
		panic(fmt.Sprintf("difficulty leading zero count %d out of range [0,256)", d))
	}

	var threshold signature.Hash256
	for i := range threshold {
		shift := int(d) - 8*i
		switch {
		case shift <= 0:
			threshold[i] = 0xFF
		case shift >= 8:
			threshold[i] = 0x00
		default:
			threshold[i] = 0xFF >> shift
		}
	}

	return threshold
}

// =============================================================================

// BlockHeader represents the fixed metadata of a block that is hashed to
// produce the block's identity. All fields are set at construction; only
// the nonce changes afterwards while a miner searches for a solution.
type BlockHeader struct {
	Parent     signature.Hash256 `json:"parent"`      // Hash of the previous block in the chain.
	Nonce      uint32            `json:"nonce"`       // Value searched over to solve the hash solution.
	Difficulty signature.Hash256 `json:"difficulty"`  // Numeric threshold the header hash must not exceed.
	Timestamp  uint64            `json:"timestamp"`   // Time the block was mined.
	MerkleRoot signature.Hash256 `json:"merkle_root"` // Merkle tree root hash for the transactions in this block.
}

// NewBlockHeader constructs a header from its five fields. The merkle root
// must be the root of the content this header will be paired with; the
// constructor does not re-derive it.
func NewBlockHeader(parent signature.Hash256, nonce uint32, timestamp uint64, difficulty signature.Hash256, merkleRoot signature.Hash256) BlockHeader {
	return BlockHeader{
		Parent:     parent,
		Nonce:      nonce,
		Difficulty: difficulty,
		Timestamp:  timestamp,
		MerkleRoot: merkleRoot,
	}
}

// Hash returns the unique hash of the header: the SHA-256 digest of the
// concatenation of the parent hash, the nonce in big-endian form, the
// difficulty threshold, the timestamp in big-endian form, and the merkle
// root. Each field has a fixed width so no separators are needed. The
// timestamp occupies a 16 byte field on the wire; the upper 8 bytes are
// always zero.
func (h BlockHeader) Hash() signature.Hash256 {
	var buf [headerSize]byte

	copy(buf[0:32], h.Parent[:])
	binary.BigEndian.PutUint32(buf[32:36], h.Nonce)
	copy(buf[36:68], h.Difficulty[:])
	binary.BigEndian.PutUint64(buf[76:84], h.Timestamp)
	copy(buf[84:116], h.MerkleRoot[:])

	return signature.Digest(buf[:])
}

// ChangeNonce advances the mining search space by incrementing the nonce.
// Overflow wraps silently back to zero.
func (h *BlockHeader) ChangeNonce() {
	h.Nonce++
}

// VerifyMerkle reports whether the header's merkle root matches the actual
// root of the specified content. The pairing is never checked during
// construction; callers invoke this at trust boundaries.
func (h BlockHeader) VerifyMerkle(content Content) bool {
	return h.MerkleRoot == content.MerkleRoot()
}

// =============================================================================

// Content represents the ordered set of transactions belonging to a block.
// Order is significant: it changes the merkle root.
type Content struct {
	Trans []BlockTx `json:"trans"`
}

// NewContent constructs an empty content value.
func NewContent() Content {
	return Content{}
}

// NewContentWith constructs a content value from a snapshot of the specified
// transactions. The slice is copied so the content does not alias caller
// owned storage.
func NewContentWith(trans []BlockTx) Content {
	c := Content{
		Trans: make([]BlockTx, len(trans)),
	}
	copy(c.Trans, trans)

	return c
}

// Add appends a transaction to the end of the content, preserving order.
func (c *Content) Add(tx BlockTx) {
	c.Trans = append(c.Trans, tx)
}

// MerkleRoot reduces the ordered transactions to a single root hash. Empty
// content yields ZeroHash, which is also the merkle root declared by the
// genesis block.
func (c Content) MerkleRoot() signature.Hash256 {
	if len(c.Trans) == 0 {
		return signature.ZeroHash
	}

	tree, err := merkle.NewTree(c.Trans)
	if err != nil {
		return signature.ZeroHash
	}

	root, err := signature.ToHash256(tree.MerkleRoot)
	if err != nil {
		return signature.ZeroHash
	}

	return root
}

// =============================================================================

// Block composes a header and its content. The Hash field caches the
// header's hash at construction time and is never recomputed; Index is the
// distance from the genesis block and is maintained by the caller that
// appends blocks to a chain.
type Block struct {
	Hash    signature.Hash256 `json:"hash"`
	Index   uint64            `json:"index"`
	Header  BlockHeader       `json:"header"`
	Content Content           `json:"content"`
}

// Genesis returns the fixed starting block of the chain for the specified
// difficulty leading zero count. By convention its declared hash is all
// zeros rather than the computed hash of its header; the zero value is the
// canonical genesis identifier every node agrees on.
func Genesis(difficulty uint) Block {
	header := BlockHeader{
		Parent:     signature.ZeroHash,
		Nonce:      0,
		Difficulty: DifficultyThreshold(difficulty),
		Timestamp:  0,
		MerkleRoot: signature.ZeroHash,
	}

	return Block{
		Hash:    signature.ZeroHash,
		Index:   0,
		Header:  header,
		Content: NewContent(),
	}
}

// NewBlock constructs a block from a finished header and content pair,
// caching the header's hash. Index is set to zero; callers extending a
// chain must override it to the parent's index plus one. The constructor
// does not verify the header's merkle root against the content, that
// pairing is the caller's responsibility.
func NewBlock(header BlockHeader, content Content) Block {
	return Block{
		Hash:    header.Hash(),
		Index:   0,
		Header:  header,
		Content: content,
	}
}

// VerifyHash reports whether the cached block hash matches the recomputed
// hash of the header. Opt-in check for trust boundaries. The genesis block
// fails this check since its declared hash is the zero convention, not the
// computed hash of its header.
func (b Block) VerifyHash() bool {
	return b.Hash == b.Header.Hash()
}
