package merkle_test

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"testing"

	"github.com/powchain/powchain/foundation/blockchain/merkle"
)

// data implements the Hashable interface over a plain string.
type data struct {
	value string
}

func (d data) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(d.value))
	return h[:], nil
}

func (d data) Equals(other data) bool {
	return d.value == other.value
}

// dataMD5 implements the Hashable interface using md5 for leaf hashes.
type dataMD5 struct {
	value string
}

func (d dataMD5) Hash() ([]byte, error) {
	h := md5.Sum([]byte(d.value))
	return h[:], nil
}

func (d dataMD5) Equals(other dataMD5) bool {
	return d.value == other.value
}

// =============================================================================

func values(ss ...string) []data {
	ds := make([]data, len(ss))
	for i, s := range ss {
		ds[i] = data{value: s}
	}
	return ds
}

// pairSHA256 hashes the concatenation of two hashes the way the tree does.
func pairSHA256(left, right []byte) []byte {
	h := sha256.Sum256(append(append([]byte{}, left...), right...))
	return h[:]
}

func leafSHA256(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}

// =============================================================================

func TestNewTree(t *testing.T) {
	tree, err := merkle.NewTree(values("Hello", "Hi", "Hey", "Hola"))
	if err != nil {
		t.Fatalf("unable to create tree: %s", err)
	}

	exp := pairSHA256(
		pairSHA256(leafSHA256("Hello"), leafSHA256("Hi")),
		pairSHA256(leafSHA256("Hey"), leafSHA256("Hola")),
	)

	if !bytes.Equal(tree.MerkleRoot, exp) {
		t.Errorf("root does not match manual computation: got %x, exp %x", tree.MerkleRoot, exp)
	}

	if err := tree.Verify(); err != nil {
		t.Errorf("tree should verify: %s", err)
	}
}

func TestNewTreeEmpty(t *testing.T) {
	if _, err := merkle.NewTree([]data{}); err == nil {
		t.Error("expected error for empty values")
	}
}

func TestOddLeafDuplication(t *testing.T) {
	odd, err := merkle.NewTree(values("Hello", "Hi", "Hey"))
	if err != nil {
		t.Fatalf("unable to create odd tree: %s", err)
	}

	even, err := merkle.NewTree(values("Hello", "Hi", "Hey", "Hey"))
	if err != nil {
		t.Fatalf("unable to create even tree: %s", err)
	}

	if !bytes.Equal(odd.MerkleRoot, even.MerkleRoot) {
		t.Errorf("odd leaf count should duplicate the last leaf: got %x, exp %x", odd.MerkleRoot, even.MerkleRoot)
	}
}

func TestOrderSensitivity(t *testing.T) {
	t1, err := merkle.NewTree(values("Hello", "Hi", "Hey", "Hola"))
	if err != nil {
		t.Fatalf("unable to create tree: %s", err)
	}

	t2, err := merkle.NewTree(values("Hola", "Hey", "Hi", "Hello"))
	if err != nil {
		t.Fatalf("unable to create tree: %s", err)
	}

	if bytes.Equal(t1.MerkleRoot, t2.MerkleRoot) {
		t.Error("different orderings should produce different roots")
	}
}

func TestProof(t *testing.T) {
	vs := values("Hello", "Hi", "Hey", "Hola", "Gutentag")
	tree, err := merkle.NewTree(vs)
	if err != nil {
		t.Fatalf("unable to create tree: %s", err)
	}

	for _, v := range vs {
		proof, order, err := tree.Proof(v)
		if err != nil {
			t.Fatalf("unable to produce proof for %q: %s", v.value, err)
		}
		if len(proof) != len(order) {
			t.Fatalf("proof and order lengths differ for %q", v.value)
		}

		// Replay the proof from the leaf hash and check it lands on
		// the root.
		running, err := v.Hash()
		if err != nil {
			t.Fatalf("unable to hash value: %s", err)
		}
		for i := range proof {
			if order[i] == 0 {
				running = pairSHA256(proof[i], running)
			} else {
				running = pairSHA256(running, proof[i])
			}
		}

		if !bytes.Equal(running, tree.MerkleRoot) {
			t.Errorf("proof for %q does not replay to the root", v.value)
		}
	}

	if _, _, err := tree.Proof(data{value: "missing"}); err == nil {
		t.Error("expected error proving a value not in the tree")
	}
}

func TestValues(t *testing.T) {
	vs := values("Hello", "Hi", "Hey")
	tree, err := merkle.NewTree(vs)
	if err != nil {
		t.Fatalf("unable to create tree: %s", err)
	}

	got := tree.Values()
	if len(got) != len(vs) {
		t.Fatalf("duplicated leaf should not appear in values: got %d, exp %d", len(got), len(vs))
	}
	for i := range vs {
		if !got[i].Equals(vs[i]) {
			t.Errorf("value %d does not match: got %q, exp %q", i, got[i].value, vs[i].value)
		}
	}
}

func TestRebuild(t *testing.T) {
	tree, err := merkle.NewTree(values("Hello", "Hi", "Hey", "Hola"))
	if err != nil {
		t.Fatalf("unable to create tree: %s", err)
	}

	root := append([]byte{}, tree.MerkleRoot...)

	if err := tree.Rebuild(); err != nil {
		t.Fatalf("unable to rebuild tree: %s", err)
	}

	if !bytes.Equal(tree.MerkleRoot, root) {
		t.Errorf("rebuild changed the root: got %x, exp %x", tree.MerkleRoot, root)
	}

	if err := tree.Verify(); err != nil {
		t.Errorf("rebuilt tree should verify: %s", err)
	}
}

func TestWithHashStrategy(t *testing.T) {
	vs := []dataMD5{{value: "Hello"}, {value: "Hi"}, {value: "Hey"}, {value: "Hola"}}

	tree, err := merkle.NewTree(vs, merkle.WithHashStrategy[dataMD5](md5.New))
	if err != nil {
		t.Fatalf("unable to create tree: %s", err)
	}

	if err := tree.Verify(); err != nil {
		t.Errorf("tree should verify: %s", err)
	}

	if len(tree.MerkleRoot) != md5.Size {
		t.Errorf("root should use the configured hash size: got %d, exp %d", len(tree.MerkleRoot), md5.Size)
	}
}
