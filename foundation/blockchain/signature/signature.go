// Package signature provides the fixed 32 byte hash type used across the
// blockchain and helper functions for hashing and for handling the
// blockchain signature needs.
package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// powchainID is an arbitrary number for signing messages. This will make it
// clear that the signature comes from the powchain blockchain.
// Ethereum and Bitcoin do this as well, but they use the value of 27.
const powchainID = 29

// =============================================================================

// Hash256 represents a 32 byte hash. It is used both as a content address
// for blocks and transactions and, read as a big-endian unsigned integer,
// as a proof of work threshold.
type Hash256 [32]byte

// ZeroHash represents a hash code of all zeros. It is the declared hash of
// the genesis block and the empty content merkle root.
var ZeroHash Hash256

// ToHash256 converts a slice of exactly 32 bytes into a Hash256.
func ToHash256(data []byte) (Hash256, error) {
	if len(data) != len(Hash256{}) {
		return Hash256{}, fmt.Errorf("hash must be %d bytes, got %d", len(Hash256{}), len(data))
	}

	var hash Hash256
	copy(hash[:], data)
	return hash, nil
}

// Compare interprets both hashes as big-endian unsigned integers and
// returns -1, 0 or +1. A header hash h constitutes valid proof of work
// against a threshold t when h.Compare(t) <= 0.
func (h Hash256) Compare(other Hash256) int {
	return bytes.Compare(h[:], other[:])
}

// IsZero reports whether the hash is all zeros.
func (h Hash256) IsZero() bool {
	return h == ZeroHash
}

// Hex returns the hash as a 0x prefixed hex encoded string.
func (h Hash256) Hex() string {
	return hexutil.Encode(h[:])
}

// String implements the fmt.Stringer interface for logging.
func (h Hash256) String() string {
	return h.Hex()
}

// MarshalText implements the encoding.TextMarshaler interface so hashes
// serialize as hex strings inside JSON documents.
func (h Hash256) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (h *Hash256) UnmarshalText(data []byte) error {
	raw, err := hexutil.Decode(string(data))
	if err != nil {
		return err
	}

	hash, err := ToHash256(raw)
	if err != nil {
		return err
	}

	*h = hash
	return nil
}

// =============================================================================

// Digest hashes the specified chunks of bytes, in order, with SHA-256.
// This is the hash primitive behind block identities.
func Digest(chunks ...[]byte) Hash256 {
	h := sha256.New()
	for _, chunk := range chunks {
		h.Write(chunk)
	}

	var hash Hash256
	copy(hash[:], h.Sum(nil))
	return hash
}

// Hash returns a unique hash for the value based on its JSON encoding.
func Hash(value any) Hash256 {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return Digest(data)
}

// =============================================================================

// Sign uses the specified private key to sign the data.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return nil, nil, nil, err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, errors.New("invalid signature")
	}

	// Convert the 65 byte signature into the [R|S|V] format.
	v, r, s = toSignatureValues(sig)

	return v, r, s, nil
}

// VerifySignature verifies the signature conforms to our standards.
func VerifySignature(value any, v, r, s *big.Int) error {

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - powchainID
	if uintV != 0 && uintV != 1 {
		return errors.New("invalid recovery id")
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress extracts the address for the account that signed the data.
func FromAddress(value any, v, r, s *big.Int) (string, error) {

	// NOTE: If the same exact data for the given signature is not provided
	// we will get the wrong from address for this transaction. There is no
	// way to check this on the node since we don't have a copy of the public
	// key used. The public key is being extracted from the data and signature.

	// Prepare the data for public key extraction.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Convert the [R|S|V] format into the original 65 bytes.
	sig := ToSignatureBytes(v, r, s)

	// Capture the public key associated with this data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Extract the account address from the public key.
	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// SignatureString returns the signature as a string.
func SignatureString(v, r, s *big.Int) string {
	return hexutil.Encode(toSignatureBytesWithPowchainID(v, r, s))
}

// ToVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hex.DecodeString(sigStr[2:])
	if err != nil {
		return nil, nil, nil, err
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the powchain stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the data.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(v)

	// Convert the stamp into a slice of bytes. This stamp is
	// used so signatures we produce when signing data
	// are always unique to the powchain blockchain.
	stamp := []byte("\x19Powchain Signed Message:\n32")

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the data.
	data := crypto.Keccak256(stamp, txHash)

	return data, nil
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + powchainID})

	return v, r, s
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the powchainID.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	rBytes := r.Bytes()
	if len(rBytes) == 31 {
		copy(sig[1:], rBytes)
	} else {
		copy(sig, rBytes)
	}

	sBytes := s.Bytes()
	if len(sBytes) == 31 {
		copy(sig[33:], sBytes)
	} else {
		copy(sig[32:], sBytes)
	}

	sig[64] = byte(v.Uint64() - powchainID)

	return sig
}

// toSignatureBytesWithPowchainID converts the r, s, v values into a slice
// of bytes keeping the powchainID.
func toSignatureBytesWithPowchainID(v, r, s *big.Int) []byte {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return sig
}
