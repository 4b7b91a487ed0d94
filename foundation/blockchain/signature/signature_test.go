package signature_test

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/powchain/powchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Hash256(t *testing.T) {
	t.Log("Given the need to validate Hash256 semantics.")
	{
		h := signature.Digest([]byte("hello"), []byte("world"))
		j := signature.Digest([]byte("helloworld"))

		if h != j {
			t.Errorf("\t%s\tShould hash chunks as a single stream.", failed)
		} else {
			t.Logf("\t%s\tShould hash chunks as a single stream.", success)
		}

		if signature.ZeroHash.Compare(h) >= 0 {
			t.Errorf("\t%s\tShould order the zero hash below any nonzero hash.", failed)
		} else {
			t.Logf("\t%s\tShould order the zero hash below any nonzero hash.", success)
		}

		if h.Compare(h) != 0 {
			t.Errorf("\t%s\tShould compare equal hashes as 0.", failed)
		} else {
			t.Logf("\t%s\tShould compare equal hashes as 0.", success)
		}

		if !signature.ZeroHash.IsZero() || h.IsZero() {
			t.Errorf("\t%s\tShould report the zero value and only the zero value as zero.", failed)
		} else {
			t.Logf("\t%s\tShould report the zero value and only the zero value as zero.", success)
		}

		data, err := json.Marshal(h)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal a hash: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to marshal a hash.", success)

		var back signature.Hash256
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("\t%s\tShould be able to unmarshal a hash: %s", failed, err)
		}
		if back != h {
			t.Errorf("\t%s\tShould round trip through JSON: got %s, exp %s.", failed, back, h)
		} else {
			t.Logf("\t%s\tShould round trip through JSON.", success)
		}

		if len(h.Hex()) != 66 || h.Hex()[:2] != "0x" {
			t.Errorf("\t%s\tShould encode as a 0x prefixed 64 digit hex string.", failed)
		} else {
			t.Logf("\t%s\tShould encode as a 0x prefixed 64 digit hex string.", success)
		}
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to validate hashing a value by its JSON encoding.")
	{
		h := signature.Hash(value)

		data, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal the value: %s", failed, err)
		}

		if h != signature.Digest(data) {
			t.Errorf("\t%s\tShould match the digest of the JSON encoding.", failed)
		} else {
			t.Logf("\t%s\tShould match the digest of the JSON encoding.", success)
		}

		if h != signature.Hash(value) {
			t.Errorf("\t%s\tShould be deterministic across calls.", failed)
		} else {
			t.Logf("\t%s\tShould be deterministic across calls.", success)
		}
	}
}

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("unable to parse private key: %s", err)
	}

	t.Log("Given the need to sign data and recover the signer address.")
	{
		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the value: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the value.", success)

		if err := signature.VerifySignature(value, v, r, s); err != nil {
			t.Errorf("\t%s\tShould have a conforming signature: %s", failed, err)
		} else {
			t.Logf("\t%s\tShould have a conforming signature.", success)
		}

		addr, err := signature.FromAddress(value, v, r, s)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the address: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to recover the address.", success)

		if addr != from {
			t.Errorf("\t%s\tShould recover the signing address: got %s, exp %s.", failed, addr, from)
		} else {
			t.Logf("\t%s\tShould recover the signing address.", success)
		}
	}

	t.Log("Given the need to validate recovery with different data.")
	{
		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the value: %s", failed, err)
		}

		other := struct {
			Name string
		}{
			Name: "Jill",
		}

		addr, err := signature.FromAddress(other, v, r, s)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to run recovery: %s", failed, err)
		}

		if addr == from {
			t.Errorf("\t%s\tShould not recover the signing address for different data.", failed)
		} else {
			t.Logf("\t%s\tShould not recover the signing address for different data.", success)
		}
	}
}

func Test_SignatureString(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("unable to parse private key: %s", err)
	}

	t.Log("Given the need to round trip a signature through its hex form.")
	{
		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the value: %s", failed, err)
		}

		sigStr := signature.SignatureString(v, r, s)
		if len(sigStr) != 132 || sigStr[:2] != "0x" {
			t.Errorf("\t%s\tShould produce a 0x prefixed 65 byte signature string.", failed)
		} else {
			t.Logf("\t%s\tShould produce a 0x prefixed 65 byte signature string.", success)
		}

		v2, r2, s2, err := signature.ToVRSFromHexSignature(sigStr)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the signature string: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to parse the signature string.", success)

		if v.Cmp(v2) != 0 || r.Cmp(r2) != 0 || s.Cmp(s2) != 0 {
			t.Errorf("\t%s\tShould keep the v, r, s values.", failed)
		} else {
			t.Logf("\t%s\tShould keep the v, r, s values.", success)
		}
	}
}
