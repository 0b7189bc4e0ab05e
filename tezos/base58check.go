// Package tezos implements the base58check codec for the Tezos value types
// this service handles (addresses, public keys, signatures, chain ids,
// operation hashes) and detached-signature verification over their packed
// forms. Secret-key material never appears here: the service only verifies
// signatures produced by external wallets.
package tezos

import (
	"bytes"
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/xerrors"
)

// Prefix identifies a base58check value type by its human-readable prefix.
// Each prefix commits to a versioned byte prefix and an exact payload
// length.
type Prefix int

const (
	PrefixTz1 Prefix = iota // ed25519 public key hash
	PrefixTz2               // secp256k1 public key hash
	PrefixTz3               // P-256 public key hash
	PrefixKT1               // originated contract hash
	PrefixEdpk              // ed25519 public key
	PrefixSppk              // secp256k1 public key
	PrefixP2pk              // P-256 public key
	PrefixEdsig             // ed25519 signature
	PrefixSpsig             // secp256k1 signature
	PrefixP2sig             // P-256 signature
	PrefixSig               // curve-agnostic signature
	PrefixNet               // chain id
	PrefixBlock             // block hash
	PrefixOperation         // operation hash
	PrefixProtocol          // protocol hash
	PrefixExpr              // script expression hash
)

type prefixInfo struct {
	human   string
	version []byte
	payload int
}

var prefixTable = map[Prefix]prefixInfo{
	PrefixTz1:       {"tz1", []byte{6, 161, 159}, 20},
	PrefixTz2:       {"tz2", []byte{6, 161, 161}, 20},
	PrefixTz3:       {"tz3", []byte{6, 161, 164}, 20},
	PrefixKT1:       {"KT1", []byte{2, 90, 121}, 20},
	PrefixEdpk:      {"edpk", []byte{13, 15, 37, 217}, 32},
	PrefixSppk:      {"sppk", []byte{3, 254, 226, 86}, 33},
	PrefixP2pk:      {"p2pk", []byte{3, 178, 139, 127}, 33},
	PrefixEdsig:     {"edsig", []byte{9, 245, 205, 134, 18}, 64},
	PrefixSpsig:     {"spsig", []byte{13, 115, 101, 19, 63}, 64},
	PrefixP2sig:     {"p2sig", []byte{54, 240, 44, 52}, 64},
	PrefixSig:       {"sig", []byte{4, 130, 43}, 64},
	PrefixNet:       {"Net", []byte{87, 82, 0}, 4},
	PrefixBlock:     {"B", []byte{1, 52}, 32},
	PrefixOperation: {"o", []byte{5, 116}, 32},
	PrefixProtocol:  {"P", []byte{2, 170}, 32},
	PrefixExpr:      {"expr", []byte{13, 44, 64, 27}, 32},
}

// allPrefixes fixes the dispatch order for Base58CheckDecode. No human
// prefix in the table is a prefix of another, so the order only matters for
// determinism.
var allPrefixes = []Prefix{
	PrefixTz1, PrefixTz2, PrefixTz3, PrefixKT1,
	PrefixEdpk, PrefixSppk, PrefixP2pk,
	PrefixEdsig, PrefixSpsig, PrefixP2sig, PrefixSig,
	PrefixNet, PrefixBlock, PrefixOperation, PrefixProtocol, PrefixExpr,
}

// String returns the human-readable prefix, e.g. "tz1" or "edsig".
func (p Prefix) String() string {
	return prefixTable[p].human
}

// PayloadLength is the exact number of raw payload bytes this prefix
// commits to.
func (p Prefix) PayloadLength() int {
	return prefixTable[p].payload
}

func checksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:4]
}

// Base58CheckEncode renders payload as a base58check string carrying p's
// versioned prefix. The payload length must match the prefix exactly.
func Base58CheckEncode(p Prefix, payload []byte) (string, error) {
	info := prefixTable[p]
	if len(payload) != info.payload {
		return "", xerrors.Errorf("%s payload must be %d bytes, got %d", info.human, info.payload, len(payload))
	}
	data := make([]byte, 0, len(info.version)+len(payload)+4)
	data = append(data, info.version...)
	data = append(data, payload...)
	data = append(data, checksum(data)...)
	return base58.Encode(data), nil
}

// Base58CheckDecode parses a base58check string: the value type is selected
// by its human-readable prefix, then the checksum, versioned prefix bytes
// and payload length are all verified.
func Base58CheckDecode(s string) (Prefix, []byte, error) {
	for _, p := range allPrefixes {
		if strings.HasPrefix(s, prefixTable[p].human) {
			payload, err := decodeAs(s, p)
			if err != nil {
				return 0, nil, err
			}
			return p, payload, nil
		}
	}
	return 0, nil, xerrors.Errorf("no known tezos prefix in %q", s)
}

func decodeAs(s string, p Prefix) ([]byte, error) {
	info := prefixTable[p]
	decoded := base58.Decode(s)
	if len(decoded) < len(info.version)+4 {
		return nil, xerrors.Errorf("%q is too short for a %s value", s, info.human)
	}
	data, cksum := decoded[:len(decoded)-4], decoded[len(decoded)-4:]
	if !bytes.Equal(checksum(data), cksum) {
		return nil, xerrors.Errorf("checksum mismatch in %q", s)
	}
	if !bytes.HasPrefix(data, info.version) {
		return nil, xerrors.Errorf("%q does not carry the %s version bytes", s, info.human)
	}
	payload := data[len(info.version):]
	if len(payload) != info.payload {
		return nil, xerrors.Errorf("unexpected payload length for %s value %q: %d != %d", info.human, s, len(payload), info.payload)
	}
	return payload, nil
}

// Validate checks that s is a well-formed base58check value of exactly the
// type p.
func Validate(s string, p Prefix) error {
	got, _, err := Base58CheckDecode(s)
	if err != nil {
		return err
	}
	if got != p {
		return xerrors.Errorf("expected a %s value, got %s: %q", p, got, s)
	}
	return nil
}

// Base58Encode encodes raw bytes to bare base58, with no version prefix and
// no checksum. Used for opaque values such as sign-in challenge nonces.
func Base58Encode(input []byte) string {
	return base58.Encode(input)
}
