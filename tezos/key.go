package tezos

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/xerrors"
)

// PublicKey is a base58check-encoded Tezos public key: edpk (ed25519), sppk
// (secp256k1) or p2pk (P-256). These are the keys multisig storage
// enumerates and approval signatures verify against.
type PublicKey string

// Curve tag bytes used by the packed forms of public keys, key hashes and
// addresses.
const (
	tagEd25519   = 0
	tagSecp256k1 = 1
	tagP256      = 2
)

// NewEd25519PublicKey encodes a raw ed25519 public key as an edpk string.
func NewEd25519PublicKey(key ed25519.PublicKey) (PublicKey, error) {
	encoded, err := Base58CheckEncode(PrefixEdpk, key)
	if err != nil {
		return "", err
	}
	return PublicKey(encoded), nil
}

// CryptoPublicKey decodes the key into its crypto.PublicKey form for
// detached-signature verification. The curve is selected by the base58check
// prefix.
func (p PublicKey) CryptoPublicKey() (crypto.PublicKey, error) {
	prefix, payload, err := Base58CheckDecode(string(p))
	if err != nil {
		return nil, err
	}
	switch prefix {
	case PrefixEdpk:
		return ed25519.PublicKey(payload), nil
	case PrefixSppk:
		parsed, err := btcec.ParsePubKey(payload)
		if err != nil {
			return nil, xerrors.Errorf("invalid secp256k1 public key %s: %w", p, err)
		}
		return *parsed.ToECDSA(), nil
	case PrefixP2pk:
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), payload)
		if x == nil {
			return nil, xerrors.Errorf("invalid P-256 public key %s", p)
		}
		return ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
	default:
		return nil, xerrors.Errorf("%s is not a tezos public key", p)
	}
}

// MarshalBinary renders the key in its packed on-chain form: a curve tag
// byte followed by the raw key bytes.
func (p PublicKey) MarshalBinary() ([]byte, error) {
	prefix, payload, err := Base58CheckDecode(string(p))
	if err != nil {
		return nil, err
	}
	var tag byte
	switch prefix {
	case PrefixEdpk:
		tag = tagEd25519
	case PrefixSppk:
		tag = tagSecp256k1
	case PrefixP2pk:
		tag = tagP256
	default:
		return nil, xerrors.Errorf("%s is not a tezos public key", p)
	}
	return append([]byte{tag}, payload...), nil
}

// UnmarshalBinary parses the packed on-chain form back into a base58check
// key. Multisig storage stores its approver set this way.
func (p *PublicKey) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return xerrors.New("too few bytes for a packed public key")
	}
	var prefix Prefix
	switch data[0] {
	case tagEd25519:
		prefix = PrefixEdpk
	case tagSecp256k1:
		prefix = PrefixSppk
	case tagP256:
		prefix = PrefixP2pk
	default:
		return xerrors.Errorf("unknown public key curve tag %d", data[0])
	}
	encoded, err := Base58CheckEncode(prefix, data[1:])
	if err != nil {
		return err
	}
	*p = PublicKey(encoded)
	return nil
}

// Address derives the implicit account address controlled by this key:
// the matching tz1/tz2/tz3 encoding of the 20-byte blake2b hash of the raw
// key bytes. The generic multisig keys its signature map by this address.
func (p PublicKey) Address() (Address, error) {
	prefix, payload, err := Base58CheckDecode(string(p))
	if err != nil {
		return "", err
	}
	var addrPrefix Prefix
	switch prefix {
	case PrefixEdpk:
		addrPrefix = PrefixTz1
	case PrefixSppk:
		addrPrefix = PrefixTz2
	case PrefixP2pk:
		addrPrefix = PrefixTz3
	default:
		return "", xerrors.Errorf("%s is not a tezos public key", p)
	}
	h, err := blake2b.New(20, nil)
	if err != nil {
		return "", xerrors.Errorf("failed to create blake2b hash: %w", err)
	}
	if _, err := h.Write(payload); err != nil {
		return "", xerrors.Errorf("failed to hash public key: %w", err)
	}
	encoded, err := Base58CheckEncode(addrPrefix, h.Sum(nil))
	if err != nil {
		return "", err
	}
	return Address(encoded), nil
}
