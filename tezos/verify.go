package tezos

import (
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/xerrors"
)

// Signature is a base58check-encoded detached signature: edsig, spsig,
// p2sig, or the curve-agnostic sig form.
type Signature string

// MarshalBinary returns the raw 64-byte signature payload.
func (s Signature) MarshalBinary() ([]byte, error) {
	prefix, payload, err := Base58CheckDecode(string(s))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode signature %s: %w", s, err)
	}
	switch prefix {
	case PrefixEdsig, PrefixSpsig, PrefixP2sig, PrefixSig:
		return payload, nil
	default:
		return nil, xerrors.Errorf("%s is not a tezos signature", s)
	}
}

// Blake2b32 hashes packed bytes into the 32-byte digest multisig contracts
// expect approvers to sign over.
func Blake2b32(packed []byte) ([]byte, error) {
	h, err := blake2b.New(32, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to create blake2b hash: %w", err)
	}
	if _, err := h.Write(packed); err != nil {
		return nil, xerrors.Errorf("failed to hash packed message: %w", err)
	}
	return h.Sum(nil), nil
}

// Blake2b32Hex is Blake2b32 over a hex-encoded packed message.
func Blake2b32Hex(packedHex string) ([]byte, error) {
	packed, err := hex.DecodeString(packedHex)
	if err != nil {
		return nil, xerrors.Errorf("failed to hex-decode packed message: %w", err)
	}
	return Blake2b32(packed)
}

// VerifyDetached reports whether signature is a valid detached signature by
// pubKey over digest. It supports ed25519, secp256k1 and P-256 keys; the
// curve is selected by the key's base58check prefix.
func VerifyDetached(digest []byte, pubKey PublicKey, signature Signature) (bool, error) {
	cryptoPubKey, err := pubKey.CryptoPublicKey()
	if err != nil {
		return false, xerrors.Errorf("invalid public key %s: %w", pubKey, err)
	}
	sigBytes, err := signature.MarshalBinary()
	if err != nil {
		return false, xerrors.Errorf("invalid signature %s: %w", signature, err)
	}

	switch key := cryptoPubKey.(type) {
	case ed25519.PublicKey:
		if len(sigBytes) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(key, digest, sigBytes), nil
	case ecdsa.PublicKey:
		if len(sigBytes) != 64 {
			return false, nil
		}
		r := new(big.Int).SetBytes(sigBytes[:32])
		s := new(big.Int).SetBytes(sigBytes[32:])
		return ecdsa.Verify(&key, digest, r, s), nil
	default:
		return false, xerrors.Errorf("unsupported public key type %T", cryptoPubKey)
	}
}

// FindMatchingSigner verifies digest/signature against every candidate in
// order and returns the index of the first one that matches. Every
// candidate is checked regardless of earlier matches, so the cost is
// uniform across calls rather than short-circuiting visibly.
func FindMatchingSigner(digest []byte, candidates []PublicKey, signature Signature) (int, error) {
	match := -1
	for i, candidate := range candidates {
		ok, err := VerifyDetached(digest, candidate, signature)
		if err != nil {
			continue
		}
		if ok && match == -1 {
			match = i
		}
	}
	if match == -1 {
		return -1, xerrors.New("signature does not match any candidate public key")
	}
	return match, nil
}
