package micheline

import (
	"strings"
	"time"

	"github.com/airgap-it/tz-wrapped-backend/tezos"
)

// encodeAddress renders a base58check address (tz1/tz2/tz3 or KT1) as its
// packed byte form. When tzOnly is true the leading contract-id tag byte
// (0x00 implicit / 0x01 originated) is dropped, leaving only the kind tag
// and payload (used for $key_hash, which has no contract-id tag).
func encodeAddress(s string, tzOnly bool) ([]byte, error) {
	encoded, err := tezos.Address(s).MarshalBinary()
	if err != nil {
		return nil, InvalidValue("not a valid address: %s: %s", s, err)
	}
	if tzOnly {
		return encoded[1:], nil
	}
	return encoded, nil
}

// encodeContract renders a `$contract_id%entrypoint` string as its packed
// byte form: the address bytes followed by the raw entrypoint name, unless
// the entrypoint is "default", in which case only the address bytes are
// emitted.
func encodeContract(s string) ([]byte, error) {
	addr, entrypoint := s, "default"
	if i := strings.IndexByte(s, '%'); i >= 0 {
		addr, entrypoint = s[:i], s[i+1:]
	}
	addrBytes, err := encodeAddress(addr, false)
	if err != nil {
		return nil, err
	}
	if entrypoint == "default" {
		return addrBytes, nil
	}
	return append(addrBytes, []byte(entrypoint)...), nil
}

// encodeChainID renders a base58check chain-id (Net…) as its raw 4-byte
// payload.
func encodeChainID(s string) ([]byte, error) {
	prefix, decoded, err := tezos.Base58CheckDecode(s)
	if err != nil || prefix != tezos.PrefixNet {
		return nil, InvalidValue("not a valid chain id: %s", s)
	}
	return decoded, nil
}

// encodeSignature renders a base58check signature (edsig/spsig/p2sig/sig)
// as its raw 64-byte payload.
func encodeSignature(s string) ([]byte, error) {
	decoded, err := tezos.Signature(s).MarshalBinary()
	if err != nil {
		return nil, InvalidValue("not a valid signature: %s: %s", s, err)
	}
	return decoded, nil
}

// encodePublicKey renders a base58check public key (edpk/sppk/p2pk) as its
// tagged packed byte form.
func encodePublicKey(s string) ([]byte, error) {
	encoded, err := tezos.PublicKey(s).MarshalBinary()
	if err != nil {
		return nil, InvalidValue("not a valid public key: %s: %s", s, err)
	}
	return encoded, nil
}

// encodeTimestamp parses an RFC3339 timestamp string into signed Unix
// seconds.
func encodeTimestamp(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, InvalidValue("not a valid RFC3339 timestamp: %s: %s", s, err)
	}
	return t.Unix(), nil
}

// EdpkToTz1 derives the tz1 implicit address corresponding to an ed25519
// public key, as base58check([6,161,159] ++ blake2b_20(raw(p))).
func EdpkToTz1(edpk string) (string, error) {
	addr, err := tezos.PublicKey(edpk).Address()
	if err != nil {
		return "", InvalidPublicKey("failed to derive tz1 address from %s: %s", edpk, err)
	}
	return string(addr), nil
}
