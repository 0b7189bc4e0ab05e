package tezos

import "golang.org/x/xerrors"

// Address is a base58check-encoded Tezos address: an implicit account
// (tz1/tz2/tz3) or an originated contract (KT1).
type Address string

// MarshalBinary renders the address in its packed on-chain form. Implicit
// accounts are a 0x00 tag, a curve tag and the 20-byte key hash; originated
// contracts are a 0x01 tag, the 20-byte contract hash and a padding byte.
func (a Address) MarshalBinary() ([]byte, error) {
	prefix, payload, err := Base58CheckDecode(string(a))
	if err != nil {
		return nil, err
	}
	switch prefix {
	case PrefixTz1:
		return append([]byte{0, tagEd25519}, payload...), nil
	case PrefixTz2:
		return append([]byte{0, tagSecp256k1}, payload...), nil
	case PrefixTz3:
		return append([]byte{0, tagP256}, payload...), nil
	case PrefixKT1:
		out := append([]byte{1}, payload...)
		return append(out, 0), nil
	default:
		return nil, xerrors.Errorf("%s is not a tezos address", a)
	}
}
