package multisig

import (
	"github.com/airgap-it/tz-wrapped-backend/micheline"
	"github.com/airgap-it/tz-wrapped-backend/tezos"
)

// storage is the parsed snapshot of a multisig contract's on-chain state:
// its replay nonce, its approval threshold, and the ordered set of
// approver public keys that defines the canonical position of every
// signature slot in emitted call parameters.
type storage struct {
	nonce               int64
	minSignatures       int64
	approversPublicKeys []string
}

// parseStorage decodes a multisig contract's normalized storage
// expression. The expected shape is Pair(nonce, Pair(x, y)) where one of
// x/y is an Int (min_signatures) and the other a Sequence of Bytes-encoded
// public keys; either order is tolerated.
func parseStorage(expr micheline.Expr) (*storage, error) {
	outer, ok := expr.(micheline.Prim)
	if !ok || outer.Code != micheline.PrimPair || len(outer.Args) != 2 {
		return nil, micheline.InvalidType("expected Pair(nonce, Pair(min_signatures, approvers)) for multisig storage, got %T", expr)
	}
	nonce, err := extractInt(outer.Args[0])
	if err != nil {
		return nil, err
	}

	inner, ok := outer.Args[1].(micheline.Prim)
	if !ok || inner.Code != micheline.PrimPair || len(inner.Args) != 2 {
		return nil, micheline.InvalidType("expected Pair(min_signatures, approvers) for multisig storage, got %T", outer.Args[1])
	}

	minSignatures, err := extractInt(inner.Args[0])
	var keys []string
	if err == nil {
		keys, err = extractPublicKeys(inner.Args[1])
	} else {
		minSignatures, err = extractInt(inner.Args[1])
		if err != nil {
			return nil, micheline.InvalidType("neither multisig storage field is an Int min_signatures")
		}
		keys, err = extractPublicKeys(inner.Args[0])
	}
	if err != nil {
		return nil, err
	}

	return &storage{
		nonce:               nonce,
		minSignatures:       minSignatures,
		approversPublicKeys: keys,
	}, nil
}

func extractInt(expr micheline.Expr) (int64, error) {
	i, ok := expr.(micheline.Int)
	if !ok || i.Value == nil {
		return 0, micheline.InvalidType("expected an Int, got %T", expr)
	}
	return i.Value.Int64(), nil
}

func extractPublicKeys(expr micheline.Expr) ([]string, error) {
	seq, ok := expr.(micheline.Sequence)
	if !ok {
		return nil, micheline.InvalidType("expected a sequence of public keys, got %T", expr)
	}
	keys := make([]string, 0, len(seq))
	for _, item := range seq {
		b, ok := item.(micheline.Bytes)
		if !ok {
			return nil, micheline.InvalidType("expected Bytes for a public key entry, got %T", item)
		}
		var pk tezos.PublicKey
		if err := pk.UnmarshalBinary([]byte(b)); err != nil {
			return nil, micheline.InvalidPublicKey("failed to decode approver public key: %s", err)
		}
		keys = append(keys, string(pk))
	}
	return keys, nil
}
