package multisig

import (
	"context"

	"github.com/airgap-it/tz-wrapped-backend/micheline"
	"github.com/airgap-it/tz-wrapped-backend/tezos"
)

// SpecificMultisig drives the legacy FA1 "specific" multisig contract: its
// mainParameter entrypoint takes a nested Left/Right tree selecting one of
// eight hand-enumerated call shapes, alongside a positional sequence of
// optional signatures (one slot per approver, in storage order).
type SpecificMultisig struct {
	address string
	client  NodeClient

	storage *storage
}

// NewSpecificMultisig constructs a driver bound to one contract address and
// scoped to a single operation; its storage cache must not be reused
// across requests.
func NewSpecificMultisig(address string, client NodeClient) *SpecificMultisig {
	return &SpecificMultisig{address: address, client: client}
}

func (m *SpecificMultisig) Address() string { return m.address }

func (m *SpecificMultisig) fetchStorage(ctx context.Context) (*storage, error) {
	if m.storage != nil {
		return m.storage, nil
	}
	expr, err := m.client.StorageNormalized(ctx, m.address)
	if err != nil {
		return nil, err
	}
	s, err := parseStorage(expr)
	if err != nil {
		return nil, err
	}
	m.storage = s
	return s, nil
}

func (m *SpecificMultisig) Nonce(ctx context.Context) (int64, error) {
	s, err := m.fetchStorage(ctx)
	if err != nil {
		return 0, err
	}
	return s.nonce, nil
}

func (m *SpecificMultisig) MinSignatures(ctx context.Context) (int64, error) {
	s, err := m.fetchStorage(ctx)
	if err != nil {
		return 0, err
	}
	return s.minSignatures, nil
}

func (m *SpecificMultisig) Approvers(ctx context.Context) ([]string, error) {
	s, err := m.fetchStorage(ctx)
	if err != nil {
		return nil, err
	}
	return s.approversPublicKeys, nil
}

func (m *SpecificMultisig) SignableMessage(ctx context.Context, contract Contract, params OperationRequestParams, proposedKeyholders []string) (SignableMessage, error) {
	if err := validate(params, proposedKeyholders); err != nil {
		return SignableMessage{}, err
	}
	call, err := m.callMicheline(contract, params, proposedKeyholders)
	if err != nil {
		return SignableMessage{}, err
	}

	data := micheline.DPair(micheline.DString(m.address), micheline.DPair(micheline.NewInt(params.Nonce), call))

	mainParameterSchema, err := m.client.MainParameterSchema(ctx, m.address)
	if err != nil {
		return SignableMessage{}, err
	}
	schemaPrim, ok := mainParameterSchema.(micheline.Prim)
	if !ok || schemaPrim.Code != micheline.TypePair || len(schemaPrim.Args) != 2 {
		return SignableMessage{}, micheline.InvalidType("mainParameter schema is not a two-argument pair type")
	}
	schema := micheline.TPair(micheline.TAddress(), schemaPrim.Args[0])

	packed, err := micheline.Pack(data, schema)
	if err != nil {
		return SignableMessage{}, err
	}
	return SignableMessage{PackedData: packed, MichelsonData: data, MichelsonType: schema}, nil
}

func (m *SpecificMultisig) TransactionParameters(ctx context.Context, contract Contract, params OperationRequestParams, proposedKeyholders []string, signatures []Signature) (Parameters, error) {
	if err := validate(params, proposedKeyholders); err != nil {
		return Parameters{}, err
	}
	call, err := m.callMicheline(contract, params, proposedKeyholders)
	if err != nil {
		return Parameters{}, err
	}

	approvers, err := m.Approvers(ctx)
	if err != nil {
		return Parameters{}, err
	}

	slots := make(micheline.Sequence, len(approvers))
	for i, approverPK := range approvers {
		var match *Signature
		for j := range signatures {
			if signatures[j].PublicKey == approverPK {
				match = &signatures[j]
				break
			}
		}
		if match == nil {
			slots[i] = micheline.DNone()
			continue
		}
		sigBytes, err := tezos.Signature(match.Value).MarshalBinary()
		if err != nil {
			return Parameters{}, micheline.InvalidValue("invalid signature for approver %s: %s", approverPK, err)
		}
		slots[i] = micheline.DSome(micheline.DBytes(sigBytes))
	}

	value := micheline.DPair(micheline.DPair(micheline.NewInt(params.Nonce), call), slots)
	return Parameters{Entrypoint: "mainParameter", Value: value}, nil
}

// callMicheline builds the specific variant's call tree for every
// supported operation kind. Every kind but UpdateKeyholders wraps its call
// body as Left(Pair(call, contract_address)); UpdateKeyholders is routed
// directly and carries no contract address.
func (m *SpecificMultisig) callMicheline(contract Contract, params OperationRequestParams, proposedKeyholders []string) (micheline.Expr, error) {
	wrap := func(call micheline.Expr) micheline.Expr {
		return micheline.DLeft(micheline.DPair(call, micheline.DString(contract.PKH)))
	}

	switch params.Kind {
	case KindAddOperator, KindRemoveOperator, KindSetRedeemAddress, KindTransferOwnership:
		if params.TargetAddress == nil {
			return nil, micheline.InvalidValue("target_address is required for %s operation requests", params.Kind)
		}
	}

	switch params.Kind {
	case KindMint:
		call := micheline.DRight(micheline.DLeft(micheline.DLeft(micheline.DLeft(
			micheline.DPair(micheline.DString(*params.TargetAddress), micheline.NewIntFromBig(params.Amount))))))
		return wrap(call), nil
	case KindBurn:
		call := micheline.DRight(micheline.DLeft(micheline.DLeft(micheline.DRight(micheline.NewIntFromBig(params.Amount)))))
		return wrap(call), nil
	case KindAddOperator:
		call := micheline.DRight(micheline.DLeft(micheline.DRight(micheline.DLeft(micheline.DString(*params.TargetAddress)))))
		return wrap(call), nil
	case KindRemoveOperator:
		call := micheline.DRight(micheline.DLeft(micheline.DRight(micheline.DRight(micheline.DString(*params.TargetAddress)))))
		return wrap(call), nil
	case KindSetRedeemAddress:
		call := micheline.DRight(micheline.DRight(micheline.DLeft(micheline.DLeft(micheline.DString(*params.TargetAddress)))))
		return wrap(call), nil
	case KindTransferOwnership:
		call := micheline.DRight(micheline.DRight(micheline.DRight(micheline.DRight(micheline.DLeft(micheline.DString(*params.TargetAddress))))))
		return wrap(call), nil
	case KindAcceptOwnership:
		call := micheline.DRight(micheline.DRight(micheline.DRight(micheline.DRight(micheline.DRight(micheline.DUnit())))))
		return wrap(call), nil
	case KindUpdateKeyholders:
		keys := make(micheline.Sequence, len(proposedKeyholders))
		for i, k := range proposedKeyholders {
			keys[i] = micheline.DString(k)
		}
		return micheline.DRight(micheline.DPair(micheline.NewInt(*params.Threshold), keys)), nil
	default:
		return nil, micheline.InvalidValue("unsupported operation request kind for specific multisig: %s", params.Kind)
	}
}
