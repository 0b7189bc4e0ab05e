package multisig

import (
	"context"
	"math/big"
	"strings"

	"github.com/airgap-it/tz-wrapped-backend/micheline"
	"github.com/airgap-it/tz-wrapped-backend/tezos"
	"golang.org/x/exp/slices"
)

// GenericMultisig drives the FA2 "generic" multisig contract: rather than a
// closed set of call shapes, approvers sign a lambda that the contract
// executes verbatim (for Mint/Burn), or a direct parameter pair (for
// UpdateKeyholders).
//
// Its signable message schema is the lambda type for every operation kind.
// For UpdateKeyholders the message is a plain threshold/keys pair, which
// does not fit that schema, so SignableMessage returns an InvalidType error
// for UpdateKeyholders; TransactionParameters does build its
// update_signatory parameters.
type GenericMultisig struct {
	address string
	client  NodeClient

	storage *storage
}

func NewGenericMultisig(address string, client NodeClient) *GenericMultisig {
	return &GenericMultisig{address: address, client: client}
}

func (m *GenericMultisig) Address() string { return m.address }

func (m *GenericMultisig) fetchStorage(ctx context.Context) (*storage, error) {
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

// Nonce returns the on-chain replay nonce plus one: the generic contract's
// storage nonce lags the value approvers must sign for by one increment.
func (m *GenericMultisig) Nonce(ctx context.Context) (int64, error) {
	s, err := m.fetchStorage(ctx)
	if err != nil {
		return 0, err
	}
	return s.nonce + 1, nil
}

func (m *GenericMultisig) MinSignatures(ctx context.Context) (int64, error) {
	s, err := m.fetchStorage(ctx)
	if err != nil {
		return 0, err
	}
	return s.minSignatures, nil
}

func (m *GenericMultisig) Approvers(ctx context.Context) ([]string, error) {
	s, err := m.fetchStorage(ctx)
	if err != nil {
		return nil, err
	}
	return s.approversPublicKeys, nil
}

func (m *GenericMultisig) SignableMessage(ctx context.Context, contract Contract, params OperationRequestParams, proposedKeyholders []string) (SignableMessage, error) {
	if err := validate(params, proposedKeyholders); err != nil {
		return SignableMessage{}, err
	}

	message, err := m.michelsonMessage(contract, params, proposedKeyholders)
	if err != nil {
		return SignableMessage{}, err
	}

	data := micheline.DPair(micheline.DString(params.ChainID),
		micheline.DPair(micheline.DString(m.address),
			micheline.DPair(micheline.NewInt(params.Nonce), message)))
	schema := micheline.TPair(micheline.TChainID(),
		micheline.TPair(micheline.TAddress(),
			micheline.TPair(micheline.TNat(), micheline.TLambda(micheline.TUnit(), micheline.TList(micheline.TOperation())))))

	packed, err := micheline.Pack(data, schema)
	if err != nil {
		return SignableMessage{}, err
	}
	return SignableMessage{PackedData: packed, MichelsonData: data, MichelsonType: schema}, nil
}

func (m *GenericMultisig) TransactionParameters(ctx context.Context, contract Contract, params OperationRequestParams, proposedKeyholders []string, signatures []Signature) (Parameters, error) {
	if err := validate(params, proposedKeyholders); err != nil {
		return Parameters{}, err
	}

	approvers, err := m.Approvers(ctx)
	if err != nil {
		return Parameters{}, err
	}
	known := make(map[string]bool, len(approvers))
	for _, pk := range approvers {
		known[pk] = true
	}

	// Signatures from keys outside the approver set are dropped rather
	// than rejected; a missing approver simply contributes no map entry.
	items := make([]micheline.Expr, 0, len(signatures))
	for _, sig := range signatures {
		if !known[sig.PublicKey] {
			continue
		}
		tz1, err := tezos.PublicKey(sig.PublicKey).Address()
		if err != nil {
			return Parameters{}, micheline.InvalidPublicKey("failed to derive tz1 for approver public key: %s", err)
		}
		items = append(items, micheline.DElt(micheline.DString(string(tz1)), micheline.DString(sig.Value)))
	}
	slices.SortFunc(items, func(a, b micheline.Expr) int {
		return strings.Compare(
			string(a.(micheline.Prim).Args[0].(micheline.String)),
			string(b.(micheline.Prim).Args[0].(micheline.String)))
	})
	signatureMap := micheline.DSeq(items...)

	value, err := m.michelsonTransactionParameters(contract, params, proposedKeyholders, signatureMap)
	if err != nil {
		return Parameters{}, err
	}

	return Parameters{Entrypoint: entrypointFor(params.Kind), Value: value}, nil
}

func entrypointFor(kind OperationRequestKind) string {
	if kind == KindUpdateKeyholders {
		return "update_signatory"
	}
	return "execute"
}

func (m *GenericMultisig) michelsonTransactionParameters(contract Contract, params OperationRequestParams, proposedKeyholders []string, signatureMap micheline.Expr) (micheline.Expr, error) {
	switch params.Kind {
	case KindMint:
		lambda := mintLambda(*params.TargetAddress, contract.PKH, params.Amount, contract.TokenID)
		return micheline.DPair(lambda, signatureMap), nil
	case KindBurn:
		lambda := burnLambda(contract.PKH, params.Amount, contract.TokenID)
		return micheline.DPair(lambda, signatureMap), nil
	case KindUpdateKeyholders:
		return updateKeyholdersParameters(*params.Threshold, proposedKeyholders, signatureMap), nil
	default:
		return nil, micheline.InvalidValue("unsupported operation request kind for generic multisig: %s", params.Kind)
	}
}

func (m *GenericMultisig) michelsonMessage(contract Contract, params OperationRequestParams, proposedKeyholders []string) (micheline.Expr, error) {
	switch params.Kind {
	case KindMint:
		return mintLambda(*params.TargetAddress, contract.PKH, params.Amount, contract.TokenID), nil
	case KindBurn:
		return burnLambda(contract.PKH, params.Amount, contract.TokenID), nil
	case KindUpdateKeyholders:
		keys := make(micheline.Sequence, len(proposedKeyholders))
		for i, k := range proposedKeyholders {
			keys[i] = micheline.DString(k)
		}
		return micheline.DPair(micheline.NewInt(*params.Threshold), keys), nil
	default:
		return nil, micheline.InvalidValue("unsupported operation request kind for generic multisig: %s", params.Kind)
	}
}

// mintLambda builds the instruction sequence a generic multisig executes to
// mint amount of token_id to address via contract_address's %mint
// entrypoint.
func mintLambda(address, contractAddress string, amount *big.Int, tokenID int64) micheline.Sequence {
	transferType := micheline.TList(micheline.TPair(micheline.TAddress(), micheline.TPair(micheline.TNat(), micheline.TNat())))
	return micheline.DSeq(
		micheline.IDrop(),
		micheline.INil(micheline.TOperation()),
		micheline.IPush(micheline.TAddress(), micheline.DString(contractAddress+"%mint")),
		micheline.IContract(transferType),
		micheline.DSeq(micheline.IIfNone(
			micheline.DSeq(micheline.IUnit(), micheline.IFailWith()),
			micheline.DSeq(),
		)),
		micheline.IPush(micheline.TMutez(), micheline.NewInt(0)),
		micheline.INil(micheline.TPair(micheline.TAddress(), micheline.TPair(micheline.TNat(), micheline.TNat()))),
		micheline.IPush(micheline.TNat(), micheline.NewIntFromBig(amount)),
		micheline.IPush(micheline.TNat(), micheline.NewInt(tokenID)),
		micheline.IPair(),
		micheline.IPush(micheline.TAddress(), micheline.DString(address)),
		micheline.IPair(),
		micheline.ICons(),
		micheline.ITransferTokens(),
		micheline.ICons(),
	)
}

// burnLambda builds the instruction sequence a generic multisig executes to
// burn amount of token_id via contract_address's %burn entrypoint.
func burnLambda(contractAddress string, amount *big.Int, tokenID int64) micheline.Sequence {
	burnType := micheline.TList(micheline.TPair(micheline.TNat(), micheline.TNat()))
	return micheline.DSeq(
		micheline.IDrop(),
		micheline.INil(micheline.TOperation()),
		micheline.IPush(micheline.TAddress(), micheline.DString(contractAddress+"%burn")),
		micheline.IContract(burnType),
		micheline.DSeq(micheline.IIfNone(
			micheline.DSeq(micheline.IUnit(), micheline.IFailWith()),
			micheline.DSeq(),
		)),
		micheline.IPush(micheline.TMutez(), micheline.NewInt(0)),
		micheline.INil(micheline.TPair(micheline.TNat(), micheline.TNat())),
		micheline.IPush(micheline.TNat(), micheline.NewIntFromBig(amount)),
		micheline.IPush(micheline.TNat(), micheline.NewInt(tokenID)),
		micheline.IPair(),
		micheline.ICons(),
		micheline.ITransferTokens(),
		micheline.ICons(),
	)
}

func updateKeyholdersParameters(threshold int64, keyholders []string, signatureMap micheline.Expr) micheline.Expr {
	keys := make(micheline.Sequence, len(keyholders))
	for i, k := range keyholders {
		keys[i] = micheline.DString(k)
	}
	return micheline.DPair(micheline.NewInt(threshold), micheline.DPair(keys, signatureMap))
}
