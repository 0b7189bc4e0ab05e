// Package multisig drives the two on-chain multisig contract variants
// (a legacy "specific" FA1 contract and a generic lambda-accepting FA2
// contract) from one operation vocabulary: build the Micheline message an
// approver signs, and assemble the contract-call parameters from collected
// signatures.
package multisig

import (
	"context"
	"math/big"

	"github.com/airgap-it/tz-wrapped-backend/micheline"
)

// Contract is the subset of a contract's configuration the drivers need to
// render a call: its own address (pkh) and, for FA2 token contracts, the
// token id a mint/burn applies to.
type Contract struct {
	PKH     string
	TokenID int64
}

// OperationRequestParams is the kind-polymorphic payload of a proposed
// operation. Which fields are required is dictated by Kind; see validate.
type OperationRequestParams struct {
	TargetAddress *string
	Amount        *big.Int
	Threshold     *int64
	Kind          OperationRequestKind
	ChainID       string
	Nonce         int64
}

// Signature pairs an approver's public key with its base58check signature
// over a SignableMessage's digest.
type Signature struct {
	PublicKey string
	Value     string
}

// Parameters is a ready-to-inject contract call: an entrypoint name and the
// Michelson value to pass it.
type Parameters struct {
	Entrypoint string
	Value      micheline.Expr
}

// SignableMessage is the Micheline rendering of an operation request
// together with the canonical packed bytes an approver signs.
type SignableMessage struct {
	PackedData    string
	MichelsonData micheline.Expr
	MichelsonType micheline.Expr
}

// Driver is the capability surface both multisig variants expose. A driver
// is constructed per operation and held only for the duration of one
// request; its storage cache must not outlive that scope. All node access
// goes through the injected NodeClient, which carries its own endpoint.
type Driver interface {
	Address() string

	Nonce(ctx context.Context) (int64, error)
	MinSignatures(ctx context.Context) (int64, error)
	Approvers(ctx context.Context) ([]string, error)

	SignableMessage(ctx context.Context, contract Contract, params OperationRequestParams, proposedKeyholders []string) (SignableMessage, error)
	TransactionParameters(ctx context.Context, contract Contract, params OperationRequestParams, proposedKeyholders []string, signatures []Signature) (Parameters, error)
}

// NodeClient is the read-only RPC surface the drivers need from a Tezos
// node. It is satisfied by the node package's HTTP implementation and by
// test fakes.
type NodeClient interface {
	ChainID(ctx context.Context) (string, error)
	MainParameterSchema(ctx context.Context, address string) (micheline.Expr, error)
	StorageNormalized(ctx context.Context, address string) (micheline.Expr, error)
}

// GetMultisig constructs the driver variant for kind, the way the service
// layer does it: dispatch once, up front, on the contract's persisted kind.
func GetMultisig(kind ContractKind, address string, client NodeClient) Driver {
	switch kind {
	case ContractKindFA2:
		return NewGenericMultisig(address, client)
	default:
		return NewSpecificMultisig(address, client)
	}
}

func validate(params OperationRequestParams, proposedKeyholders []string) error {
	if params.Amount == nil && (params.Kind == KindMint || params.Kind == KindBurn) {
		return micheline.InvalidValue("amount is required for mint and burn operation requests")
	}
	if params.TargetAddress == nil && params.Kind == KindMint {
		return micheline.InvalidValue("target_address is required for mint operation requests")
	}
	if params.Threshold == nil && params.Kind == KindUpdateKeyholders {
		return micheline.InvalidValue("threshold is required for update keyholders operation requests")
	}
	if proposedKeyholders == nil && params.Kind == KindUpdateKeyholders {
		return micheline.InvalidValue("no keyholders provided for update keyholders operation request")
	}
	return nil
}
