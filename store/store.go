// Package store declares the repository interfaces the operation package
// is built against. Relational persistence itself is out of scope: no
// SQL driver is wired here, only the entity shapes and access patterns.
package store

import (
	"context"
	"math/big"
	"time"

	"github.com/airgap-it/tz-wrapped-backend/multisig"
)

type UserKind int16

const (
	UserKindGatekeeper UserKind = iota
	UserKindKeyholder
	UserKindAdmin
)

type UserState int16

const (
	UserStateActive UserState = iota
	UserStateInactive
)

type Contract struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PKH         string
	TokenID     int64
	MultisigPKH string
	Kind        multisig.ContractKind
	DisplayName string
	// MinApprovals mirrors the on-chain threshold for display only; the
	// on-chain value read through multisig.Driver.MinSignatures is
	// authoritative.
	MinApprovals int64
	Symbol       string
	Decimals     int64
}

type Capability struct {
	ID                   string
	ContractID           string
	OperationRequestKind multisig.OperationRequestKind
}

type User struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublicKey   string
	Address     string
	ContractID  string
	Kind        UserKind
	State       UserState
	DisplayName string
	Email       *string
}

type OperationRequestState int16

const (
	OperationRequestStateOpen OperationRequestState = iota
	OperationRequestStateApproved
	OperationRequestStateInjected
)

type OperationRequest struct {
	ID            string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	GatekeeperID  string
	ContractID    string
	TargetAddress *string
	Amount        *big.Int
	Threshold     *int64
	Kind          multisig.OperationRequestKind
	Signature     string
	ChainID       string
	Nonce         int64
	State         OperationRequestState
	OperationHash *string
}

type OperationApproval struct {
	ID                 string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	KeyholderID        string
	OperationRequestID string
	Signature          string
}

type AuthChallengeState int16

const (
	AuthChallengeStatePending AuthChallengeState = iota
	AuthChallengeStateCompleted
)

type AuthChallenge struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
	Address   string
	Challenge string
	State     AuthChallengeState
}

type NodeEndpoint struct {
	ID       string
	Name     string
	URL      string
	Network  string
	Selected bool
}

// ProposedUser links an UpdateKeyholders request to one of its proposed
// keyholder users.
type ProposedUser struct {
	ID                 string
	UserID             string
	OperationRequestID string
}

type ContractRepository interface {
	Get(ctx context.Context, id string) (*Contract, error)
	List(ctx context.Context) ([]Contract, error)
	Capabilities(ctx context.Context, contractID string) ([]Capability, error)
}

// UserRepository.ListByContract takes a single optional address filter;
// pass an empty string for no filter.
type UserRepository interface {
	Get(ctx context.Context, id string) (*User, error)
	ListByContract(ctx context.Context, contractID string, address string) ([]User, error)
}

type OperationRequestRepository interface {
	Create(ctx context.Context, req *OperationRequest) error
	Get(ctx context.Context, id string) (*OperationRequest, error)
	ListByContract(ctx context.Context, contractID string) ([]OperationRequest, error)
	MaxNonce(ctx context.Context, contractID string) (int64, error)
	UpdateState(ctx context.Context, id string, state OperationRequestState, operationHash *string) error
	Delete(ctx context.Context, id string) error
	// CompactNoncesAbove decrements by one the nonce of every persisted
	// request on contractID whose nonce is greater than deletedNonce. The
	// implementation must run this alongside the delete in one
	// transaction.
	CompactNoncesAbove(ctx context.Context, contractID string, deletedNonce int64) error
}

// OperationApprovalRepository.Create must reject a second approval from the
// same keyholder on the same request with apierr.ErrInvalidOperationRequest
// (or an equivalent DB uniqueness violation translated to it).
type OperationApprovalRepository interface {
	Create(ctx context.Context, approval *OperationApproval) error
	CountForRequest(ctx context.Context, requestID string) (int64, error)
	HasApproved(ctx context.Context, requestID, keyholderID string) (bool, error)
}

type AuthChallengeRepository interface {
	Create(ctx context.Context, challenge *AuthChallenge) error
	Get(ctx context.Context, id string) (*AuthChallenge, error)
	MarkCompleted(ctx context.Context, id string) error
}

// NodeEndpointRepository.Select must guarantee the process-level
// invariant of exactly one selected=true row.
type NodeEndpointRepository interface {
	List(ctx context.Context) ([]NodeEndpoint, error)
	Selected(ctx context.Context) (*NodeEndpoint, error)
	Select(ctx context.Context, id string) error
}

// ProposedUserRepository links an UpdateKeyholders operation request to
// the set of users proposed as the new keyholder set. LinkUsers records
// the proposal at creation time;
// PublicKeysForRequest resolves it back to the ordered public keys the
// multisig driver needs to rebuild the request's signable message.
type ProposedUserRepository interface {
	LinkUsers(ctx context.Context, requestID string, userIDs []string) error
	PublicKeysForRequest(ctx context.Context, requestID string) ([]string, error)
}
