// Package operation implements the operation request / approval state
// machine: proposal, approval collection, threshold-triggered approval,
// injection, and nonce-compacting deletion. It wires together a
// multisig.Driver (constructed fresh per call) and the store repository
// interfaces; it does not itself touch a database or an HTTP request.
package operation

import (
	"context"
	"math/big"
	"time"

	"github.com/airgap-it/tz-wrapped-backend/apierr"
	"github.com/airgap-it/tz-wrapped-backend/multisig"
	"github.com/airgap-it/tz-wrapped-backend/notify"
	"github.com/airgap-it/tz-wrapped-backend/store"
	"github.com/airgap-it/tz-wrapped-backend/tezos"
)

// Service runs the state machine. A Service is long-lived (constructed
// once at startup) but never holds a multisig.Driver or its storage cache
// across calls: multisig.GetMultisig is invoked fresh inside every method.
type Service struct {
	Contracts     store.ContractRepository
	Users         store.UserRepository
	Requests      store.OperationRequestRepository
	Approvals     store.OperationApprovalRepository
	ProposedUsers store.ProposedUserRepository
	NodeClient    multisig.NodeClient

	// Notifier is best-effort; a nil Notifier silently disables
	// notifications rather than requiring every caller to wire a no-op.
	Notifier notify.Notifier

	// Now is the clock; overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) driverFor(contract *store.Contract) multisig.Driver {
	return multisig.GetMultisig(contract.Kind, contract.MultisigPKH, s.NodeClient)
}

func toDriverParams(req *store.OperationRequest) multisig.OperationRequestParams {
	return multisig.OperationRequestParams{
		TargetAddress: req.TargetAddress,
		Amount:        req.Amount,
		Threshold:     req.Threshold,
		Kind:          req.Kind,
		ChainID:       req.ChainID,
		Nonce:         req.Nonce,
	}
}

// ProposeInput is the gatekeeper-submitted payload for Propose. For
// UpdateKeyholders, ProposedKeyholders carries the proposed set's public
// keys (used to rebuild the signable message) and
// ProposedKeyholderUserIDs the matching store.User ids (persisted via
// store.ProposedUserRepository so a later Approve call can rebuild the
// same message).
type ProposeInput struct {
	GatekeeperID             string
	ContractID               string
	Kind                     multisig.OperationRequestKind
	TargetAddress            *string
	Amount                   *big.Int
	Threshold                *int64
	ProposedKeyholders       []string
	ProposedKeyholderUserIDs []string
	ChainID                  string
	Nonce                    int64
	Signature                string
}

// Propose validates and admits a new Open operation request: it rebuilds
// the canonical signable message for the proposal, verifies the submitted
// signature against every currently-active gatekeeper of the contract
// (the first match identifies the proposer), and accepts the request only
// if its nonce equals the expected next nonce.
func (s *Service) Propose(ctx context.Context, in ProposeInput) (*store.OperationRequest, error) {
	contract, err := s.Contracts.Get(ctx, in.ContractID)
	if err != nil {
		return nil, err
	}
	driver := s.driverFor(contract)

	params := multisig.OperationRequestParams{
		TargetAddress: in.TargetAddress,
		Amount:        in.Amount,
		Threshold:     in.Threshold,
		Kind:          in.Kind,
		ChainID:       in.ChainID,
		Nonce:         in.Nonce,
	}

	msg, err := driver.SignableMessage(ctx, multisig.Contract{PKH: contract.PKH, TokenID: contract.TokenID}, params, in.ProposedKeyholders)
	if err != nil {
		return nil, err
	}
	digest, err := tezos.Blake2b32Hex(msg.PackedData)
	if err != nil {
		return nil, apierr.Wrap(apierr.ErrInternal, "hashing signable message: %s", err)
	}

	users, err := s.Users.ListByContract(ctx, in.ContractID, "")
	if err != nil {
		return nil, err
	}
	proposer, err := resolveSigner(digest, users, store.UserKindGatekeeper, in.Signature)
	if err != nil {
		return nil, err
	}

	expectedNonce, err := s.expectedNextNonce(ctx, driver, in.ContractID)
	if err != nil {
		return nil, err
	}
	if in.Nonce != expectedNonce {
		return nil, apierr.Wrap(apierr.ErrInvalidOperationRequest, "nonce %d does not match expected next nonce %d", in.Nonce, expectedNonce)
	}

	now := s.now()
	req := &store.OperationRequest{
		GatekeeperID:  proposer.ID,
		ContractID:    in.ContractID,
		TargetAddress: in.TargetAddress,
		Amount:        params.Amount,
		Threshold:     in.Threshold,
		Kind:          in.Kind,
		Signature:     in.Signature,
		ChainID:       in.ChainID,
		Nonce:         in.Nonce,
		State:         store.OperationRequestStateOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Requests.Create(ctx, req); err != nil {
		return nil, err
	}
	if in.Kind == multisig.KindUpdateKeyholders {
		if err := s.ProposedUsers.LinkUsers(ctx, req.ID, in.ProposedKeyholderUserIDs); err != nil {
			return nil, err
		}
	}

	if s.Notifier != nil {
		var keyholders []store.User
		for _, u := range users {
			if u.Kind == store.UserKindKeyholder && u.State == store.UserStateActive {
				keyholders = append(keyholders, u)
			}
		}
		s.Notifier.NotifyApprovalNeeded(ctx, req, keyholders)
	}
	return req, nil
}

// expectedNextNonce computes max(on-chain nonce, max persisted nonce for
// this contract + 1).
func (s *Service) expectedNextNonce(ctx context.Context, driver multisig.Driver, contractID string) (int64, error) {
	onChain, err := driver.Nonce(ctx)
	if err != nil {
		return 0, err
	}
	persistedMax, err := s.Requests.MaxNonce(ctx, contractID)
	if err != nil {
		return 0, err
	}
	next := persistedMax + 1
	if onChain > next {
		return onChain, nil
	}
	return next, nil
}

// Approve resolves approverID against the request's contract, verifies its
// signature over the request's current canonical packed message, rejects
// duplicate approvals, and transitions the request to Approved once the
// post-commit approval count meets or exceeds the contract's on-chain
// min_signatures; the transition is derived from the post-commit count,
// never pre-checked.
func (s *Service) Approve(ctx context.Context, requestID, approverID, signature string) (*store.OperationRequest, error) {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State != store.OperationRequestStateOpen {
		return nil, apierr.Wrap(apierr.ErrInvalidOperationState, "request %s is not Open", requestID)
	}

	alreadyApproved, err := s.Approvals.HasApproved(ctx, requestID, approverID)
	if err != nil {
		return nil, err
	}
	if alreadyApproved {
		return nil, apierr.Wrap(apierr.ErrInvalidOperationRequest, "approver %s already approved request %s", approverID, requestID)
	}

	approver, err := s.Users.Get(ctx, approverID)
	if err != nil {
		return nil, err
	}
	if approver.ContractID != req.ContractID || approver.Kind != store.UserKindKeyholder {
		return nil, apierr.Wrap(apierr.ErrForbidden, "%s is not a keyholder of %s", approverID, req.ContractID)
	}

	contract, err := s.Contracts.Get(ctx, req.ContractID)
	if err != nil {
		return nil, err
	}
	driver := s.driverFor(contract)

	var proposedKeyholders []string
	if req.Kind == multisig.KindUpdateKeyholders {
		proposedKeyholders, err = s.ProposedUsers.PublicKeysForRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
	}
	msg, err := driver.SignableMessage(ctx, multisig.Contract{PKH: contract.PKH, TokenID: contract.TokenID}, toDriverParams(req), proposedKeyholders)
	if err != nil {
		return nil, err
	}
	digest, err := tezos.Blake2b32Hex(msg.PackedData)
	if err != nil {
		return nil, apierr.Wrap(apierr.ErrInternal, "hashing signable message: %s", err)
	}

	ok, err := tezos.VerifyDetached(digest, tezos.PublicKey(approver.PublicKey), tezos.Signature(signature))
	if err != nil {
		return nil, apierr.Wrap(apierr.ErrInvalidSignature, "verifying approval signature: %s", err)
	}
	if !ok {
		return nil, apierr.Wrap(apierr.ErrInvalidSignature, "signature does not match approver %s", approverID)
	}

	now := s.now()
	if err := s.Approvals.Create(ctx, &store.OperationApproval{
		KeyholderID:        approverID,
		OperationRequestID: requestID,
		Signature:          signature,
		CreatedAt:          now,
		UpdatedAt:          now,
	}); err != nil {
		return nil, err
	}

	count, err := s.Approvals.CountForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	minSignatures, err := driver.MinSignatures(ctx)
	if err != nil {
		return nil, err
	}
	if count >= minSignatures {
		if err := s.Requests.UpdateState(ctx, requestID, store.OperationRequestStateApproved, nil); err != nil {
			return nil, err
		}
		req.State = store.OperationRequestStateApproved
	}
	return req, nil
}

// Inject marks an Approved request Injected, recording the externally
// supplied operation hash after validating its base58check form.
func (s *Service) Inject(ctx context.Context, requestID, operationHash string) (*store.OperationRequest, error) {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State != store.OperationRequestStateApproved {
		return nil, apierr.Wrap(apierr.ErrInvalidOperationState, "request %s is not Approved", requestID)
	}
	if err := tezos.Validate(operationHash, tezos.PrefixOperation); err != nil {
		return nil, apierr.Wrap(apierr.ErrInvalidValue, "invalid operation hash %q: %s", operationHash, err)
	}
	if err := s.Requests.UpdateState(ctx, requestID, store.OperationRequestStateInjected, &operationHash); err != nil {
		return nil, err
	}
	req.State = store.OperationRequestStateInjected
	req.OperationHash = &operationHash
	if s.Notifier != nil {
		s.Notifier.NotifyInjected(ctx, req)
	}
	return req, nil
}

// Delete removes an Open request. If the driver's on-chain nonce has
// already advanced past the request's nonce, it is removed without
// reshuffling; otherwise every later-nonce request on the same contract is
// decremented by one.
func (s *Service) Delete(ctx context.Context, requestID, actorID string) error {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.State != store.OperationRequestStateOpen {
		return apierr.Wrap(apierr.ErrInvalidOperationState, "request %s is not Open", requestID)
	}

	if err := s.authorizeDelete(ctx, req, actorID); err != nil {
		return err
	}

	contract, err := s.Contracts.Get(ctx, req.ContractID)
	if err != nil {
		return err
	}
	driver := s.driverFor(contract)
	onChainNonce, err := driver.Nonce(ctx)
	if err != nil {
		return err
	}

	if err := s.Requests.Delete(ctx, requestID); err != nil {
		return err
	}
	if onChainNonce > req.Nonce {
		return nil
	}
	return s.Requests.CompactNoncesAbove(ctx, req.ContractID, req.Nonce)
}

func (s *Service) authorizeDelete(ctx context.Context, req *store.OperationRequest, actorID string) error {
	if actorID == req.GatekeeperID {
		return nil
	}
	actor, err := s.Users.Get(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.ContractID == req.ContractID && actor.Kind == store.UserKindKeyholder {
		return nil
	}
	return apierr.Wrap(apierr.ErrForbidden, "%s may not delete request %s", actorID, req.ID)
}

// resolveSigner verifies digest/signature against every user of kind in
// users, in order, and returns the first match; it checks every
// candidate rather than leaking which one matched by short-circuiting.
func resolveSigner(digest []byte, users []store.User, kind store.UserKind, signature string) (*store.User, error) {
	var candidates []tezos.PublicKey
	var filtered []store.User
	for _, u := range users {
		if u.Kind != kind || u.State != store.UserStateActive {
			continue
		}
		candidates = append(candidates, tezos.PublicKey(u.PublicKey))
		filtered = append(filtered, u)
	}
	idx, err := tezos.FindMatchingSigner(digest, candidates, tezos.Signature(signature))
	if err != nil {
		return nil, apierr.Wrap(apierr.ErrInvalidSignature, "no active user of kind %d matches signature: %s", kind, err)
	}
	return &filtered[idx], nil
}
