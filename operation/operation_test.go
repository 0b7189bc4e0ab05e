// These cases exercise end-to-end scenarios (mint proposal plus two
// approvals reaching threshold, duplicate approval rejection, nonce
// compaction on delete) against the real micheline/multisig/tezos stack,
// with only the store repositories and node RPC faked.
package operation

import (
	"bytes"
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/airgap-it/tz-wrapped-backend/apierr"
	"github.com/airgap-it/tz-wrapped-backend/micheline"
	"github.com/airgap-it/tz-wrapped-backend/multisig"
	"github.com/airgap-it/tz-wrapped-backend/store"
	"github.com/airgap-it/tz-wrapped-backend/tezos"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

const testMultisigKT1 = "KT1Q6hx3bJayhQYfMDL1z2ugd7GXGckVAV82"
const testTargetTz1 = "tz1KqTpEZ7Yob7QbPE4Hy4Wo8fHG8LhKxZSx"

// testSigner is a full ed25519 keypair usable both as a gatekeeper and a
// keyholder in these tests.
type testSigner struct {
	priv ed25519.PrivateKey
	pub  tezos.PublicKey
}

func newTestSigner(t *testing.T, seed byte) testSigner {
	t.Helper()
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, 32))
	pub, err := tezos.NewEd25519PublicKey(priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	return testSigner{priv: priv, pub: pub}
}

func (s testSigner) sign(t *testing.T, digest []byte) string {
	t.Helper()
	raw := ed25519.Sign(s.priv, digest)
	sig, err := tezos.Base58CheckEncode(tezos.PrefixEdsig, raw)
	require.NoError(t, err)
	return sig
}

// fakeNode is a minimal multisig.NodeClient double: a fixed storage
// expression, mutable across a test run via a pointer so Delete can
// observe an advanced on-chain nonce.
type fakeNode struct {
	nonce         int64
	minSignatures int64
	approvers     []tezos.PublicKey

	// wrappedCall is one sample rendering of the specific driver's wrapped
	// call tree (Left(Pair(call, contract_address))) for whichever kind a
	// given test exercises; MainParameterSchema mirrors its shape into a
	// type tree so SignableMessage's pack step has something structurally
	// consistent to pack against.
	wrappedCall micheline.Expr
}

func (f *fakeNode) storage() micheline.Expr {
	keys := make(micheline.Sequence, len(f.approvers))
	for i, a := range f.approvers {
		raw, err := a.MarshalBinary()
		if err != nil {
			panic(err)
		}
		keys[i] = micheline.Bytes(raw)
	}
	return micheline.DPair(micheline.NewInt(f.nonce), micheline.DPair(micheline.NewInt(f.minSignatures), micheline.Expr(keys)))
}

func (f *fakeNode) ChainID(ctx context.Context) (string, error) { return "NetXdQprcVkpaWU", nil }
func (f *fakeNode) MainParameterSchema(ctx context.Context, address string) (micheline.Expr, error) {
	inner := mirrorSchema(micheline.DPair(micheline.NewInt(0), f.wrappedCall))
	return micheline.TPair(inner, micheline.TUnit()), nil
}
func (f *fakeNode) StorageNormalized(ctx context.Context, address string) (micheline.Expr, error) {
	return f.storage(), nil
}

var _ multisig.NodeClient = (*fakeNode)(nil)

// mirrorSchema builds a type tree with the same shape as e: Pair/Left/
// Right/Some/None nodes become their matching type constructor, and
// literal leaves become the corresponding primitive type. It exists only
// to give the pack engine a structurally consistent schema to pack test
// data against; it does not attempt to reproduce the real on-chain
// Michelson types for these contracts.
func mirrorSchema(e micheline.Expr) micheline.Expr {
	switch v := e.(type) {
	case micheline.Prim:
		switch v.Code {
		case micheline.PrimPair:
			return micheline.TPair(mirrorSchema(v.Args[0]), mirrorSchema(v.Args[1]))
		case micheline.PrimLeft:
			return micheline.TOr(mirrorSchema(v.Args[0]), micheline.TUnit())
		case micheline.PrimRight:
			return micheline.TOr(micheline.TUnit(), mirrorSchema(v.Args[0]))
		case micheline.PrimSome:
			return micheline.TOption(mirrorSchema(v.Args[0]))
		case micheline.PrimNone:
			return micheline.TOption(micheline.TUnit())
		}
		return micheline.TUnit()
	case micheline.String:
		return micheline.TString()
	case micheline.Int:
		return micheline.TInt()
	case micheline.Bytes:
		return micheline.TBytes()
	case micheline.Sequence:
		if len(v) == 0 {
			return micheline.TList(micheline.TUnit())
		}
		return micheline.TList(mirrorSchema(v[0]))
	default:
		return micheline.TUnit()
	}
}

// wrapCall reproduces the specific driver's Left(Pair(call, address))
// wrapping for every kind but UpdateKeyholders (specific.go's wrap
// helper), so mirrorSchema has the exact same skeleton as the call this
// test's params will actually produce.
func wrapCall(call micheline.Expr, contractPKH string) micheline.Expr {
	return micheline.DLeft(micheline.DPair(call, micheline.DString(contractPKH)))
}

func mintCall(target string, amount int64) micheline.Expr {
	return micheline.DRight(micheline.DLeft(micheline.DLeft(micheline.DLeft(
		micheline.DPair(micheline.DString(target), micheline.DInt(amount))))))
}

func burnCall(amount int64) micheline.Expr {
	return micheline.DRight(micheline.DLeft(micheline.DLeft(micheline.DRight(micheline.DInt(amount)))))
}

// memStore is an in-memory implementation of every store repository the
// operation.Service needs, good enough to exercise the state machine
// without a real database.
type memStore struct {
	contracts  map[string]*store.Contract
	users      map[string]*store.User
	requests   map[string]*store.OperationRequest
	approvals  []*store.OperationApproval
	proposed   map[string][]string
	nextReqID  int
	nextApprID int
}

func newMemStore() *memStore {
	return &memStore{
		contracts: map[string]*store.Contract{},
		users:     map[string]*store.User{},
		requests:  map[string]*store.OperationRequest{},
		proposed:  map[string][]string{},
	}
}

func (m *memStore) Get(ctx context.Context, id string) (*store.Contract, error) {
	c, ok := m.contracts[id]
	if !ok {
		return nil, apierr.Wrap(apierr.ErrNotFound, "contract %s", id)
	}
	return c, nil
}
func (m *memStore) List(ctx context.Context) ([]store.Contract, error) { return nil, nil }
func (m *memStore) Capabilities(ctx context.Context, contractID string) ([]store.Capability, error) {
	return nil, nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (*store.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apierr.Wrap(apierr.ErrNotFound, "user %s", id)
	}
	return u, nil
}
func (m *memStore) ListByContract(ctx context.Context, contractID string, address string) ([]store.User, error) {
	var out []store.User
	for _, u := range m.users {
		if u.ContractID != contractID {
			continue
		}
		if address != "" && u.Address != address {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) Create(ctx context.Context, req *store.OperationRequest) error {
	m.nextReqID++
	req.ID = itoa(m.nextReqID)
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}
func (m *memStore) GetRequest(ctx context.Context, id string) (*store.OperationRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, apierr.Wrap(apierr.ErrNotFound, "operation request %s", id)
	}
	cp := *r
	return &cp, nil
}
func (m *memStore) ListByContractRequests(ctx context.Context, contractID string) ([]store.OperationRequest, error) {
	var out []store.OperationRequest
	for _, r := range m.requests {
		if r.ContractID == contractID {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (m *memStore) MaxNonce(ctx context.Context, contractID string) (int64, error) {
	max := int64(-1)
	for _, r := range m.requests {
		if r.ContractID == contractID && r.Nonce > max {
			max = r.Nonce
		}
	}
	return max, nil
}
func (m *memStore) UpdateState(ctx context.Context, id string, state store.OperationRequestState, operationHash *string) error {
	r, ok := m.requests[id]
	if !ok {
		return apierr.Wrap(apierr.ErrNotFound, "operation request %s", id)
	}
	r.State = state
	r.OperationHash = operationHash
	return nil
}
func (m *memStore) DeleteRequest(ctx context.Context, id string) error {
	if _, ok := m.requests[id]; !ok {
		return apierr.Wrap(apierr.ErrNotFound, "operation request %s", id)
	}
	delete(m.requests, id)
	return nil
}
func (m *memStore) CompactNoncesAbove(ctx context.Context, contractID string, deletedNonce int64) error {
	for _, r := range m.requests {
		if r.ContractID == contractID && r.Nonce > deletedNonce {
			r.Nonce--
		}
	}
	return nil
}

func (m *memStore) CreateApproval(ctx context.Context, approval *store.OperationApproval) error {
	m.nextApprID++
	approval.ID = itoa(m.nextApprID)
	m.approvals = append(m.approvals, approval)
	return nil
}
func (m *memStore) CountForRequest(ctx context.Context, requestID string) (int64, error) {
	var n int64
	for _, a := range m.approvals {
		if a.OperationRequestID == requestID {
			n++
		}
	}
	return n, nil
}
func (m *memStore) HasApproved(ctx context.Context, requestID, keyholderID string) (bool, error) {
	for _, a := range m.approvals {
		if a.OperationRequestID == requestID && a.KeyholderID == keyholderID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) LinkUsers(ctx context.Context, requestID string, userIDs []string) error {
	m.proposed[requestID] = userIDs
	return nil
}
func (m *memStore) PublicKeysForRequest(ctx context.Context, requestID string) ([]string, error) {
	var out []string
	for _, uid := range m.proposed[requestID] {
		out = append(out, m.users[uid].PublicKey)
	}
	return out, nil
}

// repository adapter shims: memStore implements every method the
// Repository interfaces need, but Go interfaces are structural only up to
// identical method names, and store.ContractRepository/UserRepository/etc
// each expect distinctly named Get methods. These thin wrappers select the
// right memStore method per interface.
type contractRepo struct{ *memStore }
type userRepo struct{ *memStore }
type requestRepo struct{ *memStore }
type approvalRepo struct{ *memStore }
type proposedUserRepo struct{ *memStore }

func (r userRepo) Get(ctx context.Context, id string) (*store.User, error) { return r.GetUser(ctx, id) }
func (r requestRepo) Get(ctx context.Context, id string) (*store.OperationRequest, error) {
	return r.GetRequest(ctx, id)
}
func (r requestRepo) ListByContract(ctx context.Context, contractID string) ([]store.OperationRequest, error) {
	return r.ListByContractRequests(ctx, contractID)
}
func (r requestRepo) Delete(ctx context.Context, id string) error { return r.DeleteRequest(ctx, id) }
func (r approvalRepo) Create(ctx context.Context, approval *store.OperationApproval) error {
	return r.CreateApproval(ctx, approval)
}

var (
	_ store.ContractRepository          = contractRepo{}
	_ store.UserRepository              = userRepo{}
	_ store.OperationRequestRepository  = requestRepo{}
	_ store.OperationApprovalRepository = approvalRepo{}
	_ store.ProposedUserRepository      = proposedUserRepo{}
)

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}

func newTestService(t *testing.T, contract *store.Contract, node multisig.NodeClient, users ...*store.User) (*Service, *memStore) {
	t.Helper()
	ms := newMemStore()
	ms.contracts[contract.ID] = contract
	for _, u := range users {
		ms.users[u.ID] = u
	}
	svc := &Service{
		Contracts:     contractRepo{ms},
		Users:         userRepo{ms},
		Requests:      requestRepo{ms},
		Approvals:     approvalRepo{ms},
		ProposedUsers: proposedUserRepo{ms},
		NodeClient:    node,
		Now:           func() time.Time { return time.Unix(1700000000, 0) },
	}
	return svc, ms
}

func TestProposeApproveReachesThreshold(t *testing.T) {
	gatekeeper := newTestSigner(t, 1)
	kh1 := newTestSigner(t, 2)
	kh2 := newTestSigner(t, 3)

	node := &fakeNode{
		nonce: 0, minSignatures: 2, approvers: []tezos.PublicKey{kh1.pub, kh2.pub},
		wrappedCall: wrapCall(mintCall(testTargetTz1, 1000), testMultisigKT1),
	}
	contract := &store.Contract{ID: "c1", PKH: testMultisigKT1, MultisigPKH: testMultisigKT1, Kind: multisig.ContractKindFA1}
	gkUser := &store.User{ID: "gk1", ContractID: "c1", Kind: store.UserKindGatekeeper, State: store.UserStateActive, PublicKey: string(gatekeeper.pub)}
	kh1User := &store.User{ID: "kh1", ContractID: "c1", Kind: store.UserKindKeyholder, State: store.UserStateActive, PublicKey: string(kh1.pub)}
	kh2User := &store.User{ID: "kh2", ContractID: "c1", Kind: store.UserKindKeyholder, State: store.UserStateActive, PublicKey: string(kh2.pub)}
	svc, ms := newTestService(t, contract, node, gkUser, kh1User, kh2User)

	driver := multisig.NewSpecificMultisig(testMultisigKT1, node)
	params := multisig.OperationRequestParams{Kind: multisig.KindMint, TargetAddress: ptr(testTargetTz1), Amount: big.NewInt(1000), ChainID: "NetXdQprcVkpaWU", Nonce: 0}
	msg, err := driver.SignableMessage(context.Background(), multisig.Contract{PKH: testMultisigKT1}, params, nil)
	require.NoError(t, err)
	digest, err := tezos.Blake2b32Hex(msg.PackedData)
	require.NoError(t, err)

	req, err := svc.Propose(context.Background(), ProposeInput{
		GatekeeperID:  "gk1",
		ContractID:    "c1",
		Kind:          multisig.KindMint,
		TargetAddress: ptr(testTargetTz1),
		Amount:        big.NewInt(1000),
		ChainID:       "NetXdQprcVkpaWU",
		Nonce:         0,
		Signature:     gatekeeper.sign(t, digest),
	})
	require.NoError(t, err)
	require.Equal(t, store.OperationRequestStateOpen, req.State)
	require.Equal(t, "gk1", req.GatekeeperID)

	_, err = svc.Approve(context.Background(), req.ID, "kh1", kh1.sign(t, digest))
	require.NoError(t, err)
	got, err := ms.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Equal(t, store.OperationRequestStateOpen, got.State, "only one of two approvals: must stay Open")

	approved, err := svc.Approve(context.Background(), req.ID, "kh2", kh2.sign(t, digest))
	require.NoError(t, err)
	require.Equal(t, store.OperationRequestStateApproved, approved.State)

	hash := makeOperationHash(t)
	injected, err := svc.Inject(context.Background(), req.ID, hash)
	require.NoError(t, err)
	require.Equal(t, store.OperationRequestStateInjected, injected.State)
	require.Equal(t, hash, *injected.OperationHash)
}

func TestApproveRejectsDuplicate(t *testing.T) {
	gatekeeper := newTestSigner(t, 1)
	kh1 := newTestSigner(t, 2)

	node := &fakeNode{
		nonce: 0, minSignatures: 2, approvers: []tezos.PublicKey{kh1.pub},
		wrappedCall: wrapCall(burnCall(500), testMultisigKT1),
	}
	contract := &store.Contract{ID: "c1", PKH: testMultisigKT1, MultisigPKH: testMultisigKT1, Kind: multisig.ContractKindFA1}
	gkUser := &store.User{ID: "gk1", ContractID: "c1", Kind: store.UserKindGatekeeper, State: store.UserStateActive, PublicKey: string(gatekeeper.pub)}
	kh1User := &store.User{ID: "kh1", ContractID: "c1", Kind: store.UserKindKeyholder, State: store.UserStateActive, PublicKey: string(kh1.pub)}
	svc, _ := newTestService(t, contract, node, gkUser, kh1User)

	driver := multisig.NewSpecificMultisig(testMultisigKT1, node)
	params := multisig.OperationRequestParams{Kind: multisig.KindBurn, Amount: big.NewInt(500), ChainID: "NetXdQprcVkpaWU", Nonce: 0}
	msg, err := driver.SignableMessage(context.Background(), multisig.Contract{PKH: testMultisigKT1}, params, nil)
	require.NoError(t, err)
	digest, err := tezos.Blake2b32Hex(msg.PackedData)
	require.NoError(t, err)

	req, err := svc.Propose(context.Background(), ProposeInput{
		GatekeeperID: "gk1",
		ContractID:   "c1",
		Kind:         multisig.KindBurn,
		Amount:       big.NewInt(500),
		ChainID:      "NetXdQprcVkpaWU",
		Nonce:        0,
		Signature:    gatekeeper.sign(t, digest),
	})
	require.NoError(t, err)

	sig := kh1.sign(t, digest)
	_, err = svc.Approve(context.Background(), req.ID, "kh1", sig)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, "kh1", sig)
	require.Error(t, err, "a second approval from the same keyholder must be rejected")
}

func TestDeleteCompactsLaterNonces(t *testing.T) {
	gatekeeper := newTestSigner(t, 1)
	node := &fakeNode{
		nonce: 0, minSignatures: 1, approvers: []tezos.PublicKey{gatekeeper.pub},
		wrappedCall: wrapCall(burnCall(1), testMultisigKT1),
	}
	contract := &store.Contract{ID: "c1", PKH: testMultisigKT1, MultisigPKH: testMultisigKT1, Kind: multisig.ContractKindFA1}
	gkUser := &store.User{ID: "gk1", ContractID: "c1", Kind: store.UserKindGatekeeper, State: store.UserStateActive, PublicKey: string(gatekeeper.pub)}
	svc, ms := newTestService(t, contract, node, gkUser)

	driver := multisig.NewSpecificMultisig(testMultisigKT1, node)
	sign := func(nonce int64) (multisig.OperationRequestParams, string) {
		p := multisig.OperationRequestParams{Kind: multisig.KindBurn, Amount: big.NewInt(1), ChainID: "NetXdQprcVkpaWU", Nonce: nonce}
		msg, err := driver.SignableMessage(context.Background(), multisig.Contract{PKH: testMultisigKT1}, p, nil)
		require.NoError(t, err)
		digest, err := tezos.Blake2b32Hex(msg.PackedData)
		require.NoError(t, err)
		return p, gatekeeper.sign(t, digest)
	}

	_, sig0 := sign(0)
	req0, err := svc.Propose(context.Background(), ProposeInput{GatekeeperID: "gk1", ContractID: "c1", Kind: multisig.KindBurn, Amount: big.NewInt(1), ChainID: "NetXdQprcVkpaWU", Nonce: 0, Signature: sig0})
	require.NoError(t, err)

	_, sig1 := sign(1)
	req1, err := svc.Propose(context.Background(), ProposeInput{GatekeeperID: "gk1", ContractID: "c1", Kind: multisig.KindBurn, Amount: big.NewInt(1), ChainID: "NetXdQprcVkpaWU", Nonce: 1, Signature: sig1})
	require.NoError(t, err)

	_, sig2 := sign(2)
	req2, err := svc.Propose(context.Background(), ProposeInput{GatekeeperID: "gk1", ContractID: "c1", Kind: multisig.KindBurn, Amount: big.NewInt(1), ChainID: "NetXdQprcVkpaWU", Nonce: 2, Signature: sig2})
	require.NoError(t, err)

	// on-chain nonce (0) has not advanced past req0's nonce (0): deleting
	// req0 must decrement req1 and req2's nonces by one.
	require.NoError(t, svc.Delete(context.Background(), req0.ID, "gk1"))

	got1, err := ms.GetRequest(context.Background(), req1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), got1.Nonce)

	got2, err := ms.GetRequest(context.Background(), req2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got2.Nonce)
}

func ptr(s string) *string { return &s }

func makeOperationHash(t *testing.T) string {
	t.Helper()
	h, err := tezos.Base58CheckEncode(tezos.PrefixOperation, bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return h
}
