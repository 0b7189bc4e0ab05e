package micheline

// Convenience constructors for the Micheline type and data trees the pack
// engine and the multisig drivers build by hand. These mirror the shape of
// the generated Michelson source rather than any particular contract.

// Type constructors.

func TPair(left, right Expr) Prim { return NewPrim(TypePair, left, right) }
func TOption(inner Expr) Prim { return NewPrim(TypeOption, inner) }
func TList(elem Expr) Prim { return NewPrim(TypeList, elem) }
func TSet(elem Expr) Prim { return NewPrim(TypeSet, elem) }
func TMap(key, value Expr) Prim { return NewPrim(TypeMap, key, value) }
func TBigMap(key, value Expr) Prim { return NewPrim(TypeBigMap, key, value) }
func TOr(left, right Expr) Prim { return NewPrim(TypeOr, left, right) }
func TLambda(in, out Expr) Prim { return NewPrim(TypeLambda, in, out) }
func TString() Prim { return NewPrim(TypeString) }
func TInt() Prim { return NewPrim(TypeInt) }
func TNat() Prim { return NewPrim(TypeNat) }
func TMutez() Prim { return NewPrim(TypeMutez) }
func TBytes() Prim { return NewPrim(TypeBytes) }
func TBool() Prim { return NewPrim(TypeBool) }
func TUnit() Prim { return NewPrim(TypeUnit) }
func TAddress() Prim { return NewPrim(TypeAddress) }
func TContract(param Expr) Prim { return NewPrim(TypeContract, param) }
func TKey() Prim { return NewPrim(TypeKey) }
func TKeyHash() Prim { return NewPrim(TypeKeyHash) }
func TSignature() Prim { return NewPrim(TypeSignature) }
func TChainID() Prim { return NewPrim(TypeChainID) }
func TTimestamp() Prim { return NewPrim(TypeTimestamp) }
func TOperation() Prim { return NewPrim(TypeOperation) }

// Data constructors.

func DPair(left, right Expr) Prim { return NewPrim(PrimPair, left, right) }
func DSome(inner Expr) Prim { return NewPrim(PrimSome, inner) }
func DNone() Prim { return NewPrim(PrimNone) }
func DLeft(inner Expr) Prim { return NewPrim(PrimLeft, inner) }
func DRight(inner Expr) Prim { return NewPrim(PrimRight, inner) }
func DUnit() Prim { return NewPrim(PrimUnit) }
func DTrue() Prim { return NewPrim(PrimTrue) }
func DFalse() Prim { return NewPrim(PrimFalse) }
func DElt(key, value Expr) Prim { return NewPrim(PrimElt, key, value) }
func DString(s string) String { return String(s) }
func DInt(v int64) Int { return NewInt(v) }
func DBytes(b []byte) Bytes { return Bytes(b) }
func DSeq(items ...Expr) Sequence { return Sequence(items) }

// Instruction constructors used by the generic multisig's lambda builders.

func IPush(typ, data Expr) Prim { return NewPrim(InstrPush, typ, data) }
func INil(typ Expr) Prim { return NewPrim(InstrNil, typ) }
func ICons() Prim { return NewPrim(InstrCons) }
func ITransferTokens() Prim { return NewPrim(InstrTransferTokens) }
func IContract(param Expr) Prim { return NewPrim(InstrContract, param) }
func IIfNone(whenNone, whenSome Sequence) Prim {
	return NewPrim(InstrIfNone, whenNone, whenSome)
}
func IFailWith() Prim { return NewPrim(InstrFailWith) }
func IUnit() Prim { return NewPrim(InstrUnit) }
func IAmount() Prim { return NewPrim(InstrAmount) }
func IDrop() Prim { return NewPrim(InstrDrop) }
func IPair() Prim { return NewPrim(InstrPair) }
