// Package micheline implements the tagged Micheline AST, its canonical
// packed-byte wire format, and the type-directed pre-pack rewrite used to
// turn Michelson values into the byte strings multisig contracts expect to
// be signed over.
//
// Reference: https://gitlab.com/tezos/tezos/blob/master/src/lib_micheline/micheline.ml
package micheline

import "golang.org/x/xerrors"

// Primitive is a Michelson primitive opcode. The three namespaces below
// (data constructors, types, instructions) share a single byte-wide opcode
// space; every byte maps to at most one name.
type Primitive byte

// Data constructors
const (
	PrimFalse Primitive = 0x03
	PrimElt   Primitive = 0x04
	PrimLeft  Primitive = 0x05
	PrimNone  Primitive = 0x06
	PrimPair  Primitive = 0x07
	PrimRight Primitive = 0x08
	PrimSome  Primitive = 0x09
	PrimTrue  Primitive = 0x0a
	PrimUnit  Primitive = 0x0b
)

// Types
const (
	TypeParameter Primitive = 0x00
	TypeStorage   Primitive = 0x01
	TypeCode      Primitive = 0x02
	TypeBool      Primitive = 0x59
	TypeContract  Primitive = 0x5a
	TypeInt       Primitive = 0x5b
	TypeKey       Primitive = 0x5c
	TypeKeyHash   Primitive = 0x5d
	TypeLambda    Primitive = 0x5e
	TypeList      Primitive = 0x5f
	TypeMap       Primitive = 0x60
	TypeBigMap    Primitive = 0x61
	TypeNat       Primitive = 0x62
	TypeOption    Primitive = 0x63
	TypeOr        Primitive = 0x64
	TypePair      Primitive = 0x65
	TypeSet       Primitive = 0x66
	TypeSignature Primitive = 0x67
	TypeString    Primitive = 0x68
	TypeBytes     Primitive = 0x69
	TypeMutez     Primitive = 0x6a
	TypeTimestamp Primitive = 0x6b
	TypeUnit      Primitive = 0x6c
	TypeOperation Primitive = 0x6d
	TypeAddress   Primitive = 0x6e
	TypeChainID   Primitive = 0x74
)

// Instructions
const (
	InstrPack           Primitive = 0x0c
	InstrUnpack         Primitive = 0x0d
	InstrBlake2b        Primitive = 0x0e
	InstrSha256         Primitive = 0x0f
	InstrSha512         Primitive = 0x10
	InstrAbs            Primitive = 0x11
	InstrAdd            Primitive = 0x12
	InstrAmount         Primitive = 0x13
	InstrAnd            Primitive = 0x14
	InstrBalance        Primitive = 0x15
	InstrCar            Primitive = 0x16
	InstrCdr            Primitive = 0x17
	InstrCheckSignature Primitive = 0x18
	InstrCompare        Primitive = 0x19
	InstrConcat         Primitive = 0x1a
	InstrCons           Primitive = 0x1b
	InstrCreateAccount  Primitive = 0x1c
	InstrCreateContract Primitive = 0x1d
	InstrImplicitAccnt  Primitive = 0x1e
	InstrDip            Primitive = 0x1f
	InstrDrop           Primitive = 0x20
	InstrDup            Primitive = 0x21
	InstrEdiv           Primitive = 0x22
	InstrEmptyMap       Primitive = 0x23
	InstrEmptySet       Primitive = 0x24
	InstrEq             Primitive = 0x25
	InstrExec           Primitive = 0x26
	InstrFailWith       Primitive = 0x27
	InstrGe             Primitive = 0x28
	InstrGet            Primitive = 0x29
	InstrGt             Primitive = 0x2a
	InstrHashKey        Primitive = 0x2b
	InstrIf             Primitive = 0x2c
	InstrIfCons         Primitive = 0x2d
	InstrIfLeft         Primitive = 0x2e
	InstrIfNone         Primitive = 0x2f
	InstrInt            Primitive = 0x30
	InstrLambda         Primitive = 0x31
	InstrLe             Primitive = 0x32
	InstrLeft           Primitive = 0x33
	InstrLoop           Primitive = 0x34
	InstrLsl            Primitive = 0x35
	InstrLsr            Primitive = 0x36
	InstrLt             Primitive = 0x37
	InstrMap            Primitive = 0x38
	InstrMem            Primitive = 0x39
	InstrMul            Primitive = 0x3a
	InstrNeg            Primitive = 0x3b
	InstrNeq            Primitive = 0x3c
	InstrNil            Primitive = 0x3d
	InstrNone           Primitive = 0x3e
	InstrNot            Primitive = 0x3f
	InstrNow            Primitive = 0x40
	InstrOr             Primitive = 0x41
	InstrPair           Primitive = 0x42
	InstrPush           Primitive = 0x43
	InstrRight          Primitive = 0x44
	InstrSize           Primitive = 0x45
	InstrSome           Primitive = 0x46
	InstrSource         Primitive = 0x47
	InstrSender         Primitive = 0x48
	InstrSelf           Primitive = 0x49
	InstrStepsToQuota   Primitive = 0x4a
	InstrSub            Primitive = 0x4b
	InstrSwap           Primitive = 0x4c
	InstrTransferTokens Primitive = 0x4d
	InstrSetDelegate    Primitive = 0x4e
	InstrUnit           Primitive = 0x4f
	InstrUpdate         Primitive = 0x50
	InstrXor            Primitive = 0x51
	InstrIter           Primitive = 0x52
	InstrLoopLeft       Primitive = 0x53
	InstrAddress        Primitive = 0x54
	InstrContract       Primitive = 0x55
	InstrIsNat          Primitive = 0x56
	InstrCast           Primitive = 0x57
	InstrRename         Primitive = 0x58
	InstrSlice          Primitive = 0x6f
	InstrDig            Primitive = 0x70
	InstrDug            Primitive = 0x71
	InstrEmptyBigMap    Primitive = 0x72
	InstrApply          Primitive = 0x73
	InstrChainID        Primitive = 0x75
)

var primitiveNames = map[Primitive]string{
	PrimFalse: "False", PrimElt: "Elt", PrimLeft: "Left", PrimNone: "None",
	PrimPair: "Pair", PrimRight: "Right", PrimSome: "Some", PrimTrue: "True", PrimUnit: "Unit",

	TypeParameter: "parameter", TypeStorage: "storage", TypeCode: "code",
	TypeBool: "bool", TypeContract: "contract", TypeInt: "int", TypeKey: "key",
	TypeKeyHash: "key_hash", TypeLambda: "lambda", TypeList: "list", TypeMap: "map",
	TypeBigMap: "big_map", TypeNat: "nat", TypeOption: "option", TypeOr: "or",
	TypePair: "pair", TypeSet: "set", TypeSignature: "signature", TypeString: "string",
	TypeBytes: "bytes", TypeMutez: "mutez", TypeTimestamp: "timestamp", TypeUnit: "unit",
	TypeOperation: "operation", TypeAddress: "address", TypeChainID: "chain_id",

	InstrPack: "PACK", InstrUnpack: "UNPACK", InstrBlake2b: "BLAKE2B", InstrSha256: "SHA256",
	InstrSha512: "SHA512", InstrAbs: "ABS", InstrAdd: "ADD", InstrAmount: "AMOUNT",
	InstrAnd: "AND", InstrBalance: "BALANCE", InstrCar: "CAR", InstrCdr: "CDR",
	InstrCheckSignature: "CHECK_SIGNATURE", InstrCompare: "COMPARE", InstrConcat: "CONCAT",
	InstrCons: "CONS", InstrCreateAccount: "CREATE_ACCOUNT", InstrCreateContract: "CREATE_CONTRACT",
	InstrImplicitAccnt: "IMPLICIT_ACCOUNT", InstrDip: "DIP", InstrDrop: "DROP", InstrDup: "DUP",
	InstrEdiv: "EDIV", InstrEmptyMap: "EMPTY_MAP", InstrEmptySet: "EMPTY_SET", InstrEq: "EQ",
	InstrExec: "EXEC", InstrFailWith: "FAILWITH", InstrGe: "GE", InstrGet: "GET", InstrGt: "GT",
	InstrHashKey: "HASH_KEY", InstrIf: "IF", InstrIfCons: "IF_CONS", InstrIfLeft: "IF_LEFT",
	InstrIfNone: "IF_NONE", InstrInt: "INT", InstrLambda: "LAMBDA", InstrLe: "LE",
	InstrLeft: "LEFT", InstrLoop: "LOOP", InstrLsl: "LSL", InstrLsr: "LSR", InstrLt: "LT",
	InstrMap: "MAP", InstrMem: "MEM", InstrMul: "MUL", InstrNeg: "NEG", InstrNeq: "NEQ",
	InstrNil: "NIL", InstrNone: "NONE", InstrNot: "NOT", InstrNow: "NOW", InstrOr: "OR",
	InstrPair: "PAIR", InstrPush: "PUSH", InstrRight: "RIGHT", InstrSize: "SIZE",
	InstrSome: "SOME", InstrSource: "SOURCE", InstrSender: "SENDER", InstrSelf: "SELF",
	InstrStepsToQuota: "STEPS_TO_QUOTA", InstrSub: "SUB", InstrSwap: "SWAP",
	InstrTransferTokens: "TRANSFER_TOKENS", InstrSetDelegate: "SET_DELEGATE", InstrUnit: "UNIT",
	InstrUpdate: "UPDATE", InstrXor: "XOR", InstrIter: "ITER", InstrLoopLeft: "LOOP_LEFT",
	InstrAddress: "ADDRESS", InstrContract: "CONTRACT", InstrIsNat: "ISNAT", InstrCast: "CAST",
	InstrRename: "RENAME", InstrSlice: "SLICE", InstrDig: "DIG", InstrDug: "DUG",
	InstrEmptyBigMap: "EMPTY_BIG_MAP", InstrApply: "APPLY", InstrChainID: "CHAIN_ID",
}

// String returns the Michelson display name of the primitive, or a numeric
// placeholder if the opcode is unrecognized.
func (p Primitive) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return xerrors.Errorf("unknown primitive opcode %#x", byte(p)).Error()
}

var primitivesByName map[string]Primitive

func init() {
	primitivesByName = make(map[string]Primitive, len(primitiveNames))
	for code, name := range primitiveNames {
		primitivesByName[name] = code
	}
}

// PrimitiveByName reverse-looks-up a Primitive from its Michelson display
// name, e.g. "Pair" -> PrimPair, "pair" -> TypePair, "PAIR" -> InstrPair.
// Used when decoding JSON-Micheline node RPC responses, which carry prim
// names rather than opcodes.
func PrimitiveByName(name string) (Primitive, bool) {
	p, ok := primitivesByName[name]
	return p, ok
}

// isData reports whether p belongs to the data-constructor namespace.
func (p Primitive) isData() bool {
	switch p {
	case PrimFalse, PrimElt, PrimLeft, PrimNone, PrimPair, PrimRight, PrimSome, PrimTrue, PrimUnit:
		return true
	default:
		return false
	}
}

func (p Primitive) isType() bool {
	switch p {
	case TypeParameter, TypeStorage, TypeCode, TypeBool, TypeContract, TypeInt, TypeKey,
		TypeKeyHash, TypeLambda, TypeList, TypeMap, TypeBigMap, TypeNat, TypeOption, TypeOr,
		TypePair, TypeSet, TypeSignature, TypeString, TypeBytes, TypeMutez, TypeTimestamp,
		TypeUnit, TypeOperation, TypeAddress, TypeChainID:
		return true
	default:
		return false
	}
}
