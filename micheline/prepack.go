package micheline

// prepack is a recursive rewrite of data driven by the outer type of schema.
// It replaces String literals with their domain-specific Bytes/Int encoding
// wherever the schema names a type whose packed form is not its textual
// form (addresses, keys, signatures, chain ids, timestamps), and otherwise
// recurses structurally. It never mutates its input: rewritten nodes are
// freshly built, and nodes it leaves unchanged are returned as they are.
func prepack(data Expr, schema Expr) (Expr, error) {
	schemaPrim, ok := schema.(Prim)
	if !ok {
		return nil, InvalidType("schema must be a type primitive, got %T", schema)
	}

	switch schemaPrim.Code {
	case TypeList, TypeSet:
		if len(schemaPrim.Args) != 1 {
			return nil, InvalidType("%s schema requires exactly one type argument", schemaPrim.Code)
		}
		seq, ok := data.(Sequence)
		if !ok {
			return nil, InvalidType("expected a sequence for %s, got %T", schemaPrim.Code, data)
		}
		elemType := schemaPrim.Args[0]
		out := make(Sequence, len(seq))
		for i, item := range seq {
			rewritten, err := prepack(item, elemType)
			if err != nil {
				return nil, err
			}
			out[i] = rewritten
		}
		return out, nil

	case TypeMap, TypeBigMap:
		if len(schemaPrim.Args) != 2 {
			return nil, InvalidType("%s schema requires exactly two type arguments", schemaPrim.Code)
		}
		seq, ok := data.(Sequence)
		if !ok {
			return nil, InvalidType("expected a sequence of Elt for %s, got %T", schemaPrim.Code, data)
		}
		keyType, valType := schemaPrim.Args[0], schemaPrim.Args[1]
		out := make(Sequence, len(seq))
		for i, item := range seq {
			elt, ok := item.(Prim)
			if !ok || elt.Code != PrimElt || len(elt.Args) != 2 {
				return nil, InvalidType("expected Elt(k, v) inside %s, got %T", schemaPrim.Code, item)
			}
			k, err := prepack(elt.Args[0], keyType)
			if err != nil {
				return nil, err
			}
			v, err := prepack(elt.Args[1], valType)
			if err != nil {
				return nil, err
			}
			out[i] = DElt(k, v)
		}
		return out, nil

	case TypeLambda:
		seq, ok := data.(Sequence)
		if !ok {
			return nil, InvalidType("expected a lambda body sequence, got %T", data)
		}
		return prepackLambdaBody(seq)

	case TypePair:
		if len(schemaPrim.Args) != 2 {
			return nil, InvalidType("pair schema requires exactly two type arguments")
		}
		p, ok := normalizeOne(data).(Prim)
		if !ok || p.Code != PrimPair || len(p.Args) != 2 {
			return nil, InvalidType("expected a Pair for pair schema, got %T", data)
		}
		left, err := prepack(p.Args[0], schemaPrim.Args[0])
		if err != nil {
			return nil, err
		}
		right, err := prepack(p.Args[1], schemaPrim.Args[1])
		if err != nil {
			return nil, err
		}
		return DPair(left, right), nil

	case TypeOption:
		if len(schemaPrim.Args) != 1 {
			return nil, InvalidType("option schema requires exactly one type argument")
		}
		p, ok := data.(Prim)
		if !ok {
			return nil, InvalidType("expected Some/None for option schema, got %T", data)
		}
		switch p.Code {
		case PrimSome:
			if len(p.Args) != 1 {
				return nil, InvalidType("Some takes exactly one argument")
			}
			inner, err := prepack(p.Args[0], schemaPrim.Args[0])
			if err != nil {
				return nil, err
			}
			return DSome(inner), nil
		case PrimNone:
			return p, nil
		default:
			return nil, InvalidType("expected Some or None for option schema, got %s", p.Code)
		}

	case TypeOr:
		if len(schemaPrim.Args) != 2 {
			return nil, InvalidType("or schema requires exactly two type arguments")
		}
		p, ok := data.(Prim)
		if !ok {
			return nil, InvalidType("expected Left/Right for or schema, got %T", data)
		}
		switch p.Code {
		case PrimLeft:
			if len(p.Args) != 1 {
				return nil, InvalidType("Left takes exactly one argument")
			}
			inner, err := prepack(p.Args[0], schemaPrim.Args[0])
			if err != nil {
				return nil, err
			}
			return DLeft(inner), nil
		case PrimRight:
			if len(p.Args) != 1 {
				return nil, InvalidType("Right takes exactly one argument")
			}
			inner, err := prepack(p.Args[0], schemaPrim.Args[1])
			if err != nil {
				return nil, err
			}
			return DRight(inner), nil
		default:
			return nil, InvalidType("expected Left or Right for or schema, got %s", p.Code)
		}

	case TypeChainID:
		return rewriteString(data, encodeChainID)
	case TypeSignature:
		return rewriteString(data, encodeSignature)
	case TypeKeyHash:
		return rewriteString(data, func(s string) ([]byte, error) { return encodeAddress(s, true) })
	case TypeKey:
		return rewriteString(data, encodePublicKey)
	case TypeAddress, TypeContract:
		return rewriteString(data, encodeContract)
	case TypeTimestamp:
		if s, ok := data.(String); ok {
			t, err := encodeTimestamp(string(s))
			if err != nil {
				return nil, err
			}
			return NewInt(t), nil
		}
		return data, nil

	default:
		return data, nil
	}
}

// rewriteString replaces a String literal with the Bytes produced by enc,
// leaving any other node untouched (it may already have been pre-packed).
func rewriteString(data Expr, enc func(string) ([]byte, error)) (Expr, error) {
	s, ok := data.(String)
	if !ok {
		return data, nil
	}
	b, err := enc(string(s))
	if err != nil {
		return nil, err
	}
	return Bytes(b), nil
}

// prepackLambdaBody rewrites every instruction in a lambda body, descending
// into the nested instruction blocks that themselves carry lambda bodies or
// typed data (Dip, If*, Lambda, Loop*, Map, Iter, Push). Nested sequences
// are themselves lambda bodies; a bare literal in instruction position is a
// shape error.
func prepackLambdaBody(body Sequence) (Sequence, error) {
	out := make(Sequence, len(body))
	for i, instr := range body {
		switch v := instr.(type) {
		case Prim:
			rewritten, err := prepackInstruction(v)
			if err != nil {
				return nil, err
			}
			out[i] = rewritten
		case Sequence:
			rewritten, err := prepackLambdaBody(v)
			if err != nil {
				return nil, err
			}
			out[i] = rewritten
		default:
			return nil, InvalidType("unexpected %T in a lambda instruction sequence", instr)
		}
	}
	return out, nil
}

func prepackInstruction(p Prim) (Expr, error) {
	p.Args = append([]Expr(nil), p.Args...)

	rewriteBodyAt := func(idx int) error {
		body, ok := p.Args[idx].(Sequence)
		if !ok {
			return InvalidType("expected a nested instruction sequence as argument %d of %s", idx, p.Code)
		}
		rewritten, err := prepackLambdaBody(body)
		if err != nil {
			return err
		}
		p.Args[idx] = rewritten
		return nil
	}

	switch p.Code {
	case InstrDip:
		if len(p.Args) == 0 {
			return p, nil
		}
		if err := rewriteBodyAt(len(p.Args) - 1); err != nil {
			return nil, err
		}
	case InstrIf, InstrIfCons, InstrIfLeft, InstrIfNone:
		if len(p.Args) != 2 {
			return nil, InvalidType("%s requires exactly two branch arguments", p.Code)
		}
		if err := rewriteBodyAt(0); err != nil {
			return nil, err
		}
		if err := rewriteBodyAt(1); err != nil {
			return nil, err
		}
	case InstrLambda:
		if len(p.Args) != 3 {
			return nil, InvalidType("LAMBDA requires exactly three arguments")
		}
		if err := rewriteBodyAt(2); err != nil {
			return nil, err
		}
	case InstrLoop, InstrLoopLeft, InstrMap, InstrIter:
		if len(p.Args) != 1 {
			return nil, InvalidType("%s requires exactly one body argument", p.Code)
		}
		if err := rewriteBodyAt(0); err != nil {
			return nil, err
		}
	case InstrPush:
		if len(p.Args) != 2 {
			return nil, InvalidType("PUSH requires exactly a type and a data argument")
		}
		rewrittenData, err := prepack(p.Args[1], p.Args[0])
		if err != nil {
			return nil, err
		}
		p.Args[1] = rewrittenData
	}

	return p, nil
}
