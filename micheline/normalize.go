package micheline

// normalize rewrites every Pair node (data constructor or Pair type) with
// more than two arguments into a right-associated binary tree:
// Pair(a, b, c, …) → Pair(a, Pair(b, c, …)). It never mutates e; it returns
// a rewritten copy.
func normalize(e Expr) Expr {
	switch v := e.(type) {
	case Prim:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = normalize(a)
		}
		v.Args = args
		if (v.Code == PrimPair || v.Code == TypePair) && len(v.Args) > 2 {
			return rightFoldPair(v.Code, v.Annots, v.Args)
		}
		return v
	case Sequence:
		out := make(Sequence, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	default:
		return e
	}
}

// normalizeOne applies the same right-associated rewrite to a single Pair
// node without recursing into the rest of the tree. Used by the pack
// engine when it encounters a data-side Pair with more arguments than its
// (already-binary) schema expects.
func normalizeOne(e Expr) Expr {
	p, ok := e.(Prim)
	if !ok {
		return e
	}
	if (p.Code == PrimPair || p.Code == TypePair) && len(p.Args) > 2 {
		return rightFoldPair(p.Code, p.Annots, p.Args)
	}
	return p
}

func rightFoldPair(code Primitive, annots []string, args []Expr) Expr {
	if len(args) == 2 {
		return Prim{Code: code, Args: args, Annots: annots}
	}
	return Prim{Code: code, Args: []Expr{args[0], rightFoldPair(code, nil, args[1:])}}
}
