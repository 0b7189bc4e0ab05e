package micheline

// Pack renders data as its canonical "05"-prefixed packed byte string
// against schema: the signing input multisig contracts expect. schema is a
// Micheline type expression; data is pre-packed according to it before the
// hex codec runs.
func Pack(data, schema Expr) (string, error) {
	rewritten, err := prepack(data, normalize(schema))
	if err != nil {
		return "", err
	}
	return "05" + EncodeHex(rewritten), nil
}
