package micheline

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// Frame prefix bytes. Reference: the canonical Micheline packed-byte wire
// format used by the Tezos protocol.
const (
	framePrimNoArgsNoAnnots  = 0x03
	framePrimNoArgsAnnots    = 0x04
	framePrim1ArgNoAnnots    = 0x05
	framePrim1ArgAnnots      = 0x06
	framePrim2ArgsNoAnnots   = 0x07
	framePrim2ArgsAnnots     = 0x08
	framePrimNArgsAnnots     = 0x09
	frameInt                 = 0x00
	frameString              = 0x01
	frameSequence            = 0x02
	frameBytes               = 0x0a
)

// Encode renders e as its canonical packed byte form.
func Encode(e Expr) []byte {
	switch v := e.(type) {
	case Int:
		return append([]byte{frameInt}, encodeZint(v.Value)...)
	case String:
		return encodeLengthPrefixed(frameString, []byte(v))
	case Bytes:
		return encodeLengthPrefixed(frameBytes, []byte(v))
	case Sequence:
		var body []byte
		for _, item := range v {
			body = append(body, Encode(item)...)
		}
		return encodeLengthPrefixed(frameSequence, body)
	case Prim:
		return encodePrim(v)
	default:
		panic("micheline: unknown expression type")
	}
}

func encodeLengthPrefixed(frame byte, payload []byte) []byte {
	out := make([]byte, 0, 5+len(payload))
	out = append(out, frame)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(payload)))
	out = append(out, lenBuf...)
	out = append(out, payload...)
	return out
}

func framePrefix(argsCount int, hasAnnots bool) byte {
	p := 2*argsCount + 3
	if hasAnnots {
		p++
	}
	if p > 9 {
		p = 9
	}
	return byte(p)
}

func encodePrim(p Prim) []byte {
	prefix := framePrefix(p.argsCount(), p.hasAnnots())

	var out []byte
	out = append(out, prefix)
	out = append(out, byte(p.Code))

	var argsBytes []byte
	for _, arg := range p.Args {
		argsBytes = append(argsBytes, Encode(arg)...)
	}

	if prefix == framePrimNArgsAnnots {
		lenBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lenBuf, uint32(len(argsBytes)))
		out = append(out, lenBuf...)
		out = append(out, argsBytes...)
	} else {
		out = append(out, argsBytes...)
	}

	switch prefix {
	case framePrimNoArgsAnnots, framePrim1ArgAnnots, framePrim2ArgsAnnots, framePrimNArgsAnnots:
		annotsBytes := []byte(strings.Join(p.Annots, " "))
		lenBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lenBuf, uint32(len(annotsBytes)))
		out = append(out, lenBuf...)
		out = append(out, annotsBytes...)
	}

	return out
}

// EncodeHex renders e as a lowercase hex string of its canonical packed
// byte form.
func EncodeHex(e Expr) string {
	return hex.EncodeToString(Encode(e))
}

// Decode parses data as a single canonical packed-byte Micheline frame. It
// returns an error if trailing bytes remain.
func Decode(data []byte) (Expr, error) {
	e, consumed, err := decodeOne(data)
	if err != nil {
		return nil, err
	}
	if consumed != len(data) {
		return nil, ParsingFailure("trailing bytes after decoding micheline expression: %d of %d consumed", consumed, len(data))
	}
	return e, nil
}

// DecodeHex is Decode over a hex-encoded string.
func DecodeHex(s string) (Expr, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, HexDecodingFailure(err, "failed to hex-decode micheline expression")
	}
	return Decode(data)
}

func decodeOne(data []byte) (Expr, int, error) {
	if len(data) < 1 {
		return nil, 0, ParsingFailure("empty input for micheline frame")
	}
	frame := data[0]
	switch frame {
	case frameInt:
		v, n, err := decodeZint(data[1:])
		if err != nil {
			return nil, 0, err
		}
		return Int{Value: v}, 1 + n, nil
	case frameString:
		payload, n, err := decodeLengthPrefixed(data[1:])
		if err != nil {
			return nil, 0, err
		}
		return String(payload), 1 + n, nil
	case frameBytes:
		payload, n, err := decodeLengthPrefixed(data[1:])
		if err != nil {
			return nil, 0, err
		}
		return Bytes(payload), 1 + n, nil
	case frameSequence:
		payload, n, err := decodeLengthPrefixed(data[1:])
		if err != nil {
			return nil, 0, err
		}
		var items Sequence
		rest := payload
		for len(rest) > 0 {
			item, consumed, err := decodeOne(rest)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, item)
			rest = rest[consumed:]
		}
		return items, 1 + n, nil
	case framePrimNoArgsNoAnnots, framePrimNoArgsAnnots, framePrim1ArgNoAnnots,
		framePrim1ArgAnnots, framePrim2ArgsNoAnnots, framePrim2ArgsAnnots, framePrimNArgsAnnots:
		return decodePrim(frame, data)
	default:
		return nil, 0, ParsingFailure("unrecognized micheline frame byte %#x", frame)
	}
}

func decodeLengthPrefixed(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, ParsingFailure("too few bytes for length prefix")
	}
	length := int(binary.BigEndian.Uint32(data[:4]))
	if len(data) < 4+length {
		return nil, 0, ParsingFailure("declared length %d exceeds remaining bytes %d", length, len(data)-4)
	}
	return data[4 : 4+length], 4 + length, nil
}

func decodePrim(frame byte, data []byte) (Expr, int, error) {
	if len(data) < 2 {
		return nil, 0, ParsingFailure("too few bytes for primitive frame")
	}
	code := Primitive(data[1])
	pos := 2

	var argsCount int
	switch frame {
	case framePrimNoArgsNoAnnots, framePrimNoArgsAnnots:
		argsCount = 0
	case framePrim1ArgNoAnnots, framePrim1ArgAnnots:
		argsCount = 1
	case framePrim2ArgsNoAnnots, framePrim2ArgsAnnots:
		argsCount = 2
	}

	var args []Expr
	if frame == framePrimNArgsAnnots {
		argsBlock, n, err := decodeLengthPrefixed(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n
		rest := argsBlock
		for len(rest) > 0 {
			arg, consumed, err := decodeOne(rest)
			if err != nil {
				return nil, 0, err
			}
			args = append(args, arg)
			rest = rest[consumed:]
		}
	} else {
		for i := 0; i < argsCount; i++ {
			arg, consumed, err := decodeOne(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			args = append(args, arg)
			pos += consumed
		}
	}

	var annots []string
	switch frame {
	case framePrimNoArgsAnnots, framePrim1ArgAnnots, framePrim2ArgsAnnots, framePrimNArgsAnnots:
		annotsBytes, n, err := decodeLengthPrefixed(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n
		if len(annotsBytes) > 0 {
			annots = strings.Split(string(annotsBytes), " ")
		}
	}

	return Prim{Code: code, Args: args, Annots: annots}, pos, nil
}
