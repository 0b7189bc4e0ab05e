package micheline

import "golang.org/x/xerrors"

// Kind classifies a codec-level error so callers above the codec boundary
// can map it without parsing error strings.
type Kind int

// Error kinds emitted by the Micheline codec and pack engine. The service
// layer above this package wraps these into its own API error taxonomy.
const (
	KindUnknown Kind = iota
	KindInvalidType
	KindInvalidValue
	KindHexDecodingFailure
	KindHashFailure
	KindParsingFailure
	KindInvalidPublicKey
	KindInvalidSignature
	KindInvalidArgument
	KindInvalidIndex
	KindNetworkFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidType:
		return "InvalidType"
	case KindInvalidValue:
		return "InvalidValue"
	case KindHexDecodingFailure:
		return "HexDecodingFailure"
	case KindHashFailure:
		return "HashFailure"
	case KindParsingFailure:
		return "ParsingFailure"
	case KindInvalidPublicKey:
		return "InvalidPublicKey"
	case KindInvalidSignature:
		return "InvalidSignature"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidIndex:
		return "InvalidIndex"
	case KindNetworkFailure:
		return "NetworkFailure"
	default:
		return "Unknown"
	}
}

// Error is a codec-level error tagged with a Kind, so that it survives
// wrapping with %w up through the service layer.
type Error struct {
	Kind    Kind
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.wrapped.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: xerrors.Errorf(format, args...).Error()}
}

func wrapErr(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: xerrors.Errorf(format, args...).Error(), wrapped: err}
}

// InvalidType reports a schema/data shape mismatch during normalization or
// pre-packing.
func InvalidType(format string, args ...interface{}) error {
	return newErr(KindInvalidType, format, args...)
}

// InvalidValue reports a literal whose textual form does not satisfy the
// validation rules of its target type.
func InvalidValue(format string, args ...interface{}) error {
	return newErr(KindInvalidValue, format, args...)
}

// HexDecodingFailure reports malformed hex input to the Micheline codec.
func HexDecodingFailure(err error, format string, args ...interface{}) error {
	return wrapErr(KindHexDecodingFailure, err, format, args...)
}

// ParsingFailure reports a structurally malformed packed byte stream.
func ParsingFailure(format string, args ...interface{}) error {
	return newErr(KindParsingFailure, format, args...)
}

// InvalidArgument reports a malformed caller-supplied argument.
func InvalidArgument(format string, args ...interface{}) error {
	return newErr(KindInvalidArgument, format, args...)
}

// InvalidIndex reports an out-of-range index into a frame's declared length.
func InvalidIndex(format string, args ...interface{}) error {
	return newErr(KindInvalidIndex, format, args...)
}

// InvalidPublicKey reports a public key that fails to base58check-decode or
// does not match any supported curve.
func InvalidPublicKey(format string, args ...interface{}) error {
	return newErr(KindInvalidPublicKey, format, args...)
}

// InvalidSignature reports a signature that fails to base58check-decode or
// fails detached verification.
func InvalidSignature(format string, args ...interface{}) error {
	return newErr(KindInvalidSignature, format, args...)
}

// HashFailure reports a hashing primitive (e.g. blake2b) rejecting its
// input or configuration.
func HashFailure(format string, args ...interface{}) error {
	return newErr(KindHashFailure, format, args...)
}

// NetworkFailure reports a transport-level error talking to a Tezos node:
// timeout, connection refused, or a non-2xx response.
func NetworkFailure(format string, args ...interface{}) error {
	return newErr(KindNetworkFailure, format, args...)
}
